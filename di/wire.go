//go:build wireinject
// +build wireinject

package di

import (
	"roomres/config"
	"roomres/infras/kafka"
	"roomres/infras/otel"
	"roomres/infras/paymentgw"
	"roomres/infras/postgres"
	"roomres/infras/redis"
	"roomres/internal/domains/payment"
	"roomres/internal/domains/reservation/listener"
	"roomres/internal/domains/reservation/scheduler"
	"roomres/shared/cache"
	"roomres/transport/http"
	"roomres/transport/http/middleware"
	"roomres/transport/http/router"

	reservationRepository "roomres/internal/domains/reservation/repository"
	reservationService "roomres/internal/domains/reservation/service"

	"github.com/google/wire"

	healthHandler "roomres/internal/handlers/health"
	reservationHandler "roomres/internal/handlers/reservation"
)

var configurations = wire.NewSet(
	config.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	kafka.New,
	paymentgw.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var reservationDomain = wire.NewSet(
	reservationRepository.New,
	payment.NewSelector,
	reservationService.New,
	listener.New,
	scheduler.New,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	healthHandler.New,
	reservationHandler.New,
	router.New,
)

func InitializeApp() *App {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		reservationDomain,
		routing,
		http.New,
		wire.Struct(new(App), "*"),
	)

	return &App{}
}
