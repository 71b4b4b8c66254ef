package payment

//go:generate go run go.uber.org/mock/mockgen -source=./strategy.go -destination=./mocks/strategy_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"roomres/infras/otel"
	"roomres/infras/paymentgw"
	"roomres/internal/domains/reservation/model"
	"roomres/shared/constant"
	"roomres/shared/failure"
)

// Strategy decides the status a freshly validated reservation is created
// with, based on how the customer pays. Implementations must not persist
// anything; a returned error means the reservation is not created at all.
type Strategy interface {
	ProcessPayment(ctx context.Context, res model.Reservation) (model.Status, error)
}

// Selector resolves the strategy for a payment mode. The mapping is fixed at
// construction so an unsupported mode is caught before any side effects.
type Selector struct {
	strategies map[model.PaymentMode]Strategy
}

func NewSelector(gateway paymentgw.Gateway, otl otel.Otel) *Selector {
	return &Selector{
		strategies: map[model.PaymentMode]Strategy{
			model.PaymentModeCash:         &cashStrategy{},
			model.PaymentModeCreditCard:   &creditCardStrategy{gateway: gateway, otel: otl},
			model.PaymentModeBankTransfer: &bankTransferStrategy{},
		},
	}
}

func (s *Selector) For(mode model.PaymentMode) (Strategy, error) {
	strategy, ok := s.strategies[mode]
	if !ok {
		return nil, failure.BadRequestFromString(fmt.Sprintf("unsupported payment mode: %s", mode))
	}

	return strategy, nil
}

// cashStrategy settles at the desk, so the reservation is confirmed outright.
type cashStrategy struct{}

func (s *cashStrategy) ProcessPayment(_ context.Context, _ model.Reservation) (model.Status, error) {
	return model.StatusConfirmed, nil
}

// bankTransferStrategy books first and collects later; settlement events
// reconcile the payment asynchronously.
type bankTransferStrategy struct{}

func (s *bankTransferStrategy) ProcessPayment(_ context.Context, _ model.Reservation) (model.Status, error) {
	return model.StatusPendingPayment, nil
}

// creditCardStrategy verifies the charge synchronously with the payment
// gateway before the reservation may exist.
type creditCardStrategy struct {
	gateway paymentgw.Gateway
	otel    otel.Otel
}

func (s *creditCardStrategy) ProcessPayment(ctx context.Context, res model.Reservation) (model.Status, error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".payment.creditCard")
	defer scope.End()

	if res.PaymentReference == "" {
		return "", failure.BadRequestFromString("payment reference is required for credit card payments")
	}

	status, err := s.gateway.GetPaymentStatus(ctx, res.PaymentReference)
	if err != nil {
		scope.TraceError(err)

		switch {
		case errors.Is(err, paymentgw.ErrInvalidReference):
			return "", failure.BadRequestFromString("payment reference is invalid")
		case errors.Is(err, paymentgw.ErrReferenceNotFound):
			return "", failure.BadRequestFromString("payment reference is not known to the payment provider")
		case errors.Is(err, paymentgw.ErrServiceFailure):
			return "", failure.BadGateway("payment provider is currently failing")
		case errors.Is(err, paymentgw.ErrNoResponse):
			return "", failure.GatewayTimeout("payment provider did not respond")
		default:
			return "", fmt.Errorf("failed to verify payment: %w", err)
		}
	}

	if !status.Confirmed() {
		log.Warn().
			Str("payment_reference", res.PaymentReference).
			Str("gateway_status", status.Status).
			Msg("credit card payment not settled")

		return "", failure.PaymentRequired("credit card payment has not been confirmed")
	}

	return model.StatusConfirmed, nil
}
