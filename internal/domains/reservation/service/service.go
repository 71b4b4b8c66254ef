package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"roomres/config"
	"roomres/infras/otel"
	"roomres/internal/domains/payment"
	"roomres/internal/domains/reservation/model"
	"roomres/internal/domains/reservation/model/dto"
	"roomres/internal/domains/reservation/repository"
	"roomres/shared"
	"roomres/shared/cache"
	"roomres/shared/constant"
	gDto "roomres/shared/dto"
	"roomres/shared/failure"
	"roomres/shared/timezone"
)

const (
	cacheGetReservation    = "reservation:get"
	cacheGetAllReservation = "reservation:gets"
	cacheCountReservation  = "reservation:count"
)

// settlementRetries bounds how often a settlement re-reads after losing a
// version race before giving up and letting redelivery try again.
const settlementRetries = 3

type Reservation interface {
	Confirm(ctx context.Context, req dto.CreateReservationRequest) (dto.ConfirmReservationResponse, error)
	Get(ctx context.Context, id int64) (dto.ReservationResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetReservationsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	HandleBankTransferPayment(ctx context.Context, event dto.BankTransferPaymentEvent) (bool, error)
	CancelPendingBankTransfers(ctx context.Context) (int64, error)
}

type serviceImpl struct {
	repo     repository.Reservation
	selector *payment.Selector
	cfg      *config.Config
	cache    cache.RedisCache
	otel     otel.Otel
}

func New(repo repository.Reservation, selector *payment.Selector, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) Reservation {
	return &serviceImpl{
		repo:     repo,
		selector: selector,
		cfg:      cfg,
		cache:    cache,
		otel:     otel,
	}
}

// Confirm validates the requested stay, runs the payment strategy for the
// chosen mode and persists the reservation atomically. Nothing is stored when
// any step fails, so a declined payment leaves the room available.
func (s *serviceImpl) Confirm(ctx context.Context, req dto.CreateReservationRequest) (res dto.ConfirmReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Confirm")
	defer scope.End()
	defer scope.TraceIfError(err)

	reservation, err := req.ToModel()
	if err != nil {
		log.Warn().Err(err).Msg("rejected reservation request")

		return res, failure.BadRequestFromString(err.Error()) // nolint:wrapcheck
	}

	if reservation.SpanDays() > model.MaxReservationDays {
		return res, failure.BadRequestFromString(fmt.Sprintf("reservation cannot span more than %d days", model.MaxReservationDays)) // nolint:wrapcheck
	}

	occupied, err := s.repo.ExistsOverlapping(ctx,
		reservation.RoomNumber,
		reservation.StartDate.Format(constant.DateOnlyFormat),
		reservation.EndDate.Format(constant.DateOnlyFormat),
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to check room availability")

		return res, fmt.Errorf("failed to check room availability: %w", err)
	}

	if occupied {
		return res, failure.Conflict("room is already reserved for the requested dates") // nolint:wrapcheck
	}

	strategy, err := s.selector.For(reservation.PaymentMode)
	if err != nil {
		return res, err
	}

	status, err := strategy.ProcessPayment(ctx, reservation)
	if err != nil {
		return res, err
	}

	reservation.Status = status

	created, err := s.repo.CreateBooked(ctx, reservation)
	if err != nil {
		if errors.Is(err, repository.ErrRoomOccupied) {
			return res, failure.Conflict("room is already reserved for the requested dates") // nolint:wrapcheck
		}

		log.Error().Err(err).Msg("failed to create reservation")

		return res, fmt.Errorf("failed to create reservation: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllReservation)
		shared.InvalidateCaches(c, s.cache, cacheCountReservation)
	}()

	return dto.ConfirmReservationResponse{
		ReservationID:     created.ID,
		ReservationStatus: created.Status,
	}, nil
}

func (s *serviceImpl) Get(ctx context.Context, id int64) (res dto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetReservation, fmt.Sprintf("%d", id))

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for reservation")

		return res, nil
	}

	reservation, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservation")

		return res, fmt.Errorf("failed to get reservation: %w", err)
	}

	if reservation.ID == 0 {
		return res, failure.NotFound("reservation not found") // nolint:wrapcheck
	}

	res.FromModel(reservation)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save reservation to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetReservationsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllReservation, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for reservations")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count reservations")

		return res, fmt.Errorf("failed to count reservations: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservations")

		return res, fmt.Errorf("failed to get reservations: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save reservations to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountReservation, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for reservation count")

		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count reservations")

		return res, fmt.Errorf("failed to count reservations: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save reservation count to cache")
		}
	}()

	return res, nil
}

// HandleBankTransferPayment reconciles one settlement notification against its
// reservation. It returns true only when the reservation ends up in a terminal
// status because of this or an earlier delivery of the same payment, so
// redelivered events are acknowledged without effect. Malformed descriptions,
// unknown reservations and amount mismatches are logged and acknowledged as
// unprocessed rather than retried, since retrying cannot fix them.
func (s *serviceImpl) HandleBankTransferPayment(ctx context.Context, event dto.BankTransferPaymentEvent) (processed bool, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".HandleBankTransferPayment")
	defer scope.End()
	defer scope.TraceIfError(err)

	id, err := event.ReservationID(s.cfg.Settlement.Marker)
	if err != nil {
		log.Warn().
			Err(err).
			Int64("payment_id", event.PaymentID).
			Str("transaction_description", event.TransactionDescription).
			Msg("discarding malformed settlement event")

		return false, nil
	}

	for attempt := 0; attempt < settlementRetries; attempt++ {
		reservation, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
		if err != nil {
			log.Error().Err(err).Int64("reservation_id", id).Msg("failed to load reservation for settlement")

			return false, fmt.Errorf("failed to load reservation for settlement: %w", err)
		}

		if reservation.ID == 0 {
			log.Warn().Int64("reservation_id", id).Int64("payment_id", event.PaymentID).Msg("settlement references unknown reservation")

			return false, nil
		}

		if reservation.Status.Terminal() {
			log.Info().
				Int64("reservation_id", id).
				Str("status", string(reservation.Status)).
				Msg("settlement already reconciled")

			return true, nil
		}

		if reservation.PaymentMode != model.PaymentModeBankTransfer {
			log.Warn().Int64("reservation_id", id).Msg("settlement references a non bank transfer reservation")

			return false, nil
		}

		if event.AmountReceived != reservation.TotalAmount {
			log.Warn().
				Int64("reservation_id", id).
				Int64("amount_received", event.AmountReceived).
				Int64("total_amount", reservation.TotalAmount).
				Msg("settlement amount does not match reservation total")

			return false, nil
		}

		confirmed, err := reservation.WithStatus(model.StatusConfirmed)
		if err != nil {
			log.Error().Err(err).Int64("reservation_id", id).Msg("refusing illegal settlement transition")

			return false, fmt.Errorf("refusing illegal settlement transition: %w", err)
		}

		err = s.repo.UpdateStatus(ctx, reservation.ID, reservation.Version, confirmed.Status)
		if errors.Is(err, repository.ErrVersionConflict) {
			// Someone else moved the row; re-read and decide again.
			continue
		}

		if err != nil {
			log.Error().Err(err).Int64("reservation_id", id).Msg("failed to confirm reservation from settlement")

			return false, fmt.Errorf("failed to confirm reservation from settlement: %w", err)
		}

		log.Info().Int64("reservation_id", id).Int64("payment_id", event.PaymentID).Msg("reservation confirmed by bank transfer settlement")

		s.invalidateReservation(ctx, id)

		return true, nil
	}

	return false, fmt.Errorf("gave up confirming reservation %d after %d version conflicts", id, settlementRetries)
}

// CancelPendingBankTransfers cancels unpaid bank transfer reservations whose
// stay starts on or after today plus the configured grace period, and returns
// how many were cancelled.
func (s *serviceImpl) CancelPendingBankTransfers(ctx context.Context) (cancelled int64, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CancelPendingBankTransfers")
	defer scope.End()
	defer scope.TraceIfError(err)

	startFrom := timezone.Today().AddDate(0, 0, s.cfg.Sweep.GraceDays).Format(constant.DateOnlyFormat)

	cancelled, err = s.repo.CancelPendingBankTransfers(ctx, startFrom)
	if err != nil {
		log.Error().Err(err).Msg("failed to cancel pending bank transfer reservations")

		return 0, fmt.Errorf("failed to cancel pending bank transfer reservations: %w", err)
	}

	log.Info().Int64("cancelled", cancelled).Str("start_from", startFrom).Msg("swept unpaid bank transfer reservations")

	if cancelled > 0 {
		go func() {
			c := context.WithoutCancel(ctx)

			shared.InvalidateCaches(c, s.cache, cacheGetReservation)
			shared.InvalidateCaches(c, s.cache, cacheGetAllReservation)
			shared.InvalidateCaches(c, s.cache, cacheCountReservation)
		}()
	}

	return cancelled, nil
}

func (s *serviceImpl) invalidateReservation(ctx context.Context, id int64) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetReservation, fmt.Sprintf("%d", id))); err != nil {
			log.Error().Err(err).Msg("failed to invalidate reservation cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllReservation)
	}()
}
