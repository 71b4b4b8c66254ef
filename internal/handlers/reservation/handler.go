package reservation

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"roomres/infras/otel"
	"roomres/internal/domains/reservation/model"
	"roomres/internal/domains/reservation/model/dto"
	"roomres/internal/domains/reservation/service"
	"roomres/shared/constant"
	gDto "roomres/shared/dto"
	"roomres/shared/failure"
	"roomres/shared/validator"
	"roomres/transport/http/response"
)

type Handler struct {
	service service.Reservation
	otel    otel.Otel
}

func New(service service.Reservation, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/reservations", func(routerGroup chi.Router) {
		routerGroup.Post("/confirm-reservation", handler.ConfirmReservation)
		routerGroup.Get("/", handler.GetReservations)
		routerGroup.Get("/{id}", handler.GetReservationByID)
		routerGroup.Post("/sweep", handler.SweepReservations)
	})
}

// ConfirmReservation books a room for the requested dates.
// @Summary Confirm a reservation
// @Description Validate the stay, process the payment for the chosen mode and book the room.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param request body dto.CreateReservationRequest true "Confirm Reservation Request"
// @Success 201 {object} dto.ConfirmReservationResponse "Reservation booked"
// @Failure 400 {object} response.Error
// @Failure 402 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Failure 502 {object} response.Error
// @Failure 504 {object} response.Error
// @Router /v1/reservations/confirm-reservation [post]
func (handler *Handler) ConfirmReservation(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ConfirmReservation")
	defer scope.End()

	req := dto.CreateReservationRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	res, err := handler.service.Confirm(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to confirm reservation")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Reservation confirmed successfully")

	response.WithJSON(writer, http.StatusCreated, res)
}

// GetReservations retrieves reservations with optional filters.
// @Summary Get all reservations
// @Description Retrieve reservations with optional filtering and pagination.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param room_number query string false "Filter by room number"
// @Param status query string false "Filter by status (PENDING_PAYMENT, CONFIRMED, CANCELLED)"
// @Param payment_mode query string false "Filter by payment mode (CASH, CREDIT_CARD, BANK_TRANSFER)"
// @Success 200 {object} dto.GetReservationsResponse "List of reservations"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/reservations [get]
func (handler *Handler) GetReservations(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetReservations")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	roomNumber := r.URL.Query().Get(model.FieldRoomNumber)
	status := r.URL.Query().Get(model.FieldStatus)
	paymentMode := r.URL.Query().Get(model.FieldPaymentMode)

	filterGroup := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters:  []any{},
	}

	if roomNumber != "" {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldRoomNumber,
			Operator: gDto.FilterOperatorEq,
			Value:    roomNumber,
			Table:    model.TableName,
		})
	}

	if status != "" {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldStatus,
			Operator: gDto.FilterOperatorEq,
			Value:    status,
			Table:    model.TableName,
		})
	}

	if paymentMode != "" {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldPaymentMode,
			Operator: gDto.FilterOperatorEq,
			Value:    paymentMode,
			Table:    model.TableName,
		})
	}

	reservations, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get reservations")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Reservations retrieved successfully")

	response.WithJSON(w, http.StatusOK, reservations)
}

// GetReservationByID retrieves a single reservation.
// @Summary Get a reservation by ID
// @Description Retrieve one reservation by its identifier.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param id path int true "Reservation ID"
// @Success 200 {object} dto.ReservationResponse "Reservation"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/reservations/{id} [get]
func (handler *Handler) GetReservationByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetReservationByID")
	defer scope.End()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		scope.TraceError(err)

		response.WithError(w, failure.BadRequestFromString("reservation id must be an integer"))

		return
	}

	reservation, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Int64("id", id).Msg("failed to get reservation")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Reservation retrieved successfully")

	response.WithJSON(w, http.StatusOK, reservation)
}

// SweepReservations cancels overdue unpaid bank transfer reservations.
// @Summary Sweep unpaid reservations
// @Description Cancel unpaid bank transfer reservations past their payment grace period.
// @Tags Reservation
// @Accept json
// @Produce json
// @Success 200 {object} dto.SweepResponse "Sweep result"
// @Failure 500 {object} response.Error
// @Router /v1/reservations/sweep [post]
func (handler *Handler) SweepReservations(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".SweepReservations")
	defer scope.End()

	cancelled, err := handler.service.CancelPendingBankTransfers(ctx)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to sweep reservations")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Reservations swept successfully")

	response.WithJSON(w, http.StatusOK, dto.SweepResponse{Cancelled: cancelled > 0})
}
