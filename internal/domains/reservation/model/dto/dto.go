package dto

import (
	"fmt"
	"strconv"
	"strings"

	"roomres/internal/domains/reservation/model"
	"roomres/shared"
	gDto "roomres/shared/dto"
	gModel "roomres/shared/model"
	"roomres/shared/timezone"
)

const dateLayout = "2006-01-02"

type CreateReservationRequest struct {
	RoomNumber       int    `json:"room_number"       validate:"required,min=1"`
	CustomerName     string `json:"customer_name"     validate:"required,max=100"`
	StartDate        string `json:"start_date"        validate:"required"`
	EndDate          string `json:"end_date"          validate:"required"`
	RoomSegment      string `json:"room_segment"      validate:"required,oneof=SMALL MEDIUM LARGE EXTRA_LARGE"`
	PaymentMode      string `json:"payment_mode"      validate:"required,oneof=CASH CREDIT_CARD BANK_TRANSFER"`
	PaymentReference string `json:"payment_reference" validate:"omitempty,max=100"`
	TotalAmount      int64  `json:"total_amount"      validate:"min=0"`
}

// ToModel builds a draft reservation with no status assigned; the payment
// strategy decides the initial status. Dates are calendar dates in the
// application timezone and must form a non-empty, non-past range.
func (c *CreateReservationRequest) ToModel() (model.Reservation, error) {
	startDate, err := timezone.Parse(dateLayout, c.StartDate)
	if err != nil {
		return model.Reservation{}, fmt.Errorf("invalid start date: %w", err)
	}

	endDate, err := timezone.Parse(dateLayout, c.EndDate)
	if err != nil {
		return model.Reservation{}, fmt.Errorf("invalid end date: %w", err)
	}

	if !endDate.After(startDate) {
		return model.Reservation{}, fmt.Errorf("end date %s must be after start date %s", c.EndDate, c.StartDate)
	}

	today := timezone.Today()
	if startDate.Before(today) {
		return model.Reservation{}, fmt.Errorf("start date %s cannot be in the past", c.StartDate)
	}

	return model.Reservation{
		RoomNumber:       c.RoomNumber,
		CustomerName:     c.CustomerName,
		StartDate:        startDate,
		EndDate:          endDate,
		RoomSegment:      model.RoomSegment(c.RoomSegment),
		PaymentMode:      model.PaymentMode(c.PaymentMode),
		PaymentReference: c.PaymentReference,
		TotalAmount:      c.TotalAmount,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
		},
	}, nil
}

type ConfirmReservationResponse struct {
	ReservationID     int64        `json:"reservation_id"`
	ReservationStatus model.Status `json:"reservation_status"`
}

type ReservationResponse struct {
	ID               int64  `json:"id"`
	RoomNumber       int    `json:"room_number"`
	CustomerName     string `json:"customer_name"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	RoomSegment      string `json:"room_segment"`
	PaymentMode      string `json:"payment_mode"`
	PaymentReference string `json:"payment_reference,omitempty"`
	TotalAmount      int64  `json:"total_amount"`
	Status           string `json:"status"`
	gDto.Metadata
}

func (r *ReservationResponse) FromModel(model model.Reservation) {
	r.ID = model.ID
	r.RoomNumber = model.RoomNumber
	r.CustomerName = model.CustomerName
	r.StartDate = model.StartDate.Format(dateLayout)
	r.EndDate = model.EndDate.Format(dateLayout)
	r.RoomSegment = string(model.RoomSegment)
	r.PaymentMode = string(model.PaymentMode)
	r.PaymentReference = model.PaymentReference
	r.TotalAmount = model.TotalAmount
	r.Status = string(model.Status)
	r.Metadata.FromModel(model.Metadata)
}

type GetReservationsResponse struct {
	Reservations []ReservationResponse `json:"reservations"`
	TotalPage    int                   `json:"total_page"`
	TotalData    int                   `json:"total_data"`
}

func (r *GetReservationsResponse) FromModels(models []model.Reservation, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Reservations = make([]ReservationResponse, len(models))
	for i, mod := range models {
		r.Reservations[i].FromModel(mod)
	}
}

type SweepResponse struct {
	Cancelled bool `json:"cancelled"`
}

// BankTransferPaymentEvent is the settlement notification delivered over the
// message broker. Delivery is at-least-once; the reconciler's idempotency
// guard makes redelivery safe.
type BankTransferPaymentEvent struct {
	Attribute              string `json:"attribute"`
	PaymentID              int64  `json:"payment_id"`
	DebtorAccountNumber    int64  `json:"debtor_account_number"`
	AmountReceived         int64  `json:"amount_received"`
	TransactionDescription string `json:"transaction_description"`
}

// ReservationID extracts the reservation identifier from the transaction
// description. The convention is fixed but the marker letter is configurable:
// the second whitespace-separated token must be <marker><digits>, e.g.
// "1401541457 P4145478" encodes reservation 4145478 for marker "P".
// A description with fewer than two tokens, a second token that does not
// match, or more than one token matching the convention is malformed.
func (e *BankTransferPaymentEvent) ReservationID(marker string) (int64, error) {
	parts := strings.Fields(e.TransactionDescription)
	if len(parts) < 2 {
		return 0, fmt.Errorf("transaction description %q has too few tokens", e.TransactionDescription)
	}

	matches := 0

	for _, part := range parts {
		if encodesID(part, marker) {
			matches++
		}
	}

	if matches > 1 {
		return 0, fmt.Errorf("transaction description %q is ambiguous: %d tokens match %s<digits>", e.TransactionDescription, matches, marker)
	}

	if !encodesID(parts[1], marker) {
		return 0, fmt.Errorf("transaction description %q does not encode a reservation id", e.TransactionDescription)
	}

	id, err := strconv.ParseInt(strings.TrimPrefix(parts[1], marker), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid reservation id in transaction description %q: %w", e.TransactionDescription, err)
	}

	return id, nil
}

func encodesID(token, marker string) bool {
	if !strings.HasPrefix(token, marker) {
		return false
	}

	digits := strings.TrimPrefix(token, marker)
	if digits == "" {
		return false
	}

	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
