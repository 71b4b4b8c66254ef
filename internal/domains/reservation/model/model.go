package model

import (
	"fmt"
	"roomres/shared/model"
	"time"
)

const (
	TableName  = "reservations"
	EntityName = "reservation"

	FieldID               = "id"
	FieldRoomNumber       = "room_number"
	FieldCustomerName     = "customer_name"
	FieldStartDate        = "start_date"
	FieldEndDate          = "end_date"
	FieldRoomSegment      = "room_segment"
	FieldPaymentMode      = "payment_mode"
	FieldPaymentReference = "payment_reference"
	FieldTotalAmount      = "total_amount"
	FieldStatus           = "status"
	FieldVersion          = "version"
)

// MaxReservationDays bounds the length of a single stay.
const MaxReservationDays = 30

type PaymentMode string

const (
	PaymentModeCash         PaymentMode = "CASH"
	PaymentModeCreditCard   PaymentMode = "CREDIT_CARD"
	PaymentModeBankTransfer PaymentMode = "BANK_TRANSFER"
)

type RoomSegment string

const (
	RoomSegmentSmall      RoomSegment = "SMALL"
	RoomSegmentMedium     RoomSegment = "MEDIUM"
	RoomSegmentLarge      RoomSegment = "LARGE"
	RoomSegmentExtraLarge RoomSegment = "EXTRA_LARGE"
)

type Status string

const (
	StatusPendingPayment Status = "PENDING_PAYMENT"
	StatusConfirmed      Status = "CONFIRMED"
	StatusCancelled      Status = "CANCELLED"
)

// Terminal reports whether no further transition is allowed from the status.
func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusCancelled
}

type Reservation struct {
	ID               int64       `db:"id"`
	RoomNumber       int         `db:"room_number"`
	CustomerName     string      `db:"customer_name"`
	StartDate        time.Time   `db:"start_date"`
	EndDate          time.Time   `db:"end_date"`
	RoomSegment      RoomSegment `db:"room_segment"`
	PaymentMode      PaymentMode `db:"payment_mode"`
	PaymentReference string      `db:"payment_reference"`
	TotalAmount      int64       `db:"total_amount"`
	Status           Status      `db:"status"`
	Version          int64       `db:"version"`
	model.Metadata
}

// SpanDays returns the length of the stay in whole calendar days over the
// half-open interval [StartDate, EndDate). Both ends are truncated to their
// calendar dates before counting, so a daylight saving transition inside the
// stay does not shorten the span.
func (r Reservation) SpanDays() int {
	start := time.Date(r.StartDate.Year(), r.StartDate.Month(), r.StartDate.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(r.EndDate.Year(), r.EndDate.Month(), r.EndDate.Day(), 0, 0, 0, 0, time.UTC)

	return int(end.Sub(start).Hours() / 24)
}

// WithStatus returns a copy of the reservation moved to the next status.
// Only the PENDING_PAYMENT -> CONFIRMED and PENDING_PAYMENT -> CANCELLED
// edges are allowed; terminal states never transition again.
func (r Reservation) WithStatus(next Status) (Reservation, error) {
	if r.Status != StatusPendingPayment || !next.Terminal() {
		return r, fmt.Errorf("illegal status transition %s -> %s", r.Status, next)
	}

	updated := r
	updated.Status = next

	return updated, nil
}
