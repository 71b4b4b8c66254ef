package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"roomres/internal/domains/reservation/model"
)

func TestReservation_SpanDays(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		want  int
	}{
		{
			name:  "single night",
			start: "2026-09-01",
			end:   "2026-09-02",
			want:  1,
		},
		{
			name:  "week long stay",
			start: "2026-09-01",
			end:   "2026-09-08",
			want:  7,
		},
		{
			name:  "maximum allowed span",
			start: "2026-09-01",
			end:   "2026-10-01",
			want:  30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, err := time.Parse("2006-01-02", tt.start)
			assert.NoError(t, err)

			end, err := time.Parse("2006-01-02", tt.end)
			assert.NoError(t, err)

			res := model.Reservation{StartDate: start, EndDate: end}

			assert.Equal(t, tt.want, res.SpanDays())
		})
	}
}

func TestReservation_SpanDays_DaylightSaving(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	assert.NoError(t, err)

	// March has a spring-forward transition, so the elapsed duration is one
	// hour short of 31 full days; the span is still 31 calendar days.
	res := model.Reservation{
		StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, loc),
		EndDate:   time.Date(2026, 4, 1, 0, 0, 0, 0, loc),
	}

	assert.Equal(t, 31, res.SpanDays())
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, model.StatusPendingPayment.Terminal())
	assert.True(t, model.StatusConfirmed.Terminal())
	assert.True(t, model.StatusCancelled.Terminal())
}

func TestReservation_WithStatus(t *testing.T) {
	tests := []struct {
		name    string
		from    model.Status
		to      model.Status
		wantErr bool
	}{
		{
			name: "pending to confirmed",
			from: model.StatusPendingPayment,
			to:   model.StatusConfirmed,
		},
		{
			name: "pending to cancelled",
			from: model.StatusPendingPayment,
			to:   model.StatusCancelled,
		},
		{
			name:    "confirmed never transitions",
			from:    model.StatusConfirmed,
			to:      model.StatusCancelled,
			wantErr: true,
		},
		{
			name:    "cancelled never transitions",
			from:    model.StatusCancelled,
			to:      model.StatusConfirmed,
			wantErr: true,
		},
		{
			name:    "pending to pending is not a transition",
			from:    model.StatusPendingPayment,
			to:      model.StatusPendingPayment,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := model.Reservation{Status: tt.from}

			updated, err := res.WithStatus(tt.to)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.from, updated.Status)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.to, updated.Status)
			}
		})
	}
}
