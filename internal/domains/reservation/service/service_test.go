package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"roomres/config"
	"roomres/infras/otel/mocks"
	"roomres/infras/paymentgw"
	gwMocks "roomres/infras/paymentgw/mocks"
	"roomres/internal/domains/payment"
	resMocks "roomres/internal/domains/reservation/mocks"
	"roomres/internal/domains/reservation/model"
	"roomres/internal/domains/reservation/model/dto"
	"roomres/internal/domains/reservation/repository"
	"roomres/internal/domains/reservation/service"
	cacheMocks "roomres/shared/cache/mocks"
	"roomres/shared/constant"
	gDto "roomres/shared/dto"
	"roomres/shared/failure"
	"roomres/shared/timezone"
)

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Cache.TTL = 3600
	cfg.Settlement.Marker = "P"
	cfg.Sweep.GraceDays = 2

	return cfg
}

// waitAsync lets fire-and-forget cache goroutines finish before the mock
// controller checks expectations.
func waitAsync() {
	time.Sleep(20 * time.Millisecond)
}

func validRequest(paymentMode string) dto.CreateReservationRequest {
	start := timezone.Today().AddDate(0, 0, 7)

	return dto.CreateReservationRequest{
		RoomNumber:       101,
		CustomerName:     "Jane Smith",
		StartDate:        start.Format(constant.DateOnlyFormat),
		EndDate:          start.AddDate(0, 0, 3).Format(constant.DateOnlyFormat),
		RoomSegment:      "MEDIUM",
		PaymentMode:      paymentMode,
		PaymentReference: "ref-123",
		TotalAmount:      450000,
	}
}

func TestReservationService_Confirm(t *testing.T) {
	tests := []struct {
		name       string
		req        dto.CreateReservationRequest
		setupMock  func(repo *resMocks.MockReservation, gw *gwMocks.MockGateway, cache *cacheMocks.MockRedisCache)
		wantStatus model.Status
		wantCode   int
		wantErr    bool
	}{
		{
			name: "cash reservation confirmed immediately",
			req:  validRequest("CASH"),
			setupMock: func(repo *resMocks.MockReservation, gw *gwMocks.MockGateway, cache *cacheMocks.MockRedisCache) {
				repo.EXPECT().
					ExistsOverlapping(gomock.Any(), 101, gomock.Any(), gomock.Any()).
					Return(false, nil)
				repo.EXPECT().
					CreateBooked(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, res model.Reservation) (model.Reservation, error) {
						res.ID = 42

						return res, nil
					})
				cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
			},
			wantStatus: model.StatusConfirmed,
		},
		{
			name: "bank transfer reservation stays pending",
			req:  validRequest("BANK_TRANSFER"),
			setupMock: func(repo *resMocks.MockReservation, gw *gwMocks.MockGateway, cache *cacheMocks.MockRedisCache) {
				repo.EXPECT().
					ExistsOverlapping(gomock.Any(), 101, gomock.Any(), gomock.Any()).
					Return(false, nil)
				repo.EXPECT().
					CreateBooked(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, res model.Reservation) (model.Reservation, error) {
						res.ID = 43

						return res, nil
					})
				cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
			},
			wantStatus: model.StatusPendingPayment,
		},
		{
			name: "credit card reservation confirmed after gateway check",
			req:  validRequest("CREDIT_CARD"),
			setupMock: func(repo *resMocks.MockReservation, gw *gwMocks.MockGateway, cache *cacheMocks.MockRedisCache) {
				repo.EXPECT().
					ExistsOverlapping(gomock.Any(), 101, gomock.Any(), gomock.Any()).
					Return(false, nil)
				gw.EXPECT().
					GetPaymentStatus(gomock.Any(), "ref-123").
					Return(paymentgw.StatusResponse{Status: "CONFIRMED"}, nil)
				repo.EXPECT().
					CreateBooked(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, res model.Reservation) (model.Reservation, error) {
						res.ID = 44

						return res, nil
					})
				cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
			},
			wantStatus: model.StatusConfirmed,
		},
		{
			name: "declined credit card persists nothing",
			req:  validRequest("CREDIT_CARD"),
			setupMock: func(repo *resMocks.MockReservation, gw *gwMocks.MockGateway, cache *cacheMocks.MockRedisCache) {
				repo.EXPECT().
					ExistsOverlapping(gomock.Any(), 101, gomock.Any(), gomock.Any()).
					Return(false, nil)
				gw.EXPECT().
					GetPaymentStatus(gomock.Any(), "ref-123").
					Return(paymentgw.StatusResponse{Status: "DECLINED"}, nil)
			},
			wantErr:  true,
			wantCode: 402,
		},
		{
			name: "stay longer than thirty days",
			req: func() dto.CreateReservationRequest {
				req := validRequest("CASH")
				start := timezone.Today().AddDate(0, 0, 7)
				req.EndDate = start.AddDate(0, 0, 31).Format(constant.DateOnlyFormat)

				return req
			}(),
			setupMock: func(repo *resMocks.MockReservation, gw *gwMocks.MockGateway, cache *cacheMocks.MockRedisCache) {},
			wantErr:   true,
			wantCode:  400,
		},
		{
			name: "room already reserved",
			req:  validRequest("CASH"),
			setupMock: func(repo *resMocks.MockReservation, gw *gwMocks.MockGateway, cache *cacheMocks.MockRedisCache) {
				repo.EXPECT().
					ExistsOverlapping(gomock.Any(), 101, gomock.Any(), gomock.Any()).
					Return(true, nil)
			},
			wantErr:  true,
			wantCode: 409,
		},
		{
			name: "insert loses the race for the room",
			req:  validRequest("CASH"),
			setupMock: func(repo *resMocks.MockReservation, gw *gwMocks.MockGateway, cache *cacheMocks.MockRedisCache) {
				repo.EXPECT().
					ExistsOverlapping(gomock.Any(), 101, gomock.Any(), gomock.Any()).
					Return(false, nil)
				repo.EXPECT().
					CreateBooked(gomock.Any(), gomock.Any()).
					Return(model.Reservation{}, repository.ErrRoomOccupied)
			},
			wantErr:  true,
			wantCode: 409,
		},
		{
			name: "availability check fails",
			req:  validRequest("CASH"),
			setupMock: func(repo *resMocks.MockReservation, gw *gwMocks.MockGateway, cache *cacheMocks.MockRedisCache) {
				repo.EXPECT().
					ExistsOverlapping(gomock.Any(), 101, gomock.Any(), gomock.Any()).
					Return(false, errors.New("database error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockRepo := resMocks.NewMockReservation(ctrl)
			mockCache := cacheMocks.NewMockRedisCache(ctrl)
			mockGateway := gwMocks.NewMockGateway(ctrl)
			mockOtel := mocks.NewOtel()

			tt.setupMock(mockRepo, mockGateway, mockCache)

			selector := payment.NewSelector(mockGateway, mockOtel)
			svc := service.New(mockRepo, selector, newTestConfig(), mockCache, mockOtel)

			res, err := svc.Confirm(context.Background(), tt.req)
			waitAsync()

			if tt.wantErr {
				assert.Error(t, err)

				if tt.wantCode != 0 {
					assert.Equal(t, tt.wantCode, failure.GetCode(err))
				}

				return
			}

			assert.NoError(t, err)
			assert.NotZero(t, res.ReservationID)
			assert.Equal(t, tt.wantStatus, res.ReservationStatus)
		})
	}
}

func TestReservationService_Get(t *testing.T) {
	t.Run("cache miss then found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockRepo := resMocks.NewMockReservation(ctrl)
		mockCache := cacheMocks.NewMockRedisCache(ctrl)
		mockOtel := mocks.NewOtel()

		mockCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Reservation{ID: 42, RoomNumber: 101, Status: model.StatusConfirmed}, nil)
		mockCache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

		selector := payment.NewSelector(gwMocks.NewMockGateway(ctrl), mockOtel)
		svc := service.New(mockRepo, selector, newTestConfig(), mockCache, mockOtel)

		res, err := svc.Get(context.Background(), 42)
		waitAsync()

		assert.NoError(t, err)
		assert.Equal(t, int64(42), res.ID)
	})

	t.Run("unknown reservation", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockRepo := resMocks.NewMockReservation(ctrl)
		mockCache := cacheMocks.NewMockRedisCache(ctrl)
		mockOtel := mocks.NewOtel()

		mockCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Reservation{}, nil)

		selector := payment.NewSelector(gwMocks.NewMockGateway(ctrl), mockOtel)
		svc := service.New(mockRepo, selector, newTestConfig(), mockCache, mockOtel)

		_, err := svc.Get(context.Background(), 99)

		assert.Error(t, err)
		assert.Equal(t, 404, failure.GetCode(err))
	})
}

func TestReservationService_GetAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := resMocks.NewMockReservation(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	mockCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss")).Times(2)
	mockRepo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(1, nil)
	mockRepo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.Reservation{{ID: 42, RoomNumber: 101}}, nil)
	mockCache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	selector := payment.NewSelector(gwMocks.NewMockGateway(ctrl), mockOtel)
	svc := service.New(mockRepo, selector, newTestConfig(), mockCache, mockOtel)

	params := gDto.QueryParams{Page: 1, Limit: 10}
	res, err := svc.GetAll(context.Background(), params, gDto.FilterGroup{})
	waitAsync()

	assert.NoError(t, err)
	assert.Len(t, res.Reservations, 1)
	assert.Equal(t, 1, res.TotalData)
}

func pendingBankTransfer() model.Reservation {
	return model.Reservation{
		ID:          4145478,
		RoomNumber:  101,
		PaymentMode: model.PaymentModeBankTransfer,
		TotalAmount: 450000,
		Status:      model.StatusPendingPayment,
		Version:     3,
	}
}

func settlementEvent(amount int64) dto.BankTransferPaymentEvent {
	return dto.BankTransferPaymentEvent{
		PaymentID:              1401541457,
		AmountReceived:         amount,
		TransactionDescription: "1401541457 P4145478",
	}
}

func TestReservationService_HandleBankTransferPayment(t *testing.T) {
	tests := []struct {
		name          string
		event         dto.BankTransferPaymentEvent
		setupMock     func(repo *resMocks.MockReservation, cache *cacheMocks.MockRedisCache)
		wantProcessed bool
		wantErr       bool
	}{
		{
			name:  "exact amount confirms the reservation",
			event: settlementEvent(450000),
			setupMock: func(repo *resMocks.MockReservation, cache *cacheMocks.MockRedisCache) {
				repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pendingBankTransfer(), nil)
				repo.EXPECT().
					UpdateStatus(gomock.Any(), int64(4145478), int64(3), model.StatusConfirmed).
					Return(nil)
				cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
				cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
			},
			wantProcessed: true,
		},
		{
			name: "malformed description is discarded without lookups",
			event: dto.BankTransferPaymentEvent{
				PaymentID:              1401541457,
				AmountReceived:         450000,
				TransactionDescription: "1401541457",
			},
			setupMock:     func(repo *resMocks.MockReservation, cache *cacheMocks.MockRedisCache) {},
			wantProcessed: false,
		},
		{
			name:  "unknown reservation",
			event: settlementEvent(450000),
			setupMock: func(repo *resMocks.MockReservation, cache *cacheMocks.MockRedisCache) {
				repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Reservation{}, nil)
			},
			wantProcessed: false,
		},
		{
			name:  "settlement for a pending non bank transfer reservation",
			event: settlementEvent(450000),
			setupMock: func(repo *resMocks.MockReservation, cache *cacheMocks.MockRedisCache) {
				res := pendingBankTransfer()
				res.PaymentMode = model.PaymentModeCash

				repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(res, nil)
			},
			wantProcessed: false,
		},
		{
			name:  "late settlement for a settled non bank transfer reservation is acknowledged",
			event: settlementEvent(450000),
			setupMock: func(repo *resMocks.MockReservation, cache *cacheMocks.MockRedisCache) {
				res := pendingBankTransfer()
				res.PaymentMode = model.PaymentModeCreditCard
				res.Status = model.StatusConfirmed

				repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(res, nil)
			},
			wantProcessed: true,
		},
		{
			name:  "redelivered event for an already confirmed reservation",
			event: settlementEvent(450000),
			setupMock: func(repo *resMocks.MockReservation, cache *cacheMocks.MockRedisCache) {
				res := pendingBankTransfer()
				res.Status = model.StatusConfirmed

				repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(res, nil)
			},
			wantProcessed: true,
		},
		{
			name:  "partial amount leaves the reservation pending",
			event: settlementEvent(200000),
			setupMock: func(repo *resMocks.MockReservation, cache *cacheMocks.MockRedisCache) {
				repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pendingBankTransfer(), nil)
			},
			wantProcessed: false,
		},
		{
			name:  "version conflict resolved on re-read",
			event: settlementEvent(450000),
			setupMock: func(repo *resMocks.MockReservation, cache *cacheMocks.MockRedisCache) {
				first := repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pendingBankTransfer(), nil)
				repo.EXPECT().
					UpdateStatus(gomock.Any(), int64(4145478), int64(3), model.StatusConfirmed).
					Return(repository.ErrVersionConflict)

				confirmed := pendingBankTransfer()
				confirmed.Status = model.StatusConfirmed
				confirmed.Version = 4

				repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(confirmed, nil).
					After(first)
			},
			wantProcessed: true,
		},
		{
			name:  "lookup failure surfaces for redelivery",
			event: settlementEvent(450000),
			setupMock: func(repo *resMocks.MockReservation, cache *cacheMocks.MockRedisCache) {
				repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Reservation{}, errors.New("database error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockRepo := resMocks.NewMockReservation(ctrl)
			mockCache := cacheMocks.NewMockRedisCache(ctrl)
			mockOtel := mocks.NewOtel()

			tt.setupMock(mockRepo, mockCache)

			selector := payment.NewSelector(gwMocks.NewMockGateway(ctrl), mockOtel)
			svc := service.New(mockRepo, selector, newTestConfig(), mockCache, mockOtel)

			processed, err := svc.HandleBankTransferPayment(context.Background(), tt.event)
			waitAsync()

			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.wantProcessed, processed)
		})
	}
}

func TestReservationService_CancelPendingBankTransfers(t *testing.T) {
	t.Run("cancels reservations past the grace period", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockRepo := resMocks.NewMockReservation(ctrl)
		mockCache := cacheMocks.NewMockRedisCache(ctrl)
		mockOtel := mocks.NewOtel()

		wantStartFrom := timezone.Today().AddDate(0, 0, 2).Format(constant.DateOnlyFormat)

		mockRepo.EXPECT().
			CancelPendingBankTransfers(gomock.Any(), wantStartFrom).
			Return(int64(3), nil)
		mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

		selector := payment.NewSelector(gwMocks.NewMockGateway(ctrl), mockOtel)
		svc := service.New(mockRepo, selector, newTestConfig(), mockCache, mockOtel)

		cancelled, err := svc.CancelPendingBankTransfers(context.Background())
		waitAsync()

		assert.NoError(t, err)
		assert.Equal(t, int64(3), cancelled)
	})

	t.Run("nothing to cancel", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockRepo := resMocks.NewMockReservation(ctrl)
		mockCache := cacheMocks.NewMockRedisCache(ctrl)
		mockOtel := mocks.NewOtel()

		mockRepo.EXPECT().
			CancelPendingBankTransfers(gomock.Any(), gomock.Any()).
			Return(int64(0), nil)

		selector := payment.NewSelector(gwMocks.NewMockGateway(ctrl), mockOtel)
		svc := service.New(mockRepo, selector, newTestConfig(), mockCache, mockOtel)

		cancelled, err := svc.CancelPendingBankTransfers(context.Background())

		assert.NoError(t, err)
		assert.Zero(t, cancelled)
	})

	t.Run("repository failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockRepo := resMocks.NewMockReservation(ctrl)
		mockCache := cacheMocks.NewMockRedisCache(ctrl)
		mockOtel := mocks.NewOtel()

		mockRepo.EXPECT().
			CancelPendingBankTransfers(gomock.Any(), gomock.Any()).
			Return(int64(0), errors.New("database error"))

		selector := payment.NewSelector(gwMocks.NewMockGateway(ctrl), mockOtel)
		svc := service.New(mockRepo, selector, newTestConfig(), mockCache, mockOtel)

		_, err := svc.CancelPendingBankTransfers(context.Background())

		assert.Error(t, err)
	})
}
