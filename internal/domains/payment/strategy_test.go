package payment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"roomres/infras/otel/mocks"
	"roomres/infras/paymentgw"
	gwMocks "roomres/infras/paymentgw/mocks"
	"roomres/internal/domains/payment"
	"roomres/internal/domains/reservation/model"
	"roomres/shared/failure"
)

func TestSelector_For(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	selector := payment.NewSelector(gwMocks.NewMockGateway(ctrl), mocks.NewOtel())

	for _, mode := range []model.PaymentMode{
		model.PaymentModeCash,
		model.PaymentModeCreditCard,
		model.PaymentModeBankTransfer,
	} {
		strategy, err := selector.For(mode)
		assert.NoError(t, err)
		assert.NotNil(t, strategy)
	}

	_, err := selector.For("CRYPTO")
	assert.Error(t, err)
	assert.Equal(t, 400, failure.GetCode(err))
}

func TestCashPayment(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	selector := payment.NewSelector(gwMocks.NewMockGateway(ctrl), mocks.NewOtel())

	strategy, err := selector.For(model.PaymentModeCash)
	assert.NoError(t, err)

	status, err := strategy.ProcessPayment(context.Background(), model.Reservation{})
	assert.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, status)
}

func TestBankTransferPayment(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	selector := payment.NewSelector(gwMocks.NewMockGateway(ctrl), mocks.NewOtel())

	strategy, err := selector.For(model.PaymentModeBankTransfer)
	assert.NoError(t, err)

	status, err := strategy.ProcessPayment(context.Background(), model.Reservation{})
	assert.NoError(t, err)
	assert.Equal(t, model.StatusPendingPayment, status)
}

func TestCreditCardPayment(t *testing.T) {
	tests := []struct {
		name      string
		reference string
		setupMock func(gw *gwMocks.MockGateway)
		wantCode  int
		wantErr   bool
	}{
		{
			name:      "confirmed payment",
			reference: "ref-123",
			setupMock: func(gw *gwMocks.MockGateway) {
				gw.EXPECT().
					GetPaymentStatus(gomock.Any(), "ref-123").
					Return(paymentgw.StatusResponse{Status: "CONFIRMED"}, nil)
			},
		},
		{
			name:      "missing reference rejected before any call",
			reference: "",
			setupMock: func(gw *gwMocks.MockGateway) {},
			wantErr:   true,
			wantCode:  400,
		},
		{
			name:      "payment not settled",
			reference: "ref-123",
			setupMock: func(gw *gwMocks.MockGateway) {
				gw.EXPECT().
					GetPaymentStatus(gomock.Any(), "ref-123").
					Return(paymentgw.StatusResponse{Status: "PENDING"}, nil)
			},
			wantErr:  true,
			wantCode: 402,
		},
		{
			name:      "invalid reference",
			reference: "ref-123",
			setupMock: func(gw *gwMocks.MockGateway) {
				gw.EXPECT().
					GetPaymentStatus(gomock.Any(), "ref-123").
					Return(paymentgw.StatusResponse{}, paymentgw.ErrInvalidReference)
			},
			wantErr:  true,
			wantCode: 400,
		},
		{
			name:      "unknown reference",
			reference: "ref-123",
			setupMock: func(gw *gwMocks.MockGateway) {
				gw.EXPECT().
					GetPaymentStatus(gomock.Any(), "ref-123").
					Return(paymentgw.StatusResponse{}, paymentgw.ErrReferenceNotFound)
			},
			wantErr:  true,
			wantCode: 400,
		},
		{
			name:      "provider failure",
			reference: "ref-123",
			setupMock: func(gw *gwMocks.MockGateway) {
				gw.EXPECT().
					GetPaymentStatus(gomock.Any(), "ref-123").
					Return(paymentgw.StatusResponse{}, paymentgw.ErrServiceFailure)
			},
			wantErr:  true,
			wantCode: 502,
		},
		{
			name:      "provider timeout",
			reference: "ref-123",
			setupMock: func(gw *gwMocks.MockGateway) {
				gw.EXPECT().
					GetPaymentStatus(gomock.Any(), "ref-123").
					Return(paymentgw.StatusResponse{}, paymentgw.ErrNoResponse)
			},
			wantErr:  true,
			wantCode: 504,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			gw := gwMocks.NewMockGateway(ctrl)
			tt.setupMock(gw)

			selector := payment.NewSelector(gw, mocks.NewOtel())

			strategy, err := selector.For(model.PaymentModeCreditCard)
			assert.NoError(t, err)

			status, err := strategy.ProcessPayment(context.Background(), model.Reservation{
				PaymentReference: tt.reference,
			})

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, model.StatusConfirmed, status)
		})
	}
}
