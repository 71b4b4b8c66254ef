package listener

import (
	"context"
	"testing"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"roomres/config"
	"roomres/internal/domains/reservation/model/dto"
	svcMocks "roomres/internal/domains/reservation/service/mocks"
)

func TestSettlement_Handle(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		setupMock func(svc *svcMocks.MockReservation)
		wantErr   bool
	}{
		{
			name:    "reconciled event commits",
			payload: `{"payment_id":1401541457,"amount_received":450000,"transaction_description":"1401541457 P4145478"}`,
			setupMock: func(svc *svcMocks.MockReservation) {
				svc.EXPECT().
					HandleBankTransferPayment(gomock.Any(), dto.BankTransferPaymentEvent{
						PaymentID:              1401541457,
						AmountReceived:         450000,
						TransactionDescription: "1401541457 P4145478",
					}).
					Return(true, nil)
			},
		},
		{
			name:    "acknowledged without effect still commits",
			payload: `{"payment_id":1,"amount_received":100,"transaction_description":"garbage"}`,
			setupMock: func(svc *svcMocks.MockReservation) {
				svc.EXPECT().
					HandleBankTransferPayment(gomock.Any(), gomock.Any()).
					Return(false, nil)
			},
		},
		{
			name:      "undecodable payload is dropped without reconciliation",
			payload:   `{not json`,
			setupMock: func(svc *svcMocks.MockReservation) {},
		},
		{
			name:    "reconciliation failure leaves the offset uncommitted",
			payload: `{"payment_id":1401541457,"amount_received":450000,"transaction_description":"1401541457 P4145478"}`,
			setupMock: func(svc *svcMocks.MockReservation) {
				svc.EXPECT().
					HandleBankTransferPayment(gomock.Any(), gomock.Any()).
					Return(false, assert.AnError)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockSvc := svcMocks.NewMockReservation(ctrl)
			tt.setupMock(mockSvc)

			l := New(mockSvc, nil, &config.Config{})

			err := l.handle(context.Background(), kafkaGo.Message{Value: []byte(tt.payload)})

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
