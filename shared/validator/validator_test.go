package validator_test

import (
	"strings"
	"testing"

	"roomres/shared/failure"
	"roomres/shared/validator"
)

type testRequest struct {
	RoomNumber  int    `json:"room_number"  validate:"required,min=1"`
	Name        string `json:"name"         validate:"required,max=100"`
	PaymentMode string `json:"payment_mode" validate:"required,oneof=CASH CREDIT_CARD BANK_TRANSFER"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		input   testRequest
		wantErr bool
	}{
		{
			name: "valid struct",
			input: testRequest{
				RoomNumber:  1,
				Name:        "Alex",
				PaymentMode: "CASH",
			},
			wantErr: false,
		},
		{
			name: "missing required field",
			input: testRequest{
				RoomNumber:  1,
				PaymentMode: "CASH",
			},
			wantErr: true,
		},
		{
			name: "room number below minimum",
			input: testRequest{
				RoomNumber:  0,
				Name:        "Alex",
				PaymentMode: "CASH",
			},
			wantErr: true,
		},
		{
			name: "payment mode outside enum",
			input: testRequest{
				RoomNumber:  1,
				Name:        "Alex",
				PaymentMode: "CHEQUE",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateStruct(&tt.input)

			if tt.wantErr && err == nil {
				t.Errorf("expected error, got nil")
			}

			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{
			name:    "valid json body",
			body:    `{"room_number": 1, "name": "Alex", "payment_mode": "BANK_TRANSFER"}`,
			wantErr: false,
		},
		{
			name:    "malformed json",
			body:    `{"room_number": `,
			wantErr: true,
		},
		{
			name:    "valid json failing validation",
			body:    `{"room_number": 1, "name": "", "payment_mode": "CASH"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req testRequest
			err := validator.Validate(strings.NewReader(tt.body), &req)

			if tt.wantErr && err == nil {
				t.Errorf("expected error, got nil")
			}

			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidateVar(t *testing.T) {
	if err := validator.ValidateVar("CASH", "oneof=CASH CREDIT_CARD BANK_TRANSFER"); err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if err := validator.ValidateVar("", "required"); err == nil {
		t.Errorf("expected error for empty required var")
	}
}

func TestValidationFailureCode(t *testing.T) {
	var req testRequest

	err := validator.Validate(strings.NewReader(`{}`), &req)
	if err == nil {
		t.Fatal("expected error")
	}

	if code := failure.GetCode(err); code != 400 {
		t.Errorf("expected code 400, got %d", code)
	}
}
