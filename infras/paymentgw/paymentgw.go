package paymentgw

//go:generate go run go.uber.org/mock/mockgen -source=./paymentgw.go -destination=./mocks/paymentgw_mock.go -package=mocks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"roomres/config"
	"roomres/infras/otel"
	"roomres/shared/constant"
	"roomres/shared/logger"
)

// Sentinel errors describing why a status lookup failed. Callers translate
// them into their own failure taxonomy.
var (
	ErrInvalidReference  = errors.New("payment gateway rejected the reference as invalid")
	ErrReferenceNotFound = errors.New("payment gateway has no record of the reference")
	ErrServiceFailure    = errors.New("payment gateway reported an internal failure")
	ErrNoResponse        = errors.New("payment gateway did not respond")
)

const statusConfirmed = "CONFIRMED"

// StatusResponse is the gateway's verdict on a payment reference.
type StatusResponse struct {
	LastUpdateDate string `json:"last_update_date"`
	Status         string `json:"status"`
}

// Confirmed reports whether the gateway settled the payment.
func (s StatusResponse) Confirmed() bool {
	return s.Status == statusConfirmed
}

type Gateway interface {
	GetPaymentStatus(ctx context.Context, reference string) (StatusResponse, error)
}

type gatewayImpl struct {
	client  *http.Client
	baseURL string
	otel    otel.Otel
}

func New(cfg *config.Config, otl otel.Otel) Gateway {
	return &gatewayImpl{
		client: &http.Client{
			Timeout: time.Duration(cfg.Payment.TimeoutSeconds) * time.Second,
		},
		baseURL: cfg.Payment.BaseURL,
		otel:    otl,
	}
}

type statusRequest struct {
	PaymentReference string `json:"payment_reference"`
}

func (g *gatewayImpl) GetPaymentStatus(ctx context.Context, reference string) (StatusResponse, error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelInfraScopeName, constant.OtelInfraScopeName+".paymentgw.GetPaymentStatus")
	defer scope.End()

	payload, err := json.Marshal(statusRequest{PaymentReference: reference})
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return StatusResponse{}, fmt.Errorf("failed to encode payment status request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/payment-status", bytes.NewReader(payload))
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return StatusResponse{}, fmt.Errorf("failed to build payment status request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		scope.TraceError(err)

		return StatusResponse{}, fmt.Errorf("%w: %v", ErrNoResponse, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		scope.TraceError(err)

		return StatusResponse{}, fmt.Errorf("%w: %v", ErrNoResponse, err)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return StatusResponse{}, ErrInvalidReference
	case resp.StatusCode == http.StatusNotFound:
		return StatusResponse{}, ErrReferenceNotFound
	case resp.StatusCode >= http.StatusInternalServerError:
		return StatusResponse{}, ErrServiceFailure
	case resp.StatusCode != http.StatusOK:
		return StatusResponse{}, fmt.Errorf("%w: unexpected status %d", ErrServiceFailure, resp.StatusCode)
	}

	var status StatusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return StatusResponse{}, fmt.Errorf("failed to decode payment status response: %w", err)
	}

	return status, nil
}
