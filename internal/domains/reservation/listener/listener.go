package listener

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	kafkaGo "github.com/segmentio/kafka-go"

	"roomres/config"
	"roomres/infras/kafka"
	"roomres/internal/domains/reservation/model/dto"
	"roomres/internal/domains/reservation/service"
)

// Settlement consumes bank transfer settlement notifications and hands them to
// the reservation service for reconciliation. Consumption never stops on a bad
// message; reconciliation outcomes are logged and the loop moves on.
type Settlement struct {
	svc    service.Reservation
	client kafka.Client
	cfg    *config.Config
}

func New(svc service.Reservation, client kafka.Client, cfg *config.Config) *Settlement {
	return &Settlement{
		svc:    svc,
		client: client,
		cfg:    cfg,
	}
}

// Run blocks consuming the settlement topic until the context is cancelled.
func (l *Settlement) Run(ctx context.Context) {
	topic := l.cfg.Settlement.Topic

	log.Info().Str("topic", topic).Msg("starting bank transfer settlement listener")

	l.client.Consume(ctx, l.cfg.Kafka.ConsumerGroup, topic, l.handle)
}

// handle reconciles one settlement message. Undecodable payloads are dropped
// so they cannot wedge the partition; a reconciliation error is returned so
// the offset stays uncommitted and the broker redelivers the event.
func (l *Settlement) handle(ctx context.Context, msg kafkaGo.Message) error {
	var event dto.BankTransferPaymentEvent

	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Error().
			Err(err).
			Str("key", string(msg.Key)).
			Msg("discarding undecodable settlement message")

		return nil
	}

	processed, err := l.svc.HandleBankTransferPayment(ctx, event)
	if err != nil {
		log.Error().
			Err(err).
			Int64("payment_id", event.PaymentID).
			Msg("failed to reconcile settlement; leaving offset uncommitted for redelivery")

		return fmt.Errorf("failed to reconcile settlement: %w", err)
	}

	if !processed {
		log.Warn().
			Int64("payment_id", event.PaymentID).
			Str("transaction_description", event.TransactionDescription).
			Msg("settlement event acknowledged without effect")
	}

	return nil
}
