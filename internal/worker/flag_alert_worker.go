package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"courseassist/internal/logging"
	"courseassist/internal/platform/rabbitmq"
	"courseassist/internal/wellbeing"
)

// AlertHandler is called once per delivered flag. A non-nil error dead-letters the delivery.
type AlertHandler func(ctx context.Context, a wellbeing.Analysis) error

// FlagAlertWorker drains the wellbeing alert queue and hands each flag to the handler.
type FlagAlertWorker struct {
	conn      *amqp.Connection
	queueName string
	handle    AlertHandler

	cancel context.CancelFunc
	wg     sync.WaitGroup
	log    zerolog.Logger
}

func NewFlagAlertWorker(conn *amqp.Connection, queueName string, handle AlertHandler) *FlagAlertWorker {
	w := &FlagAlertWorker{
		conn:      conn,
		queueName: queueName,
		handle:    handle,
		log:       logging.NewLogger("flag_alert_worker"),
	}
	if w.handle == nil {
		w.handle = w.logAlert
	}
	return w
}

func (w *FlagAlertWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if _, err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.process(workerCtx, d)
			}
		}
	}()

	w.log.Info().Str("queue", w.queueName).Msg("flag alert worker started")
	return nil
}

func (w *FlagAlertWorker) process(ctx context.Context, d amqp.Delivery) {
	a, err := DecodeAlert(d.Body)
	if err != nil {
		w.log.Error().Err(err).Msg("worker decode alert failed")
		_ = d.Nack(false, false)
		return
	}
	if err := w.handle(ctx, a); err != nil {
		w.log.Error().Err(err).Str("student_id", a.StudentID).Msg("worker handle alert failed")
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

func (w *FlagAlertWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

// DecodeAlert parses a queued flag. Messages without a student id are rejected.
func DecodeAlert(body []byte) (wellbeing.Analysis, error) {
	var a wellbeing.Analysis
	if err := json.Unmarshal(body, &a); err != nil {
		return a, fmt.Errorf("unmarshal alert failed: %w", err)
	}
	if a.StudentID == "" {
		return a, fmt.Errorf("alert has no student_id")
	}
	return a, nil
}

func (w *FlagAlertWorker) logAlert(_ context.Context, a wellbeing.Analysis) error {
	w.log.Warn().
		Str("student_id", a.StudentID).
		Float64("score", a.WellbeingScore).
		Int("stress_indicators", a.StressIndicators).
		Int("confusion_indicators", a.ConfusionIndicators).
		Time("flagged_at", a.Timestamp).
		Str("message", logging.Truncate(a.Message, 120)).
		Msg("student needs instructor follow-up")
	return nil
}
