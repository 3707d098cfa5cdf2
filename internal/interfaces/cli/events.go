package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/app"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/messaging/kafka"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/logging"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/pkg/errors"
)

// NewEventsCmd groups event stream commands.
func NewEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect the Kafka event stream",
	}
	cmd.AddCommand(newEventsTailCmd())
	return cmd
}

func newEventsTailCmd() *cobra.Command {
	var fromBeginning bool
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print chat, prediction and session events as they arrive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			kc := cliCtx.Config.Kafka
			if len(kc.Brokers) == 0 {
				return errors.InvalidParam("kafka.brokers is not configured")
			}

			offset := "latest"
			if fromBeginning {
				offset = "earliest"
			}
			consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
				Brokers:         kc.Brokers,
				GroupID:         "narcos-tail-" + uuid.NewString(),
				Topics:          app.Topics(kc).All(),
				AutoOffsetReset: offset,
			}, cliCtx.Logger)
			if err != nil {
				return err
			}
			defer consumer.Close()

			handler := envelopePrinter(cmd, cliCtx.Logger)
			for _, topic := range app.Topics(kc).All() {
				consumer.Subscribe(topic, handler)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if err := consumer.Start(ctx); err != nil {
				return err
			}
			<-ctx.Done()
			consumer.Wait()
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromBeginning, "from-beginning", false, "replay retained events before following")
	return cmd
}

// envelopePrinter prints each record. Undecodable records are logged and
// skipped so one bad record does not stall the stream.
func envelopePrinter(cmd *cobra.Command, logger logging.Logger) kafka.MessageHandler {
	return func(_ context.Context, msg *kafka.Message) error {
		env, err := kafka.MessageToEventEnvelope(msg)
		if err != nil {
			logger.Warn("skipping undecodable event",
				logging.String("topic", msg.Topic),
				logging.Int64("offset", msg.Offset),
				logging.Err(err),
			)
			return nil
		}
		return PrintResult(cmd, eventLine{Topic: msg.Topic, Envelope: env})
	}
}

type eventLine struct {
	Topic    string               `json:"topic"`
	Envelope *kafka.EventEnvelope `json:"event"`
}

func (e eventLine) String() string {
	return fmt.Sprintf("%s  %-22s  %s  %s",
		e.Envelope.Timestamp.Local().Format(time.RFC3339), e.Envelope.EventType, e.Topic, string(e.Envelope.Payload))
}

//Personal.AI order the ending
