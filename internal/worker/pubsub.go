package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// JobTypeStatusCheck asks the worker to check every catalogue service.
const JobTypeStatusCheck = "status_check"

// ErrMalformedMessage is returned for messages that are not valid job JSON.
var ErrMalformedMessage = errors.New("malformed job message")

// JobMessage is the Pub/Sub message body.
type JobMessage struct {
	JobType string `json:"job_type"`
}

// Dispatcher runs jobs described by message payloads.
type Dispatcher struct {
	checkJob *CheckJob
	logger   zerolog.Logger
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(checkJob *CheckJob, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{checkJob: checkJob, logger: logger}
}

// Dispatch parses data and runs the job it names.
// Unknown job types are skipped and return nil so the message is not redelivered.
func (d *Dispatcher) Dispatch(ctx context.Context, data []byte) error {
	var msg JobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedMessage, err.Error())
	}

	switch msg.JobType {
	case JobTypeStatusCheck:
		return d.handleStatusCheck(ctx)
	default:
		d.logger.Warn().Str("job_type", msg.JobType).Msg("unknown job type")
		return nil
	}
}

func (d *Dispatcher) handleStatusCheck(ctx context.Context) error {
	result, err := d.checkJob.Run(ctx)
	if err != nil {
		return fmt.Errorf("running status check: %w", err)
	}

	// Offline services are an outcome, not a job failure; only lost records are.
	if len(result.Errors) > 0 && len(result.Errors) == result.Total {
		return fmt.Errorf("recording check outcomes failed for all %d services", result.Total)
	}
	return nil
}

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	dispatcher       *Dispatcher
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Dispatcher       *Dispatcher
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Status checks are cheap; keep only one batch in flight.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 1
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		dispatcher:       cfg.Dispatcher,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages. It blocks until ctx is done.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	err := h.dispatcher.Dispatch(ctx, msg.Data)
	switch {
	case errors.Is(err, ErrMalformedMessage):
		// Redelivery cannot fix a bad payload.
		logger.Error().Err(err).Msg("dropping malformed message")
		msg.Ack()
	case err != nil:
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
	default:
		logger.Info().
			Dur("duration", time.Since(startTime)).
			Msg("job completed successfully")
		msg.Ack()
	}
}
