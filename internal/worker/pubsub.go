package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/telemetry"
)

const tracerName = "github.com/SaniyaPatil13/local-air-guardian-now/internal/worker"

// Job types accepted on the subscription.
const (
	JobStationRefresh = "station_refresh"
	JobCoverageCheck  = "coverage_check"
)

var (
	// ErrUnknownJob is returned for messages with an unrecognised job type.
	ErrUnknownJob = errors.New("unknown job type")

	// ErrMalformedMessage is returned for payloads that are not a RefreshMessage.
	ErrMalformedMessage = errors.New("malformed job message")
)

// RefreshMessage is the JSON payload of a job message.
type RefreshMessage struct {
	JobType string `json:"job_type"`

	// FailOnGaps nacks a coverage check that found gaps so it is redelivered.
	FailOnGaps bool `json:"fail_on_gaps,omitempty"`
}

// ShouldAck reports whether a message whose job returned err should be
// acknowledged. Messages that can never succeed are acked so they are not
// redelivered.
func ShouldAck(err error) bool {
	return err == nil || errors.Is(err, ErrUnknownJob) || errors.Is(err, ErrMalformedMessage)
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	RefreshJob       *RefreshJob
	Logger           zerolog.Logger
}

// PubSubHandler runs refresh jobs triggered by Pub/Sub messages.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	refreshJob       *RefreshJob
	logger           zerolog.Logger
}

// NewPubSubHandler connects to the subscription.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)
	// Jobs reload the shared directory; run them one at a time.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 1
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		refreshJob:       cfg.RefreshJob,
		logger:           cfg.Logger,
	}, nil
}

// Start receives messages until ctx is done.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().Str("subscription", h.subscriptionName).Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	// Publishers may carry a trace context in the message attributes.
	ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(msg.Attributes))
	ctx, span := otel.Tracer(tracerName).Start(ctx, "pubsub receive "+h.subscriptionName,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "gcp_pubsub"),
			attribute.String("messaging.message.id", msg.ID),
		),
	)
	defer span.End()

	logger := telemetry.WithTrace(ctx, h.logger).With().
		Str("message_id", msg.ID).
		Time("publish_time", msg.PublishTime).
		Logger()
	logger.Debug().Msg("received pubsub message")

	err := h.refreshJob.HandleMessage(ctx, msg.Data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	switch {
	case err == nil:
		msg.Ack()
	case ShouldAck(err):
		logger.Warn().Err(err).Msg("dropping message")
		msg.Ack()
	default:
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
	}
}

// HandleMessage runs the job described by a JSON RefreshMessage.
func (j *RefreshJob) HandleMessage(ctx context.Context, data []byte) error {
	var m RefreshMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	var result *RefreshResult
	switch m.JobType {
	case JobStationRefresh:
		result = j.Run(ctx)
	case JobCoverageCheck:
		result = j.CheckCoverage(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownJob, m.JobType)
	}

	log := telemetry.WithTrace(ctx, j.logger)
	log.Info().
		Str("job_type", m.JobType).
		Dur("duration", result.Duration).
		Int("gaps", len(result.Gaps)).
		Msg("job completed")

	if m.FailOnGaps && len(result.Gaps) > 0 {
		return fmt.Errorf("coverage check found %d gaps", len(result.Gaps))
	}
	return ctx.Err()
}
