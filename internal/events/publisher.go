package events

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-lead-outreach/internal/apperrors"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/model"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/logger"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/utils"
)

// Publisher emits domain events to NATS. Delivery is best-effort: a failed
// publish is logged but never fails the originating operation.
type Publisher interface {
	LeadCreated(ctx context.Context, lead *model.Lead)
	MessageSent(ctx context.Context, response *model.Response)
	JobCompleted(ctx context.Context, job *model.Job)
	Close()
}

// NatsPublisher publishes events over a core NATS connection.
type NatsPublisher struct {
	nc            *nats.Conn
	subjectPrefix string
}

// NewNatsPublisher connects to NATS. On connection failure it returns an
// error wrapped with ErrNATS so the caller can decide whether to run
// without events.
func NewNatsPublisher(url, subjectPrefix string) (*NatsPublisher, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Log.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to %s: %w", apperrors.ErrNATS, url, err)
	}
	return &NatsPublisher{nc: nc, subjectPrefix: subjectPrefix}, nil
}

// LeadCreated implements Publisher.
func (p *NatsPublisher) LeadCreated(ctx context.Context, lead *model.Lead) {
	p.publish(ctx, "lead.created", map[string]interface{}{
		"leadId":    lead.ID,
		"source":    lead.Source,
		"createdAt": utils.FormatISO8601(lead.CreatedAt),
	})
}

// MessageSent implements Publisher.
func (p *NatsPublisher) MessageSent(ctx context.Context, response *model.Response) {
	p.publish(ctx, "message.sent", map[string]interface{}{
		"leadId":    response.LeadID,
		"channel":   response.Channel,
		"status":    response.Status,
		"createdAt": utils.FormatISO8601(response.CreatedAt),
	})
}

// JobCompleted implements Publisher.
func (p *NatsPublisher) JobCompleted(ctx context.Context, job *model.Job) {
	p.publish(ctx, "job.completed", map[string]interface{}{
		"jobId":          job.ID,
		"jobType":        job.JobType,
		"status":         job.Status,
		"leadsProcessed": job.LeadsProcessed,
		"leadsSent":      job.LeadsSent,
	})
}

func (p *NatsPublisher) publish(ctx context.Context, suffix string, payload map[string]interface{}) {
	if p == nil || p.nc == nil {
		return
	}
	subject := fmt.Sprintf("%s.%s", p.subjectPrefix, suffix)
	if err := p.nc.Publish(subject, utils.MustMarshalJSON(payload)); err != nil {
		logger.FromContext(ctx).Warn("Failed to publish event",
			zap.String("subject", subject),
			zap.Error(err),
		)
		return
	}
	logger.FromContext(ctx).Debug("Published event", zap.String("subject", subject))
}

// Close drains the connection.
func (p *NatsPublisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		logger.Log.Warn("Failed to drain NATS connection", zap.Error(err))
	}
}

// NoopPublisher is used when NATS is not configured.
type NoopPublisher struct{}

func (NoopPublisher) LeadCreated(context.Context, *model.Lead)     {}
func (NoopPublisher) MessageSent(context.Context, *model.Response) {}
func (NoopPublisher) JobCompleted(context.Context, *model.Job)     {}
func (NoopPublisher) Close()                                       {}

var _ Publisher = (*NatsPublisher)(nil)
var _ Publisher = NoopPublisher{}
