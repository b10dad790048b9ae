package service

import (
	"context"
	"fmt"
	"time"

	"github.com/kdange/portfolio/internal/logging"
	"github.com/kdange/portfolio/internal/metrics"
	"github.com/kdange/portfolio/internal/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ContactService relays contact form submissions as email, within the email quota.
type ContactService struct {
	mailer        Mailer
	quota         EmailQuota
	limiter       *OutboundLimiter
	metrics       *metrics.Metrics
	account       string
	subjectPrefix string
	timeout       time.Duration
}

type ContactServiceOptions struct {
	Mailer        Mailer
	Quota         EmailQuota
	Limiter       *OutboundLimiter
	Metrics       *metrics.Metrics
	Account       string
	SubjectPrefix string
	// Timeout bounds waiting for an outbound slot plus the send itself.
	Timeout time.Duration
}

func NewContactService(opts ContactServiceOptions) *ContactService {
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	return &ContactService{
		mailer:        opts.Mailer,
		quota:         opts.Quota,
		limiter:       opts.Limiter,
		metrics:       m,
		account:       opts.Account,
		subjectPrefix: opts.SubjectPrefix,
		timeout:       opts.Timeout,
	}
}

// LimitReached reports whether the email quota is used up.
func (s *ContactService) LimitReached(ctx context.Context) (bool, error) {
	exhausted, err := s.quota.Exhausted(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if exhausted {
		s.metrics.EmailRateLimited.Inc()
	}
	return exhausted, nil
}

// Submit sends one email for the submission. The quota unit is taken before
// sending and handed back if the send fails, so the count only ever reflects
// delivered messages and concurrent submissions cannot overshoot the limit.
func (s *ContactService) Submit(ctx context.Context, c ContactMessage) error {
	res, err := s.quota.Reserve(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if !res.Granted {
		s.metrics.EmailRateLimited.Inc()
		return ErrRateLimited
	}

	env := BuildEnvelope(s.account, s.subjectPrefix, c)

	ctx, span := telemetry.Tracer().Start(ctx, "contact.send_email")
	defer span.End()
	span.SetAttributes(attribute.Int("contact.body_length", len(env.Body)))

	sendCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	err = s.limiter.Do(sendCtx, func(ctx context.Context) error {
		return s.mailer.Send(ctx, env)
	})
	s.metrics.EmailSendDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		s.metrics.EmailErrors.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")

		if relErr := s.quota.Release(context.WithoutCancel(ctx), res); relErr != nil {
			logging.GetGlobalLogger().Error("Failed to release email quota: %v", relErr)
		}
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	s.metrics.EmailsSent.Inc()
	return nil
}

// ResetCount sets the email counter back to zero.
func (s *ContactService) ResetCount(ctx context.Context) error {
	if err := s.quota.Reset(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	s.metrics.QuotaResets.Inc()
	return nil
}

func (s *ContactService) QuotaStatus(ctx context.Context) (QuotaStatus, error) {
	return s.quota.Status(ctx)
}
