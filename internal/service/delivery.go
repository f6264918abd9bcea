package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/akylbek/payment-system/guide-delivery/internal/apperr"
	"github.com/akylbek/payment-system/guide-delivery/internal/artifact"
	"github.com/akylbek/payment-system/guide-delivery/internal/events"
	"github.com/akylbek/payment-system/guide-delivery/internal/interfaces"
	"github.com/akylbek/payment-system/guide-delivery/internal/models"
	"github.com/akylbek/payment-system/guide-delivery/internal/telemetry"
)

const (
	DefaultDownloadFilename = "guide.pdf"
	pdfContentType          = "application/pdf"

	finalizeAttempts = 3
	finalizeBackoff  = 100 * time.Millisecond
)

// DeliveryService streams the artifact for a valid grant. A transfer that
// does not complete leaves the grant redeemable.
type DeliveryService struct {
	grants    interfaces.GrantStore
	source    interfaces.ArtifactSource
	publisher interfaces.EventPublisher
	filename  string
}

func NewDeliveryService(grants interfaces.GrantStore, source interfaces.ArtifactSource, publisher interfaces.EventPublisher, filename string) *DeliveryService {
	if filename == "" {
		filename = DefaultDownloadFilename
	}
	return &DeliveryService{
		grants:    grants,
		source:    source,
		publisher: publisher,
		filename:  filename,
	}
}

// Deliver redeems token and copies the artifact into w. prepare runs once,
// after the artifact is open and before the first byte is written; any error
// returned before prepare ran can still be reported to the client.
func (s *DeliveryService) Deliver(ctx context.Context, token string, w io.Writer, prepare func(models.Attachment)) (written int64, err error) {
	if token == "" {
		return 0, ErrGrantNotFound
	}

	handle, err := s.grants.Redeem(ctx, token)
	if err != nil {
		err = redeemError(err)
		telemetry.Downloads.WithLabelValues(resultLabel(err)).Inc()
		return 0, err
	}

	// one download metric per request; label defaults to the outcome
	outcome := models.OutcomeInterrupted
	label := ""
	defer func() {
		s.finalize(ctx, handle, outcome, written)
		if label == "" {
			label = outcome.String()
		}
		telemetry.Downloads.WithLabelValues(label).Inc()
	}()

	rc, size, err := s.source.Open(ctx)
	if err != nil {
		if errors.Is(err, artifact.ErrMissing) {
			telemetry.Logger.Error("Artifact missing at runtime", zap.Error(err))
			err = fmt.Errorf("%w: %v", ErrArtifactMissing, err)
		} else {
			err = apperr.Wrap(fmt.Errorf("open artifact: %w", err))
		}
		label = resultLabel(err)
		return 0, err
	}
	defer rc.Close()

	prepare(models.Attachment{
		Filename:    s.filename,
		ContentType: pdfContentType,
		Size:        size,
	})

	written, err = io.Copy(w, &ctxReader{ctx: ctx, r: rc})
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err == nil && size > 0 && written != size {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return written, fmt.Errorf("%w: %v", ErrTransferInterrupted, err)
	}

	outcome = models.OutcomeCompleted
	return written, nil
}

// finalize runs on a context detached from the request: a client that went
// away must still get its grant restored.
func (s *DeliveryService) finalize(ctx context.Context, handle models.GrantHandle, outcome models.Outcome, written int64) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	prefix := models.TokenPrefix(handle.Token)
	if err := s.finalizeWithRetry(ctx, handle, outcome); err != nil {
		telemetry.Logger.Error("Failed to finalize grant",
			zap.String("token_prefix", prefix),
			zap.String("outcome", outcome.String()),
			zap.Error(err),
		)
		return
	}

	eventType := models.EventGrantRedeemed
	if outcome == models.OutcomeCompleted {
		telemetry.Logger.Info("PDF downloaded",
			zap.String("token_prefix", prefix),
			zap.Int64("bytes", written),
		)
	} else {
		eventType = models.EventGrantInterrupted
		telemetry.Logger.Warn("Download interrupted, allowing retry",
			zap.String("token_prefix", prefix),
			zap.Int64("bytes", written),
		)
	}

	event := events.New(eventType)
	event.PaymentID = handle.PaymentID
	event.TokenPrefix = prefix
	publish(ctx, s.publisher, event)
}

// finalizeWithRetry retries store errors. Stale and not-found answers are
// final. If every attempt fails, the transfer lease frees the grant later.
func (s *DeliveryService) finalizeWithRetry(ctx context.Context, handle models.GrantHandle, outcome models.Outcome) error {
	var err error
	for attempt := 1; attempt <= finalizeAttempts; attempt++ {
		err = s.grants.Finalize(ctx, handle, outcome)
		if err == nil || errors.Is(err, models.ErrStaleHandle) || errors.Is(err, models.ErrGrantNotFound) {
			return err
		}
		if attempt == finalizeAttempts {
			break
		}
		telemetry.Logger.Warn("Finalize failed, retrying",
			zap.String("token_prefix", models.TokenPrefix(handle.Token)),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return err
		case <-time.After(time.Duration(attempt) * finalizeBackoff):
		}
	}
	return err
}

func redeemError(err error) error {
	switch {
	case errors.Is(err, models.ErrGrantNotFound):
		return ErrGrantNotFound
	case errors.Is(err, models.ErrGrantExpired):
		return ErrGrantExpired
	case errors.Is(err, models.ErrGrantInProgress):
		return ErrGrantInProgress
	case errors.Is(err, models.ErrGrantAlreadyUsed):
		return ErrGrantAlreadyUsed
	default:
		return apperr.Wrap(fmt.Errorf("redeem grant: %w", err))
	}
}

// ctxReader stops a copy as soon as the request context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
