package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"codm-backend/internal/llm"
	"codm-backend/internal/shared/metrics"
	"codm-backend/internal/shared/storage/object"
	"codm-backend/internal/shared/telemetry"
)

// Service runs one screenshot analysis against the configured extractor.
type Service struct {
	Extractor llm.Extractor
	// Archive receives a copy of the screenshots after a successful
	// extraction. Nil disables archiving.
	Archive object.Store
	Timeout time.Duration
}

// Analyze validates uploads, calls the extractor once and normalizes the result.
func (s *Service) Analyze(ctx context.Context, kind Kind, ownerID string, uploads []Upload) (json.RawMessage, error) {
	rules, ok := kinds[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown analysis kind %q", ErrInvalidInput, kind)
	}
	if len(uploads) != rules.images {
		return nil, fmt.Errorf("%w: %s analysis requires %d images, got %d", ErrInvalidInput, kind, rules.images, len(uploads))
	}
	prompt, ok := llm.Prompt(string(kind))
	if !ok {
		return nil, fmt.Errorf("%w: no prompt for %q", ErrInvalidInput, kind)
	}

	images := make([]llm.Image, 0, len(uploads))
	for _, u := range uploads {
		images = append(images, u.Image)
	}

	callCtx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := s.Extractor.Extract(callCtx, llm.Request{
		Kind:   string(kind),
		Prompt: prompt,
		Images: images,
	})
	if err != nil {
		metrics.ObserveAnalysis(string(kind), "error", time.Since(start))
		if errors.Is(err, llm.ErrNotConfigured) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	doc, err := Normalize(kind, raw)
	metrics.ObserveAnalysis(string(kind), outcome(err), time.Since(start))
	if err != nil {
		return nil, err
	}

	s.archive(ctx, ownerID, uploads)
	return doc, nil
}

// archive stores the screenshots best-effort; failures are only logged.
func (s *Service) archive(ctx context.Context, ownerID string, uploads []Upload) {
	if s.Archive == nil {
		return
	}
	batchID := uuid.NewString()
	for i, u := range uploads {
		key, err := object.ScreenshotKey(ownerID, batchID, i, u.FileName)
		if err == nil {
			_, err = s.Archive.Put(ctx, key, u.MIMEType, bytes.NewReader(u.Data))
		}
		if err != nil {
			telemetry.Warn("analysis.archive_failed", map[string]any{
				"batch_id": batchID,
				"index":    i,
				"error":    err,
			})
			return
		}
	}
	telemetry.Info("analysis.archived", map[string]any{
		"batch_id": batchID,
		"images":   len(uploads),
	})
}

func outcome(err error) string {
	var rejected *UpstreamValidationError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &rejected):
		return "rejected"
	default:
		return "error"
	}
}
