package activity

import (
	"context"
	"fmt"

	"profinder/internal/domain"
)

// Recorder appends audit records. Callers decide what to do with a failure.
type Recorder struct {
	repo ActivityRepository
}

func NewRecorder(repo ActivityRepository) *Recorder {
	return &Recorder{repo: repo}
}

func (r *Recorder) Record(ctx context.Context, rec *domain.ActivityRecord, meta domain.RequestMeta) error {
	if !rec.ActionType.Valid() {
		return fmt.Errorf("%w: unknown action type %q", domain.ErrInvalidInput, rec.ActionType)
	}
	if rec.ActorID == 0 {
		return fmt.Errorf("%w: actor is required", domain.ErrInvalidInput)
	}
	rec.ID = 0
	rec.IPAddress = meta.IPAddress
	rec.UserAgent = truncate(meta.UserAgent, 512)
	return r.repo.Create(ctx, rec)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
