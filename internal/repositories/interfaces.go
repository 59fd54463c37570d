package repositories

import (
	"context"

	"github.com/cre-mailflow/api/internal/domain"
)

// CampaignDraftRepository stores campaign drafts. Drafts are insert-only.
type CampaignDraftRepository interface {
	// Insert persists the draft and returns the stored identifier and creation time. The draft ID
	// is assigned by the caller when non-empty.
	Insert(ctx context.Context, draft domain.CampaignDraft) (domain.SavedCampaignDraft, error)
	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error
}

// HealthRepository exposes status of downstream dependencies for health checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}
