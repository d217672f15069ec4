package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for run events. It is append-only:
// there are no Update or Delete methods.

type Repository interface {
	Append(ctx context.Context, e Event) error
	ListByCampaign(ctx context.Context, workspaceID, campaignID string) ([]Event, error)
}

// Service records orchestration run milestones.
//
// Callers should treat run logging as best-effort: a failed append is the
// caller's to log, never to propagate into the run itself.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.WorkspaceID == "" || e.CampaignID == "" {
		return ErrInvalidEvent
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// LogRun records one run milestone for a campaign.
func (s *Service) LogRun(ctx context.Context, typ EventType, workspaceID, campaignID, batchJobID, message string) error {
	return s.Append(ctx, Event{
		WorkspaceID: workspaceID,
		Type:        typ,
		CampaignID:  campaignID,
		BatchJobID:  batchJobID,
		Message:     message,
	})
}

// RunHistory returns the recorded milestones for one campaign.
func (s *Service) RunHistory(ctx context.Context, workspaceID, campaignID string) ([]Event, error) {
	if s.repo == nil {
		return nil, errors.New("audit: repository not configured")
	}
	if workspaceID == "" || campaignID == "" {
		return nil, ErrInvalidEvent
	}
	return s.repo.ListByCampaign(ctx, workspaceID, campaignID)
}
