package announce

import (
	"context"
	"errors"
	"time"

	"github.com/zombieTDV/studentms/core"
)

var ErrNotFound = errors.New("announcement not found")

type (
	// Repository persists announcements. AllByStatus returns newest first.
	Repository interface {
		Insert(ctx context.Context, a Announcement) (string, error)
		GetByID(ctx context.Context, id string) (Announcement, error)
		AllByStatus(ctx context.Context, status Status) ([]Announcement, error)
		Update(ctx context.Context, a Announcement) error
		Delete(ctx context.Context, id string) (bool, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Post publishes an announcement immediately (no draft workflow is exercised
// by the rest of the system).
func (svc *Service) Post(ctx context.Context, authorID string, na NewAnnouncement) (Announcement, error) {
	if err := na.Validate(); err != nil {
		return Announcement{}, err
	}
	a := Announcement{
		Title:     na.Title,
		Content:   na.Content,
		CreatedBy: authorID,
		CreatedAt: time.Now().UTC(),
		Status:    StatusPublished,
	}
	id, err := svc.repo.Insert(ctx, a)
	if err != nil {
		return Announcement{}, err
	}
	a.ID = id
	return a, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Announcement, error) {
	return svc.repo.GetByID(ctx, id)
}

// Published lists what students see, newest first.
func (svc *Service) Published(ctx context.Context) ([]Announcement, error) {
	return svc.repo.AllByStatus(ctx, StatusPublished)
}

// Edit replaces title and/or content. Empty fields keep the stored values.
func (svc *Service) Edit(ctx context.Context, id, title, content string) (Announcement, error) {
	a, err := svc.repo.GetByID(ctx, id)
	if err != nil {
		return Announcement{}, err
	}
	if title = core.CleanString(title); title != "" {
		a.Title = title
	}
	if content = core.CleanString(content); content != "" {
		a.Content = content
	}
	if err = svc.repo.Update(ctx, a); err != nil {
		return Announcement{}, err
	}
	return a, nil
}

// Archive retires a published announcement from the student read model.
func (svc *Service) Archive(ctx context.Context, id string) (Announcement, error) {
	a, err := svc.repo.GetByID(ctx, id)
	if err != nil {
		return Announcement{}, err
	}
	if a.Status == StatusArchived {
		return a, nil
	}
	a.Status = StatusArchived
	if err = svc.repo.Update(ctx, a); err != nil {
		return Announcement{}, err
	}
	return a, nil
}

func (svc *Service) Delete(ctx context.Context, id string) (bool, error) {
	return svc.repo.Delete(ctx, id)
}
