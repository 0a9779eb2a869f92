package announce

import (
	"time"

	"github.com/zombieTDV/studentms/core"
)

// Announcement statuses. The draft state exists on the stored model but no
// operation currently produces it; posting publishes immediately.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Announcement is a notice authored by an admin. Students only ever see
// published ones.
type Announcement struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedBy string    `json:"created_by"` // admin account id
	CreatedAt time.Time `json:"created_at"` // UTC
	Status    Status    `json:"status"`
}

// NewAnnouncement contains the information needed to post an announcement.
type NewAnnouncement struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
}

func (na *NewAnnouncement) Validate() error {
	na.Title = core.CleanString(na.Title)
	na.Content = core.CleanString(na.Content)
	return core.TranslateError(core.Validate.Struct(na))
}
