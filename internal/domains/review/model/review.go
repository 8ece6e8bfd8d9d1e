package model

import (
	"time"

	"github.com/google/uuid"

	"bookreview-backend/internal/shared/lifecycle"
)

const (
	MinRating = 1
	MaxRating = 5

	MinTextLength  = 10
	MaxTextLength  = 1000
	MaxTitleLength = 100
)

// ReadingStatus của người viết review với cuốn sách
type ReadingStatus string

const (
	StatusCompleted  ReadingStatus = "completed"
	StatusReading    ReadingStatus = "reading"
	StatusWantToRead ReadingStatus = "want-to-read"
)

// Review entity. BookID và UserID không bao giờ đổi sau khi tạo.
type Review struct {
	ID            uuid.UUID
	BookID        uuid.UUID
	UserID        uuid.UUID
	Rating        int
	ReviewText    string
	Title         *string
	ReadingStatus ReadingStatus
	SpoilerAlert  bool
	HelpfulVotes  int
	State         lifecycle.State
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Joined khi đọc
	UserName   string
	BookTitle  string
	BookAuthor string
}

func (r *Review) IsActive() bool {
	return r.State.IsActive()
}
