package entity

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Type      string
	Title     string
	Message   string
	Data      map[string]any
	Link      *string
	IsRead    bool
	CreatedAt time.Time
}

func NewNotification(userID uuid.UUID, kind, title, message string, data map[string]any, link *string) *Notification {
	return &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Message:   message,
		Data:      data,
		Link:      link,
		CreatedAt: time.Now().UTC(),
	}
}
