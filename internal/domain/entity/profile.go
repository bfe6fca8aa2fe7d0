package entity

import "github.com/google/uuid"

// Profile участник маркетплейса. Редактирование профилей живёт вне этого сервиса.
type Profile struct {
	ID          uuid.UUID
	DisplayName string
	Email       string
	Role        string
	AvatarURL   *string
}

type ProfileSummary struct {
	ID          uuid.UUID
	DisplayName string
	AvatarURL   *string
}

func (p *Profile) Summary() *ProfileSummary {
	return &ProfileSummary{ID: p.ID, DisplayName: p.DisplayName, AvatarURL: p.AvatarURL}
}
