package service

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ProfileEventType string

const (
	ProfileEventUpserted          ProfileEventType = "profile.upserted"
	ProfileEventExperienceAdded   ProfileEventType = "profile.experience_added"
	ProfileEventExperienceRemoved ProfileEventType = "profile.experience_removed"
	ProfileEventEducationAdded    ProfileEventType = "profile.education_added"
	ProfileEventEducationRemoved  ProfileEventType = "profile.education_removed"
	ProfileEventAccountDeleted    ProfileEventType = "account.deleted"
)

type ProfileEvent struct {
	EventType  ProfileEventType `json:"event_type"`
	UserID     uuid.UUID        `json:"user_id"`
	ProfileID  uuid.UUID        `json:"profile_id,omitempty"`
	EntryID    string           `json:"entry_id,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

type EventPublisher interface {
	PublishProfileEvent(ctx context.Context, event ProfileEvent) error
}
