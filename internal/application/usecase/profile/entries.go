package profile

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/khoahotran/devconnector/internal/application/service"
	"github.com/khoahotran/devconnector/internal/domain/profile"
)

type AddExperienceInput struct {
	UserID     uuid.UUID
	Experience profile.Experience
}

func (uc *ProfileUseCase) ExecuteAddExperience(ctx context.Context, input AddExperienceInput) (*ProfileOutput, error) {
	ctx, span := tracer.Start(ctx, "AddExperience")
	defer span.End()

	e := input.Experience
	if err := e.Validate(); err != nil {
		return nil, toValidationError(err)
	}
	e.ID = uuid.NewString()
	span.SetAttributes(attribute.String("entry_id", e.ID))

	p, err := uc.profileRepo.AddExperience(ctx, input.UserID, e)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	uc.publish(service.ProfileEvent{
		EventType: service.ProfileEventExperienceAdded,
		UserID:    input.UserID,
		ProfileID: p.ID,
		EntryID:   e.ID,
	})
	return uc.output(ctx, p)
}

type RemoveEntryInput struct {
	UserID  uuid.UUID
	EntryID string
}

// ExecuteRemoveExperience is a no-op when no entry has the given id.
func (uc *ProfileUseCase) ExecuteRemoveExperience(ctx context.Context, input RemoveEntryInput) (*ProfileOutput, error) {
	ctx, span := tracer.Start(ctx, "RemoveExperience")
	defer span.End()

	p, err := uc.profileRepo.RemoveExperience(ctx, input.UserID, input.EntryID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	uc.publish(service.ProfileEvent{
		EventType: service.ProfileEventExperienceRemoved,
		UserID:    input.UserID,
		ProfileID: p.ID,
		EntryID:   input.EntryID,
	})
	return uc.output(ctx, p)
}

type AddEducationInput struct {
	UserID    uuid.UUID
	Education profile.Education
}

func (uc *ProfileUseCase) ExecuteAddEducation(ctx context.Context, input AddEducationInput) (*ProfileOutput, error) {
	ctx, span := tracer.Start(ctx, "AddEducation")
	defer span.End()

	e := input.Education
	if err := e.Validate(); err != nil {
		return nil, toValidationError(err)
	}
	e.ID = uuid.NewString()
	span.SetAttributes(attribute.String("entry_id", e.ID))

	p, err := uc.profileRepo.AddEducation(ctx, input.UserID, e)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	uc.publish(service.ProfileEvent{
		EventType: service.ProfileEventEducationAdded,
		UserID:    input.UserID,
		ProfileID: p.ID,
		EntryID:   e.ID,
	})
	return uc.output(ctx, p)
}

// ExecuteRemoveEducation is a no-op when no entry has the given id.
func (uc *ProfileUseCase) ExecuteRemoveEducation(ctx context.Context, input RemoveEntryInput) (*ProfileOutput, error) {
	ctx, span := tracer.Start(ctx, "RemoveEducation")
	defer span.End()

	p, err := uc.profileRepo.RemoveEducation(ctx, input.UserID, input.EntryID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	uc.publish(service.ProfileEvent{
		EventType: service.ProfileEventEducationRemoved,
		UserID:    input.UserID,
		ProfileID: p.ID,
		EntryID:   input.EntryID,
	})
	return uc.output(ctx, p)
}

func (uc *ProfileUseCase) output(ctx context.Context, p *profile.Profile) (*ProfileOutput, error) {
	view, err := uc.join(ctx, p)
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{View: view}, nil
}
