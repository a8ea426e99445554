package profile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/devconnector/internal/application/service"
	"github.com/khoahotran/devconnector/internal/domain/post"
	"github.com/khoahotran/devconnector/internal/domain/profile"
	"github.com/khoahotran/devconnector/internal/domain/user"
	"github.com/khoahotran/devconnector/pkg/apperror"
	"github.com/khoahotran/devconnector/pkg/logger"
)

var tracer = otel.Tracer("profile_usecase")

const publishTimeout = 5 * time.Second

type ProfileUseCase struct {
	profileRepo   profile.Repository
	userRepo      user.Repository
	postRepo      post.Repository
	publisher     service.EventPublisher
	revocations   service.RevocationStore
	tokenLifespan time.Duration
	logger        logger.Logger
	now           func() time.Time
}

type Deps struct {
	Profiles      profile.Repository
	Users         user.Repository
	Posts         post.Repository
	Publisher     service.EventPublisher
	Revocations   service.RevocationStore
	TokenLifespan time.Duration
	Logger        logger.Logger
}

func NewProfileUseCase(d Deps) *ProfileUseCase {
	return &ProfileUseCase{
		profileRepo:   d.Profiles,
		userRepo:      d.Users,
		postRepo:      d.Posts,
		publisher:     d.Publisher,
		revocations:   d.Revocations,
		tokenLifespan: d.TokenLifespan,
		logger:        d.Logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// ProfileView is a profile with its owner's public details joined in.
// User is nil when the owner no longer exists.
type ProfileView struct {
	Profile *profile.Profile
	User    *user.Summary
}

type ProfileOutput struct {
	View ProfileView
}

type GetProfileInput struct {
	UserID uuid.UUID
}

func (uc *ProfileUseCase) ExecuteGetProfile(ctx context.Context, input GetProfileInput) (*ProfileOutput, error) {
	ctx, span := tracer.Start(ctx, "GetProfile")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", input.UserID.String()))

	p, err := uc.profileRepo.GetByUserID(ctx, input.UserID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	view, err := uc.join(ctx, p)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return &ProfileOutput{View: view}, nil
}

type GetProfileByUserInput struct {
	RawUserID string
}

// ExecuteGetProfileByUser rejects malformed ids before any storage access.
func (uc *ProfileUseCase) ExecuteGetProfileByUser(ctx context.Context, input GetProfileByUserInput) (*ProfileOutput, error) {
	userID, err := uuid.Parse(input.RawUserID)
	if err != nil {
		return nil, apperror.NewInvalidInput("user id is not a valid identifier", err).WithMessage("Invalid ID")
	}
	return uc.ExecuteGetProfile(ctx, GetProfileInput{UserID: userID})
}

type ListProfilesOutput struct {
	Views []ProfileView
}

func (uc *ProfileUseCase) ExecuteListProfiles(ctx context.Context) (*ListProfilesOutput, error) {
	ctx, span := tracer.Start(ctx, "ListProfiles")
	defer span.End()

	profiles, err := uc.profileRepo.List(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	ids := make([]uuid.UUID, len(profiles))
	for i, p := range profiles {
		ids[i] = p.UserID
	}
	users, err := uc.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	views := make([]ProfileView, len(profiles))
	for i, p := range profiles {
		views[i] = ProfileView{Profile: p}
		if u, ok := users[p.UserID]; ok {
			s := u.Summary()
			views[i].User = &s
		}
	}
	span.SetAttributes(attribute.Int("profile_count", len(views)))
	return &ListProfilesOutput{Views: views}, nil
}

type UpsertProfileInput struct {
	UserID uuid.UUID
	Fields profile.Fields
}

func (uc *ProfileUseCase) ExecuteUpsertProfile(ctx context.Context, input UpsertProfileInput) (*ProfileOutput, error) {
	ctx, span := tracer.Start(ctx, "UpsertProfile")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", input.UserID.String()))

	now := uc.now()
	p := profile.New(input.UserID, now)
	if err := p.Replace(input.Fields, now); err != nil {
		return nil, toValidationError(err)
	}

	stored, err := uc.profileRepo.Upsert(ctx, p)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	uc.publish(service.ProfileEvent{
		EventType: service.ProfileEventUpserted,
		UserID:    stored.UserID,
		ProfileID: stored.ID,
	})

	view, err := uc.join(ctx, stored)
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{View: view}, nil
}

func (uc *ProfileUseCase) join(ctx context.Context, p *profile.Profile) (ProfileView, error) {
	view := ProfileView{Profile: p}
	u, err := uc.userRepo.FindByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return view, nil
		}
		return view, err
	}
	s := u.Summary()
	view.User = &s
	return view, nil
}

// publish sends the event in the background; failures are only logged.
func (uc *ProfileUseCase) publish(event service.ProfileEvent) {
	if uc.publisher == nil {
		return
	}
	event.OccurredAt = uc.now()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := uc.publisher.PublishProfileEvent(ctx, event); err != nil {
			uc.logger.Error("Failed to publish profile event", err,
				zap.String("event_type", string(event.EventType)),
				zap.String("user_id", event.UserID.String()),
			)
		}
	}()
}

func toValidationError(err error) error {
	var ve *profile.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	fields := make([]apperror.FieldError, len(ve.Violations))
	for i, v := range ve.Violations {
		fields[i] = apperror.FieldError{Msg: v.Message, Param: v.Field, Location: "body"}
	}
	return apperror.NewValidation(fields)
}
