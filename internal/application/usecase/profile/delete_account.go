package profile

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/devconnector/internal/application/service"
	"github.com/khoahotran/devconnector/pkg/apperror"
)

type DeleteAccountInput struct {
	UserID uuid.UUID
}

type DeleteAccountOutput struct {
	PostsDeleted int64
}

// ExecuteDeleteAccount removes the caller's posts, profile and user record in
// that order. There is no rollback: when a later step fails the earlier
// deletions stay, and the failure is logged as a partial cascade.
func (uc *ProfileUseCase) ExecuteDeleteAccount(ctx context.Context, input DeleteAccountInput) (*DeleteAccountOutput, error) {
	ctx, span := tracer.Start(ctx, "DeleteAccount")
	defer span.End()

	log := uc.logger.With(zap.String("user_id", input.UserID.String()))
	var done []string

	fail := func(step string, err error) error {
		span.RecordError(err)
		if len(done) == 0 {
			log.Error("Account deletion failed", err, zap.String("failed_step", step))
		} else {
			log.Error("Account deletion partially applied", err,
				zap.String("failed_step", step),
				zap.Strings("completed_steps", done),
			)
		}
		return apperror.NewInternal("account deletion failed at "+step, err)
	}

	postsDeleted, err := uc.postRepo.DeleteByUser(ctx, input.UserID)
	if err != nil {
		return nil, fail("posts", err)
	}
	done = append(done, "posts")

	if err := uc.profileRepo.DeleteByUserID(ctx, input.UserID); err != nil {
		return nil, fail("profile", err)
	}
	done = append(done, "profile")

	if err := uc.userRepo.Delete(ctx, input.UserID); err != nil {
		return nil, fail("user", err)
	}

	if uc.revocations != nil {
		if err := uc.revocations.Revoke(ctx, input.UserID, uc.tokenLifespan); err != nil {
			log.Error("Account deleted but outstanding tokens were not revoked", err)
		}
	}

	uc.publish(service.ProfileEvent{
		EventType: service.ProfileEventAccountDeleted,
		UserID:    input.UserID,
	})

	log.Info("Account deleted", zap.Int64("posts_deleted", postsDeleted))
	return &DeleteAccountOutput{PostsDeleted: postsDeleted}, nil
}
