package github

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/devconnector/internal/application/service"
	"github.com/khoahotran/devconnector/pkg/apperror"
	"github.com/khoahotran/devconnector/pkg/logger"
)

var tracer = otel.Tracer("github_usecase")

type ReposUseCase struct {
	lookup service.RepoLookup
	logger logger.Logger
}

func NewReposUseCase(lookup service.RepoLookup, log logger.Logger) *ReposUseCase {
	return &ReposUseCase{lookup: lookup, logger: log}
}

type ListReposInput struct {
	Username string
}

type ListReposOutput struct {
	// Body is the upstream JSON, relayed untouched.
	Body []byte
}

func (uc *ReposUseCase) Execute(ctx context.Context, input ListReposInput) (*ListReposOutput, error) {
	ctx, span := tracer.Start(ctx, "ListRepos")
	defer span.End()

	username := strings.TrimSpace(input.Username)
	span.SetAttributes(attribute.String("github.username", username))

	body, err := uc.lookup.ListRepos(ctx, username)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, service.ErrNoExternalProfile) {
			return nil, apperror.NewNotFound("github profile", username).
				WithStatus(http.StatusNotFound).
				WithMessage("No Github profile found")
		}
		uc.logger.Error("GitHub lookup failed", err, zap.String("username", username))
		return nil, apperror.NewInternal("github lookup failed", err)
	}
	return &ListReposOutput{Body: body}, nil
}
