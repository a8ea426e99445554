package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/khoahotran/devconnector/adapters/event"
	"github.com/khoahotran/devconnector/adapters/github"
	"github.com/khoahotran/devconnector/adapters/persistence"
	authUC "github.com/khoahotran/devconnector/internal/application/usecase/auth"
	githubUC "github.com/khoahotran/devconnector/internal/application/usecase/github"
	profileUC "github.com/khoahotran/devconnector/internal/application/usecase/profile"
	"github.com/khoahotran/devconnector/internal/domain/profile"
	"github.com/khoahotran/devconnector/internal/domain/user"
	"github.com/khoahotran/devconnector/pkg/apperror"
	"github.com/khoahotran/devconnector/pkg/auth"
	"github.com/khoahotran/devconnector/pkg/logger"
	"github.com/khoahotran/devconnector/pkg/validation"
)

// store is an in-memory stand-in for all three repositories. Every call is
// counted so tests can assert that storage was never reached.
type store struct {
	mu       sync.Mutex
	calls    int
	users    map[uuid.UUID]*user.User
	profiles map[uuid.UUID]*profile.Profile
	posts    map[uuid.UUID]int64
}

func newStore() *store {
	return &store{
		users:    map[uuid.UUID]*user.User{},
		profiles: map[uuid.UUID]*profile.Profile{},
		posts:    map[uuid.UUID]int64{},
	}
}

func (s *store) hit() func() {
	s.mu.Lock()
	s.calls++
	return s.mu.Unlock
}

func (s *store) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type profileRepo struct{ *store }
type userRepo struct{ *store }
type postRepo struct{ *store }

func clone(p *profile.Profile) *profile.Profile {
	cp := *p
	cp.Experience = append([]profile.Experience{}, p.Experience...)
	cp.Education = append([]profile.Education{}, p.Education...)
	return &cp
}

func (r profileRepo) GetByUserID(_ context.Context, id uuid.UUID) (*profile.Profile, error) {
	defer r.hit()()
	p, ok := r.profiles[id]
	if !ok {
		return nil, apperror.NewNotFound("profile", id.String())
	}
	return clone(p), nil
}

func (r profileRepo) List(context.Context) ([]*profile.Profile, error) {
	defer r.hit()()
	out := []*profile.Profile{}
	for _, p := range r.profiles {
		out = append(out, clone(p))
	}
	return out, nil
}

func (r profileRepo) Upsert(_ context.Context, p *profile.Profile) (*profile.Profile, error) {
	defer r.hit()()
	if existing, ok := r.profiles[p.UserID]; ok {
		p.ID, p.Experience, p.Education = existing.ID, existing.Experience, existing.Education
	}
	r.profiles[p.UserID] = clone(p)
	return clone(p), nil
}

func (r profileRepo) DeleteByUserID(_ context.Context, id uuid.UUID) error {
	defer r.hit()()
	delete(r.profiles, id)
	return nil
}

func (r profileRepo) mutate(id uuid.UUID, fn func(*profile.Profile)) (*profile.Profile, error) {
	defer r.hit()()
	p, ok := r.profiles[id]
	if !ok {
		return nil, apperror.NewNotFound("profile", id.String())
	}
	fn(p)
	return clone(p), nil
}

func (r profileRepo) AddExperience(_ context.Context, id uuid.UUID, e profile.Experience) (*profile.Profile, error) {
	return r.mutate(id, func(p *profile.Profile) { p.Experience = append([]profile.Experience{e}, p.Experience...) })
}

func (r profileRepo) RemoveExperience(_ context.Context, id uuid.UUID, entryID string) (*profile.Profile, error) {
	return r.mutate(id, func(p *profile.Profile) { p.Experience = without(p.Experience, entryID, func(e profile.Experience) string { return e.ID }) })
}

func (r profileRepo) AddEducation(_ context.Context, id uuid.UUID, e profile.Education) (*profile.Profile, error) {
	return r.mutate(id, func(p *profile.Profile) { p.Education = append([]profile.Education{e}, p.Education...) })
}

func (r profileRepo) RemoveEducation(_ context.Context, id uuid.UUID, entryID string) (*profile.Profile, error) {
	return r.mutate(id, func(p *profile.Profile) { p.Education = without(p.Education, entryID, func(e profile.Education) string { return e.ID }) })
}

func without[T any](list []T, id string, idOf func(T) string) []T {
	kept := make([]T, 0, len(list))
	for _, e := range list {
		if idOf(e) != id {
			kept = append(kept, e)
		}
	}
	return kept
}

func (r userRepo) FindByEmail(_ context.Context, email string) (*user.User, error) {
	defer r.hit()()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperror.NewNotFound("user", email)
}

func (r userRepo) FindByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	defer r.hit()()
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, apperror.NewNotFound("user", id.String())
}

func (r userRepo) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*user.User, error) {
	defer r.hit()()
	out := map[uuid.UUID]*user.User{}
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (r userRepo) Delete(_ context.Context, id uuid.UUID) error {
	defer r.hit()()
	delete(r.users, id)
	return nil
}

func (r postRepo) DeleteByUser(_ context.Context, id uuid.UUID) (int64, error) {
	defer r.hit()()
	n := r.posts[id]
	delete(r.posts, id)
	return n, nil
}

type RouterTestSuite struct {
	suite.Suite
	router   *gin.Engine
	store    *store
	jwtSvc   *auth.JWTService
	redis    *miniredis.Miniredis
	upstream *httptest.Server
	alice    *user.User
	password string
}

func TestRouter(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func (s *RouterTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	log := logger.NewNopLogger()

	s.store = newStore()
	s.password = "hunter22"
	hash, err := auth.HashPassword(s.password)
	s.Require().NoError(err)
	s.alice = &user.User{ID: uuid.New(), Name: "Alice", Email: "alice@example.com", Avatar: "//gravatar/a", PasswordHash: hash}
	s.store.users[s.alice.ID] = s.alice

	s.redis = miniredis.RunT(s.T())
	rdb := redis.NewClient(&redis.Options{Addr: s.redis.Addr()})
	s.T().Cleanup(func() { _ = rdb.Close() })
	revocations := persistence.NewRedisRevocationStore(rdb)

	s.upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/octocat/repos" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"name":"Hello-World"}]`))
	}))
	s.T().Cleanup(s.upstream.Close)

	s.jwtSvc = auth.NewJWTService("router-test-secret", time.Hour)
	v := validation.NewStructValidator()

	profileUseCase := profileUC.NewProfileUseCase(profileUC.Deps{
		Profiles:      profileRepo{s.store},
		Users:         userRepo{s.store},
		Posts:         postRepo{s.store},
		Publisher:     event.NopPublisher{},
		Revocations:   revocations,
		TokenLifespan: s.jwtSvc.TokenLifespan(),
		Logger:        log,
	})
	reposUseCase := githubUC.NewReposUseCase(github.NewClient(github.Config{BaseURL: s.upstream.URL, Timeout: time.Second}), log)

	s.router = NewRouter(RouterDeps{
		AuthHandler:    NewAuthHandler(authUC.NewLoginUseCase(userRepo{s.store}, s.jwtSvc, log), v),
		ProfileHandler: NewProfileHandler(profileUseCase, v),
		GithubHandler:  NewGithubHandler(reposUseCase),
		JWTService:     s.jwtSvc,
		Revocations:    revocations,
		CORSOrigins:    []string{"http://localhost:3000"},
		Logger:         log,
	})
}

func (s *RouterTestSuite) token() string {
	tok, err := s.jwtSvc.GenerateToken(s.alice.ID)
	s.Require().NoError(err)
	return tok
}

func (s *RouterTestSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(DefaultTokenHeader, token)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](s *RouterTestSuite, rr *httptest.ResponseRecorder) T {
	var out T
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

type msgBody struct {
	Msg    string                `json:"msg"`
	Errors []apperror.FieldError `json:"errors"`
}

func (s *RouterTestSuite) createProfile(skills any) ProfileDTO {
	rr := s.do(http.MethodPost, "/api/profile", s.token(), map[string]any{"status": "Intern", "skills": skills, "twitter": "https://twitter.com/alice"})
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	return decode[ProfileDTO](s, rr)
}

func (s *RouterTestSuite) Test_Health() {
	rr := s.do(http.MethodGet, "/api/health", "", nil)
	s.Equal(http.StatusOK, rr.Code)
	s.NotEmpty(rr.Header().Get(HeaderRequestID))
}

func (s *RouterTestSuite) Test_RequestIDIsEchoed() {
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	s.Equal("req-123", rr.Header().Get(HeaderRequestID))
}

func (s *RouterTestSuite) Test_ProtectedRoutesRejectMissingToken() {
	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/profile/me"},
		{http.MethodPost, "/api/profile"},
		{http.MethodDelete, "/api/profile"},
		{http.MethodPut, "/api/profile/experience"},
		{http.MethodDelete, "/api/profile/experience/abc"},
		{http.MethodPut, "/api/profile/education"},
		{http.MethodDelete, "/api/profile/education/abc"},
	}
	for _, r := range routes {
		rr := s.do(r.method, r.path, "", map[string]any{"status": "x", "skills": "y"})
		s.Equal(http.StatusUnauthorized, rr.Code, r.path)
		s.Equal("No token, authorization denied", decode[msgBody](s, rr).Msg)
	}
	s.Zero(s.store.callCount(), "storage is never touched")
}

func (s *RouterTestSuite) Test_InvalidTokens() {
	foreign, err := auth.NewJWTService("another-secret", time.Hour).GenerateToken(s.alice.ID)
	s.Require().NoError(err)
	expired, err := auth.NewJWTService("router-test-secret", -time.Minute).GenerateToken(s.alice.ID)
	s.Require().NoError(err)

	for _, tok := range []string{"garbage", foreign, expired} {
		rr := s.do(http.MethodGet, "/api/profile/me", tok, nil)
		s.Equal(http.StatusUnauthorized, rr.Code)
		s.Equal("Token is not valid", decode[msgBody](s, rr).Msg)
	}
	s.Zero(s.store.callCount())
}

func (s *RouterTestSuite) Test_BearerPrefixAccepted() {
	s.createProfile("Go")
	rr := s.do(http.MethodGet, "/api/profile/me", "Bearer "+s.token(), nil)
	s.Equal(http.StatusOK, rr.Code)
}

func (s *RouterTestSuite) Test_RevocationStoreDownIsServerError() {
	s.redis.Close()
	rr := s.do(http.MethodGet, "/api/profile/me", s.token(), nil)
	s.Equal(http.StatusInternalServerError, rr.Code)
	s.Equal("Server Error", decode[msgBody](s, rr).Msg)
}

func (s *RouterTestSuite) Test_MisconfiguredVerifierIsServerError() {
	router := NewRouter(RouterDeps{
		AuthHandler:    &AuthHandler{},
		ProfileHandler: &ProfileHandler{},
		GithubHandler:  &GithubHandler{},
		JWTService:     auth.NewJWTService("", time.Hour),
		Logger:         logger.NewNopLogger(),
	})
	req := httptest.NewRequest(http.MethodGet, "/api/profile/me", nil)
	req.Header.Set(DefaultTokenHeader, s.token())
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	s.Equal(http.StatusInternalServerError, rr.Code)
}

func (s *RouterTestSuite) Test_UpsertNormalizesSkills() {
	p := s.createProfile("Go, Rust, C++")
	s.Equal([]string{"Go", "Rust", "C++"}, p.Skills)
	s.Require().NotNil(p.User)
	s.Equal("Alice", p.User.Name)
	s.Equal(profile.Social{"twitter": "https://twitter.com/alice"}, p.Social)

	again := s.createProfile([]string{" Go ", "SQL"})
	s.Equal(p.ID, again.ID, "second upsert replaces the first")
	s.Equal([]string{"Go", "SQL"}, again.Skills)
	s.Nil(again.Social, "omitted social links are cleared")
}

func (s *RouterTestSuite) Test_UpsertValidation() {
	rr := s.do(http.MethodPost, "/api/profile", s.token(), map[string]any{"skills": " , "})
	s.Equal(http.StatusBadRequest, rr.Code)

	body := decode[msgBody](s, rr)
	msgs := map[string]string{}
	for _, e := range body.Errors {
		msgs[e.Param] = e.Msg
	}
	s.Equal("Status is required", msgs["status"])
	s.Equal("Skills is required", msgs["skills"])
	s.Zero(s.store.callCount())
}

func (s *RouterTestSuite) Test_GetMyProfileWithoutOne() {
	rr := s.do(http.MethodGet, "/api/profile/me", s.token(), nil)
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal("There is no profile for this user", decode[msgBody](s, rr).Msg)
}

func (s *RouterTestSuite) Test_PublicProfileLookup() {
	created := s.createProfile("Go")

	rr := s.do(http.MethodGet, "/api/profile/user/"+s.alice.ID.String(), "", nil)
	s.Equal(http.StatusOK, rr.Code)
	s.Equal(created.ID, decode[ProfileDTO](s, rr).ID)

	rr = s.do(http.MethodGet, "/api/profile/user/"+uuid.NewString(), "", nil)
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal("Profile not found", decode[msgBody](s, rr).Msg)

	rr = s.do(http.MethodGet, "/api/profile", "", nil)
	s.Equal(http.StatusOK, rr.Code)
	s.Len(decode[[]ProfileDTO](s, rr), 1)
}

func (s *RouterTestSuite) Test_MalformedUserIDNeverReachesStorage() {
	rr := s.do(http.MethodGet, "/api/profile/user/not-an-id", "", nil)
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal("Profile not found", decode[msgBody](s, rr).Msg)
	s.Zero(s.store.callCount())
}

func (s *RouterTestSuite) Test_ExperienceLifecycle() {
	s.createProfile("Go")
	tok := s.token()

	rr := s.do(http.MethodPut, "/api/profile/experience", tok, map[string]any{
		"title": "Dev", "company": "Acme", "from": "2020-06-01", "to": "2020-01-01",
	})
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal("From date must be before to date", decode[msgBody](s, rr).Errors[0].Msg)

	rr = s.do(http.MethodPut, "/api/profile/experience", tok, map[string]any{
		"title": "Dev", "company": "Acme", "from": "2020-01-01", "to": "2020-06-01",
	})
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	rr = s.do(http.MethodPut, "/api/profile/experience", tok, map[string]any{
		"title": "Lead", "company": "Initech", "from": "2021-01-01", "current": true,
	})
	s.Require().Equal(http.StatusOK, rr.Code)
	p := decode[ProfileDTO](s, rr)
	s.Require().Len(p.Experience, 2)
	s.Equal("Lead", p.Experience[0].Title)
	s.Nil(p.Experience[0].To)

	rr = s.do(http.MethodDelete, "/api/profile/experience/unknown", tok, nil)
	s.Equal(http.StatusOK, rr.Code)
	s.Len(decode[ProfileDTO](s, rr).Experience, 2)

	rr = s.do(http.MethodDelete, "/api/profile/experience/"+p.Experience[1].ID, tok, nil)
	s.Equal(http.StatusOK, rr.Code)
	left := decode[ProfileDTO](s, rr).Experience
	s.Require().Len(left, 1)
	s.Equal("Lead", left[0].Title)
}

func (s *RouterTestSuite) Test_CurrentEntryKeepsDateOrderAndEndDate() {
	s.createProfile("Go")
	tok := s.token()

	rr := s.do(http.MethodPut, "/api/profile/experience", tok, map[string]any{
		"title": "Dev", "company": "Acme", "from": "2020-06-01", "to": "2020-01-01", "current": true,
	})
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal("From date must be before to date", decode[msgBody](s, rr).Errors[0].Msg)
	s.Empty(s.store.profiles[s.alice.ID].Experience)

	rr = s.do(http.MethodPut, "/api/profile/education", tok, map[string]any{
		"school": "MIT", "degree": "BSc", "fieldofstudy": "CS", "from": "2020-06-01", "to": "2020-01-01", "current": true,
	})
	s.Equal(http.StatusBadRequest, rr.Code)

	rr = s.do(http.MethodPut, "/api/profile/experience", tok, map[string]any{
		"title": "Dev", "company": "Acme", "from": "2020-01-01", "to": "2020-06-01", "current": true,
	})
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	entry := decode[ProfileDTO](s, rr).Experience[0]
	s.True(entry.Current)
	s.Require().NotNil(entry.To, "end date is stored alongside the current flag")
	s.Equal(time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC), entry.To.UTC())
}

func (s *RouterTestSuite) Test_EducationRequiresFields() {
	s.createProfile("Go")
	rr := s.do(http.MethodPut, "/api/profile/education", s.token(), map[string]any{"school": "MIT", "from": "soon"})
	s.Equal(http.StatusBadRequest, rr.Code)

	params := map[string]string{}
	for _, e := range decode[msgBody](s, rr).Errors {
		params[e.Param] = e.Msg
	}
	s.Equal("Degree is required", params["degree"])
	s.Equal("Field of study is required", params["fieldofstudy"])
	s.Equal("From date must be a valid date", params["from"])
}

func (s *RouterTestSuite) Test_AddEducationWithoutProfile() {
	rr := s.do(http.MethodPut, "/api/profile/education", s.token(), map[string]any{
		"school": "MIT", "degree": "BSc", "fieldofstudy": "CS", "from": "2015-09-01",
	})
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal("There is no profile for this user", decode[msgBody](s, rr).Msg)
}

func (s *RouterTestSuite) Test_DeleteAccountCascade() {
	s.createProfile("Go")
	s.store.posts[s.alice.ID] = 2
	tok := s.token()

	rr := s.do(http.MethodDelete, "/api/profile", tok, nil)
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Equal("User deleted", decode[msgBody](s, rr).Msg)

	s.Empty(s.store.posts)
	s.Empty(s.store.profiles)
	s.Empty(s.store.users)

	rr = s.do(http.MethodGet, "/api/profile/me", tok, nil)
	s.Equal(http.StatusUnauthorized, rr.Code, "tokens of deleted accounts are refused")
}

func (s *RouterTestSuite) Test_Login() {
	rr := s.do(http.MethodPost, "/api/auth", "", map[string]any{"email": s.alice.Email, "password": "wrong"})
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal("Invalid Credentials", decode[msgBody](s, rr).Errors[0].Msg)

	rr = s.do(http.MethodPost, "/api/auth", "", map[string]any{"email": "nope", "password": ""})
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Len(decode[msgBody](s, rr).Errors, 2)

	rr = s.do(http.MethodPost, "/api/auth", "", map[string]any{"email": s.alice.Email, "password": s.password})
	s.Require().Equal(http.StatusOK, rr.Code)
	tok := decode[map[string]string](s, rr)["token"]
	s.NotEmpty(tok)

	rr = s.do(http.MethodGet, "/api/profile/me", tok, nil)
	s.Equal(http.StatusBadRequest, rr.Code, "authenticated, but no profile yet")
}

func (s *RouterTestSuite) Test_GithubRepos() {
	rr := s.do(http.MethodGet, "/api/profile/github/octocat", "", nil)
	s.Equal(http.StatusOK, rr.Code)
	s.JSONEq(`[{"name":"Hello-World"}]`, rr.Body.String())

	rr = s.do(http.MethodGet, "/api/profile/github/ghost", "", nil)
	s.Equal(http.StatusNotFound, rr.Code)
	s.Equal("No Github profile found", decode[msgBody](s, rr).Msg)
}

func (s *RouterTestSuite) Test_UnknownErrorsAreServerErrors() {
	router := gin.New()
	router.Use(ErrorMiddleware(logger.NewNopLogger()))
	router.GET("/boom", func(c *gin.Context) { c.Error(errors.New("driver exploded: secret dsn")) })

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", nil))
	s.Equal(http.StatusInternalServerError, rr.Code)
	s.JSONEq(`{"msg":"Server Error"}`, rr.Body.String())
}
