package profile

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SocialNetworks lists the only keys accepted in Profile.Social.
var SocialNetworks = []string{"youtube", "twitter", "facebook", "linkedin", "instagram"}

var ErrDateOrder = errors.New("from date must be before to date")

// Violation names a field that breaks a profile invariant.
type Violation struct {
	Field   string
	Message string
}

type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Field + ": " + v.Message
	}
	return "invalid profile: " + strings.Join(msgs, "; ")
}

func check(violations []Violation) error {
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}

func required(violations []Violation, value, field, message string) []Violation {
	if strings.TrimSpace(value) == "" {
		violations = append(violations, Violation{Field: field, Message: message})
	}
	return violations
}

func dates(violations []Violation, from time.Time, to *time.Time) []Violation {
	if from.IsZero() {
		return append(violations, Violation{Field: "from", Message: "From date is required and must be valid"})
	}
	if CheckDateOrder(from, to) != nil {
		violations = append(violations, Violation{Field: "from", Message: "From date must be before to date"})
	}
	return violations
}

type Social map[string]string

type Experience struct {
	ID          string     `json:"_id" bson:"_id"`
	Title       string     `json:"title" bson:"title"`
	Company     string     `json:"company" bson:"company"`
	Location    string     `json:"location,omitempty" bson:"location,omitempty"`
	From        time.Time  `json:"from" bson:"from"`
	To          *time.Time `json:"to,omitempty" bson:"to,omitempty"`
	Current     bool       `json:"current" bson:"current"`
	Description string     `json:"description,omitempty" bson:"description,omitempty"`
}

type Education struct {
	ID           string     `json:"_id" bson:"_id"`
	School       string     `json:"school" bson:"school"`
	Degree       string     `json:"degree" bson:"degree"`
	FieldOfStudy string     `json:"fieldofstudy" bson:"fieldofstudy"`
	From         time.Time  `json:"from" bson:"from"`
	To           *time.Time `json:"to,omitempty" bson:"to,omitempty"`
	Current      bool       `json:"current" bson:"current"`
	Description  string     `json:"description,omitempty" bson:"description,omitempty"`
}

type Profile struct {
	ID             uuid.UUID    `json:"_id" bson:"-"`
	UserID         uuid.UUID    `json:"user" bson:"-"`
	Company        string       `json:"company,omitempty" bson:"company,omitempty"`
	Website        string       `json:"website,omitempty" bson:"website,omitempty"`
	Location       string       `json:"location,omitempty" bson:"location,omitempty"`
	Status         string       `json:"status" bson:"status"`
	Skills         []string     `json:"skills" bson:"skills"`
	Bio            string       `json:"bio,omitempty" bson:"bio,omitempty"`
	GithubUsername string       `json:"githubusername,omitempty" bson:"githubusername,omitempty"`
	Social         Social       `json:"social,omitempty" bson:"social,omitempty"`
	Experience     []Experience `json:"experience" bson:"experience"`
	Education      []Education  `json:"education" bson:"education"`
	UpdatedAt      time.Time    `json:"date" bson:"date"`
}

// Fields is the replaceable part of a profile, as submitted by its owner.
type Fields struct {
	Company        string
	Website        string
	Location       string
	Status         string
	Skills         []string
	Bio            string
	GithubUsername string
	Social         map[string]string
}

// New returns an empty profile owned by userID.
func New(userID uuid.UUID, now time.Time) *Profile {
	return &Profile{
		ID:         uuid.New(),
		UserID:     userID,
		Experience: []Experience{},
		Education:  []Education{},
		UpdatedAt:  now,
	}
}

// SplitSkills turns "Go, Rust ,C++" into ["Go" "Rust" "C++"].
func SplitSkills(raw string) []string {
	return NormalizeSkills(strings.Split(raw, ","))
}

// NormalizeSkills trims every skill and drops empty ones.
func NormalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// BuildSocial keeps only recognised networks with a non-empty URL.
// It returns nil when nothing is left.
func BuildSocial(in map[string]string) Social {
	var out Social
	for _, network := range SocialNetworks {
		v := strings.TrimSpace(in[network])
		if v == "" {
			continue
		}
		if out == nil {
			out = Social{}
		}
		out[network] = v
	}
	return out
}

// Replace overwrites every owner-editable field. Omitted fields are cleared;
// the experience and education lists are kept.
func (p *Profile) Replace(f Fields, now time.Time) error {
	status := strings.TrimSpace(f.Status)
	skills := NormalizeSkills(f.Skills)

	violations := required(nil, status, "status", "Status is required")
	if len(skills) == 0 {
		violations = append(violations, Violation{Field: "skills", Message: "Skills is required"})
	}
	if err := check(violations); err != nil {
		return err
	}

	p.Company = strings.TrimSpace(f.Company)
	p.Website = strings.TrimSpace(f.Website)
	p.Location = strings.TrimSpace(f.Location)
	p.Status = status
	p.Skills = skills
	p.Bio = f.Bio
	p.GithubUsername = strings.TrimSpace(f.GithubUsername)
	p.Social = BuildSocial(f.Social)
	p.UpdatedAt = now
	return nil
}

// CheckDateOrder reports ErrDateOrder when to is set and not after from.
func CheckDateOrder(from time.Time, to *time.Time) error {
	if to != nil && !from.Before(*to) {
		return ErrDateOrder
	}
	return nil
}

func (e Experience) Validate() error {
	v := required(nil, e.Title, "title", "Title is required")
	v = required(v, e.Company, "company", "Company is required")
	return check(dates(v, e.From, e.To))
}

func (e Education) Validate() error {
	v := required(nil, e.School, "school", "School is required")
	v = required(v, e.Degree, "degree", "Degree is required")
	v = required(v, e.FieldOfStudy, "fieldofstudy", "Field of study is required")
	return check(dates(v, e.From, e.To))
}

// Repository stores one profile document per user. Reads and entry
// mutations of a missing profile return an apperror not-found error.
type Repository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
	List(ctx context.Context) ([]*Profile, error)
	// Upsert creates p, or replaces the owner-editable fields of the profile
	// already owned by p.UserID, keeping its id, experience and education.
	// It returns the stored document.
	Upsert(ctx context.Context, p *Profile) (*Profile, error)
	// DeleteByUserID is a no-op when there is nothing to delete.
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error

	// Entry mutations are atomic on the profile document.
	AddExperience(ctx context.Context, userID uuid.UUID, e Experience) (*Profile, error)
	RemoveExperience(ctx context.Context, userID uuid.UUID, entryID string) (*Profile, error)
	AddEducation(ctx context.Context, userID uuid.UUID, e Education) (*Profile, error)
	RemoveEducation(ctx context.Context, userID uuid.UUID, entryID string) (*Profile, error)
}
