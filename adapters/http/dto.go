package http

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	profileUC "github.com/khoahotran/devconnector/internal/application/usecase/profile"
	"github.com/khoahotran/devconnector/internal/domain/profile"
	"github.com/khoahotran/devconnector/internal/domain/user"
	"github.com/khoahotran/devconnector/pkg/validation"
)

// SkillList accepts either "Go, Rust" or ["Go", "Rust"].
type SkillList []string

func (s *SkillList) UnmarshalJSON(b []byte) error {
	var joined string
	if err := json.Unmarshal(b, &joined); err == nil {
		*s = profile.SplitSkills(joined)
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	*s = profile.NormalizeSkills(list)
	return nil
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpsertProfileRequest struct {
	Company        string    `json:"company"`
	Website        string    `json:"website"`
	Location       string    `json:"location"`
	Status         string    `json:"status" validate:"required"`
	Skills         SkillList `json:"skills" validate:"required,min=1"`
	Bio            string    `json:"bio"`
	GithubUsername string    `json:"githubusername"`
	Youtube        string    `json:"youtube"`
	Twitter        string    `json:"twitter"`
	Facebook       string    `json:"facebook"`
	Linkedin       string    `json:"linkedin"`
	Instagram      string    `json:"instagram"`
}

func (r *UpsertProfileRequest) ToFields() profile.Fields {
	return profile.Fields{
		Company:        r.Company,
		Website:        r.Website,
		Location:       r.Location,
		Status:         r.Status,
		Skills:         r.Skills,
		Bio:            r.Bio,
		GithubUsername: r.GithubUsername,
		Social: map[string]string{
			"youtube":   r.Youtube,
			"twitter":   r.Twitter,
			"facebook":  r.Facebook,
			"linkedin":  r.Linkedin,
			"instagram": r.Instagram,
		},
	}
}

type ExperienceRequest struct {
	Title       string `json:"title" validate:"required"`
	Company     string `json:"company" validate:"required"`
	Location    string `json:"location"`
	From        string `json:"from" label:"From date" validate:"required,date"`
	To          string `json:"to" label:"To date" validate:"date"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

type EducationRequest struct {
	School       string `json:"school" validate:"required"`
	Degree       string `json:"degree" validate:"required"`
	FieldOfStudy string `json:"fieldofstudy" label:"Field of study" validate:"required"`
	From         string `json:"from" label:"From date" validate:"required,date"`
	To           string `json:"to" label:"To date" validate:"date"`
	Current      bool   `json:"current"`
	Description  string `json:"description"`
}

// entryDates parses already validated dates. The end date is kept even for a
// current entry so the date order can still be checked.
func entryDates(from, to string) (time.Time, *time.Time) {
	start, _ := validation.ParseDate(from)
	if strings.TrimSpace(to) == "" {
		return start, nil
	}
	end, err := validation.ParseDate(to)
	if err != nil {
		return start, nil
	}
	return start, &end
}

func (r *ExperienceRequest) ToDomain() profile.Experience {
	from, to := entryDates(r.From, r.To)
	return profile.Experience{
		Title:       strings.TrimSpace(r.Title),
		Company:     strings.TrimSpace(r.Company),
		Location:    strings.TrimSpace(r.Location),
		From:        from,
		To:          to,
		Current:     r.Current,
		Description: r.Description,
	}
}

func (r *EducationRequest) ToDomain() profile.Education {
	from, to := entryDates(r.From, r.To)
	return profile.Education{
		School:       strings.TrimSpace(r.School),
		Degree:       strings.TrimSpace(r.Degree),
		FieldOfStudy: strings.TrimSpace(r.FieldOfStudy),
		From:         from,
		To:           to,
		Current:      r.Current,
		Description:  r.Description,
	}
}

// ProfileDTO is a profile with its owner joined in place of the user id.
type ProfileDTO struct {
	ID             uuid.UUID            `json:"_id"`
	User           *user.Summary        `json:"user"`
	Company        string               `json:"company,omitempty"`
	Website        string               `json:"website,omitempty"`
	Location       string               `json:"location,omitempty"`
	Status         string               `json:"status"`
	Skills         []string             `json:"skills"`
	Bio            string               `json:"bio,omitempty"`
	GithubUsername string               `json:"githubusername,omitempty"`
	Social         profile.Social       `json:"social,omitempty"`
	Experience     []profile.Experience `json:"experience"`
	Education      []profile.Education  `json:"education"`
	Date           time.Time            `json:"date"`
}

func ToProfileDTO(v profileUC.ProfileView) ProfileDTO {
	p := v.Profile
	return ProfileDTO{
		ID:             p.ID,
		User:           v.User,
		Company:        p.Company,
		Website:        p.Website,
		Location:       p.Location,
		Status:         p.Status,
		Skills:         p.Skills,
		Bio:            p.Bio,
		GithubUsername: p.GithubUsername,
		Social:         p.Social,
		Experience:     p.Experience,
		Education:      p.Education,
		Date:           p.UpdatedAt,
	}
}

func ToProfileDTOs(views []profileUC.ProfileView) []ProfileDTO {
	dtos := make([]ProfileDTO, len(views))
	for i, v := range views {
		dtos[i] = ToProfileDTO(v)
	}
	return dtos
}
