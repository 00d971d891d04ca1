package submission

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Submission struct {
	ID                   string    `json:"id"`
	UserID               string    `json:"user_id"`
	Name                 string    `json:"name"`
	Age                  int       `json:"age"`
	PlaceOfLiving        string    `json:"place_of_living"`
	Gender               string    `json:"gender"`
	CountryOfOrigin      string    `json:"country_of_origin"`
	Description          *string   `json:"description"`
	PhotoPath            string    `json:"photo_path"`
	ClassificationResult string    `json:"classification_result"`
	CreatedAt            time.Time `json:"created_at"`
}

var ErrNotFound = errors.New("submission not found")

// CreateSubmissionRequest is bound from the multipart form. The photo part is
// read separately by the handler.
type CreateSubmissionRequest struct {
	Name            string  `form:"name" json:"name" binding:"required,min=1,max=120"`
	Age             *int    `form:"age" json:"age" binding:"required,min=0,max=120"`
	PlaceOfLiving   string  `form:"place_of_living" json:"place_of_living" binding:"required,min=1,max=120"`
	Gender          string  `form:"gender" json:"gender" binding:"required,min=1,max=40"`
	CountryOfOrigin string  `form:"country_of_origin" json:"country_of_origin" binding:"required,min=1,max=120"`
	Description     *string `form:"description" json:"description" binding:"omitempty,max=500"`
}

// Metadata is the classifier-facing view of a submission.
type Metadata struct {
	Name            string  `json:"name"`
	Age             int     `json:"age"`
	PlaceOfLiving   string  `json:"place_of_living"`
	Gender          string  `json:"gender"`
	CountryOfOrigin string  `json:"country_of_origin"`
	Description     *string `json:"description"`
}

// Normalize treats an empty description as absent.
func (r *CreateSubmissionRequest) Normalize() {
	if r.Description != nil && *r.Description == "" {
		r.Description = nil
	}
}

func (r CreateSubmissionRequest) Metadata() Metadata {
	age := 0
	if r.Age != nil {
		age = *r.Age
	}
	return Metadata{
		Name:            r.Name,
		Age:             age,
		PlaceOfLiving:   r.PlaceOfLiving,
		Gender:          r.Gender,
		CountryOfOrigin: r.CountryOfOrigin,
		Description:     r.Description,
	}
}

// with pointers if optional, it will be nil
type ListFilter struct {
	AgeMin          *int
	AgeMax          *int
	Gender          *string
	PlaceOfLiving   *string
	CountryOfOrigin *string
}

// ListFilterQuery is bound from the admin listing query string.
type ListFilterQuery struct {
	AgeMin          *int   `form:"age_min"`
	AgeMax          *int   `form:"age_max"`
	Gender          string `form:"gender"`
	PlaceOfLiving   string `form:"place_of_living"`
	CountryOfOrigin string `form:"country_of_origin"`
}

// Filter drops empty text filters so they match everything.
func (q ListFilterQuery) Filter() ListFilter {
	f := ListFilter{AgeMin: q.AgeMin, AgeMax: q.AgeMax}
	if q.Gender != "" {
		f.Gender = &q.Gender
	}
	if q.PlaceOfLiving != "" {
		f.PlaceOfLiving = &q.PlaceOfLiving
	}
	if q.CountryOfOrigin != "" {
		f.CountryOfOrigin = &q.CountryOfOrigin
	}
	return f
}

// New builds a submission from a validated request. ID and timestamp are
// assigned here so the repository row and the audit entry share them.
func New(userID string, req CreateSubmissionRequest, photoPath, label string) Submission {
	md := req.Metadata()
	return Submission{
		ID:                   uuid.NewString(),
		UserID:               userID,
		Name:                 md.Name,
		Age:                  md.Age,
		PlaceOfLiving:        md.PlaceOfLiving,
		Gender:               md.Gender,
		CountryOfOrigin:      md.CountryOfOrigin,
		Description:          md.Description,
		PhotoPath:            photoPath,
		ClassificationResult: label,
		CreatedAt:            time.Now().UTC(),
	}
}
