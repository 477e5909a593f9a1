package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hardhatlabs/subscout/internal/scoring"
)

// License status values persisted for contractors
const (
	LicenseStatusActive  = "active"
	LicenseStatusExpired = "expired"
	LicenseStatusUnknown = "unknown"
)

// Contractor represents a researched subcontractor business
type Contractor struct {
	ID               uuid.UUID   `json:"id" db:"id"`
	Name             string      `json:"name" db:"name"`
	Website          string      `json:"website" db:"website"`
	City             string      `json:"city" db:"city"`
	State            string      `json:"state" db:"state"`
	Phone            string      `json:"phone" db:"phone"`
	Email            string      `json:"email" db:"email"`
	LicenseNumber    string      `json:"lic_number" db:"license_number"`
	LicenseStatus    string      `json:"lic_status" db:"license_status"`
	LicenseExpiresAt *time.Time  `json:"lic_expires_at" db:"license_expires_at"`
	BondAmount       int64       `json:"bond_amount" db:"bond_amount"`
	YearsInBusiness  int         `json:"years_in_business" db:"years_in_business"`
	PositiveReviews  int         `json:"positive_reviews" db:"positive_reviews"`
	Awards           int         `json:"awards" db:"awards"`
	UnionMember      bool        `json:"union_member" db:"union_member"`
	Projects         ProjectList `json:"projects" db:"projects"`
	EvidenceURL      string      `json:"evidence_url" db:"evidence_url"`
	EvidenceText     string      `json:"evidence_text" db:"evidence_text"`
	LastCheckedAt    time.Time   `json:"last_checked" db:"last_checked_at"`
	CreatedAt        time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at" db:"updated_at"`
}

// ProjectList stores project history as a JSON column
type ProjectList []ProjectRecord

// ProjectRecord is one completed project found for a contractor
type ProjectRecord struct {
	City        string    `json:"city,omitempty"`
	State       string    `json:"state"`
	CompletedAt time.Time `json:"completed_at"`
	Quality     float64   `json:"quality"`
	Type        string    `json:"type,omitempty"`
	SourceURL   string    `json:"source_url,omitempty"`
}

// Value implements driver.Valuer for ProjectList
func (p ProjectList) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner for ProjectList
func (p *ProjectList) Scan(value interface{}) error {
	if value == nil {
		*p = ProjectList{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into ProjectList", value)
	}

	return json.Unmarshal(bytes, p)
}

// ToCandidate converts the stored contractor record into the scoring
// engine's input shape. Unparseable fields stay zero-valued; the engine
// treats those as missing evidence rather than errors.
func (c *Contractor) ToCandidate() scoring.Candidate {
	projects := make([]scoring.Project, 0, len(c.Projects))
	for _, p := range c.Projects {
		projects = append(projects, scoring.Project{
			City:        p.City,
			State:       p.State,
			CompletedAt: p.CompletedAt,
			Quality:     p.Quality,
		})
	}

	status := scoring.LicenseStatus(c.LicenseStatus)
	switch status {
	case scoring.LicenseActive, scoring.LicenseExpired:
	default:
		status = scoring.LicenseUnknown
	}

	return scoring.Candidate{
		ID:              c.ID,
		Name:            c.Name,
		City:            c.City,
		State:           c.State,
		Projects:        projects,
		License: scoring.License{
			Status:    status,
			Number:    c.LicenseNumber,
			ExpiresAt: c.LicenseExpiresAt,
		},
		BondAmount:      c.BondAmount,
		YearsInBusiness: c.YearsInBusiness,
		PositiveReviews: c.PositiveReviews,
		Awards:          c.Awards,
		UnionMember:     c.UnionMember,
	}
}

// ResearchJob represents one research request and its lifecycle
type ResearchJob struct {
	ID              uuid.UUID   `json:"id" db:"id"`
	Status          string      `json:"status" db:"status"`
	Trade           string      `json:"trade" db:"trade"`
	City            string      `json:"city" db:"city"`
	State           string      `json:"state" db:"state"`
	MinBond         int64       `json:"min_bond" db:"min_bond"`
	Keywords        StringList  `json:"keywords" db:"keywords"`
	CandidatesFound int         `json:"candidates_found" db:"candidates_found"`
	FailedProfiles  int         `json:"failed_profiles" db:"failed_profiles"`
	StartedBy       uuid.UUID   `json:"started_by" db:"started_by"`
	StartedAt       time.Time   `json:"started_at" db:"started_at"`
	CompletedAt     *time.Time  `json:"completed_at" db:"completed_at"`
	ErrorMessage    string      `json:"error_message,omitempty" db:"error_message"`
}

// StringList stores a string slice as a JSON column
type StringList []string

// Value implements driver.Valuer for StringList
func (s StringList) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner for StringList
func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = StringList{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into StringList", value)
	}

	return json.Unmarshal(bytes, s)
}

// JobResult is one ranked contractor stored for a completed job
type JobResult struct {
	ID           uuid.UUID `json:"id" db:"id"`
	JobID        uuid.UUID `json:"job_id" db:"job_id"`
	ContractorID uuid.UUID `json:"contractor_id" db:"contractor_id"`
	Rank         int       `json:"rank" db:"rank"`
	Score        float64   `json:"score" db:"score"`
	Breakdown    string    `json:"score_breakdown" db:"breakdown"` // JSON of scoring.Breakdown
	ScoredAt     time.Time `json:"scored_at" db:"scored_at"`
}

// ResearchJobStatus represents research job status values
type ResearchJobStatus string

const (
	ResearchJobPending   ResearchJobStatus = "pending"
	ResearchJobRunning   ResearchJobStatus = "running"
	ResearchJobCompleted ResearchJobStatus = "completed"
	ResearchJobFailed    ResearchJobStatus = "failed"
)
