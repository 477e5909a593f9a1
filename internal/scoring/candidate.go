package scoring

import (
	"time"

	"github.com/google/uuid"
)

// LicenseStatus represents the verification state of a contractor license
type LicenseStatus string

const (
	LicenseActive  LicenseStatus = "active"
	LicenseExpired LicenseStatus = "expired"
	LicenseUnknown LicenseStatus = "unknown"
)

// Project represents a single completed project attributed to a candidate
type Project struct {
	City        string    `json:"city"`
	State       string    `json:"state"`
	CompletedAt time.Time `json:"completed_at"`
	Quality     float64   `json:"quality"` // rating on a 0-5 scale
}

// License represents a candidate's contractor license as last verified
type License struct {
	Status    LicenseStatus `json:"status"`
	Number    string        `json:"number,omitempty"`
	ExpiresAt *time.Time    `json:"expires_at,omitempty"`
}

// Candidate is one business under evaluation. Every field may be missing or
// zero-valued; absent evidence pins the affected factor at its floor instead
// of failing the batch.
type Candidate struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	City            string    `json:"city"`
	State           string    `json:"state"`
	Projects        []Project `json:"projects,omitempty"`
	License         License   `json:"license"`
	BondAmount      int64     `json:"bond_amount"`
	YearsInBusiness int       `json:"years_in_business"`
	PositiveReviews int       `json:"positive_reviews"`
	Awards          int       `json:"awards"`
	UnionMember     bool      `json:"union_member"`
}

// Breakdown is the per-candidate output artifact: the five normalized
// sub-scores, the weighted total, and the weights that produced it.
type Breakdown struct {
	CandidateID uuid.UUID `json:"candidate_id"`
	Experience  float64   `json:"experience"`
	License     float64   `json:"license"`
	Bonding     float64   `json:"bonding"`
	Geography   float64   `json:"geography"`
	Reputation  float64   `json:"reputation"`
	Total       float64   `json:"total"`
	Weights     Weights   `json:"weights"`
}

// RankedCandidate pairs a candidate with its breakdown and final rank
type RankedCandidate struct {
	Rank      int       `json:"rank"`
	Candidate Candidate `json:"candidate"`
	Breakdown Breakdown `json:"score_breakdown"`
}

// Ranked is an ordered result set, descending by total score with
// deterministic tie-breaks.
type Ranked []RankedCandidate
