package scoring

import (
	"sort"
	"strings"
	"time"
)

const hoursPerYear = 24 * 365.25

// Engine computes weighted candidate scores. It holds no mutable state
// beyond the clock, so a single instance is safe for concurrent use.
type Engine struct {
	now func() time.Time
}

// NewEngine creates a scoring engine
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// NewEngineAt creates an engine pinned to a fixed evaluation time. Scoring
// is fully deterministic given the same clock, candidates, and config.
func NewEngineAt(now time.Time) *Engine {
	return &Engine{now: func() time.Time { return now }}
}

// Score computes a breakdown for every candidate and returns them ranked
// descending by total. An invalid config aborts the call; a candidate with
// missing or zeroed fields is scored at the affected factors' floors and is
// never dropped from the output.
func (e *Engine) Score(candidates []Candidate, cfg Config) (Ranked, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	// Evaluation time is pinned once so every candidate in the batch sees
	// the same cutoffs.
	now := e.now()

	ranked := make(Ranked, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, RankedCandidate{
			Candidate: c,
			Breakdown: scoreCandidate(c, cfg, now),
		})
	}

	sortRanked(ranked)
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	return ranked, nil
}

// ScoreCandidate computes one candidate's breakdown against a validated
// config. It is a pure function of its inputs and the engine clock, which
// makes batches trivially parallelizable by callers.
func (e *Engine) ScoreCandidate(c Candidate, cfg Config) (Breakdown, error) {
	if err := cfg.Validate(); err != nil {
		return Breakdown{}, err
	}
	return scoreCandidate(c, cfg.withDefaults(), e.now()), nil
}

func scoreCandidate(c Candidate, cfg Config, now time.Time) Breakdown {
	b := Breakdown{
		CandidateID: c.ID,
		Experience:  experienceScore(c, cfg, now),
		License:     licenseScore(c.License, cfg, now),
		Bonding:     bondingScore(c.BondAmount, cfg),
		Geography:   geographyScore(c.City, c.State, cfg),
		Reputation:  reputationScore(c),
		Weights:     cfg.Weights,
	}

	b.Total = 100 * (cfg.Weights.Experience*b.Experience +
		cfg.Weights.License*b.License +
		cfg.Weights.Bonding*b.Bonding +
		cfg.Weights.Geography*b.Geography +
		cfg.Weights.Reputation*b.Reputation)

	return b
}

// experienceScore counts projects completed inside the lookback window in
// the target state, weights each by its normalized quality rating, and runs
// the sum through a saturating curve: n/(n+knee) reaches 0.5 at the knee and
// approaches 1.0 with diminishing returns.
func experienceScore(c Candidate, cfg Config, now time.Time) float64 {
	cutoff := now.AddDate(-cfg.LookbackYears, 0, 0)

	var weighted float64
	for _, p := range c.Projects {
		if p.CompletedAt.IsZero() || p.CompletedAt.Before(cutoff) || p.CompletedAt.After(now) {
			continue
		}
		if !strings.EqualFold(p.State, cfg.TargetState) {
			continue
		}
		weighted += clamp01(p.Quality / 5)
	}

	if weighted == 0 {
		return 0
	}
	return weighted / (weighted + cfg.ExperienceSaturation)
}

// licenseScore maps remaining validity onto [0,1]. Expired and unknown
// licenses score 0, as does an active license with no known expiration:
// absent evidence is treated as worst case. An active license scales
// linearly with time to expiry up to the horizon, so one expiring tomorrow
// and one good for years land on distinct points of the same curve.
func licenseScore(lic License, cfg Config, now time.Time) float64 {
	if lic.Status != LicenseActive || lic.ExpiresAt == nil {
		return 0
	}

	yearsLeft := lic.ExpiresAt.Sub(now).Hours() / hoursPerYear
	if yearsLeft <= 0 {
		return 0
	}
	if yearsLeft >= cfg.LicenseHorizonYears {
		return 1
	}
	return yearsLeft / cfg.LicenseHorizonYears
}

// bondingScore is the ratio of bond capacity to required minimum, saturating
// at BondSaturationRatio times the minimum. Below BondFloorRatio of the
// minimum the score is a hard 0; between floor and saturation it is
// proportional, so under-bonded-but-close candidates remain rankable.
func bondingScore(bond int64, cfg Config) float64 {
	if bond <= 0 {
		return 0
	}

	ratio := float64(bond) / float64(cfg.MinBond)
	if ratio < cfg.BondFloorRatio {
		return 0
	}
	if cfg.BondSaturationRatio <= 0 {
		return 1
	}
	return clamp01(ratio / cfg.BondSaturationRatio)
}

// geographyScore uses region tiers: exact city+state match is 1.0, a state
// match scores StateMatchScore, anything else is the floor. Candidate
// records carry city/state rather than reliable coordinates, so tiers beat
// a distance function here.
func geographyScore(city, state string, cfg Config) float64 {
	if !strings.EqualFold(state, cfg.TargetState) {
		return 0
	}
	if cfg.TargetCity != "" && strings.EqualFold(city, cfg.TargetCity) {
		return 1
	}
	return cfg.StateMatchScore
}

// reputationScore blends tenure, positive reviews, awards, and union
// membership. Each count is normalized through its own saturating curve
// before blending so an unbounded count can never dominate the factor.
func reputationScore(c Candidate) float64 {
	years := saturate(float64(c.YearsInBusiness), 10)
	reviews := saturate(float64(c.PositiveReviews), 20)
	awards := saturate(float64(c.Awards), 3)

	union := 0.0
	if c.UnionMember {
		union = 1.0
	}

	return 0.35*years + 0.30*reviews + 0.20*awards + 0.15*union
}

// saturate maps a non-negative count onto [0,1) with value 0.5 at the knee
func saturate(n, knee float64) float64 {
	if n <= 0 {
		return 0
	}
	return n / (n + knee)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// sortRanked orders results descending by total. Exact ties fall through
// experience, license, and bonding sub-scores, then years in business; a
// stable sort preserves input order for anything still tied.
func sortRanked(ranked Ranked) {
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Breakdown.Total != b.Breakdown.Total {
			return a.Breakdown.Total > b.Breakdown.Total
		}
		if a.Breakdown.Experience != b.Breakdown.Experience {
			return a.Breakdown.Experience > b.Breakdown.Experience
		}
		if a.Breakdown.License != b.Breakdown.License {
			return a.Breakdown.License > b.Breakdown.License
		}
		if a.Breakdown.Bonding != b.Breakdown.Bonding {
			return a.Breakdown.Bonding > b.Breakdown.Bonding
		}
		return a.Candidate.YearsInBusiness > b.Candidate.YearsInBusiness
	})
}
