package scoring

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testConfig() Config {
	return NewConfig(500000, "Austin", "TX")
}

func timePtr(t time.Time) *time.Time {
	return &t
}

// strongCandidate matches the worked example from the design discussion:
// active license with years of runway, five good recent Texas projects,
// double the required bond, exact city match.
func strongCandidate() Candidate {
	projects := make([]Project, 5)
	for i := range projects {
		projects[i] = Project{
			City:        "Austin",
			State:       "TX",
			CompletedAt: testNow.AddDate(-1, -i, 0),
			Quality:     4.5,
		}
	}
	return Candidate{
		ID:       uuid.New(),
		Name:     "Lone Star Mechanical",
		City:     "Austin",
		State:    "TX",
		Projects: projects,
		License: License{
			Status:    LicenseActive,
			Number:    "TX-194822",
			ExpiresAt: timePtr(testNow.AddDate(4, 0, 0)),
		},
		BondAmount:      1000000,
		YearsInBusiness: 10,
		PositiveReviews: 8,
	}
}

func weakCandidate() Candidate {
	return Candidate{
		ID:    uuid.New(),
		Name:  "Gulf Coast Builders",
		City:  "Houston",
		State: "TX",
		Projects: []Project{
			{City: "Houston", State: "TX", CompletedAt: testNow.AddDate(-2, 0, 0), Quality: 2.5},
		},
		License:         License{Status: LicenseExpired},
		BondAmount:      250000,
		YearsInBusiness: 2,
	}
}

func TestEngine_RejectsInvalidConfig(t *testing.T) {
	engine := NewEngineAt(testNow)

	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "weights do not sum to 1",
			mutate: func(c *Config) { c.Weights.Experience = 0.5 },
		},
		{
			name:   "negative weight",
			mutate: func(c *Config) { c.Weights.License = -0.2; c.Weights.Experience = 0.65 },
		},
		{
			name:   "zero min bond",
			mutate: func(c *Config) { c.MinBond = 0 },
		},
		{
			name:   "missing target state",
			mutate: func(c *Config) { c.TargetState = "" },
		},
		{
			name:   "floor above saturation",
			mutate: func(c *Config) { c.BondFloorRatio = 3.0 },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)

			_, err := engine.Score([]Candidate{strongCandidate()}, cfg)
			if err == nil {
				t.Fatal("expected config error, got nil")
			}

			var cfgErr *ConfigError
			if !asConfigError(err, &cfgErr) {
				t.Errorf("expected *ConfigError, got %T: %v", err, err)
			}
		})
	}
}

func asConfigError(err error, target **ConfigError) bool {
	ce, ok := err.(*ConfigError)
	if ok {
		*target = ce
	}
	return ok
}

func TestEngine_WeightToleranceAccepted(t *testing.T) {
	cfg := testConfig()
	// Sum drifts from 1.0 by less than the tolerance after float addition
	cfg.Weights = Weights{Experience: 0.2, License: 0.2, Bonding: 0.2, Geography: 0.2, Reputation: 0.2}

	if _, err := NewEngineAt(testNow).Score(nil, cfg); err != nil {
		t.Fatalf("expected config within tolerance to be accepted: %v", err)
	}
}

func TestEngine_SubScoreBounds(t *testing.T) {
	engine := NewEngineAt(testNow)
	cfg := testConfig()

	candidates := []Candidate{
		strongCandidate(),
		weakCandidate(),
		{}, // everything missing
		{
			// out-of-range inputs still clamp into bounds
			Name:            "Overflow Industries",
			State:           "TX",
			City:            "Austin",
			Projects:        []Project{{State: "TX", CompletedAt: testNow.AddDate(0, -1, 0), Quality: 99}},
			License:         License{Status: LicenseActive, ExpiresAt: timePtr(testNow.AddDate(40, 0, 0))},
			BondAmount:      1 << 40,
			YearsInBusiness: 500,
			PositiveReviews: 1 << 30,
			Awards:          1000,
			UnionMember:     true,
		},
	}

	ranked, err := engine.Score(candidates, cfg)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}

	for _, rc := range ranked {
		b := rc.Breakdown
		for name, v := range map[string]float64{
			"experience": b.Experience,
			"license":    b.License,
			"bonding":    b.Bonding,
			"geography":  b.Geography,
			"reputation": b.Reputation,
		} {
			if v < 0 || v > 1 {
				t.Errorf("candidate %q: %s sub-score %v out of [0,1]", rc.Candidate.Name, name, v)
			}
		}
		if b.Total < 0 || b.Total > 100 {
			t.Errorf("candidate %q: total %v out of [0,100]", rc.Candidate.Name, b.Total)
		}
	}
}

func TestEngine_BondingMonotonic(t *testing.T) {
	cfg := testConfig().withDefaults()

	prev := -1.0
	for bond := int64(0); bond <= 2000000; bond += 25000 {
		score := bondingScore(bond, cfg)
		if score < prev {
			t.Fatalf("bonding score decreased from %v to %v at bond=%d", prev, score, bond)
		}
		prev = score
	}

	// Saturation: 2x minimum and above pins at 1.0
	if got := bondingScore(cfg.MinBond*2, cfg); got != 1.0 {
		t.Errorf("expected saturation at 2x minimum, got %v", got)
	}
	if got := bondingScore(cfg.MinBond*10, cfg); got != 1.0 {
		t.Errorf("expected saturation at 10x minimum, got %v", got)
	}

	// Hard floor below BondFloorRatio of the minimum
	under := int64(float64(cfg.MinBond)*cfg.BondFloorRatio) - 1
	if got := bondingScore(under, cfg); got != 0 {
		t.Errorf("expected 0 below the floor, got %v", got)
	}

	// Under-bonded but above the floor still ranks
	if got := bondingScore(cfg.MinBond/2, cfg); got <= 0 {
		t.Errorf("expected proportional score for half the minimum, got %v", got)
	}
}

func TestEngine_LicenseMonotonic(t *testing.T) {
	cfg := testConfig().withDefaults()

	prev := -1.0
	for days := 0; days <= 365*8; days += 30 {
		lic := License{Status: LicenseActive, ExpiresAt: timePtr(testNow.AddDate(0, 0, days))}
		score := licenseScore(lic, cfg, testNow)
		if score < prev {
			t.Fatalf("license score decreased at %d days to expiry", days)
		}
		prev = score
	}

	tomorrow := licenseScore(License{Status: LicenseActive, ExpiresAt: timePtr(testNow.AddDate(0, 0, 1))}, cfg, testNow)
	fiveYears := licenseScore(License{Status: LicenseActive, ExpiresAt: timePtr(testNow.AddDate(5, 0, 0))}, cfg, testNow)

	if tomorrow <= 0 {
		t.Error("license expiring tomorrow should score above 0")
	}
	if tomorrow >= fiveYears {
		t.Error("near-expiry license must score below one with years of runway")
	}
	if fiveYears != 1.0 {
		t.Errorf("license at the horizon should score 1.0, got %v", fiveYears)
	}

	for _, lic := range []License{
		{Status: LicenseExpired, ExpiresAt: timePtr(testNow.AddDate(2, 0, 0))},
		{Status: LicenseUnknown},
		{Status: LicenseActive}, // no expiry on record
	} {
		if got := licenseScore(lic, cfg, testNow); got != 0 {
			t.Errorf("license %+v should score 0, got %v", lic, got)
		}
	}
}

func TestEngine_ExperienceMonotonic(t *testing.T) {
	cfg := testConfig().withDefaults()

	c := Candidate{State: "TX"}
	prev := experienceScore(c, cfg, testNow)
	if prev != 0 {
		t.Fatalf("zero matching projects must score 0, got %v", prev)
	}

	// Adding a matching project never decreases the score, and marginal
	// gains shrink past the saturation knee.
	var gains []float64
	for i := 0; i < 12; i++ {
		c.Projects = append(c.Projects, Project{
			State:       "TX",
			CompletedAt: testNow.AddDate(-1, 0, 0),
			Quality:     4.5,
		})
		score := experienceScore(c, cfg, testNow)
		if score < prev {
			t.Fatalf("experience score decreased after adding project %d", i+1)
		}
		gains = append(gains, score-prev)
		prev = score
	}
	for i := 1; i < len(gains); i++ {
		if gains[i] > gains[i-1]+1e-12 {
			t.Fatalf("marginal gain grew from %v to %v at project %d", gains[i-1], gains[i], i+1)
		}
	}
}

func TestEngine_ExperienceWindowAndRegion(t *testing.T) {
	cfg := testConfig().withDefaults()

	testCases := []struct {
		name    string
		project Project
		counts  bool
	}{
		{"recent in-state", Project{State: "TX", CompletedAt: testNow.AddDate(-1, 0, 0), Quality: 4}, true},
		{"case-insensitive state", Project{State: "tx", CompletedAt: testNow.AddDate(-1, 0, 0), Quality: 4}, true},
		{"outside lookback", Project{State: "TX", CompletedAt: testNow.AddDate(-7, 0, 0), Quality: 4}, false},
		{"wrong state", Project{State: "OK", CompletedAt: testNow.AddDate(-1, 0, 0), Quality: 4}, false},
		{"future completion date", Project{State: "TX", CompletedAt: testNow.AddDate(1, 0, 0), Quality: 4}, false},
		{"missing completion date", Project{State: "TX", Quality: 4}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := Candidate{Projects: []Project{tc.project}}
			score := experienceScore(c, cfg, testNow)
			if tc.counts && score == 0 {
				t.Error("expected project to count toward experience")
			}
			if !tc.counts && score != 0 {
				t.Errorf("expected project to be excluded, got score %v", score)
			}
		})
	}
}

func TestEngine_GeographyTiers(t *testing.T) {
	cfg := testConfig().withDefaults()

	testCases := []struct {
		name     string
		city     string
		state    string
		expected float64
	}{
		{"exact match", "Austin", "TX", 1.0},
		{"case-insensitive match", "AUSTIN", "tx", 1.0},
		{"state only", "Dallas", "TX", cfg.StateMatchScore},
		{"out of state", "Tulsa", "OK", 0},
		{"missing location", "", "", 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := geographyScore(tc.city, tc.state, cfg); got != tc.expected {
				t.Errorf("geographyScore(%q, %q) = %v, want %v", tc.city, tc.state, got, tc.expected)
			}
		})
	}
}

func TestEngine_ReputationBlend(t *testing.T) {
	base := reputationScore(Candidate{})
	if base != 0 {
		t.Fatalf("empty candidate should have 0 reputation, got %v", base)
	}

	// A huge review count alone cannot dominate the blend
	reviewsOnly := reputationScore(Candidate{PositiveReviews: 1 << 30})
	if reviewsOnly >= 0.31 {
		t.Errorf("unbounded review count dominated reputation: %v", reviewsOnly)
	}

	withUnion := reputationScore(Candidate{UnionMember: true})
	if withUnion <= 0 {
		t.Error("union membership should contribute to reputation")
	}
}

func TestEngine_StrongBeatsWeak(t *testing.T) {
	engine := NewEngineAt(testNow)

	ranked, err := engine.Score([]Candidate{weakCandidate(), strongCandidate()}, testConfig())
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}

	if ranked[0].Candidate.Name != "Lone Star Mechanical" {
		t.Fatalf("expected the strong candidate first, got %q", ranked[0].Candidate.Name)
	}
	if ranked[0].Breakdown.Total <= ranked[1].Breakdown.Total {
		t.Errorf("strong total %v not strictly greater than weak total %v",
			ranked[0].Breakdown.Total, ranked[1].Breakdown.Total)
	}
	if ranked[0].Rank != 1 || ranked[1].Rank != 2 {
		t.Errorf("unexpected ranks: %d, %d", ranked[0].Rank, ranked[1].Rank)
	}
}

func TestEngine_EmptyBatch(t *testing.T) {
	ranked, err := NewEngineAt(testNow).Score(nil, testConfig())
	if err != nil {
		t.Fatalf("empty batch should not error: %v", err)
	}
	if len(ranked) != 0 {
		t.Errorf("expected empty result, got %d entries", len(ranked))
	}
}

func TestEngine_AllFieldsMissingIncludedLast(t *testing.T) {
	engine := NewEngineAt(testNow)

	empty := Candidate{ID: uuid.New(), Name: "Unknown LLC"}
	ranked, err := engine.Score([]Candidate{empty, strongCandidate(), weakCandidate()}, testConfig())
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}

	if len(ranked) != 3 {
		t.Fatalf("malformed candidate was dropped: got %d results", len(ranked))
	}

	last := ranked[len(ranked)-1]
	if last.Candidate.ID != empty.ID {
		t.Errorf("expected the empty candidate last, got %q", last.Candidate.Name)
	}
	if last.Breakdown.Total != 0 {
		t.Errorf("expected floor total for empty candidate, got %v", last.Breakdown.Total)
	}
}

func TestEngine_Idempotent(t *testing.T) {
	engine := NewEngineAt(testNow)
	candidates := []Candidate{strongCandidate(), weakCandidate(), {ID: uuid.New()}}
	cfg := testConfig()

	first, err := engine.Score(candidates, cfg)
	if err != nil {
		t.Fatalf("first Score failed: %v", err)
	}
	second, err := engine.Score(candidates, cfg)
	if err != nil {
		t.Fatalf("second Score failed: %v", err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Error("identical inputs produced different ranked results")
	}
}

func TestEngine_TieBreakChain(t *testing.T) {
	engine := NewEngineAt(testNow)

	cfg := testConfig()
	// Only reputation carries weight, so bonding and license differences
	// change sub-scores without moving the total.
	cfg.Weights = Weights{Reputation: 1}

	richer := Candidate{ID: uuid.New(), Name: "richer", BondAmount: cfg.MinBond * 2}
	plain := Candidate{ID: uuid.New(), Name: "plain"}
	other := Candidate{ID: uuid.New(), Name: "other"}

	ranked, err := engine.Score([]Candidate{plain, other, richer}, cfg)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}

	for i := 1; i < len(ranked); i++ {
		if ranked[i].Breakdown.Total != ranked[0].Breakdown.Total {
			t.Fatalf("expected equal totals for the tie-break test")
		}
	}

	// Higher bonding sub-score wins the tie; remaining tie preserves input order
	if ranked[0].Candidate.Name != "richer" {
		t.Errorf("expected bonding tie-break winner first, got %q", ranked[0].Candidate.Name)
	}
	if ranked[1].Candidate.Name != "plain" || ranked[2].Candidate.Name != "other" {
		t.Errorf("expected stable order among full ties, got %q then %q",
			ranked[1].Candidate.Name, ranked[2].Candidate.Name)
	}
}

func TestEngine_YearsTieBreak(t *testing.T) {
	engine := NewEngineAt(testNow)

	cfg := testConfig()
	cfg.Weights = Weights{Geography: 1}

	// Identical sub-scores everywhere; only tenure differs
	young := Candidate{ID: uuid.New(), Name: "young", City: "Austin", State: "TX", YearsInBusiness: 3}
	vet := Candidate{ID: uuid.New(), Name: "veteran", City: "Austin", State: "TX", YearsInBusiness: 30}

	ranked, err := engine.Score([]Candidate{young, vet}, cfg)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}

	if ranked[0].Candidate.Name != "veteran" {
		t.Errorf("expected years-in-business to break the tie, got %q first", ranked[0].Candidate.Name)
	}
}

func TestEngine_BreakdownCarriesWeights(t *testing.T) {
	engine := NewEngineAt(testNow)
	cfg := testConfig()

	ranked, err := engine.Score([]Candidate{strongCandidate()}, cfg)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}

	if ranked[0].Breakdown.Weights != cfg.Weights {
		t.Errorf("breakdown weights %+v do not match config weights %+v",
			ranked[0].Breakdown.Weights, cfg.Weights)
	}
}

func TestEngine_TotalMatchesWeightedSum(t *testing.T) {
	engine := NewEngineAt(testNow)
	cfg := testConfig()

	b, err := engine.ScoreCandidate(strongCandidate(), cfg)
	if err != nil {
		t.Fatalf("ScoreCandidate failed: %v", err)
	}

	want := 100 * (cfg.Weights.Experience*b.Experience +
		cfg.Weights.License*b.License +
		cfg.Weights.Bonding*b.Bonding +
		cfg.Weights.Geography*b.Geography +
		cfg.Weights.Reputation*b.Reputation)

	if math.Abs(b.Total-want) > 1e-12 {
		t.Errorf("total %v does not match weighted sum %v", b.Total, want)
	}
}
