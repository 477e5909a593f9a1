package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/hardhatlabs/subscout/internal/scoring"
)

// input is the expected shape of the candidates file
type input struct {
	Candidates []scoring.Candidate `json:"candidates"`
	MinBond    int64               `json:"min_bond"`
	City       string              `json:"city"`
	State      string              `json:"state"`
	Weights    *scoring.Weights    `json:"weights,omitempty"`
}

func main() {
	fmt.Println("🎯 Subcontractor Scoring Engine")
	fmt.Println("================================")

	file := flag.String("file", "", "Path to a JSON file of candidates and config")
	flag.Parse()

	var in input
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", *file, err)
		}
		if err := json.Unmarshal(data, &in); err != nil {
			log.Fatalf("Failed to parse %s: %v", *file, err)
		}
	} else {
		fmt.Println("No -file given; scoring built-in sample candidates")
		in = sampleInput()
	}

	cfg := scoring.NewConfig(in.MinBond, in.City, in.State)
	if in.Weights != nil {
		cfg.Weights = *in.Weights
	}

	engine := scoring.NewEngine()
	ranked, err := engine.Score(in.Candidates, cfg)
	if err != nil {
		log.Fatalf("❌ Scoring failed: %v", err)
	}

	fmt.Printf("\n🏆 Ranked %d candidates (min bond $%d, target %s, %s):\n\n",
		len(ranked), cfg.MinBond, cfg.TargetCity, cfg.TargetState)

	for _, r := range ranked {
		b := r.Breakdown
		fmt.Printf("%2d. %-30s total %6.2f\n", r.Rank, r.Candidate.Name, b.Total)
		fmt.Printf("      exp %.3f  lic %.3f  bond %.3f  geo %.3f  rep %.3f\n",
			b.Experience, b.License, b.Bonding, b.Geography, b.Reputation)
	}
}

func sampleInput() input {
	expires := time.Now().AddDate(4, 0, 0)
	lastYear := time.Now().AddDate(-1, 0, 0)

	return input{
		MinBond: 100_000,
		City:    "Austin",
		State:   "TX",
		Candidates: []scoring.Candidate{
			{
				ID:    uuid.New(),
				Name:  "Acme Electrical Services",
				City:  "Austin",
				State: "TX",
				Projects: []scoring.Project{
					{State: "TX", CompletedAt: lastYear, Quality: 4.5},
					{State: "TX", CompletedAt: lastYear, Quality: 4.0},
				},
				License: scoring.License{
					Status:    scoring.LicenseActive,
					Number:    "TDLR-3381920",
					ExpiresAt: &expires,
				},
				BondAmount:      200_000,
				YearsInBusiness: 12,
				PositiveReviews: 45,
				Awards:          2,
				UnionMember:     true,
			},
			{
				ID:    uuid.New(),
				Name:  "Budget Wiring LLC",
				City:  "Tulsa",
				State: "OK",
				License: scoring.License{
					Status: scoring.LicenseExpired,
					Number: "OK-99120",
				},
				BondAmount:      20_000,
				YearsInBusiness: 3,
			},
		},
	}
}
