package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/hardhatlabs/subscout/internal/database"
	"github.com/hardhatlabs/subscout/internal/logger"
	"github.com/hardhatlabs/subscout/internal/repository"
	"github.com/hardhatlabs/subscout/internal/research"
	"github.com/hardhatlabs/subscout/pkg/config"
)

func main() {
	fmt.Println("🔍 Subcontractor Research Pipeline")
	fmt.Println("===================================")

	trade := flag.String("trade", "", "Trade to search for (e.g. electrical)")
	city := flag.String("city", "", "Target city")
	state := flag.String("state", "", "Target state abbreviation (e.g. TX)")
	minBond := flag.Int64("min-bond", 0, "Required bonding capacity in dollars")
	keywords := flag.String("keywords", "", "Comma-separated project keywords")
	timeout := flag.Duration("timeout", 15*time.Minute, "Pipeline deadline")
	flag.Parse()

	if *trade == "" || *city == "" || *state == "" || *minBond <= 0 {
		log.Fatal("Required flags: -trade, -city, -state, -min-bond")
	}

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.New()
	appLogger := logger.NewSimpleLogger()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	svc := research.NewService(db, cfg, appLogger)
	defer svc.Close()

	req := repository.ResearchRequest{
		Trade:   *trade,
		City:    *city,
		State:   strings.ToUpper(*state),
		MinBond: *minBond,
	}
	if *keywords != "" {
		for _, kw := range strings.Split(*keywords, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				req.Keywords = append(req.Keywords, kw)
			}
		}
	}

	fmt.Printf("📋 Research Parameters:\n")
	fmt.Printf("   • Trade: %s\n", req.Trade)
	fmt.Printf("   • Location: %s, %s\n", req.City, req.State)
	fmt.Printf("   • Min Bond: $%d\n", req.MinBond)
	if len(req.Keywords) > 0 {
		fmt.Printf("   • Keywords: %s\n", strings.Join(req.Keywords, ", "))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	job, err := svc.StartJob(ctx, req, uuid.Nil)
	if err != nil {
		log.Fatalf("❌ Failed to start research job: %v", err)
	}

	fmt.Printf("\n🚀 Research job %s started...\n", job.ID)

	final, err := svc.WaitForJob(ctx, job.ID, *timeout, 2*time.Second)
	if err != nil {
		log.Fatalf("❌ Failed waiting for job: %v", err)
	}

	if final.Status != "completed" {
		log.Fatalf("❌ Research job finished with status %s: %s", final.Status, final.ErrorMessage)
	}

	results, err := svc.GetRankedResults(ctx, job.ID)
	if err != nil {
		log.Fatalf("❌ Failed to load results: %v", err)
	}

	fmt.Printf("\n✅ Research completed in %v\n", time.Since(start).Round(time.Second))
	fmt.Printf("   • Candidates Found: %d\n", final.CandidatesFound)
	fmt.Printf("   • Failed Profiles: %d\n", final.FailedProfiles)
	fmt.Printf("\n🏆 Ranked Results:\n")
	for _, r := range results {
		licMark := " "
		if r.LicActive {
			licMark = "✓"
		}
		fmt.Printf("   %2d. %-35s %6.1f  [lic %s] bond $%d\n",
			r.Rank, r.Name, r.Score, licMark, r.BondAmount)
	}
}
