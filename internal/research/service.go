package research

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hardhatlabs/subscout/internal/database"
	"github.com/hardhatlabs/subscout/internal/discovery"
	"github.com/hardhatlabs/subscout/internal/errors"
	"github.com/hardhatlabs/subscout/internal/extractor"
	"github.com/hardhatlabs/subscout/internal/fetch"
	"github.com/hardhatlabs/subscout/internal/history"
	"github.com/hardhatlabs/subscout/internal/license"
	"github.com/hardhatlabs/subscout/internal/logger"
	"github.com/hardhatlabs/subscout/internal/models"
	"github.com/hardhatlabs/subscout/internal/repository"
	"github.com/hardhatlabs/subscout/internal/scoring"
	"github.com/hardhatlabs/subscout/pkg/config"
)

// Service orchestrates the research pipeline: discover candidate sites,
// extract profiles, gather project history, verify licenses, then score
// and persist the ranked results.
type Service struct {
	db        *database.DB
	repos     *repository.Repositories
	cfg       *config.Config
	log       logger.Logger
	discovery *discovery.Service
	extractor *extractor.Extractor
	history   *history.Parser
	verifier  *license.Verifier
	engine    *scoring.Engine
	monitor   *Monitor
	fetcher   *fetch.Client
}

// NewService wires up the full research pipeline
func NewService(db *database.DB, cfg *config.Config, log logger.Logger) *Service {
	fetcher := fetch.New(cfg.ScrapeConcurrency,
		fetch.WithDelay(time.Duration(cfg.ScrapeDelayMs)*time.Millisecond))
	repos := repository.NewRepositories(db.DB)

	return &Service{
		db:        db,
		repos:     repos,
		cfg:       cfg,
		log:       log,
		discovery: discovery.NewService(cfg),
		extractor: extractor.New(fetcher, log),
		history:   history.NewParser(fetcher, log),
		verifier:  license.NewVerifier(fetcher, cfg.TDLRBaseURL, log),
		engine:    scoring.NewEngine(),
		monitor:   NewMonitor(),
		fetcher:   fetcher,
	}
}

// StartJob records a research job and runs the pipeline in the
// background. The returned job is in pending state; callers poll for
// completion.
func (s *Service) StartJob(ctx context.Context, req repository.ResearchRequest, userID uuid.UUID) (*models.ResearchJob, error) {
	if !s.cfg.HasSearchCredentials() {
		return nil, errors.ValidationError("search API credentials are not configured", nil)
	}

	scoringCfg, err := s.buildScoringConfig(req)
	if err != nil {
		return nil, errors.ValidationError("invalid scoring configuration", err)
	}

	job := &models.ResearchJob{
		ID:        uuid.New(),
		Status:    string(models.ResearchJobPending),
		Trade:     req.Trade,
		City:      req.City,
		State:     strings.ToUpper(req.State),
		MinBond:   req.MinBond,
		Keywords:  models.StringList(req.Keywords),
		StartedBy: userID,
		StartedAt: time.Now(),
	}

	if err := s.repos.Job.Create(job); err != nil {
		return nil, errors.DatabaseError("failed to create research job", err)
	}

	go func() {
		// The request context dies with the HTTP request; the pipeline
		// gets its own deadline.
		runCtx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				s.log.Error("Research pipeline panicked", fmt.Errorf("panic: %v", r), "job_id", job.ID.String())
				s.failJob(job, fmt.Sprintf("panic: %v", r))
			}
		}()

		if err := s.Run(runCtx, job, scoringCfg); err != nil {
			s.log.Error("Research pipeline failed", err, "job_id", job.ID.String())
			s.failJob(job, err.Error())
		}
	}()

	return job, nil
}

// Run executes the pipeline synchronously for the given job. The job row
// is updated as phases complete.
func (s *Service) Run(ctx context.Context, job *models.ResearchJob, scoringCfg scoring.Config) error {
	job.Status = string(models.ResearchJobRunning)
	if err := s.repos.Job.Update(job); err != nil {
		s.log.Warn("Failed to mark job running", "job_id", job.ID.String(), "error", err.Error())
	}

	// Phase 1: discovery
	candidates, err := s.discovery.FindSubcontractors(ctx, job.Trade, job.City, job.State, job.Keywords)
	if err != nil {
		s.monitor.RecordFailure("discovery", err.Error(), "")
		return fmt.Errorf("discovery failed: %w", err)
	}
	s.monitor.RecordSuccess("discovery")
	s.log.Info("Discovery complete", "job_id", job.ID.String(), "candidates", len(candidates))

	if len(candidates) == 0 {
		return s.completeJob(job, nil, scoringCfg)
	}

	// Phase 2: profile extraction
	urls := make([]string, len(candidates))
	for i, c := range candidates {
		urls[i] = c.URL
	}
	profiles, failed := s.extractor.ExtractProfiles(ctx, urls)
	job.FailedProfiles = failed
	for i := 0; i < failed; i++ {
		s.monitor.RecordFailure("extract", "profile fetch failed", "")
	}
	for i := 0; i < len(profiles)-failed; i++ {
		s.monitor.RecordSuccess("extract")
	}
	s.log.Info("Extraction complete", "job_id", job.ID.String(), "profiles", len(profiles), "failed", failed)

	// Phase 3: project history
	s.history.EnrichProfiles(ctx, profiles, job.State)

	// Phase 4: license verification
	s.verifier.VerifyBatch(ctx, profiles)

	// Phase 5: persist contractors
	for _, p := range profiles {
		if err := s.repos.Contractor.Upsert(p); err != nil {
			s.log.Warn("Failed to persist contractor", "website", p.Website, "error", err.Error())
		}
	}

	job.CandidatesFound = len(profiles)

	// Phase 6: score and store
	return s.completeJob(job, profiles, scoringCfg)
}

// completeJob scores the gathered profiles, stores ranked results and
// marks the job complete. An empty batch completes with zero results.
func (s *Service) completeJob(job *models.ResearchJob, profiles []*models.Contractor, scoringCfg scoring.Config) error {
	scoringCandidates := make([]scoring.Candidate, 0, len(profiles))
	for _, p := range profiles {
		scoringCandidates = append(scoringCandidates, p.ToCandidate())
	}

	ranked, err := s.engine.Score(scoringCandidates, scoringCfg)
	if err != nil {
		return fmt.Errorf("scoring failed: %w", err)
	}

	results := make([]models.JobResult, 0, len(ranked))
	now := time.Now()
	for _, r := range ranked {
		breakdown, err := json.Marshal(r.Breakdown)
		if err != nil {
			return fmt.Errorf("failed to encode breakdown: %w", err)
		}
		results = append(results, models.JobResult{
			ID:           uuid.New(),
			JobID:        job.ID,
			ContractorID: r.Candidate.ID,
			Rank:         r.Rank,
			Score:        r.Breakdown.Total,
			Breakdown:    string(breakdown),
			ScoredAt:     now,
		})
	}

	if err := s.repos.Job.StoreResults(job.ID, results); err != nil {
		return errors.DatabaseError("failed to store job results", err)
	}

	completedAt := time.Now()
	job.Status = string(models.ResearchJobCompleted)
	job.CompletedAt = &completedAt
	if err := s.repos.Job.Update(job); err != nil {
		return errors.DatabaseError("failed to update research job", err)
	}

	s.log.Info("Research job completed", "job_id", job.ID.String(), "results", len(results))
	return nil
}

func (s *Service) failJob(job *models.ResearchJob, message string) {
	completedAt := time.Now()
	job.Status = string(models.ResearchJobFailed)
	job.ErrorMessage = message
	job.CompletedAt = &completedAt
	if err := s.repos.Job.Update(job); err != nil {
		s.log.Error("Failed to mark job failed", err, "job_id", job.ID.String())
	}
}

// buildScoringConfig assembles engine configuration from a request,
// applying the weight override when present.
func (s *Service) buildScoringConfig(req repository.ResearchRequest) (scoring.Config, error) {
	cfg := scoring.NewConfig(req.MinBond, req.City, strings.ToUpper(req.State))
	if req.Weights != nil {
		cfg.Weights = *req.Weights
	}
	if err := cfg.Validate(); err != nil {
		return scoring.Config{}, err
	}
	return cfg, nil
}

// GetJob returns a research job by ID
func (s *Service) GetJob(ctx context.Context, jobID uuid.UUID) (*models.ResearchJob, error) {
	job, err := s.repos.Job.GetByID(jobID)
	if err != nil {
		return nil, errors.NotFound("research job not found", err)
	}
	return job, nil
}

// ListJobs returns recent research jobs
func (s *Service) ListJobs(ctx context.Context, limit, offset int) ([]models.ResearchJob, error) {
	jobs, err := s.repos.Job.List(limit, offset)
	if err != nil {
		return nil, errors.DatabaseError("failed to list research jobs", err)
	}
	return jobs, nil
}

// WaitForJob polls until the job reaches a terminal state or the timeout
// expires. A still-running job at timeout is returned as-is with no
// error; callers inspect the status.
func (s *Service) WaitForJob(ctx context.Context, jobID uuid.UUID, timeout, pollInterval time.Duration) (*models.ResearchJob, error) {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}

	deadline := time.Now().Add(timeout)
	for {
		job, err := s.GetJob(ctx, jobID)
		if err != nil {
			return nil, err
		}

		switch job.Status {
		case string(models.ResearchJobCompleted), string(models.ResearchJobFailed):
			return job, nil
		}

		if timeout <= 0 || time.Now().After(deadline) {
			return job, nil
		}

		select {
		case <-time.After(pollInterval):
		case <-ctx.Done():
			return job, ctx.Err()
		}
	}
}

// GetRankedResults joins stored job results with contractor records and
// builds the API view, ordered by rank.
func (s *Service) GetRankedResults(ctx context.Context, jobID uuid.UUID) ([]repository.RankedResult, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	results, err := s.repos.Job.GetResults(jobID)
	if err != nil {
		return nil, errors.DatabaseError("failed to load job results", err)
	}
	if len(results) == 0 {
		return []repository.RankedResult{}, nil
	}

	ids := make([]uuid.UUID, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.ContractorID)
	}
	contractors, err := s.repos.Contractor.GetByIDs(ids)
	if err != nil {
		return nil, errors.DatabaseError("failed to load contractors", err)
	}

	byID := make(map[uuid.UUID]*models.Contractor, len(contractors))
	for i := range contractors {
		byID[contractors[i].ID] = &contractors[i]
	}

	cutoff := time.Now().AddDate(-scoring.DefaultLookbackYears, 0, 0)
	view := make([]repository.RankedResult, 0, len(results))
	for _, r := range results {
		c, ok := byID[r.ContractorID]
		if !ok {
			s.log.Warn("Job result references missing contractor", "contractor_id", r.ContractorID.String())
			continue
		}

		var breakdown scoring.Breakdown
		if err := json.Unmarshal([]byte(r.Breakdown), &breakdown); err != nil {
			s.log.Warn("Failed to decode stored breakdown", "job_id", jobID.String(), "error", err.Error())
		}

		view = append(view, repository.RankedResult{
			Rank:           r.Rank,
			Name:           c.Name,
			Website:        c.Website,
			City:           c.City,
			State:          c.State,
			LicActive:      c.LicenseStatus == models.LicenseStatusActive,
			LicNumber:      c.LicenseNumber,
			BondAmount:     c.BondAmount,
			ProjectsFound:  countRecentProjects(c.Projects, job.State, cutoff),
			Score:          r.Score,
			ScoreBreakdown: breakdown,
			EvidenceURL:    c.EvidenceURL,
			EvidenceText:   c.EvidenceText,
			LastChecked:    c.LastCheckedAt.UTC().Format(time.RFC3339),
		})
	}

	return view, nil
}

func countRecentProjects(projects models.ProjectList, state string, cutoff time.Time) int {
	count := 0
	for _, p := range projects {
		if p.CompletedAt.After(cutoff) && strings.EqualFold(p.State, state) {
			count++
		}
	}
	return count
}

// PipelineHealth returns current monitoring data
func (s *Service) PipelineHealth() PipelineHealth {
	return s.monitor.Health()
}

// Health checks pipeline dependencies
func (s *Service) Health(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	if !s.monitor.IsHealthy() {
		return fmt.Errorf("pipeline unhealthy: %v", s.monitor.Health().HealthIssues)
	}
	return nil
}

// Close releases pipeline resources
func (s *Service) Close() {
	s.fetcher.Close()
}
