package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hardhatlabs/subscout/internal/models"
)

// jobRepository implements JobRepository
type jobRepository struct {
	db dbExecutor
}

// NewJobRepository creates a new research job repository
func NewJobRepository(db dbExecutor) JobRepository {
	return &jobRepository{db: db}
}

// Create creates a new research job record
func (r *jobRepository) Create(job *models.ResearchJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.StartedAt.IsZero() {
		job.StartedAt = time.Now()
	}

	query := `
		INSERT INTO research_jobs (
			id, status, trade, city, state, min_bond, keywords,
			candidates_found, failed_profiles, started_by, started_at,
			completed_at, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.Exec(query,
		job.ID, job.Status, job.Trade, job.City, job.State, job.MinBond,
		job.Keywords, job.CandidatesFound, job.FailedProfiles, job.StartedBy,
		job.StartedAt, job.CompletedAt, job.ErrorMessage,
	)

	if err != nil {
		return fmt.Errorf("failed to create research job: %w", err)
	}

	return nil
}

// Update updates an existing research job
func (r *jobRepository) Update(job *models.ResearchJob) error {
	query := `
		UPDATE research_jobs SET
			status = $2, candidates_found = $3, failed_profiles = $4,
			completed_at = $5, error_message = $6
		WHERE id = $1
	`

	result, err := r.db.Exec(query,
		job.ID, job.Status, job.CandidatesFound, job.FailedProfiles,
		job.CompletedAt, job.ErrorMessage,
	)

	if err != nil {
		return fmt.Errorf("failed to update research job: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("research job not found")
	}

	return nil
}

// GetByID retrieves a research job by ID
func (r *jobRepository) GetByID(id uuid.UUID) (*models.ResearchJob, error) {
	query := `
		SELECT id, status, trade, city, state, min_bond, keywords,
			   candidates_found, failed_profiles, started_by, started_at,
			   completed_at, error_message
		FROM research_jobs WHERE id = $1
	`

	job := &models.ResearchJob{}
	err := r.db.QueryRow(query, id).Scan(
		&job.ID, &job.Status, &job.Trade, &job.City, &job.State, &job.MinBond,
		&job.Keywords, &job.CandidatesFound, &job.FailedProfiles, &job.StartedBy,
		&job.StartedAt, &job.CompletedAt, &job.ErrorMessage,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("research job not found")
		}
		return nil, fmt.Errorf("failed to get research job: %w", err)
	}

	return job, nil
}

// List retrieves research jobs, most recent first
func (r *jobRepository) List(limit, offset int) ([]models.ResearchJob, error) {
	query := `
		SELECT id, status, trade, city, state, min_bond, keywords,
			   candidates_found, failed_profiles, started_by, started_at,
			   completed_at, error_message
		FROM research_jobs
		ORDER BY started_at DESC
		LIMIT $1 OFFSET $2
	`

	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query research jobs: %w", err)
	}
	defer rows.Close()

	var jobs []models.ResearchJob
	for rows.Next() {
		var job models.ResearchJob
		err := rows.Scan(
			&job.ID, &job.Status, &job.Trade, &job.City, &job.State, &job.MinBond,
			&job.Keywords, &job.CandidatesFound, &job.FailedProfiles, &job.StartedBy,
			&job.StartedAt, &job.CompletedAt, &job.ErrorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan research job: %w", err)
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

// StoreResults replaces the stored ranked results for a job
func (r *jobRepository) StoreResults(jobID uuid.UUID, results []models.JobResult) error {
	if _, err := r.db.Exec(`DELETE FROM job_results WHERE job_id = $1`, jobID); err != nil {
		return fmt.Errorf("failed to clear previous results: %w", err)
	}

	query := `
		INSERT INTO job_results (id, job_id, contractor_id, rank, score, breakdown, scored_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for i := range results {
		result := &results[i]
		if result.ID == uuid.Nil {
			result.ID = uuid.New()
		}
		result.JobID = jobID

		_, err := r.db.Exec(query,
			result.ID, result.JobID, result.ContractorID, result.Rank,
			result.Score, result.Breakdown, result.ScoredAt,
		)
		if err != nil {
			return fmt.Errorf("failed to store result for contractor %s: %w", result.ContractorID, err)
		}
	}

	return nil
}

// GetResults retrieves the ranked results for a job in rank order
func (r *jobRepository) GetResults(jobID uuid.UUID) ([]models.JobResult, error) {
	query := `
		SELECT id, job_id, contractor_id, rank, score, breakdown, scored_at
		FROM job_results
		WHERE job_id = $1
		ORDER BY rank ASC
	`

	rows, err := r.db.Query(query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query job results: %w", err)
	}
	defer rows.Close()

	var results []models.JobResult
	for rows.Next() {
		var result models.JobResult
		err := rows.Scan(
			&result.ID, &result.JobID, &result.ContractorID, &result.Rank,
			&result.Score, &result.Breakdown, &result.ScoredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job result: %w", err)
		}
		results = append(results, result)
	}

	return results, nil
}
