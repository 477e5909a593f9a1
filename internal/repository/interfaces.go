package repository

import (
	"time"

	"github.com/google/uuid"

	"github.com/hardhatlabs/subscout/internal/models"
)

// ContractorRepository defines the interface for contractor data access
type ContractorRepository interface {
	GetByID(id uuid.UUID) (*models.Contractor, error)
	GetByWebsite(website string) (*models.Contractor, error)
	Create(contractor *models.Contractor) error
	Update(contractor *models.Contractor) error
	Upsert(contractor *models.Contractor) error
	Delete(id uuid.UUID) error

	GetAll(filters ContractorFilters) ([]models.Contractor, error)
	GetByIDs(ids []uuid.UUID) ([]models.Contractor, error)
}

// JobRepository defines the interface for research job data access
type JobRepository interface {
	Create(job *models.ResearchJob) error
	Update(job *models.ResearchJob) error
	GetByID(id uuid.UUID) (*models.ResearchJob, error)
	List(limit, offset int) ([]models.ResearchJob, error)

	StoreResults(jobID uuid.UUID, results []models.JobResult) error
	GetResults(jobID uuid.UUID) ([]models.JobResult, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByID(id uuid.UUID) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Create(user *models.User) error
	Update(user *models.User) error
	Delete(id uuid.UUID) error
}

// TransactionManager defines the interface for database transaction management
type TransactionManager interface {
	WithTransaction(fn func(repos *Repositories) error) error
}

// Repositories groups all repository interfaces
type Repositories struct {
	Contractor ContractorRepository
	Job        JobRepository
	User       UserRepository
	Tx         TransactionManager
}

// ContractorFilters defines filters for querying contractors
type ContractorFilters struct {
	State         string
	City          string
	LicenseStatus []string
	MinBond       *int64
	UnionOnly     *bool
	CheckedAfter  *time.Time
	Limit         int
	Offset        int
}
