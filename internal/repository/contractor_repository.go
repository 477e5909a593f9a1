package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hardhatlabs/subscout/internal/models"
)

const contractorColumns = `id, name, website, city, state, phone, email,
	license_number, license_status, license_expires_at, bond_amount,
	years_in_business, positive_reviews, awards, union_member, projects,
	evidence_url, evidence_text, last_checked_at, created_at, updated_at`

// contractorRepository implements ContractorRepository
type contractorRepository struct {
	db dbExecutor
}

// NewContractorRepository creates a new contractor repository
func NewContractorRepository(db dbExecutor) ContractorRepository {
	return &contractorRepository{db: db}
}

func scanContractor(row interface{ Scan(...interface{}) error }) (*models.Contractor, error) {
	c := &models.Contractor{}
	err := row.Scan(
		&c.ID, &c.Name, &c.Website, &c.City, &c.State, &c.Phone, &c.Email,
		&c.LicenseNumber, &c.LicenseStatus, &c.LicenseExpiresAt, &c.BondAmount,
		&c.YearsInBusiness, &c.PositiveReviews, &c.Awards, &c.UnionMember,
		&c.Projects, &c.EvidenceURL, &c.EvidenceText, &c.LastCheckedAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// GetByID retrieves a contractor by ID
func (r *contractorRepository) GetByID(id uuid.UUID) (*models.Contractor, error) {
	query := fmt.Sprintf(`SELECT %s FROM contractors WHERE id = $1`, contractorColumns)

	contractor, err := scanContractor(r.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("contractor not found")
		}
		return nil, fmt.Errorf("failed to get contractor: %w", err)
	}

	return contractor, nil
}

// GetByWebsite retrieves a contractor by website URL
func (r *contractorRepository) GetByWebsite(website string) (*models.Contractor, error) {
	query := fmt.Sprintf(`SELECT %s FROM contractors WHERE website = $1`, contractorColumns)

	contractor, err := scanContractor(r.db.QueryRow(query, website))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("contractor with website %s not found", website)
		}
		return nil, fmt.Errorf("failed to get contractor: %w", err)
	}

	return contractor, nil
}

// Create creates a new contractor
func (r *contractorRepository) Create(contractor *models.Contractor) error {
	if contractor.ID == uuid.Nil {
		contractor.ID = uuid.New()
	}

	now := time.Now()
	contractor.CreatedAt = now
	contractor.UpdatedAt = now

	query := `
		INSERT INTO contractors (
			id, name, website, city, state, phone, email,
			license_number, license_status, license_expires_at, bond_amount,
			years_in_business, positive_reviews, awards, union_member, projects,
			evidence_url, evidence_text, last_checked_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21
		)
	`

	_, err := r.db.Exec(query,
		contractor.ID, contractor.Name, contractor.Website, contractor.City,
		contractor.State, contractor.Phone, contractor.Email,
		contractor.LicenseNumber, contractor.LicenseStatus, contractor.LicenseExpiresAt,
		contractor.BondAmount, contractor.YearsInBusiness, contractor.PositiveReviews,
		contractor.Awards, contractor.UnionMember, contractor.Projects,
		contractor.EvidenceURL, contractor.EvidenceText, contractor.LastCheckedAt,
		contractor.CreatedAt, contractor.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create contractor: %w", err)
	}

	return nil
}

// Update updates an existing contractor
func (r *contractorRepository) Update(contractor *models.Contractor) error {
	contractor.UpdatedAt = time.Now()

	query := `
		UPDATE contractors SET
			name = $2, website = $3, city = $4, state = $5, phone = $6, email = $7,
			license_number = $8, license_status = $9, license_expires_at = $10,
			bond_amount = $11, years_in_business = $12, positive_reviews = $13,
			awards = $14, union_member = $15, projects = $16,
			evidence_url = $17, evidence_text = $18, last_checked_at = $19, updated_at = $20
		WHERE id = $1
	`

	result, err := r.db.Exec(query,
		contractor.ID, contractor.Name, contractor.Website, contractor.City,
		contractor.State, contractor.Phone, contractor.Email,
		contractor.LicenseNumber, contractor.LicenseStatus, contractor.LicenseExpiresAt,
		contractor.BondAmount, contractor.YearsInBusiness, contractor.PositiveReviews,
		contractor.Awards, contractor.UnionMember, contractor.Projects,
		contractor.EvidenceURL, contractor.EvidenceText, contractor.LastCheckedAt,
		contractor.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update contractor: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("contractor not found")
	}

	return nil
}

// Upsert creates a contractor, or refreshes the existing row with the same
// website, which is the dedup key produced by discovery.
func (r *contractorRepository) Upsert(contractor *models.Contractor) error {
	existing, err := r.GetByWebsite(contractor.Website)
	if err != nil {
		return r.Create(contractor)
	}

	contractor.ID = existing.ID
	contractor.CreatedAt = existing.CreatedAt
	return r.Update(contractor)
}

// Delete deletes a contractor
func (r *contractorRepository) Delete(id uuid.UUID) error {
	query := `DELETE FROM contractors WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete contractor: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("contractor not found")
	}

	return nil
}

// GetAll retrieves contractors with filters
func (r *contractorRepository) GetAll(filters ContractorFilters) ([]models.Contractor, error) {
	query := fmt.Sprintf(`SELECT %s FROM contractors`, contractorColumns)

	var whereClauses []string
	var args []interface{}
	argIndex := 1

	if filters.State != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("state = $%d", argIndex))
		args = append(args, filters.State)
		argIndex++
	}

	if filters.City != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("city = $%d", argIndex))
		args = append(args, filters.City)
		argIndex++
	}

	if len(filters.LicenseStatus) > 0 {
		placeholders := make([]string, len(filters.LicenseStatus))
		for i, status := range filters.LicenseStatus {
			placeholders[i] = fmt.Sprintf("$%d", argIndex)
			args = append(args, status)
			argIndex++
		}
		whereClauses = append(whereClauses, fmt.Sprintf("license_status IN (%s)", strings.Join(placeholders, ",")))
	}

	if filters.MinBond != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("bond_amount >= $%d", argIndex))
		args = append(args, *filters.MinBond)
		argIndex++
	}

	if filters.UnionOnly != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("union_member = $%d", argIndex))
		args = append(args, *filters.UnionOnly)
		argIndex++
	}

	if filters.CheckedAfter != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("last_checked_at >= $%d", argIndex))
		args = append(args, *filters.CheckedAfter)
		argIndex++
	}

	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}

	query += " ORDER BY updated_at DESC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filters.Limit)
		argIndex++
	}

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filters.Offset)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contractors: %w", err)
	}
	defer rows.Close()

	var contractors []models.Contractor
	for rows.Next() {
		contractor, err := scanContractor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contractor: %w", err)
		}
		contractors = append(contractors, *contractor)
	}

	return contractors, nil
}

// GetByIDs retrieves contractors matching the given IDs
func (r *contractorRepository) GetByIDs(ids []uuid.UUID) ([]models.Contractor, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`SELECT %s FROM contractors WHERE id IN (%s)`,
		contractorColumns, strings.Join(placeholders, ","))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contractors: %w", err)
	}
	defer rows.Close()

	var contractors []models.Contractor
	for rows.Next() {
		contractor, err := scanContractor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contractor: %w", err)
		}
		contractors = append(contractors, *contractor)
	}

	return contractors, nil
}
