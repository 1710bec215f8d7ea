// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"kbpress/internal/models"
)

// ImportJobStore persists the audit records of bulk import runs.
type ImportJobStore struct {
	db *sql.DB
}

// NewImportJobStore returns a new ImportJobStore.
func NewImportJobStore(db *sql.DB) *ImportJobStore {
	return &ImportJobStore{db: db}
}

const importJobColumns = `id, status, file_name, stats_total, stats_success, stats_failed, errors, created_by, created_at, completed_at`

// scanImportJob scans a row into an ImportJob, decoding the errors JSONB.
func scanImportJob(scanner interface{ Scan(...any) error }) (*models.ImportJob, error) {
	var j models.ImportJob
	var errsRaw []byte
	err := scanner.Scan(
		&j.ID, &j.Status, &j.FileName,
		&j.Stats.Total, &j.Stats.Success, &j.Stats.Failed,
		&errsRaw, &j.CreatedBy, &j.CreatedAt, &j.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(errsRaw) > 0 {
		if err := json.Unmarshal(errsRaw, &j.Errors); err != nil {
			return nil, fmt.Errorf("decode import errors: %w", err)
		}
	}
	return &j, nil
}

// Create inserts a new job in pending status, immediately before
// processing begins.
func (s *ImportJobStore) Create(fileName string, createdBy uuid.UUID) (*models.ImportJob, error) {
	row := s.db.QueryRow(`
		INSERT INTO import_jobs (status, file_name, created_by)
		VALUES ($1, $2, $3)
		RETURNING `+importJobColumns,
		models.ImportJobPending, fileName, createdBy,
	)
	j, err := scanImportJob(row)
	if err != nil {
		return nil, fmt.Errorf("create import job: %w", err)
	}
	return j, nil
}

// SetStatus moves a job to a new non-terminal status.
func (s *ImportJobStore) SetStatus(id uuid.UUID, status models.ImportJobStatus) error {
	_, err := s.db.Exec(`UPDATE import_jobs SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("set import job status: %w", err)
	}
	return nil
}

// Finish moves a job to a terminal status with its final stats and error
// list. completed_at is written at most once: a job that somehow
// receives two terminal transitions keeps the first timestamp.
func (s *ImportJobStore) Finish(id uuid.UUID, status models.ImportJobStatus, stats models.ImportStats, errs []models.ImportError) error {
	errsRaw, err := json.Marshal(errs)
	if err != nil {
		return fmt.Errorf("encode import errors: %w", err)
	}

	_, err = s.db.Exec(`
		UPDATE import_jobs SET
			status = $1, stats_total = $2, stats_success = $3, stats_failed = $4,
			errors = $5, completed_at = COALESCE(completed_at, NOW())
		WHERE id = $6
	`, status, stats.Total, stats.Success, stats.Failed, errsRaw, id)
	if err != nil {
		return fmt.Errorf("finish import job: %w", err)
	}
	return nil
}

// FindByID retrieves a job by ID. Returns nil if not found.
func (s *ImportJobStore) FindByID(id uuid.UUID) (*models.ImportJob, error) {
	row := s.db.QueryRow(`SELECT `+importJobColumns+` FROM import_jobs WHERE id = $1`, id)
	j, err := scanImportJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find import job by id: %w", err)
	}
	return j, nil
}

// List returns all jobs, newest first.
func (s *ImportJobStore) List() ([]models.ImportJob, error) {
	rows, err := s.db.Query(`SELECT ` + importJobColumns + ` FROM import_jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list import jobs: %w", err)
	}
	defer rows.Close()

	var jobs []models.ImportJob
	for rows.Next() {
		j, err := scanImportJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan import job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}
