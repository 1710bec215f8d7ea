// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// ImportJobStatus represents the lifecycle state of a bulk import run.
// Terminal states are never revisited; a re-run creates a new job.
type ImportJobStatus string

const (
	ImportJobPending    ImportJobStatus = "pending"
	ImportJobProcessing ImportJobStatus = "processing"
	ImportJobCompleted  ImportJobStatus = "completed"
	ImportJobFailed     ImportJobStatus = "failed"
)

// ImportStats aggregates per-item outcomes of an import run.
type ImportStats struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// ImportError describes a single failed item. Row is 1-based for CSV
// sources and zero when the source position is unknown.
type ImportError struct {
	Row        int    `json:"row,omitempty"`
	Item       string `json:"item,omitempty"`
	Error      string `json:"error"`
	ExternalID string `json:"external_id,omitempty"`
}

// ImportJob is the persisted audit record of one bulk import run.
// Stats and the full error list are stored on the job; individual item
// results are not persisted.
type ImportJob struct {
	ID          uuid.UUID       `json:"id"`
	Status      ImportJobStatus `json:"status"`
	FileName    string          `json:"file_name"`
	Stats       ImportStats     `json:"stats"`
	Errors      []ImportError   `json:"errors"`
	CreatedBy   uuid.UUID       `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// IsTerminal returns true once the job has reached completed or failed.
func (j *ImportJob) IsTerminal() bool {
	return j.Status == ImportJobCompleted || j.Status == ImportJobFailed
}
