// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package importer

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"kbpress/internal/models"
	"kbpress/internal/slug"
)

// CategoryStore is the persistence surface the category importer needs.
// Satisfied by store.CategoryStore.
type CategoryStore interface {
	FindBySlugOrName(slugVal, name string) (*models.Category, error)
	Create(c *models.Category) (*models.Category, error)
}

// DocumentStore is the persistence surface the document importer needs.
// Satisfied by store.DocumentStore.
type DocumentStore interface {
	FindBySlugOrTitle(slugVal, title string) (*models.Document, error)
	Create(d *models.Document) (*models.Document, error)
	LinkCategories(docID uuid.UUID, categoryIDs []uuid.UUID) error
}

// JobStore records import-job state. Satisfied by store.ImportJobStore.
type JobStore interface {
	Create(fileName string, createdBy uuid.UUID) (*models.ImportJob, error)
	SetStatus(id uuid.UUID, status models.ImportJobStatus) error
	Finish(id uuid.UUID, status models.ImportJobStatus, stats models.ImportStats, errs []models.ImportError) error
}

// ImportedItem is one successfully processed record in the report.
type ImportedItem struct {
	Kind  string `json:"kind"` // "document" or "category"
	Title string `json:"title"`
	ID    string `json:"id"`
}

// Report is the structured result returned to the caller for both dry
// runs and real imports. The caller should inspect Stats.Failed rather
// than rely on job status alone: partial success still completes.
type Report struct {
	DryRun        bool                 `json:"dryRun"`
	JobID         *uuid.UUID           `json:"jobId,omitempty"`
	Stats         models.ImportStats   `json:"stats"`
	Errors        []models.ImportError `json:"errors"`
	Warnings      []string             `json:"warnings,omitempty"`
	ImportedItems []ImportedItem       `json:"importedItems"`
}

// refIndex resolves loosely-typed category references (external id or
// bare name) through a dense integer index assigned at sequencing time,
// with an arena of internal ids filled in as categories are persisted.
// The dual-key behavior is explicit: both keys of a category point at
// the same slot.
type refIndex struct {
	keys map[string]int
	ids  []uuid.UUID
}

func newRefIndex(cats []ExternalCategory) *refIndex {
	ri := &refIndex{
		keys: make(map[string]int, len(cats)*2),
		ids:  make([]uuid.UUID, len(cats)),
	}
	for i, c := range cats {
		if c.ExternalID != "" {
			if _, taken := ri.keys[refKey(c.ExternalID)]; !taken {
				ri.keys[refKey(c.ExternalID)] = i
			}
		}
		if c.Name != "" {
			if _, taken := ri.keys[refKey(c.Name)]; !taken {
				ri.keys[refKey(c.Name)] = i
			}
		}
	}
	return ri
}

// set records the internal id for slot i once the category is persisted
// or matched to an existing row.
func (ri *refIndex) set(i int, id uuid.UUID) {
	ri.ids[i] = id
}

// resolve maps an external reference to an internal category id.
func (ri *refIndex) resolve(ref string) (uuid.UUID, bool) {
	i, ok := ri.keys[refKey(ref)]
	if !ok || ri.ids[i] == uuid.Nil {
		return uuid.Nil, false
	}
	return ri.ids[i], true
}

// Runner executes a full import run: categories in hierarchy order,
// then documents, wrapped in import-job state tracking.
type Runner struct {
	categories CategoryStore
	documents  DocumentStore
	jobs       JobStore
}

// NewRunner creates a Runner over the given stores.
func NewRunner(categories CategoryStore, documents DocumentStore, jobs JobStore) *Runner {
	return &Runner{categories: categories, documents: documents, jobs: jobs}
}

// Run imports parsed records on behalf of the given actor, who becomes
// the owner of everything created. The whole run is synchronous and
// sequential; per-item failures are collected, never fatal. A panic
// escaping the processing loop force-fails the job row (if one exists)
// with a synthetic error; without a job row a plain error is returned.
func (r *Runner) Run(parsed *Parsed, fileName string, actor uuid.UUID) (rep *Report, err error) {
	job, jobErr := r.jobs.Create(fileName, actor)
	if jobErr != nil {
		// The import itself is more valuable than its audit record.
		slog.Error("import job create failed, continuing without job tracking", "error", jobErr)
		job = nil
	}

	rep = &Report{
		Stats: models.ImportStats{Total: len(parsed.Documents) + len(parsed.Categories)},
	}
	if job != nil {
		rep.JobID = &job.ID
	}

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("import run panicked", "panic", rec, "file", fileName)
			if job == nil {
				rep = nil
				err = fmt.Errorf("import failed: %v", rec)
				return
			}
			synthetic := models.ImportError{Error: fmt.Sprintf("import aborted: %v", rec)}
			rep.Errors = append(rep.Errors, synthetic)
			if finishErr := r.jobs.Finish(job.ID, models.ImportJobFailed, rep.Stats, rep.Errors); finishErr != nil {
				slog.Error("import job force-fail failed", "job", job.ID, "error", finishErr)
			}
		}
	}()

	if job != nil {
		if err := r.jobs.SetStatus(job.ID, models.ImportJobProcessing); err != nil {
			slog.Error("import job status update failed", "job", job.ID, "error", err)
		}
	}

	ordered := Sequence(parsed.Categories)
	index := newRefIndex(ordered)

	r.importCategories(ordered, index, actor, rep)
	r.importDocuments(parsed.Documents, index, actor, fileName, rep)

	// Failure is reserved for runs where items were attempted and none
	// succeeded; partial success always completes.
	status := models.ImportJobCompleted
	if rep.Stats.Total > 0 && rep.Stats.Success == 0 {
		status = models.ImportJobFailed
	}
	if job != nil {
		if err := r.jobs.Finish(job.ID, status, rep.Stats, rep.Errors); err != nil {
			slog.Error("import job finish failed", "job", job.ID, "error", err)
		}
	}

	slog.Info("import run finished",
		"file", fileName,
		"status", status,
		"total", rep.Stats.Total,
		"success", rep.Stats.Success,
		"failed", rep.Stats.Failed,
	)
	return rep, nil
}

// importCategories persists categories in sequencer order. A slug-or-name
// match reuses the existing row and counts as success; an unresolvable
// parent reference degrades the category to a root.
func (r *Runner) importCategories(ordered []ExternalCategory, index *refIndex, actor uuid.UUID, rep *Report) {
	for i, c := range ordered {
		catSlug := slug.GenerateNonEmpty(c.Name)

		existing, err := r.categories.FindBySlugOrName(catSlug, c.Name)
		if err != nil {
			r.recordFailure(rep, c.Row, c.Name, c.ExternalID, fmt.Errorf("lookup category: %w", err))
			continue
		}
		if existing != nil {
			index.set(i, existing.ID)
			r.recordSuccess(rep, "category", c.Name, existing.ID)
			continue
		}

		var parentID *uuid.UUID
		if c.ParentRef != "" {
			if id, ok := index.resolve(c.ParentRef); ok {
				parentID = &id
			}
		}

		created, err := r.categories.Create(&models.Category{
			Name:        c.Name,
			Slug:        catSlug,
			Description: c.Description,
			ParentID:    parentID,
			SortOrder:   c.SortOrder,
			CreatedBy:   actor,
		})
		if err != nil {
			r.recordFailure(rep, c.Row, c.Name, c.ExternalID, fmt.Errorf("create category: %w", err))
			continue
		}

		index.set(i, created.ID)
		r.recordSuccess(rep, "category", c.Name, created.ID)
	}
}

// importDocuments persists documents in file order, converting raw
// content to blocks and resolving category references through the index
// built during category import. Unresolvable references are skipped
// silently — a document always imports even if some categories don't.
func (r *Runner) importDocuments(docs []ExternalDocument, index *refIndex, actor uuid.UUID, fileName string, rep *Report) {
	for _, d := range docs {
		docSlug := slug.GenerateNonEmpty(d.Title)

		existing, err := r.documents.FindBySlugOrTitle(docSlug, d.Title)
		if err != nil {
			r.recordFailure(rep, d.Row, d.Title, d.ExternalID, fmt.Errorf("lookup document: %w", err))
			continue
		}
		if existing != nil {
			r.recordSuccess(rep, "document", d.Title, existing.ID)
			continue
		}

		blocks := ToBlocks(d.Content)
		excerpt := Excerpt(blocks)

		status := models.DocumentStatusPublished
		if !d.Published {
			status = models.DocumentStatusDraft
		}

		var categoryIDs []uuid.UUID
		for _, ref := range d.CategoryRefs {
			if id, ok := index.resolve(strings.TrimSpace(ref)); ok {
				categoryIDs = append(categoryIDs, id)
			}
		}

		created, err := r.documents.Create(&models.Document{
			Title:    d.Title,
			Slug:     docSlug,
			Blocks:   blocks,
			Excerpt:  &excerpt,
			Status:   status,
			AuthorID: actor,
			ImportMeta: &models.ImportMetadata{
				ExternalID: d.ExternalID,
				Author:     d.Author,
				CreatedAt:  d.CreatedAt,
				UpdatedAt:  d.UpdatedAt,
				SourceFile: fileName,
			},
		})
		if err != nil {
			r.recordFailure(rep, d.Row, d.Title, d.ExternalID, fmt.Errorf("create document: %w", err))
			continue
		}

		if len(categoryIDs) > 0 {
			if err := r.documents.LinkCategories(created.ID, categoryIDs); err != nil {
				// The document itself is already created; a link failure
				// is logged but does not undo or fail it.
				slog.Warn("link document categories failed",
					"document", created.ID, "title", d.Title, "error", err)
			}
		}

		r.recordSuccess(rep, "document", d.Title, created.ID)
	}
}

func (r *Runner) recordSuccess(rep *Report, kind, title string, id uuid.UUID) {
	rep.Stats.Success++
	rep.ImportedItems = append(rep.ImportedItems, ImportedItem{
		Kind:  kind,
		Title: title,
		ID:    id.String(),
	})
}

func (r *Runner) recordFailure(rep *Report, row int, item, externalID string, err error) {
	rep.Stats.Failed++
	rep.Errors = append(rep.Errors, models.ImportError{
		Row:        row,
		Item:       item,
		Error:      err.Error(),
		ExternalID: externalID,
	})
	slog.Warn("import item failed", "item", item, "row", row, "error", err)
}
