// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"kbpress/internal/cache"
	"kbpress/internal/importer"
	"kbpress/internal/middleware"
	"kbpress/internal/models"
	"kbpress/internal/slug"
	"kbpress/internal/store"
)

// Admin groups the authenticated admin API handlers: dashboard,
// category and document management, bulk import, and user management.
type Admin struct {
	categories *store.CategoryStore
	documents  *store.DocumentStore
	jobs       *store.ImportJobStore
	users      *store.UserStore
	runner     *importer.Runner
	treeCache  *cache.TreeCache

	maxImportBytes int64
}

// NewAdmin creates a new Admin handler group.
func NewAdmin(
	categories *store.CategoryStore,
	documents *store.DocumentStore,
	jobs *store.ImportJobStore,
	users *store.UserStore,
	runner *importer.Runner,
	treeCache *cache.TreeCache,
	maxImportBytes int64,
) *Admin {
	return &Admin{
		categories:     categories,
		documents:      documents,
		jobs:           jobs,
		users:          users,
		runner:         runner,
		treeCache:      treeCache,
		maxImportBytes: maxImportBytes,
	}
}

// parseID extracts and parses the {id} URL parameter.
func parseID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

// Dashboard returns summary counts and the most recent import jobs.
func (h *Admin) Dashboard(w http.ResponseWriter, r *http.Request) {
	docCount, err := h.documents.Count()
	if err != nil {
		slog.Error("dashboard document count failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	cats, err := h.categories.List()
	if err != nil {
		slog.Error("dashboard category list failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	jobs, err := h.jobs.List()
	if err != nil {
		slog.Error("dashboard job list failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if len(jobs) > 5 {
		jobs = jobs[:5]
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"documents":   docCount,
		"categories":  len(cats),
		"recent_jobs": jobs,
	})
}

// categoryRequest is the JSON body for category create and update.
type categoryRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	ParentID    *uuid.UUID `json:"parent_id"`
	SortOrder   *int       `json:"sort_order"`
}

// CategoriesList returns all categories as a flat list with document counts.
func (h *Admin) CategoriesList(w http.ResponseWriter, r *http.Request) {
	cats, err := h.categories.List()
	if err != nil {
		slog.Error("list categories failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"categories": cats})
}

// CategoryTree returns the category hierarchy as a nested tree.
func (h *Admin) CategoryTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.categories.Tree()
	if err != nil {
		slog.Error("category tree failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"tree": tree})
}

// CategoryCreate creates a new category after validating fields and the
// proposed position in the hierarchy.
func (h *Admin) CategoryCreate(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if msg := validateCategoryInput(req.Name, req.Description); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.categories.ValidateParent(uuid.Nil, req.ParentID); err != nil {
		var hierr *store.HierarchyError
		if errors.As(err, &hierr) {
			respondError(w, http.StatusBadRequest, hierr.Reason)
			return
		}
		slog.Error("validate parent failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	sortOrder := 0
	if req.SortOrder != nil {
		sortOrder = *req.SortOrder
	} else {
		next, err := h.categories.NextSortOrder(req.ParentID)
		if err != nil {
			slog.Error("next sort order failed", "error", err)
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		sortOrder = next
	}

	created, err := h.categories.Create(&models.Category{
		Name:        req.Name,
		Slug:        slug.GenerateNonEmpty(req.Name),
		Description: req.Description,
		ParentID:    req.ParentID,
		SortOrder:   sortOrder,
		CreatedBy:   sess.UserID,
	})
	if err != nil {
		slog.Error("create category failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.treeCache.Invalidate(r.Context())
	respondJSON(w, http.StatusCreated, created)
}

// CategoryUpdate modifies an existing category. Reparenting runs the
// full hierarchy validation, so cycles and over-deep nesting are
// rejected here just like on create.
func (h *Admin) CategoryUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	existing, err := h.categories.FindByID(id)
	if err != nil {
		slog.Error("find category failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "category not found")
		return
	}

	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if msg := validateCategoryInput(req.Name, req.Description); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.categories.ValidateParent(id, req.ParentID); err != nil {
		var hierr *store.HierarchyError
		if errors.As(err, &hierr) {
			respondError(w, http.StatusBadRequest, hierr.Reason)
			return
		}
		slog.Error("validate parent failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	existing.Name = req.Name
	existing.Slug = slug.GenerateNonEmpty(req.Name)
	existing.Description = req.Description
	existing.ParentID = req.ParentID
	if req.SortOrder != nil {
		existing.SortOrder = *req.SortOrder
	}

	if err := h.categories.Update(existing); err != nil {
		slog.Error("update category failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.treeCache.Invalidate(r.Context())
	respondJSON(w, http.StatusOK, existing)
}

// CategoryDelete removes a category. Its children become roots and its
// document links are dropped; documents themselves are untouched.
func (h *Admin) CategoryDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	if err := h.categories.Delete(id); err != nil {
		slog.Error("delete category failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.treeCache.Invalidate(r.Context())
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// documentRequest is the JSON body for document create and update. The
// markdown content is converted to paragraph blocks on write, the same
// conversion the importer applies.
type documentRequest struct {
	Title       string                `json:"title"`
	Content     string                `json:"content"`
	Status      models.DocumentStatus `json:"status"`
	CategoryIDs []uuid.UUID           `json:"category_ids"`
}

// DocumentsList returns all documents, newest first.
func (h *Admin) DocumentsList(w http.ResponseWriter, r *http.Request) {
	docs, err := h.documents.List()
	if err != nil {
		slog.Error("list documents failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// DocumentGet returns a single document with its category links.
func (h *Admin) DocumentGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	doc, err := h.documents.FindByID(id)
	if err != nil {
		slog.Error("find document failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if doc == nil {
		respondError(w, http.StatusNotFound, "document not found")
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

// DocumentCreate creates a new document owned by the session user.
func (h *Admin) DocumentCreate(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var req documentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if msg := validateDocumentInput(req.Title, req.Content); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	status := req.Status
	if status == "" {
		status = models.DocumentStatusDraft
	}
	if status != models.DocumentStatusDraft && status != models.DocumentStatusPublished {
		respondError(w, http.StatusBadRequest, "status must be draft or published")
		return
	}

	blocks := importer.ToBlocks(req.Content)
	excerpt := importer.Excerpt(blocks)

	created, err := h.documents.Create(&models.Document{
		Title:    req.Title,
		Slug:     slug.GenerateNonEmpty(req.Title),
		Blocks:   blocks,
		Excerpt:  &excerpt,
		Status:   status,
		AuthorID: sess.UserID,
	})
	if err != nil {
		slog.Error("create document failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if len(req.CategoryIDs) > 0 {
		if err := h.documents.LinkCategories(created.ID, req.CategoryIDs); err != nil {
			slog.Error("link document categories failed", "document", created.ID, "error", err)
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		created.CategoryIDs = req.CategoryIDs
	}

	respondJSON(w, http.StatusCreated, created)
}

// DocumentUpdate modifies an existing document and replaces its
// category links.
func (h *Admin) DocumentUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	existing, err := h.documents.FindByID(id)
	if err != nil {
		slog.Error("find document failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "document not found")
		return
	}

	var req documentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if msg := validateDocumentInput(req.Title, req.Content); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	status := req.Status
	if status == "" {
		status = existing.Status
	}
	if status != models.DocumentStatusDraft && status != models.DocumentStatusPublished {
		respondError(w, http.StatusBadRequest, "status must be draft or published")
		return
	}

	blocks := importer.ToBlocks(req.Content)
	excerpt := importer.Excerpt(blocks)

	existing.Title = req.Title
	existing.Slug = slug.GenerateNonEmpty(req.Title)
	existing.Blocks = blocks
	existing.Excerpt = &excerpt
	existing.Status = status

	if err := h.documents.Update(existing); err != nil {
		slog.Error("update document failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := h.documents.ReplaceCategories(id, req.CategoryIDs); err != nil {
		slog.Error("replace document categories failed", "document", id, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	existing.CategoryIDs = req.CategoryIDs

	respondJSON(w, http.StatusOK, existing)
}

// DocumentDelete removes a document and its category links.
func (h *Admin) DocumentDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	if err := h.documents.Delete(id); err != nil {
		slog.Error("delete document failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ImportUpload accepts a CSV or JSON export as a multipart file upload
// and runs it through the import pipeline. With dry_run=true the file
// is parsed and validated but nothing is written and no job is created.
// Files that cannot be parsed at all are rejected with 400 before any
// job exists.
func (h *Admin) ImportUpload(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxImportBytes)
	if err := r.ParseMultipartForm(h.maxImportBytes); err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "upload too large or malformed")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		slog.Error("read upload failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	ext := filepath.Ext(header.Filename)
	parsed, err := importer.Parse(raw, ext)
	if err != nil {
		var perr *importer.ParseError
		if errors.As(err, &perr) {
			respondError(w, http.StatusBadRequest, perr.Error())
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	dryRun := r.FormValue("dry_run")
	if dryRun == "true" || dryRun == "1" {
		respondJSON(w, http.StatusOK, importer.Validate(parsed).ToReport())
		return
	}

	report, err := h.runner.Run(parsed, header.Filename, sess.UserID)
	if err != nil {
		slog.Error("import run failed", "file", header.Filename, "error", err)
		respondError(w, http.StatusInternalServerError, "import failed")
		return
	}

	// The import may have created or re-parented categories.
	h.treeCache.Invalidate(r.Context())

	respondJSON(w, http.StatusOK, report)
}

// ImportJobsList returns all import jobs, newest first.
func (h *Admin) ImportJobsList(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobs.List()
	if err != nil {
		slog.Error("list import jobs failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

// ImportJobGet returns a single import job with its full error list.
func (h *Admin) ImportJobGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	job, err := h.jobs.FindByID(id)
	if err != nil {
		slog.Error("find import job failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if job == nil {
		respondError(w, http.StatusNotFound, "import job not found")
		return
	}
	respondJSON(w, http.StatusOK, job)
}

// UsersList returns all users.
func (h *Admin) UsersList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List()
	if err != nil {
		slog.Error("list users failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": users})
}

// UserResetTwoFA clears a user's TOTP enrollment so they must set up
// 2FA again on next login.
func (h *Admin) UserResetTwoFA(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.users.ResetTOTP(id); err != nil {
		slog.Error("reset totp failed", "user", id, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
