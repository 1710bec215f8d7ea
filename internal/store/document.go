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

// DocumentStore handles all document-related database operations.
// Block bodies and import metadata are stored as JSONB.
type DocumentStore struct {
	db *sql.DB
}

// NewDocumentStore creates a new DocumentStore with the given database connection.
func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

const documentColumns = `id, title, slug, blocks, excerpt, status, author_id, import_metadata, created_at, updated_at`

// scanDocument scans a row into a Document, decoding the JSONB columns.
func scanDocument(scanner interface{ Scan(...any) error }) (*models.Document, error) {
	var d models.Document
	var blocksRaw []byte
	var metaRaw []byte
	err := scanner.Scan(
		&d.ID, &d.Title, &d.Slug, &blocksRaw, &d.Excerpt,
		&d.Status, &d.AuthorID, &metaRaw, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(blocksRaw) > 0 {
		if err := json.Unmarshal(blocksRaw, &d.Blocks); err != nil {
			return nil, fmt.Errorf("decode document blocks: %w", err)
		}
	}
	if len(metaRaw) > 0 {
		if err := json.Unmarshal(metaRaw, &d.ImportMeta); err != nil {
			return nil, fmt.Errorf("decode import metadata: %w", err)
		}
	}
	return &d, nil
}

// List returns all documents ordered by creation date descending.
func (s *DocumentStore) List() ([]models.Document, error) {
	rows, err := s.db.Query(`
		SELECT ` + documentColumns + ` FROM documents ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var items []models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		items = append(items, *d)
	}
	return items, rows.Err()
}

// ListByCategory returns published documents linked to a category,
// ordered by title. Used by the navigation/filtering surface.
func (s *DocumentStore) ListByCategory(categoryID uuid.UUID) ([]models.Document, error) {
	rows, err := s.db.Query(`
		SELECT `+documentColumns+` FROM documents d
		JOIN document_categories dc ON dc.document_id = d.id
		WHERE dc.category_id = $1 AND d.status = 'published'
		ORDER BY d.title
	`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list documents by category: %w", err)
	}
	defer rows.Close()

	var items []models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		items = append(items, *d)
	}
	return items, rows.Err()
}

// FindByID retrieves a document by its UUID, including its category
// links. Returns nil if not found.
func (s *DocumentStore) FindByID(id uuid.UUID) (*models.Document, error) {
	row := s.db.QueryRow(`SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	d, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find document by id: %w", err)
	}
	if d.CategoryIDs, err = s.categoryIDs(d.ID); err != nil {
		return nil, err
	}
	return d, nil
}

// FindBySlug retrieves a published document by its slug, including its
// category links. Used for public rendering.
func (s *DocumentStore) FindBySlug(slug string) (*models.Document, error) {
	row := s.db.QueryRow(`
		SELECT `+documentColumns+` FROM documents WHERE slug = $1 AND status = 'published'
	`, slug)
	d, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find document by slug: %w", err)
	}
	if d.CategoryIDs, err = s.categoryIDs(d.ID); err != nil {
		return nil, err
	}
	return d, nil
}

// FindBySlugOrTitle retrieves a document matching either the slug or
// the title (case-insensitive), regardless of status. This is the dedup
// lookup the importer uses to short-circuit to a match.
func (s *DocumentStore) FindBySlugOrTitle(slug, title string) (*models.Document, error) {
	row := s.db.QueryRow(`
		SELECT `+documentColumns+` FROM documents
		WHERE slug = $1 OR LOWER(title) = LOWER($2)
		LIMIT 1
	`, slug, title)
	d, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find document by slug or title: %w", err)
	}
	return d, nil
}

// Create inserts a new document and returns it with the generated ID.
// Category links are not written here; see LinkCategories.
func (s *DocumentStore) Create(d *models.Document) (*models.Document, error) {
	blocksRaw, err := json.Marshal(d.Blocks)
	if err != nil {
		return nil, fmt.Errorf("encode document blocks: %w", err)
	}

	var metaRaw any
	if d.ImportMeta != nil {
		metaRaw, err = json.Marshal(d.ImportMeta)
		if err != nil {
			return nil, fmt.Errorf("encode import metadata: %w", err)
		}
	}

	row := s.db.QueryRow(`
		INSERT INTO documents (title, slug, blocks, excerpt, status, author_id, import_metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+documentColumns,
		d.Title, d.Slug, blocksRaw, d.Excerpt, d.Status, d.AuthorID, metaRaw,
	)
	result, err := scanDocument(row)
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return result, nil
}

// Update modifies an existing document's editable fields.
func (s *DocumentStore) Update(d *models.Document) error {
	blocksRaw, err := json.Marshal(d.Blocks)
	if err != nil {
		return fmt.Errorf("encode document blocks: %w", err)
	}

	_, err = s.db.Exec(`
		UPDATE documents SET
			title = $1, slug = $2, blocks = $3, excerpt = $4, status = $5,
			updated_at = NOW()
		WHERE id = $6
	`, d.Title, d.Slug, blocksRaw, d.Excerpt, d.Status, d.ID)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return nil
}

// Delete removes a document by ID. Category links go with it (CASCADE).
func (s *DocumentStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// LinkCategories inserts document-category links. Existing links are
// left alone so the operation is safe to repeat.
func (s *DocumentStore) LinkCategories(docID uuid.UUID, categoryIDs []uuid.UUID) error {
	for _, catID := range categoryIDs {
		_, err := s.db.Exec(`
			INSERT INTO document_categories (document_id, category_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, docID, catID)
		if err != nil {
			return fmt.Errorf("link document %s to category %s: %w", docID, catID, err)
		}
	}
	return nil
}

// ReplaceCategories rewrites a document's category links in one transaction.
func (s *DocumentStore) ReplaceCategories(docID uuid.UUID, categoryIDs []uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM document_categories WHERE document_id = $1`, docID); err != nil {
		return fmt.Errorf("clear document categories: %w", err)
	}
	for _, catID := range categoryIDs {
		if _, err := tx.Exec(`
			INSERT INTO document_categories (document_id, category_id) VALUES ($1, $2)
		`, docID, catID); err != nil {
			return fmt.Errorf("link document %s to category %s: %w", docID, catID, err)
		}
	}

	return tx.Commit()
}

// Count returns the number of documents.
func (s *DocumentStore) Count() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

// categoryIDs loads the linked category ids for a document.
func (s *DocumentStore) categoryIDs(docID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.Query(`
		SELECT category_id FROM document_categories WHERE document_id = $1
	`, docID)
	if err != nil {
		return nil, fmt.Errorf("document categories: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan category id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
