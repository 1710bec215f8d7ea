// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"kbpress/internal/models"
)

// treeDepthCap bounds tree construction and ancestor walks: the
// supported depth plus a safety margin, since the flat table is
// untrusted input as far as these walks are concerned.
const treeDepthCap = models.MaxCategoryDepth + 2

// HierarchyError reports a rejected category parent assignment: a
// self-parent, a cycle, or a depth overflow.
type HierarchyError struct {
	Reason string
}

func (e *HierarchyError) Error() string { return e.Reason }

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `id, name, slug, description, parent_id, sort_order, created_by, created_at, updated_at`

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	err := scanner.Scan(
		&c.ID, &c.Name, &c.Slug, &c.Description,
		&c.ParentID, &c.SortOrder, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns all categories ordered by sort_order, with published
// document counts.
func (s *CategoryStore) List() ([]models.Category, error) {
	rows, err := s.db.Query(`
		SELECT c.id, c.name, c.slug, c.description, c.parent_id, c.sort_order,
		       c.created_by, c.created_at, c.updated_at,
		       COUNT(d.id) AS document_count
		FROM categories c
		LEFT JOIN document_categories dc ON dc.category_id = c.id
		LEFT JOIN documents d ON d.id = dc.document_id AND d.status = 'published'
		GROUP BY c.id
		ORDER BY c.sort_order, c.name
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		var c models.Category
		err := rows.Scan(
			&c.ID, &c.Name, &c.Slug, &c.Description,
			&c.ParentID, &c.SortOrder, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
			&c.DocumentCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// Tree returns categories as a nested tree structure. Built fresh from
// the flat table on every call; never persisted.
func (s *CategoryStore) Tree() ([]models.Category, error) {
	flat, err := s.List()
	if err != nil {
		return nil, err
	}
	return buildTree(flat), nil
}

// buildTree turns a flat category list into a nested tree with computed
// depth. Roots are categories with no parent or whose declared parent is
// absent from the set (orphans degrade to roots, mirroring the import
// path). Siblings sort by sort_order then name. A visited-set guard and
// a depth cap keep a cyclic flat list from recursing unboundedly: the
// affected branch simply stops growing.
func buildTree(flat []models.Category) []models.Category {
	present := make(map[uuid.UUID]bool, len(flat))
	for _, c := range flat {
		present[c.ID] = true
	}

	children := make(map[uuid.UUID][]int)
	var roots []int
	for i, c := range flat {
		if c.ParentID == nil || !present[*c.ParentID] {
			roots = append(roots, i)
		} else {
			children[*c.ParentID] = append(children[*c.ParentID], i)
		}
	}

	sortSiblings := func(idxs []int) {
		sort.SliceStable(idxs, func(a, b int) bool {
			ca, cb := flat[idxs[a]], flat[idxs[b]]
			if ca.SortOrder != cb.SortOrder {
				return ca.SortOrder < cb.SortOrder
			}
			return ca.Name < cb.Name
		})
	}

	visited := make(map[uuid.UUID]bool, len(flat))

	var attach func(i, depth int) models.Category
	attach = func(i, depth int) models.Category {
		c := flat[i]
		c.Depth = depth
		c.Children = nil

		if depth+1 >= treeDepthCap {
			return c
		}

		kids := children[c.ID]
		sortSiblings(kids)
		for _, k := range kids {
			if visited[flat[k].ID] {
				continue
			}
			visited[flat[k].ID] = true
			c.Children = append(c.Children, attach(k, depth+1))
		}
		return c
	}

	sortSiblings(roots)
	var tree []models.Category
	for _, i := range roots {
		if visited[flat[i].ID] {
			continue
		}
		visited[flat[i].ID] = true
		tree = append(tree, attach(i, 0))
	}
	return tree
}

// FlatTree returns categories as a flat list ordered for display, with
// Depth set for indentation. Useful for <select> dropdowns.
func (s *CategoryStore) FlatTree() ([]models.Category, error) {
	tree, err := s.Tree()
	if err != nil {
		return nil, err
	}
	var result []models.Category
	flattenTree(tree, &result)
	return result, nil
}

// flattenTree walks a category tree depth-first, appending to result.
func flattenTree(cats []models.Category, result *[]models.Category) {
	for _, c := range cats {
		*result = append(*result, c)
		if len(c.Children) > 0 {
			flattenTree(c.Children, result)
		}
	}
}

// FindByID retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindByID(id uuid.UUID) (*models.Category, error) {
	row := s.db.QueryRow(`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// FindBySlugOrName retrieves a category matching either the slug or the
// name (case-insensitive). This is the dedup lookup the importer uses:
// an incoming category matching an existing row by either key reuses it.
func (s *CategoryStore) FindBySlugOrName(slug, name string) (*models.Category, error) {
	row := s.db.QueryRow(`
		SELECT `+categoryColumns+` FROM categories
		WHERE slug = $1 OR LOWER(name) = LOWER($2)
		LIMIT 1
	`, slug, name)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by slug or name: %w", err)
	}
	return c, nil
}

// Create inserts a new category and returns it.
func (s *CategoryStore) Create(c *models.Category) (*models.Category, error) {
	row := s.db.QueryRow(`
		INSERT INTO categories (name, slug, description, parent_id, sort_order, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+categoryColumns,
		c.Name, c.Slug, c.Description, c.ParentID, c.SortOrder, c.CreatedBy,
	)
	result, err := scanCategory(row)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return result, nil
}

// Update modifies an existing category.
func (s *CategoryStore) Update(c *models.Category) error {
	_, err := s.db.Exec(`
		UPDATE categories SET
			name = $1, slug = $2, description = $3, parent_id = $4,
			sort_order = $5, updated_at = NOW()
		WHERE id = $6
	`, c.Name, c.Slug, c.Description, c.ParentID, c.SortOrder, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// Delete removes a category by ID. Children are re-parented to root
// (ON DELETE SET NULL) and document links are removed (ON DELETE CASCADE).
func (s *CategoryStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// ValidateParent enforces the hierarchy invariants on every non-import
// create or reparent: no self-parent, no cycles, and at most
// MaxCategoryDepth levels of nesting. id is uuid.Nil when validating a
// category that does not exist yet. The checks are sequential point
// reads with no snapshot isolation; concurrent reparenting can race,
// which is a known, accepted limitation.
func (s *CategoryStore) ValidateParent(id uuid.UUID, parentID *uuid.UUID) error {
	if parentID == nil {
		return nil
	}
	if *parentID == id {
		return &HierarchyError{Reason: "a category cannot be its own parent"}
	}

	// Walk upward from the proposed parent counting ancestors.
	ancestors := 0
	current := *parentID
	for steps := 0; steps < treeDepthCap; steps++ {
		cat, err := s.FindByID(current)
		if err != nil {
			return err
		}
		if cat == nil {
			return &HierarchyError{Reason: fmt.Sprintf("parent category %s does not exist", current)}
		}

		ancestors++
		if cat.ID == id {
			return &HierarchyError{Reason: "cannot move a category under its own descendant"}
		}
		if cat.ParentID == nil {
			break
		}
		current = *cat.ParentID
	}

	// The proposed parent sits at level `ancestors` (root = 1); the
	// category itself would sit one level below.
	if ancestors+1 > models.MaxCategoryDepth {
		return &HierarchyError{Reason: fmt.Sprintf("maximum category depth of %d exceeded", models.MaxCategoryDepth)}
	}
	return nil
}

// NextSortOrder returns the next sort_order value for a given parent.
func (s *CategoryStore) NextSortOrder(parentID *uuid.UUID) (int, error) {
	var maxOrder sql.NullInt64
	var err error
	if parentID == nil {
		err = s.db.QueryRow(`SELECT MAX(sort_order) FROM categories WHERE parent_id IS NULL`).Scan(&maxOrder)
	} else {
		err = s.db.QueryRow(`SELECT MAX(sort_order) FROM categories WHERE parent_id = $1`, *parentID).Scan(&maxOrder)
	}
	if err != nil {
		return 0, err
	}
	if maxOrder.Valid {
		return int(maxOrder.Int64) + 1, nil
	}
	return 0, nil
}
