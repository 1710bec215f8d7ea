// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxCategoryDepth is the deepest nesting the knowledge base allows:
// root (1), child (2), grandchild (3).
const MaxCategoryDepth = 3

// Category represents a node in the knowledge-base category hierarchy.
// Documents can be linked to any number of categories.
type Category struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	ParentID    *uuid.UUID `json:"parent_id"`
	SortOrder   int        `json:"sort_order"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Virtual fields populated by store methods, never persisted.
	Children      []Category `json:"children,omitempty"`
	Depth         int        `json:"depth"`
	DocumentCount int        `json:"document_count"`
}
