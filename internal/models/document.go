// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentStatus represents the publishing state of a document.
type DocumentStatus string

const (
	DocumentStatusDraft     DocumentStatus = "draft"
	DocumentStatusPublished DocumentStatus = "published"
)

// BlockType identifies the kind of a content block.
type BlockType string

const (
	BlockTypeParagraph BlockType = "paragraph"
)

// Block is one typed chunk of a structured document body. Imported raw
// HTML or plain text is split into paragraph blocks; the editor may add
// other block types later.
type Block struct {
	Type BlockType `json:"type"`
	Text string    `json:"text"`
}

// ImportMetadata preserves descriptive fields from an external export.
// These are opaque strings, never foreign keys — the importing admin
// owns the document regardless of original authorship.
type ImportMetadata struct {
	ExternalID string `json:"external_id,omitempty"`
	Author     string `json:"author,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
	SourceFile string `json:"source_file,omitempty"`
}

// Document represents a knowledge-base article with a structured block body.
type Document struct {
	ID         uuid.UUID       `json:"id"`
	Title      string          `json:"title"`
	Slug       string          `json:"slug"`
	Blocks     []Block         `json:"blocks"`
	Excerpt    *string         `json:"excerpt,omitempty"`
	Status     DocumentStatus  `json:"status"`
	AuthorID   uuid.UUID       `json:"author_id"`
	ImportMeta *ImportMetadata `json:"import_metadata,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`

	// CategoryIDs is populated from the document_categories link table.
	CategoryIDs []uuid.UUID `json:"category_ids"`
}

// IsPublished returns true if the document is in published status.
func (d *Document) IsPublished() bool {
	return d.Status == DocumentStatusPublished
}

// PlainText flattens the block body into a single plain-text string.
func (d *Document) PlainText() string {
	var out string
	for i, b := range d.Blocks {
		if i > 0 {
			out += "\n\n"
		}
		out += b.Text
	}
	return out
}
