// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package importer

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"kbpress/internal/models"
)

// Field limits for imported records.
const (
	maxDocumentTitleLen = 200
	maxCategoryNameLen  = 100
	maxCategoryDescLen  = 500
)

// hierarchyWalkCap bounds parent-chain walks over untrusted input: the
// supported depth plus a safety margin. A chain longer than this stops
// walking without reporting anything.
const hierarchyWalkCap = models.MaxCategoryDepth + 5

// timestampLayouts are the date spellings accepted in import sources.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC1123,
}

// ValidationStats counts valid items per kind. An item is invalid when
// its title/name appears in the error list — an approximate but
// sufficient match-back heuristic.
type ValidationStats struct {
	TotalDocuments  int `json:"total_documents"`
	ValidDocuments  int `json:"valid_documents"`
	TotalCategories int `json:"total_categories"`
	ValidCategories int `json:"valid_categories"`
}

// ValidationReport is the output of a dry run: everything an import
// would flag, with storage untouched.
type ValidationReport struct {
	Valid    bool                 `json:"valid"`
	Errors   []models.ImportError `json:"errors"`
	Warnings []string             `json:"warnings"`
	Stats    ValidationStats      `json:"stats"`
}

// Validate checks canonical records against field constraints and
// hierarchy well-formedness. It is a pure function: it never touches
// storage and may run concurrently with anything, including a live import.
func Validate(parsed *Parsed) *ValidationReport {
	rep := &ValidationReport{
		Stats: ValidationStats{
			TotalDocuments:  len(parsed.Documents),
			TotalCategories: len(parsed.Categories),
		},
	}

	if len(parsed.Documents) == 0 && len(parsed.Categories) == 0 {
		rep.Warnings = append(rep.Warnings, "import file contains no records")
	}

	for _, d := range parsed.Documents {
		validateDocument(d, rep)
	}
	for _, c := range parsed.Categories {
		validateCategory(c, rep)
	}
	validateHierarchy(parsed.Categories, rep)

	errored := make(map[string]bool, len(rep.Errors))
	for _, e := range rep.Errors {
		errored[e.Item] = true
	}
	for _, d := range parsed.Documents {
		if !errored[d.Title] {
			rep.Stats.ValidDocuments++
		}
	}
	for _, c := range parsed.Categories {
		if !errored[c.Name] {
			rep.Stats.ValidCategories++
		}
	}

	rep.Valid = len(rep.Errors) == 0
	return rep
}

func validateDocument(d ExternalDocument, rep *ValidationReport) {
	addErr := func(msg string) {
		rep.Errors = append(rep.Errors, models.ImportError{
			Row:        d.Row,
			Item:       d.Title,
			Error:      msg,
			ExternalID: d.ExternalID,
		})
	}

	if strings.TrimSpace(d.Title) == "" {
		addErr("document title is required")
	} else if utf8.RuneCountInString(d.Title) > maxDocumentTitleLen {
		addErr(fmt.Sprintf("document title exceeds %d characters", maxDocumentTitleLen))
	}

	if strings.TrimSpace(d.Content) == "" {
		addErr("document content is required")
	}

	for _, ref := range d.CategoryRefs {
		if strings.TrimSpace(ref) == "" {
			addErr("category reference must be a non-empty string")
		}
	}

	if d.CreatedAt != "" && !validTimestamp(d.CreatedAt) {
		addErr(fmt.Sprintf("created_at %q is not a valid date", d.CreatedAt))
	}
	if d.UpdatedAt != "" && !validTimestamp(d.UpdatedAt) {
		addErr(fmt.Sprintf("updated_at %q is not a valid date", d.UpdatedAt))
	}

	if len(d.CategoryRefs) == 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("document %q has no categories", d.Title))
	}
}

func validateCategory(c ExternalCategory, rep *ValidationReport) {
	addErr := func(msg string) {
		rep.Errors = append(rep.Errors, models.ImportError{
			Row:        c.Row,
			Item:       c.Name,
			Error:      msg,
			ExternalID: c.ExternalID,
		})
	}

	if strings.TrimSpace(c.Name) == "" {
		addErr("category name is required")
	} else if utf8.RuneCountInString(c.Name) > maxCategoryNameLen {
		addErr(fmt.Sprintf("category name exceeds %d characters", maxCategoryNameLen))
	}

	if utf8.RuneCountInString(c.Description) > maxCategoryDescLen {
		addErr(fmt.Sprintf("category description exceeds %d characters", maxCategoryDescLen))
	}

	if c.SortOrder < 0 {
		addErr("sort_order must not be negative")
	}

	if c.Description == "" {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("category %q has no description", c.Name))
	}
}

// validateHierarchy walks every parent chain looking for cycles. A
// parent that is simply absent from the set is not an error here — the
// sequencer later degrades it to a root (orphan handling).
func validateHierarchy(cats []ExternalCategory, rep *ValidationReport) {
	index := make(map[string]int, len(cats)*2)
	for i, c := range cats {
		if c.ExternalID != "" {
			if _, taken := index[refKey(c.ExternalID)]; !taken {
				index[refKey(c.ExternalID)] = i
			}
		}
		if c.Name != "" {
			if _, taken := index[refKey(c.Name)]; !taken {
				index[refKey(c.Name)] = i
			}
		}
	}

	for _, c := range cats {
		if c.ParentRef == "" {
			continue
		}

		visited := []string{c.Name}
		seen := map[int]bool{}
		if i, ok := index[refKey(c.Name)]; ok {
			seen[i] = true
		}

		ref := c.ParentRef
		for steps := 0; steps < hierarchyWalkCap; steps++ {
			i, ok := index[refKey(ref)]
			if !ok {
				break // orphan — resolved later, not an error
			}
			if seen[i] {
				visited = append(visited, cats[i].Name)
				rep.Errors = append(rep.Errors, models.ImportError{
					Row:        c.Row,
					Item:       c.Name,
					Error:      fmt.Sprintf("category hierarchy cycle: %s", strings.Join(visited, " -> ")),
					ExternalID: c.ExternalID,
				})
				break
			}
			seen[i] = true
			visited = append(visited, cats[i].Name)
			ref = cats[i].ParentRef
			if ref == "" {
				break
			}
		}
	}
}

func validTimestamp(s string) bool {
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return true
		}
	}
	return false
}

// ToReport converts a validation report into the caller-facing import
// report shape used by the dry-run endpoint. Dry runs do not attempt
// the match-vs-insert distinction, so "success" means "valid".
func (v *ValidationReport) ToReport() *Report {
	total := v.Stats.TotalDocuments + v.Stats.TotalCategories
	success := v.Stats.ValidDocuments + v.Stats.ValidCategories
	return &Report{
		DryRun:   true,
		Stats:    models.ImportStats{Total: total, Success: success, Failed: total - success},
		Errors:   v.Errors,
		Warnings: v.Warnings,
	}
}
