// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package importer

import (
	"strconv"
	"strings"
)

// Canonical field names for external records. Source files spell these
// many different ways; the synonym tables below are the single place
// those spellings are declared.
const (
	fieldExternalID  = "external_id"
	fieldTitle       = "title"
	fieldContent     = "content"
	fieldCategories  = "categories"
	fieldAuthor      = "author"
	fieldCreatedAt   = "created_at"
	fieldUpdatedAt   = "updated_at"
	fieldPublished   = "published"
	fieldDeleted     = "deleted"
	fieldName        = "name"
	fieldDescription = "description"
	fieldParent      = "parent"
	fieldSortOrder   = "sort_order"

	// Flat exports sometimes carry the category hierarchy as a pair of
	// columns on each document row instead of explicit category records.
	fieldCategoryName    = "category_name"
	fieldSubcategoryName = "subcategory_name"
)

// documentSynonyms lists the accepted source key spellings for each
// canonical document field, in priority order. The first present,
// non-empty candidate wins.
var documentSynonyms = map[string][]string{
	fieldExternalID:      {"id", "article_id", "external_id"},
	fieldTitle:           {"page_title", "title", "name"},
	fieldContent:         {"content", "body", "text", "html"},
	fieldCategories:      {"category", "categories", "tags"},
	fieldAuthor:          {"author", "created_by"},
	fieldCreatedAt:       {"created", "created_at", "date"},
	fieldUpdatedAt:       {"updated", "updated_at", "modified"},
	fieldPublished:       {"published", "status", "state"},
	fieldDeleted:         {"deleted", "deleted_at", "is_deleted"},
	fieldCategoryName:    {"category_name"},
	fieldSubcategoryName: {"subcategory_name"},
}

// categorySynonyms is the equivalent table for category records.
var categorySynonyms = map[string][]string{
	fieldExternalID:  {"id", "category_id", "external_id"},
	fieldName:        {"name", "title", "category"},
	fieldDescription: {"description", "desc"},
	fieldParent:      {"parent", "parent_id", "parent_category"},
	fieldSortOrder:   {"order", "sort_order", "position"},
}

// contentFamily and nameFamily classify a header row: any content-family
// header means the file holds documents; a name-family header without
// content means categories.
var (
	contentFamily = []string{"content", "body", "text", "html"}
	nameFamily    = []string{"name", "title", "category", "page_title"}
)

// record is one source row or object with normalized (lowercased,
// trimmed) keys. Row is the 1-based source line for CSV input and zero
// for JSON, where no line number is meaningful.
type record struct {
	fields map[string]any
	row    int
}

// resolve returns the raw value of a canonical field using the synonym
// table, or nil if no candidate key holds a non-empty value.
func (r record) resolve(synonyms map[string][]string, field string) any {
	for _, key := range synonyms[field] {
		v, ok := r.fields[key]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return v
	}
	return nil
}

// resolveString resolves a canonical field and coerces it to a trimmed string.
func (r record) resolveString(synonyms map[string][]string, field string) string {
	return coerceString(r.resolve(synonyms, field))
}

// coerceString renders a loosely-typed JSON value as a string. Numbers
// lose any ".0" suffix so numeric external ids round-trip cleanly.
func coerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// coerceInt renders a loosely-typed value as an int, defaulting to zero.
func coerceInt(v any) int {
	switch val := v.(type) {
	case float64:
		return int(val)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// falseValues are the spellings a source may use to mark a record
// unpublished. Anything else (including absence) means published.
var falseValues = map[string]bool{
	"false": true, "0": true, "no": true,
	"draft": true, "unpublished": true, "private": true, "hidden": true,
}

// coerceBool interprets a published/status value. Absent values default
// to true — exports rarely mark published records explicitly.
func coerceBool(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case bool:
		return val
	case string:
		return !falseValues[strings.ToLower(strings.TrimSpace(val))]
	default:
		return true
	}
}

// isTruthyMarker reports whether a deleted-marker value is populated.
// Explicit negatives ("false", "0", "no") do not count as deletion.
func isTruthyMarker(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		s := strings.ToLower(strings.TrimSpace(val))
		return s != "" && s != "false" && s != "0" && s != "no"
	default:
		return true
	}
}

// refKey normalizes a loosely-typed category reference (external id or
// name) for map lookups.
func refKey(ref string) string {
	return strings.ToLower(strings.TrimSpace(ref))
}

// hasAnyHeader reports whether any of the given keys appears in the header set.
func hasAnyHeader(headers map[string]bool, keys []string) bool {
	for _, k := range keys {
		if headers[k] {
			return true
		}
	}
	return false
}
