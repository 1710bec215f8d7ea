// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package importer implements the bulk import pipeline: parsing external
// CSV/JSON exports into canonical records, validating them, sequencing
// the category hierarchy, and persisting categories and documents with
// per-item error bookkeeping.
package importer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ExternalCategory is the canonical pre-import form of a category record.
// ParentRef is loosely typed: it may hold an external id or a bare name.
type ExternalCategory struct {
	ExternalID  string
	Name        string
	Description string
	ParentRef   string
	SortOrder   int
	Row         int
}

// ExternalDocument is the canonical pre-import form of a document record.
// Content is raw text or HTML as found in the source.
type ExternalDocument struct {
	ExternalID   string
	Title        string
	Content      string
	CategoryRefs []string
	Author       string
	CreatedAt    string
	UpdatedAt    string
	Published    bool
	Row          int
}

// Parsed is the canonical output of the format parser: every source file
// reduces to these two lists regardless of input shape.
type Parsed struct {
	Documents  []ExternalDocument
	Categories []ExternalCategory
}

// ParseError marks fatal input problems: malformed syntax, an empty
// file, or a shape the parser does not recognize. No import job is
// created when parsing fails.
type ParseError struct {
	msg string
}

func (e *ParseError) Error() string { return e.msg }

func parseErrorf(format string, args ...any) *ParseError {
	return &ParseError{msg: fmt.Sprintf(format, args...)}
}

// refDelimiters splits a delimited category-reference string.
var refDelimiters = regexp.MustCompile(`[,;|]`)

// Parse turns raw file bytes into canonical records based on the
// declared file extension ("csv" or "json", with or without a dot).
func Parse(raw []byte, ext string) (*Parsed, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, parseErrorf("import file is empty")
	}

	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "csv":
		return parseCSV(raw)
	case "json":
		return parseJSON(raw)
	default:
		return nil, parseErrorf("unsupported file type %q (expected csv or json)", ext)
	}
}

// parseCSV reads a header row plus data rows. The header set decides
// whether the file carries documents or categories — a file holds only
// one kind.
func parseCSV(raw []byte) (*Parsed, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, parseErrorf("malformed CSV: %v", err)
	}
	if len(rows) == 0 {
		return nil, parseErrorf("import file is empty")
	}

	headers := make([]string, len(rows[0]))
	headerSet := make(map[string]bool, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.ToLower(strings.TrimSpace(h))
		headers[i] = h
		headerSet[h] = true
	}

	var records []record
	for i, row := range rows[1:] {
		blank := true
		fields := make(map[string]any, len(headers))
		for j, cell := range row {
			if j >= len(headers) {
				break
			}
			cell = strings.TrimSpace(cell)
			if cell != "" {
				blank = false
			}
			fields[headers[j]] = cell
		}
		if blank {
			continue
		}
		// Header is line 1, so data starts at line 2.
		records = append(records, record{fields: fields, row: i + 2})
	}

	switch {
	case hasAnyHeader(headerSet, contentFamily):
		return buildParsed(records, nil)
	case hasAnyHeader(headerSet, nameFamily):
		return buildParsed(nil, records)
	default:
		return nil, parseErrorf("unrecognized CSV headers: %s", strings.Join(headers, ", "))
	}
}

// parseJSON accepts three root shapes: a homogeneous array, an object
// with documents/categories keys, or an object wrapping either of those
// under a single "data" key.
func parseJSON(raw []byte) (*Parsed, error) {
	var root any
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, parseErrorf("malformed JSON: %v", err)
	}
	return classifyJSON(root)
}

func classifyJSON(root any) (*Parsed, error) {
	switch v := root.(type) {
	case []any:
		return classifyJSONArray(v)
	case map[string]any:
		if data, ok := v["data"]; ok && len(v) == 1 {
			return classifyJSON(data)
		}
		docsRaw, hasDocs := v["documents"]
		catsRaw, hasCats := v["categories"]
		if !hasDocs && !hasCats {
			return nil, parseErrorf("unrecognized JSON shape: expected an array or an object with documents/categories keys")
		}
		docRecords, err := jsonRecords(docsRaw, hasDocs, "documents")
		if err != nil {
			return nil, err
		}
		catRecords, err := jsonRecords(catsRaw, hasCats, "categories")
		if err != nil {
			return nil, err
		}
		return buildParsed(docRecords, catRecords)
	default:
		return nil, parseErrorf("unrecognized JSON shape: root must be an array or object")
	}
}

// classifyJSONArray inspects the first element's keys to decide the
// record kind: a title-and-body pair means documents, a name without a
// body means categories.
func classifyJSONArray(items []any) (*Parsed, error) {
	if len(items) == 0 {
		return &Parsed{}, nil
	}

	records, err := jsonRecords(items, true, "array")
	if err != nil {
		return nil, err
	}

	first := records[0]
	hasBody := first.resolve(documentSynonyms, fieldContent) != nil
	hasTitle := first.resolve(documentSynonyms, fieldTitle) != nil
	hasName := first.resolve(categorySynonyms, fieldName) != nil

	switch {
	case hasTitle && hasBody:
		return buildParsed(records, nil)
	case hasName && !hasBody:
		return buildParsed(nil, records)
	default:
		return nil, parseErrorf("unrecognized JSON array: elements look like neither documents nor categories")
	}
}

// jsonRecords converts a raw JSON array into records with normalized keys.
func jsonRecords(raw any, present bool, label string) ([]record, error) {
	if !present || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, parseErrorf("unrecognized JSON shape: %s must be an array", label)
	}

	var records []record
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, parseErrorf("unrecognized JSON shape: %s[%d] is not an object", label, i)
		}
		fields := make(map[string]any, len(obj))
		for k, v := range obj {
			fields[strings.ToLower(strings.TrimSpace(k))] = v
		}
		records = append(records, record{fields: fields})
	}
	return records, nil
}

// buildParsed normalizes raw records into canonical documents and
// categories. Categories are built first so that documents carrying
// flat category_name/subcategory_name pairs can synthesize any category
// records the file did not declare explicitly — downstream stages
// require every referenced category to exist as a record.
func buildParsed(docRecords, catRecords []record) (*Parsed, error) {
	parsed := &Parsed{}

	declared := make(map[string]bool)
	for _, rec := range catRecords {
		c := buildCategory(rec)
		parsed.Categories = append(parsed.Categories, c)
		declared[refKey(c.Name)] = true
	}

	for _, rec := range docRecords {
		d := buildDocument(rec)

		// Synthesize hierarchy records from flat column pairs when the
		// document had no explicit category field.
		if len(d.CategoryRefs) == 0 {
			parentName := rec.resolveString(documentSynonyms, fieldCategoryName)
			childName := rec.resolveString(documentSynonyms, fieldSubcategoryName)

			if parentName != "" {
				if !declared[refKey(parentName)] {
					parsed.Categories = append(parsed.Categories, ExternalCategory{Name: parentName, Row: rec.row})
					declared[refKey(parentName)] = true
				}
				d.CategoryRefs = []string{parentName}
			}
			if childName != "" {
				if !declared[refKey(childName)] {
					parsed.Categories = append(parsed.Categories, ExternalCategory{
						Name:      childName,
						ParentRef: parentName,
						Row:       rec.row,
					})
					declared[refKey(childName)] = true
				}
				d.CategoryRefs = []string{childName}
			}
		}

		parsed.Documents = append(parsed.Documents, d)
	}

	return parsed, nil
}

func buildCategory(rec record) ExternalCategory {
	return ExternalCategory{
		ExternalID:  rec.resolveString(categorySynonyms, fieldExternalID),
		Name:        rec.resolveString(categorySynonyms, fieldName),
		Description: rec.resolveString(categorySynonyms, fieldDescription),
		ParentRef:   rec.resolveString(categorySynonyms, fieldParent),
		SortOrder:   coerceInt(rec.resolve(categorySynonyms, fieldSortOrder)),
		Row:         rec.row,
	}
}

func buildDocument(rec record) ExternalDocument {
	d := ExternalDocument{
		ExternalID:   rec.resolveString(documentSynonyms, fieldExternalID),
		Title:        rec.resolveString(documentSynonyms, fieldTitle),
		Content:      rec.resolveString(documentSynonyms, fieldContent),
		CategoryRefs: splitCategoryRefs(rec.resolve(documentSynonyms, fieldCategories)),
		Author:       rec.resolveString(documentSynonyms, fieldAuthor),
		CreatedAt:    rec.resolveString(documentSynonyms, fieldCreatedAt),
		UpdatedAt:    rec.resolveString(documentSynonyms, fieldUpdatedAt),
		Published:    coerceBool(rec.resolve(documentSynonyms, fieldPublished)),
		Row:          rec.row,
	}

	// Soft-deleted source records surface as drafts instead of silently
	// vanishing from the import.
	if isTruthyMarker(rec.resolve(documentSynonyms, fieldDeleted)) {
		d.Published = false
	}

	return d
}

// splitCategoryRefs accepts the three reference shapes sources use: a
// comma/semicolon/pipe-delimited string, an array of strings, or an
// array of {name: ...} objects.
func splitCategoryRefs(v any) []string {
	var refs []string
	appendRef := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			refs = append(refs, s)
		}
	}

	switch val := v.(type) {
	case string:
		for _, part := range refDelimiters.Split(val, -1) {
			appendRef(part)
		}
	case []any:
		for _, item := range val {
			switch ref := item.(type) {
			case string:
				appendRef(ref)
			case map[string]any:
				appendRef(coerceString(ref["name"]))
			}
		}
	}
	return refs
}
