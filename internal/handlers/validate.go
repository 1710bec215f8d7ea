package handlers

import (
	"strings"
	"unicode/utf8"
)

// Validation limits for category and document fields. These match the
// limits the import validator enforces so the two write paths agree.
const (
	maxDocTitleLen     = 200
	maxDocContentLen   = 500_000
	maxCategoryNameLen = 100
	maxDescriptionLen  = 500
)

// validateCategoryInput checks category fields and returns the first
// error found, or "" when everything passes.
func validateCategoryInput(name, description string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Category name is required."
	}
	if utf8.RuneCountInString(name) > maxCategoryNameLen {
		return "Category name is too long (max 100 characters)."
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return "Description is too long (max 500 characters)."
	}
	return ""
}

// validateDocumentInput checks document fields and returns the first
// error found, or "" when everything passes.
func validateDocumentInput(title, content string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Title is required."
	}
	if utf8.RuneCountInString(title) > maxDocTitleLen {
		return "Title is too long (max 200 characters)."
	}
	if utf8.RuneCountInString(content) > maxDocContentLen {
		return "Content is too long (max 500,000 characters)."
	}
	return ""
}
