// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package importer

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"kbpress/internal/models"
)

// excerptLen is roughly how much flattened plain text an excerpt keeps.
const excerptLen = 200

var (
	// blockMarkup detects block-level HTML in imported content.
	blockMarkup = regexp.MustCompile(`(?i)<(?:p|div|h[1-6]|li|blockquote|section|article)[\s>/]`)
	// blockBoundary splits HTML content on closing block tags and double line breaks.
	blockBoundary = regexp.MustCompile(`(?i)</(?:p|div|h[1-6]|li|blockquote|section|article)>|<br\s*/?>\s*<br\s*/?>`)
	// blankLines splits plain text on blank-line-separated paragraphs.
	blankLines = regexp.MustCompile(`\r?\n\s*\r?\n`)
	// anyTag strips residual markup from a chunk.
	anyTag = regexp.MustCompile(`<[^>]*>`)
)

// ToBlocks converts raw import content into the structured block format.
// HTML content splits on block boundaries, plain text on blank lines;
// each chunk becomes one paragraph block with markup stripped.
func ToBlocks(content string) []models.Block {
	var chunks []string
	if blockMarkup.MatchString(content) {
		chunks = blockBoundary.Split(content, -1)
	} else {
		chunks = blankLines.Split(content, -1)
	}

	var blocks []models.Block
	for _, chunk := range chunks {
		text := strings.TrimSpace(html.UnescapeString(anyTag.ReplaceAllString(chunk, "")))
		if text == "" {
			continue
		}
		blocks = append(blocks, models.Block{Type: models.BlockTypeParagraph, Text: text})
	}
	return blocks
}

// Excerpt returns the first ~200 characters of the flattened plain text
// of a block body, cut on a rune boundary.
func Excerpt(blocks []models.Block) string {
	var parts []string
	for _, b := range blocks {
		parts = append(parts, b.Text)
	}
	text := strings.TrimSpace(strings.Join(parts, " "))

	if utf8.RuneCountInString(text) <= excerptLen {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:excerptLen]))
}
