// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kbpress/internal/cache"
	"kbpress/internal/markdown"
	"kbpress/internal/store"
)

// Public groups the unauthenticated knowledge-base handlers: the
// category navigation tree, category pages, and published documents.
type Public struct {
	categories *store.CategoryStore
	documents  *store.DocumentStore
	treeCache  *cache.TreeCache
}

// NewPublic creates a new Public handler group.
func NewPublic(categories *store.CategoryStore, documents *store.DocumentStore, treeCache *cache.TreeCache) *Public {
	return &Public{
		categories: categories,
		documents:  documents,
		treeCache:  treeCache,
	}
}

// CategoryTree serves the nested category tree for navigation. The
// rendered JSON is cached in Valkey; category mutations and imports
// invalidate it.
func (h *Public) CategoryTree(w http.ResponseWriter, r *http.Request) {
	if cached, ok := h.treeCache.Get(r.Context()); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Write(cached)
		return
	}

	tree, err := h.categories.Tree()
	if err != nil {
		slog.Error("category tree failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	body, err := json.Marshal(map[string]any{"tree": tree})
	if err != nil {
		slog.Error("encode category tree failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.treeCache.Set(r.Context(), body)

	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// Category serves a category page: the category itself plus its
// published documents.
func (h *Public) Category(w http.ResponseWriter, r *http.Request) {
	slugParam := chi.URLParam(r, "slug")

	cat, err := h.categories.FindBySlugOrName(slugParam, slugParam)
	if err != nil {
		slog.Error("find category failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if cat == nil {
		respondError(w, http.StatusNotFound, "category not found")
		return
	}

	docs, err := h.documents.ListByCategory(cat.ID)
	if err != nil {
		slog.Error("list category documents failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"category":  cat,
		"documents": docs,
	})
}

// Document serves a published document with its block body rendered to
// HTML. Drafts are invisible here, indistinguishable from missing.
func (h *Public) Document(w http.ResponseWriter, r *http.Request) {
	slugParam := chi.URLParam(r, "slug")

	doc, err := h.documents.FindBySlug(slugParam)
	if err != nil {
		slog.Error("find document failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if doc == nil || !doc.IsPublished() {
		respondError(w, http.StatusNotFound, "document not found")
		return
	}

	htmlBlocks := make([]string, 0, len(doc.Blocks))
	for _, b := range doc.Blocks {
		rendered, err := markdown.ToHTML(b.Text)
		if err != nil {
			slog.Warn("render block failed", "document", doc.ID, "error", err)
			rendered = b.Text
		}
		htmlBlocks = append(htmlBlocks, rendered)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"document": doc,
		"html":     htmlBlocks,
	})
}
