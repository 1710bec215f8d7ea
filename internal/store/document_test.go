// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"testing"

	"github.com/google/uuid"

	"kbpress/internal/models"
)

func testBlocks() []models.Block {
	return []models.Block{
		{Type: models.BlockTypeParagraph, Text: "First paragraph."},
		{Type: models.BlockTypeParagraph, Text: "Second paragraph."},
	}
}

func TestDocumentStore_CreateAndFind(t *testing.T) {
	db := testDB(t)
	userID := testUser(t, db, "doc-create@test.local")
	s := NewDocumentStore(db)
	t.Cleanup(func() { cleanDocuments(t, db, "test-doc-create") })

	excerpt := "First paragraph."
	created, err := s.Create(&models.Document{
		Title:    "Test Doc Create",
		Slug:     "test-doc-create",
		Blocks:   testBlocks(),
		Excerpt:  &excerpt,
		Status:   models.DocumentStatusPublished,
		AuthorID: userID,
		ImportMeta: &models.ImportMetadata{
			ExternalID: "ext-1",
			Author:     "original author",
			SourceFile: "export.csv",
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatal("no id returned")
	}

	found, err := s.FindByID(created.ID)
	if err != nil || found == nil {
		t.Fatalf("FindByID: %v, %v", found, err)
	}
	if len(found.Blocks) != 2 || found.Blocks[0].Text != "First paragraph." {
		t.Errorf("blocks round-trip failed: %+v", found.Blocks)
	}
	if found.ImportMeta == nil || found.ImportMeta.ExternalID != "ext-1" {
		t.Errorf("import metadata round-trip failed: %+v", found.ImportMeta)
	}
	if found.Excerpt == nil || *found.Excerpt != excerpt {
		t.Errorf("excerpt = %v", found.Excerpt)
	}

	bySlug, err := s.FindBySlug("test-doc-create")
	if err != nil || bySlug == nil || bySlug.ID != created.ID {
		t.Fatalf("FindBySlug: %v, %v", bySlug, err)
	}
}

func TestDocumentStore_FindBySlugOrTitle(t *testing.T) {
	db := testDB(t)
	userID := testUser(t, db, "doc-find@test.local")
	s := NewDocumentStore(db)
	t.Cleanup(func() { cleanDocuments(t, db, "test-doc-dedup") })

	created, err := s.Create(&models.Document{
		Title: "Test Doc Dedup", Slug: "test-doc-dedup",
		Blocks: testBlocks(), Status: models.DocumentStatusDraft, AuthorID: userID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	byTitle, err := s.FindBySlugOrTitle("no-such-slug", "TEST DOC DEDUP")
	if err != nil || byTitle == nil || byTitle.ID != created.ID {
		t.Fatalf("case-insensitive title match: %v, %v", byTitle, err)
	}

	missing, err := s.FindBySlugOrTitle("nope", "nope")
	if err != nil || missing != nil {
		t.Fatalf("missing lookup: %v, %v", missing, err)
	}
}

func TestDocumentStore_CategoryLinks(t *testing.T) {
	db := testDB(t)
	userID := testUser(t, db, "doc-links@test.local")
	docs := NewDocumentStore(db)
	cats := NewCategoryStore(db)
	t.Cleanup(func() {
		cleanDocuments(t, db, "test-doc-links")
		cleanCategories(t, db, "test-link-a", "test-link-b")
	})

	catA, err := cats.Create(&models.Category{Name: "Test Link A", Slug: "test-link-a", CreatedBy: userID})
	if err != nil {
		t.Fatalf("Create category: %v", err)
	}
	catB, err := cats.Create(&models.Category{Name: "Test Link B", Slug: "test-link-b", CreatedBy: userID})
	if err != nil {
		t.Fatalf("Create category: %v", err)
	}

	doc, err := docs.Create(&models.Document{
		Title: "Test Doc Links", Slug: "test-doc-links",
		Blocks: testBlocks(), Status: models.DocumentStatusPublished, AuthorID: userID,
	})
	if err != nil {
		t.Fatalf("Create document: %v", err)
	}

	if err := docs.LinkCategories(doc.ID, []uuid.UUID{catA.ID}); err != nil {
		t.Fatalf("LinkCategories: %v", err)
	}
	// Linking the same category again must be a no-op, not an error.
	if err := docs.LinkCategories(doc.ID, []uuid.UUID{catA.ID}); err != nil {
		t.Fatalf("re-link: %v", err)
	}

	found, err := docs.FindByID(doc.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if len(found.CategoryIDs) != 1 || found.CategoryIDs[0] != catA.ID {
		t.Fatalf("category ids = %v", found.CategoryIDs)
	}

	if err := docs.ReplaceCategories(doc.ID, []uuid.UUID{catB.ID}); err != nil {
		t.Fatalf("ReplaceCategories: %v", err)
	}
	found, _ = docs.FindByID(doc.ID)
	if len(found.CategoryIDs) != 1 || found.CategoryIDs[0] != catB.ID {
		t.Fatalf("after replace: %v", found.CategoryIDs)
	}

	listed, err := docs.ListByCategory(catB.ID)
	if err != nil {
		t.Fatalf("ListByCategory: %v", err)
	}
	foundInList := false
	for _, d := range listed {
		if d.ID == doc.ID {
			foundInList = true
		}
	}
	if !foundInList {
		t.Error("document missing from category listing")
	}
}

func TestDocumentStore_ListByCategoryExcludesDrafts(t *testing.T) {
	db := testDB(t)
	userID := testUser(t, db, "doc-drafts@test.local")
	docs := NewDocumentStore(db)
	cats := NewCategoryStore(db)
	t.Cleanup(func() {
		cleanDocuments(t, db, "test-draft-doc")
		cleanCategories(t, db, "test-draft-cat")
	})

	cat, err := cats.Create(&models.Category{Name: "Test Draft Cat", Slug: "test-draft-cat", CreatedBy: userID})
	if err != nil {
		t.Fatalf("Create category: %v", err)
	}
	doc, err := docs.Create(&models.Document{
		Title: "Test Draft Doc", Slug: "test-draft-doc",
		Blocks: testBlocks(), Status: models.DocumentStatusDraft, AuthorID: userID,
	})
	if err != nil {
		t.Fatalf("Create document: %v", err)
	}
	if err := docs.LinkCategories(doc.ID, []uuid.UUID{cat.ID}); err != nil {
		t.Fatalf("LinkCategories: %v", err)
	}

	listed, err := docs.ListByCategory(cat.ID)
	if err != nil {
		t.Fatalf("ListByCategory: %v", err)
	}
	for _, d := range listed {
		if d.ID == doc.ID {
			t.Fatal("draft document leaked into the public category listing")
		}
	}
}

func TestDocumentStore_Update(t *testing.T) {
	db := testDB(t)
	userID := testUser(t, db, "doc-update@test.local")
	s := NewDocumentStore(db)
	t.Cleanup(func() { cleanDocuments(t, db, "test-doc-update") })

	doc, err := s.Create(&models.Document{
		Title: "Test Doc Update", Slug: "test-doc-update",
		Blocks: testBlocks(), Status: models.DocumentStatusDraft, AuthorID: userID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	doc.Status = models.DocumentStatusPublished
	doc.Blocks = []models.Block{{Type: models.BlockTypeParagraph, Text: "Rewritten."}}
	if err := s.Update(doc); err != nil {
		t.Fatalf("Update: %v", err)
	}

	found, _ := s.FindByID(doc.ID)
	if !found.IsPublished() {
		t.Error("status not updated")
	}
	if len(found.Blocks) != 1 || found.Blocks[0].Text != "Rewritten." {
		t.Errorf("blocks = %+v", found.Blocks)
	}
}
