// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package importer

import "testing"

func names(cats []ExternalCategory) []string {
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = c.Name
	}
	return out
}

func TestSequence_ParentsBeforeChildren(t *testing.T) {
	cats := []ExternalCategory{
		{Name: "Grandchild", ParentRef: "Child"},
		{Name: "Child", ParentRef: "Parent"},
		{Name: "Parent"},
	}

	got := names(Sequence(cats))
	want := []string{"Parent", "Child", "Grandchild"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestSequence_PreservesRelativeOrderWithinPass(t *testing.T) {
	cats := []ExternalCategory{
		{Name: "A"},
		{Name: "B"},
		{Name: "C", ParentRef: "A"},
	}

	got := names(Sequence(cats))
	want := []string{"A", "B", "C"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestSequence_ResolvesParentByExternalID(t *testing.T) {
	cats := []ExternalCategory{
		{ExternalID: "c2", Name: "Child", ParentRef: "c1"},
		{ExternalID: "c1", Name: "Parent"},
	}

	got := names(Sequence(cats))
	if got[0] != "Parent" || got[1] != "Child" {
		t.Fatalf("order = %v", got)
	}
}

func TestSequence_OrphansAppendedLast(t *testing.T) {
	cats := []ExternalCategory{
		{Name: "Orphan", ParentRef: "does-not-exist"},
		{Name: "Root"},
	}

	got := names(Sequence(cats))
	if got[0] != "Root" || got[1] != "Orphan" {
		t.Fatalf("order = %v", got)
	}
}

func TestSequence_CycleDegradesToOriginalOrder(t *testing.T) {
	cats := []ExternalCategory{
		{Name: "A", ParentRef: "B"},
		{Name: "B", ParentRef: "A"},
		{Name: "Root"},
	}

	got := names(Sequence(cats))
	if len(got) != 3 {
		t.Fatalf("lost categories: %v", got)
	}
	// Root places in the first pass; the cycle members append after it
	// in their original order.
	want := []string{"Root", "A", "B"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestSequence_CaseInsensitiveParentMatch(t *testing.T) {
	cats := []ExternalCategory{
		{Name: "Child", ParentRef: "PARENT"},
		{Name: "Parent"},
	}

	got := names(Sequence(cats))
	if got[0] != "Parent" || got[1] != "Child" {
		t.Fatalf("order = %v", got)
	}
}

func TestSequence_Empty(t *testing.T) {
	if got := Sequence(nil); len(got) != 0 {
		t.Fatalf("got %v", got)
	}
}
