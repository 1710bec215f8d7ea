// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package importer

// Sequence orders categories so that every category appears after the
// one it names as parent, whenever that parent is resolvable within the
// set. It repeatedly extracts categories whose parent is empty or
// already placed, preserving original relative order within each pass.
// Categories whose parent never resolves — a genuine orphan, a cycle,
// or a parent outside the file — are appended as-is at the end and are
// imported as roots. A malformed hierarchy degrades to flat categories
// rather than aborting the import.
func Sequence(cats []ExternalCategory) []ExternalCategory {
	ordered := make([]ExternalCategory, 0, len(cats))
	placed := make(map[string]bool, len(cats)*2)

	place := func(c ExternalCategory) {
		ordered = append(ordered, c)
		if c.ExternalID != "" {
			placed[refKey(c.ExternalID)] = true
		}
		if c.Name != "" {
			placed[refKey(c.Name)] = true
		}
	}

	remaining := cats
	for len(remaining) > 0 {
		var deferred []ExternalCategory
		progress := false

		for _, c := range remaining {
			if c.ParentRef == "" || placed[refKey(c.ParentRef)] {
				place(c)
				progress = true
			} else {
				deferred = append(deferred, c)
			}
		}

		if !progress {
			// No pass can make progress — everything left is an orphan
			// or part of a cycle. Append in original order.
			ordered = append(ordered, deferred...)
			break
		}
		remaining = deferred
	}

	return ordered
}
