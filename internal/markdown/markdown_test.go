package markdown

import (
	"strings"
	"testing"
)

func TestToHTML(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string // substrings that must appear
	}{
		{
			"basic paragraph",
			"Hello world.",
			[]string{"<p>Hello world.</p>"},
		},
		{
			"emphasis",
			"Some **bold** and *italic* text.",
			[]string{"<strong>bold</strong>", "<em>italic</em>"},
		},
		{
			"heading with anchor id",
			"## Install Guide",
			[]string{"<h2", `id="install-guide"`, "Install Guide</h2>"},
		},
		{
			"gfm table",
			"| a | b |\n|---|---|\n| 1 | 2 |",
			[]string{"<table>", "<td>1</td>"},
		},
		{
			"gfm strikethrough",
			"~~gone~~",
			[]string{"<del>gone</del>"},
		},
		{
			"raw html passes through",
			`<div class="note">imported</div>`,
			[]string{`<div class="note">imported</div>`},
		},
		{
			"fenced code block highlighted",
			"```go\nfmt.Println(\"hi\")\n```",
			[]string{"<pre"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToHTML(tt.source)
			if err != nil {
				t.Fatalf("ToHTML: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q:\n%s", want, got)
				}
			}
		})
	}
}

func TestToHTML_Empty(t *testing.T) {
	got, err := ToHTML("")
	if err != nil {
		t.Fatalf("ToHTML: %v", err)
	}
	if strings.TrimSpace(got) != "" {
		t.Errorf("empty source produced %q", got)
	}
}
