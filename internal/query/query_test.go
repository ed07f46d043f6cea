package query

import (
	"testing"
	"time"

	"github.com/sakif/snipbin/internal/model"
	"github.com/sakif/snipbin/internal/store"
)

// fixture returns five snippets with distinct timestamps; index 0 is the
// oldest.
func fixture() []model.Snippet {
	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	mk := func(i int, lang, code string) model.Snippet {
		ts := base.Add(time.Duration(i) * time.Minute)
		return model.Snippet{
			Filename:  store.Filename(ts),
			Language:  lang,
			Code:      code,
			Timestamp: ts,
		}
	}
	return []model.Snippet{
		mk(0, "python", "print('hi')"),
		mk(1, "sql", "SELECT * FROM users"),
		mk(2, "bash", "grep -i hi /etc/hosts"),
		mk(3, "python", "import os"),
		mk(4, "javascript", "console.log('HI')"),
	}
}

func TestSearch_EmptyQueryReturnsEverythingOnce(t *testing.T) {
	snippets := fixture()

	got := Search(snippets, "", "", OrderNewest)
	if len(got) != len(snippets) {
		t.Fatalf("Search() returned %d records, want %d", len(got), len(snippets))
	}
	seen := map[string]bool{}
	for _, snip := range got {
		if seen[snip.Filename] {
			t.Errorf("record %q returned twice", snip.Filename)
		}
		seen[snip.Filename] = true
	}
}

func TestSearch_SubstringMatchesCodeOrFilename(t *testing.T) {
	snippets := fixture()

	// "hi" appears in the python print, the bash grep, and (uppercased)
	// in the javascript log.
	got := Search(snippets, "hi", "", OrderNewest)
	if len(got) != 3 {
		t.Fatalf("Search(hi) returned %d records, want 3", len(got))
	}

	// A fragment of the key matches by filename even when absent from
	// the code.
	byName := Search(snippets, "2026-02-01T12-04", "", OrderNewest)
	if len(byName) != 1 {
		t.Fatalf("Search by filename fragment returned %d records, want 1", len(byName))
	}
	if byName[0].Language != "javascript" {
		t.Errorf("matched %q, want the javascript record", byName[0].Filename)
	}
}

func TestSearch_CaseInsensitive(t *testing.T) {
	snippets := fixture()

	lower := Search(snippets, "select", "", OrderNewest)
	upper := Search(snippets, "SELECT", "", OrderNewest)
	if len(lower) != 1 || len(upper) != 1 {
		t.Fatalf("case variants returned %d/%d records, want 1/1", len(lower), len(upper))
	}
}

func TestSearch_LanguageFilter(t *testing.T) {
	snippets := fixture()

	got := Search(snippets, "", "python", OrderNewest)
	if len(got) != 2 {
		t.Fatalf("Search(lang=python) returned %d records, want 2", len(got))
	}
	for _, snip := range got {
		if snip.Language != "python" {
			t.Errorf("record %q has language %q", snip.Filename, snip.Language)
		}
	}

	if got := Search(snippets, "", "PYTHON", OrderNewest); len(got) != 2 {
		t.Errorf("language match should be case-insensitive, got %d records", len(got))
	}
}

func TestSearch_PredicatesAreANDed(t *testing.T) {
	snippets := fixture()

	got := Search(snippets, "hi", "python", OrderNewest)
	if len(got) != 1 {
		t.Fatalf("Search(hi, python) returned %d records, want 1", len(got))
	}
	if got[0].Code != "print('hi')" {
		t.Errorf("matched %q, want the print snippet", got[0].Code)
	}
}

func TestSearch_Ordering(t *testing.T) {
	snippets := fixture()

	newest := Search(snippets, "", "", OrderNewest)
	for i := 1; i < len(newest); i++ {
		if newest[i-1].Filename < newest[i].Filename {
			t.Fatalf("newest order violated at %d: %q before %q", i, newest[i-1].Filename, newest[i].Filename)
		}
	}

	oldest := Search(snippets, "", "", OrderOldest)
	for i := 1; i < len(oldest); i++ {
		if oldest[i-1].Filename > oldest[i].Filename {
			t.Fatalf("oldest order violated at %d", i)
		}
	}

	langAsc := Search(snippets, "", "", OrderLangAsc)
	for i := 1; i < len(langAsc); i++ {
		if langAsc[i-1].Language > langAsc[i].Language {
			t.Fatalf("lang-asc order violated at %d", i)
		}
	}

	langDesc := Search(snippets, "", "", OrderLangDesc)
	for i := 1; i < len(langDesc); i++ {
		if langDesc[i-1].Language < langDesc[i].Language {
			t.Fatalf("lang-desc order violated at %d", i)
		}
	}
}

func TestSearch_StableAndDeterministic(t *testing.T) {
	snippets := fixture()

	first := Search(snippets, "", "", OrderLangAsc)
	second := Search(snippets, "", "", OrderLangAsc)
	for i := range first {
		if first[i].Filename != second[i].Filename {
			t.Fatalf("sort not deterministic at %d: %q vs %q", i, first[i].Filename, second[i].Filename)
		}
	}

	// Within one language, newest-first is preserved as the secondary
	// order.
	var pythons []model.Snippet
	for _, snip := range first {
		if snip.Language == "python" {
			pythons = append(pythons, snip)
		}
	}
	if len(pythons) == 2 && pythons[0].Filename < pythons[1].Filename {
		t.Errorf("language sort lost the newest-first secondary order")
	}
}

func TestSearch_DoesNotMutateInput(t *testing.T) {
	snippets := fixture()
	firstBefore := snippets[0].Filename

	Search(snippets, "", "", OrderNewest)
	if snippets[0].Filename != firstBefore {
		t.Errorf("Search() reordered the caller's slice")
	}
}

func TestParseOrder(t *testing.T) {
	tests := []struct {
		in   string
		want Order
	}{
		{"", OrderNewest},
		{"newest", OrderNewest},
		{"oldest", OrderOldest},
		{"lang-asc", OrderLangAsc},
		{"lang-desc", OrderLangDesc},
		{"bogus", OrderNewest},
	}
	for _, tt := range tests {
		if got := ParseOrder(tt.in); got != tt.want {
			t.Errorf("ParseOrder(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
