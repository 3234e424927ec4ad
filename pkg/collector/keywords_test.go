package collector

import (
	"math/rand"
	"testing"
)

func TestBuiltinKeywordSets(t *testing.T) {
	for _, category := range KeywordCategories() {
		keywords := BuiltinKeywords(category)
		if len(keywords) != 16 {
			t.Errorf("category %s has %d keywords, want 16", category, len(keywords))
		}

		seen := make(map[string]bool, len(keywords))
		for _, kw := range keywords {
			if kw == "" {
				t.Errorf("category %s contains an empty keyword", category)
			}
			if seen[kw] {
				t.Errorf("category %s contains duplicate keyword %q", category, kw)
			}
			seen[kw] = true
		}
	}

	if BuiltinKeywords(CategoryKnownUsers) != nil {
		t.Error("known_users has no built-in keyword set")
	}
	if BuiltinKeywords("nonsense") != nil {
		t.Error("unknown categories have no keyword set")
	}
}

func TestKeywordCategoriesOrder(t *testing.T) {
	want := []string{CategoryMedicalBeauty, CategoryMaleHealth, CategoryGeneralRights}
	got := KeywordCategories()
	if len(got) != len(want) {
		t.Fatalf("categories = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("category[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSampleKeywords(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	keywords := []string{"a", "b", "c", "d", "e"}

	sample := SampleKeywords(keywords, 3, rng)
	if len(sample) != 3 {
		t.Fatalf("sample size = %d, want 3", len(sample))
	}

	// No duplicates, all drawn from the source set.
	seen := make(map[string]bool)
	valid := map[string]bool{"a": true, "b": true, "c": true, "d": true, "e": true}
	for _, kw := range sample {
		if seen[kw] {
			t.Errorf("duplicate keyword %q in sample", kw)
		}
		if !valid[kw] {
			t.Errorf("keyword %q not from source set", kw)
		}
		seen[kw] = true
	}

	// Oversized requests return the whole set.
	if got := SampleKeywords(keywords, 10, rng); len(got) != 5 {
		t.Errorf("oversized sample length = %d, want 5", len(got))
	}

	// The source slice is never shuffled in place.
	if keywords[0] != "a" || keywords[4] != "e" {
		t.Errorf("source slice was modified: %v", keywords)
	}

	if got := SampleKeywords(keywords, 0, rng); got != nil {
		t.Errorf("zero sample should be nil, got %v", got)
	}
	if got := SampleKeywords(nil, 3, rng); got != nil {
		t.Errorf("empty source should yield nil, got %v", got)
	}
}
