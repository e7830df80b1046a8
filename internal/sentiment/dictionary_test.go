package sentiment

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseDictionary(t *testing.T) {
	csv := strings.Join([]string{
		"word,score",
		"# comment row",
		"増収,0.8",
		"減収, -0.7",
		"過大スコア,１．５",
		"",
		"bogusrow",
	}, "\n")

	dict, err := parseDictionary(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parseDictionary: %v", err)
	}
	if dict.Len() != 3 {
		t.Fatalf("len = %d, want 3", dict.Len())
	}
	if score, _ := dict.Score("減収"); score != -0.7 {
		t.Errorf("減収 = %v, want -0.7", score)
	}
	// full-width numerals are normalized and scores clamped to [-1, 1]
	if score, _ := dict.Score("過大スコア"); score != 1 {
		t.Errorf("過大スコア = %v, want clamped to 1", score)
	}
}

func TestParseDictionaryEmptyFails(t *testing.T) {
	if _, err := parseDictionary(strings.NewReader("# only comments\n")); err == nil {
		t.Fatal("expected error for empty dictionary")
	}
}

func TestLoadDictionaryFallsBack(t *testing.T) {
	dict := LoadDictionary(filepath.Join(t.TempDir(), "missing.csv"))
	if dict.Len() == 0 {
		t.Fatal("fallback dictionary is empty")
	}
	if _, ok := dict.Score("増収"); !ok {
		t.Error("fallback dictionary missing 増収")
	}
}

func TestLoadDictionaryFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.csv")
	if err := os.WriteFile(path, []byte("好調,0.9\n不調,-0.6\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	dict := LoadDictionary(path)
	if dict.Len() != 2 {
		t.Fatalf("len = %d, want 2", dict.Len())
	}
	if score, _ := dict.Score("好調"); score != 0.9 {
		t.Errorf("好調 = %v, want 0.9", score)
	}
}

func TestTermsOrderedByLength(t *testing.T) {
	dict := DefaultDictionary()
	terms := dict.Terms()
	for i := 1; i < len(terms); i++ {
		if len([]rune(terms[i-1])) < len([]rune(terms[i])) {
			t.Fatalf("terms not sorted by length desc: %q before %q", terms[i-1], terms[i])
		}
	}
}
