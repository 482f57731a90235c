package fuzzy

import (
	"testing"

	"github.com/gnana997/codeindex/pkg/graph"
)

func mkSym(id, name string) graph.Symbol {
	return graph.Symbol{ID: id, Name: name, Kind: graph.SymbolKindFunction, FilePath: "f.go"}
}

func TestSplitCamelCaseRules(t *testing.T) {
	cases := map[string][]string{
		"fooBar":     {"foo", "Bar"},
		"HTTPServer": {"HTTP", "Server"},
		"calc123":    {"calc", "123"},
		"foo_bar":    {"foo", "bar"},
		"Simple":     {"Simple"},
	}
	for in, want := range cases {
		got := SplitCamelCase(in)
		if len(got) != len(want) {
			t.Fatalf("%q: got %v, want %v", in, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("%q: got %v, want %v", in, got, want)
			}
		}
	}
}

func TestSearchExactMatchScores100AndRanksFirst(t *testing.T) {
	idx := New()
	for _, name := range []string{"getUserById", "getUserByName", "updateUserById", "fetchUserData"} {
		idx.Add(mkSym(name, name))
	}

	results := idx.Search("getUserById", 4)
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if results[0].Symbol.Name != "getUserById" || results[0].Score != 100 {
		t.Fatalf("expected getUserById first with score 100, got %+v", results[0])
	}
	for _, r := range results[1:] {
		if r.Score >= 100 {
			t.Fatalf("expected strictly lower scores after the exact match, got %+v", r)
		}
	}
	// descending order
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Fatalf("results not sorted descending: %+v", results)
		}
	}
}

func TestSearchPrefixMatch(t *testing.T) {
	idx := New()
	idx.Add(mkSym("a", "getUser"))
	idx.Add(mkSym("b", "getUserById"))

	results := idx.Search("get", 10)
	if len(results) != 2 {
		t.Fatalf("expected both symbols to match prefix 'get', got %+v", results)
	}
}

func TestSearchCamelAbbreviation(t *testing.T) {
	idx := New()
	idx.Add(mkSym("a", "getUserByName"))
	idx.Add(mkSym("b", "totallyUnrelated"))

	results := idx.Search("UBN", 10)
	if len(results) == 0 {
		t.Fatal("expected a CamelCase-abbreviation match")
	}
	if results[0].Symbol.Name != "getUserByName" {
		t.Fatalf("expected getUserByName to win, got %+v", results[0])
	}
}

func TestSearchLevenshteinRequiresMinLength(t *testing.T) {
	idx := New()
	idx.Add(mkSym("a", "helper"))

	// query length < 3: the Levenshtein tier must not fire for "he" vs
	// "helper". Search would still find "helper" through the prefix and
	// substring tiers, so the Levenshtein tier is checked on its own.
	best := make(map[string]float64)
	idx.scoreLevenshtein("he", best)
	if len(best) != 0 {
		t.Fatalf("expected the Levenshtein tier to skip a 2-char query, got %+v", best)
	}
}

func TestSearchLevenshteinFuzzyMatch(t *testing.T) {
	idx := New()
	idx.Add(mkSym("a", "helper"))

	results := idx.Search("helpr", 10) // one char dropped, distance 1
	if len(results) == 0 {
		t.Fatal("expected a fuzzy match via substring or levenshtein")
	}
	if results[0].Symbol.Name != "helper" {
		t.Fatalf("got %+v", results[0])
	}
}

func TestSearchOneResultPerSymbolHighestCategoryWins(t *testing.T) {
	idx := New()
	idx.Add(mkSym("a", "getUserById"))

	results := idx.Search("getUserById", 10)
	count := 0
	for _, r := range results {
		if r.Symbol.ID == "a" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one result for symbol a, got %d", count)
	}
}

func TestSearchMaxResultsCap(t *testing.T) {
	idx := New()
	for i := 0; i < 10; i++ {
		idx.Add(mkSym(string(rune('a'+i)), "prefixMatch"+string(rune('a'+i))))
	}
	results := idx.Search("prefixMatch", 3)
	if len(results) != 3 {
		t.Fatalf("expected cap of 3, got %d", len(results))
	}
}

func TestBuildFromGraph(t *testing.T) {
	g := graph.New()
	g.AddSymbol(mkSym("a", "Foo"))
	g.AddSymbol(mkSym("b", "Bar"))

	idx := BuildFromGraph(g)
	results := idx.Search("Foo", 10)
	if len(results) != 1 || results[0].Symbol.ID != "a" {
		t.Fatalf("got %+v", results)
	}
}

func TestLevenshteinDistance(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "abc", 0},
		{"abc", "abd", 1},
		{"kitten", "sitting", 3},
	}
	for _, c := range cases {
		if got := levenshtein(c.a, c.b); got != c.want {
			t.Fatalf("levenshtein(%q,%q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}
