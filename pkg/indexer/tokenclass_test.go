package indexer

import "testing"

func TestClassifyIdentifiersSkipsLineComments(t *testing.T) {
	src := "func main() {\n\t// calls helper here\n\thelper()\n}\n"
	toks := ClassifyIdentifiers([]byte(src), "go")

	names := tokenNames(toks)
	if containsName(names, "calls") || containsName(names, "here") {
		t.Fatalf("line-comment content leaked into tokens: %v", names)
	}
	if !containsName(names, "helper") {
		t.Fatalf("expected helper call token, got %v", names)
	}
}

func TestClassifyIdentifiersSkipsBlockComments(t *testing.T) {
	src := "/* helper is unused here */\nfunc main() { real() }\n"
	toks := ClassifyIdentifiers([]byte(src), "go")
	names := tokenNames(toks)
	if containsName(names, "unused") {
		t.Fatalf("block-comment content leaked into tokens: %v", names)
	}
	if !containsName(names, "real") {
		t.Fatalf("expected real token, got %v", names)
	}
}

func TestClassifyIdentifiersSkipsStringLiterals(t *testing.T) {
	src := `x := "helper is mentioned in this string"` + "\nhelper()\n"
	toks := ClassifyIdentifiers([]byte(src), "go")
	names := tokenNames(toks)
	count := 0
	for _, n := range names {
		if n == "helper" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one 'helper' token outside the string, got %d in %v", count, names)
	}
}

func TestClassifyIdentifiersPython(t *testing.T) {
	src := "# helper mentioned here\nhelper()\n"
	toks := ClassifyIdentifiers([]byte(src), "python")
	names := tokenNames(toks)
	if containsName(names, "mentioned") {
		t.Fatalf("python line comment leaked: %v", names)
	}
	if !containsName(names, "helper") {
		t.Fatalf("expected helper token, got %v", names)
	}
}

func TestClassifyIdentifiersTracksPositions(t *testing.T) {
	src := "a\nb foo\n"
	toks := ClassifyIdentifiers([]byte(src), "go")
	var foo Token
	found := false
	for _, tok := range toks {
		if tok.Name == "foo" {
			foo, found = tok, true
		}
	}
	if !found {
		t.Fatal("expected a foo token")
	}
	if foo.Pos.Line != 1 || foo.Pos.Character != 2 {
		t.Fatalf("expected foo at line 1 char 2, got %+v", foo.Pos)
	}
}

func tokenNames(toks []Token) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.Name
	}
	return out
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
