package query

import "testing"

func TestParseEmptyIsError(t *testing.T) {
	if _, err := Parse(""); err == nil {
		t.Fatal("expected error for empty pattern")
	}
}

func TestParseSingleNodeNoRelationships(t *testing.T) {
	pat, err := Parse("(f:Function)")
	if err != nil {
		t.Fatal(err)
	}
	if len(pat.Nodes) != 1 || len(pat.Rels) != 0 {
		t.Fatalf("got %+v", pat)
	}
	if pat.Nodes[0].Var != "f" || pat.Nodes[0].Label != "Function" {
		t.Fatalf("got %+v", pat.Nodes[0])
	}
}

func TestParseForwardRelationshipWithKind(t *testing.T) {
	pat, err := Parse("(f:Function)-[:Reference]->(g:Function)")
	if err != nil {
		t.Fatal(err)
	}
	if len(pat.Nodes) != 2 || len(pat.Rels) != 1 {
		t.Fatalf("got %+v", pat)
	}
	rel := pat.Rels[0]
	if rel.EdgeKind != "Reference" || rel.Dir != DirForward {
		t.Fatalf("got %+v", rel)
	}
	if rel.Depth.Min != 1 || rel.Depth.Max != 1 {
		t.Fatalf("expected default single-hop depth, got %+v", rel.Depth)
	}
}

func TestParseBackwardRelationshipNoKind(t *testing.T) {
	pat, err := Parse("(a)<--(b)")
	if err != nil {
		t.Fatal(err)
	}
	rel := pat.Rels[0]
	if rel.Dir != DirBackward || rel.EdgeKind != "" {
		t.Fatalf("got %+v", rel)
	}
}

func TestParseEitherDirection(t *testing.T) {
	pat, err := Parse("(a)--(b)")
	if err != nil {
		t.Fatal(err)
	}
	if pat.Rels[0].Dir != DirEither {
		t.Fatalf("got %+v", pat.Rels[0])
	}
}

func TestParseExactDepth(t *testing.T) {
	pat, err := Parse("(a)-[:Contains*3]->(b)")
	if err != nil {
		t.Fatal(err)
	}
	d := pat.Rels[0].Depth
	if d.Min != 3 || d.Max != 3 {
		t.Fatalf("got %+v", d)
	}
}

func TestParseRangeDepth(t *testing.T) {
	pat, err := Parse("(a)-[:Contains*1..3]->(b)")
	if err != nil {
		t.Fatal(err)
	}
	d := pat.Rels[0].Depth
	if d.Min != 1 || d.Max != 3 {
		t.Fatalf("got %+v", d)
	}
}

func TestParseOpenRangeDepth(t *testing.T) {
	pat, err := Parse("(a)-[:Contains*2..]->(b)")
	if err != nil {
		t.Fatal(err)
	}
	d := pat.Rels[0].Depth
	if d.Min != 2 || d.Max != unboundedMax {
		t.Fatalf("got %+v", d)
	}
}

func TestParseUnboundedDepth(t *testing.T) {
	pat, err := Parse("(a)-[:Contains*]->(b)")
	if err != nil {
		t.Fatal(err)
	}
	d := pat.Rels[0].Depth
	if d.Min != 1 || d.Max != unboundedMax {
		t.Fatalf("got %+v", d)
	}
}

func TestParseMultiHopChain(t *testing.T) {
	pat, err := Parse("(a:Class)-[:Contains]->(b:Method)-[:Reference]->(c:Function)")
	if err != nil {
		t.Fatal(err)
	}
	if len(pat.Nodes) != 3 || len(pat.Rels) != 2 {
		t.Fatalf("got %+v", pat)
	}
}

func TestParseMalformedReportsPosition(t *testing.T) {
	_, err := Parse("(a")
	if err == nil {
		t.Fatal("expected error")
	}
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Pos != 2 {
		t.Fatalf("expected position 2, got %d", pe.Pos)
	}
}

func TestParseBothArrowsIsError(t *testing.T) {
	if _, err := Parse("(a)<-->(b)"); err == nil {
		t.Fatal("expected error for ambiguous direction")
	}
}
