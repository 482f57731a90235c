package store

import (
	"testing"
	"time"
)

func TestPutGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.Put("k1", []byte("v1")); err != nil {
		t.Fatal(err)
	}
	v, ok, err := s.Get("k1")
	if err != nil || !ok {
		t.Fatalf("expected value, ok=%v err=%v", ok, err)
	}
	if string(v) != "v1" {
		t.Fatalf("got %q, want v1", v)
	}

	if _, ok, err := s.Get("missing"); err != nil || ok {
		t.Fatalf("expected missing key to be absent, ok=%v err=%v", ok, err)
	}
}

func TestGobRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	type payload struct {
		A int
		B string
	}
	want := payload{A: 7, B: "seven"}
	if err := s.PutGob("p", want); err != nil {
		t.Fatal(err)
	}

	var got payload
	ok, err := s.GetGob("p", &got)
	if err != nil || !ok {
		t.Fatalf("expected decode success, ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestDeleteRemovesKey(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.Put("k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("k"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get("k"); ok {
		t.Fatal("expected key to be gone after Delete")
	}
}

func TestListKeysPrefix(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.Put("a/1", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := s.Put("a/2", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := s.Put("b/1", []byte("x")); err != nil {
		t.Fatal(err)
	}

	keys, err := s.ListKeys("a/")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys under a/, got %v", keys)
	}
}

func TestBatchIsAtomic(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	b, err := s.NewBatch()
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Put("x", []byte("1")); err != nil {
		t.Fatal(err)
	}
	if err := b.Put("y", []byte("2")); err != nil {
		t.Fatal(err)
	}
	if err := b.Flush(); err != nil {
		t.Fatal(err)
	}

	if _, ok, _ := s.Get("x"); !ok {
		t.Fatal("expected x to be committed")
	}
	if _, ok, _ := s.Get("y"); !ok {
		t.Fatal("expected y to be committed")
	}
}

func TestOpenReadOnlyRejectsWrites(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put("seed", []byte("v")); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	ro, err := OpenReadOnly(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer ro.Close()

	if _, ok, err := ro.Get("seed"); err != nil || !ok {
		t.Fatalf("expected read-only store to read seeded value, ok=%v err=%v", ok, err)
	}
	if err := ro.Put("new", []byte("v")); err == nil {
		t.Fatal("expected Put on read-only store to fail")
	}
}

func TestFileMetadataRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	fm := FileMetadata{
		Path:        "src/main.go",
		ContentHash: 123456,
		ModTime:     time.Now(),
		Size:        42,
		SymbolIDs:   []string{"a", "b"},
	}
	if err := s.SaveFileMetadata(fm); err != nil {
		t.Fatal(err)
	}

	got, ok, err := s.LoadFileMetadata("src/main.go")
	if err != nil || !ok {
		t.Fatalf("expected metadata, ok=%v err=%v", ok, err)
	}
	if got.ContentHash != fm.ContentHash || len(got.SymbolIDs) != 2 {
		t.Fatalf("got %+v, want %+v", got, fm)
	}

	all, err := s.AllFileMetadata()
	if err != nil || len(all) != 1 {
		t.Fatalf("expected 1 tracked file, got %d err=%v", len(all), err)
	}

	if err := s.DeleteFileMetadata("src/main.go"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.LoadFileMetadata("src/main.go"); ok {
		t.Fatal("expected metadata to be gone after delete")
	}
}

func TestIndexMetadataRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, ok, err := s.LoadIndexMetadata(); err != nil || ok {
		t.Fatalf("expected no metadata on fresh store, ok=%v err=%v", ok, err)
	}

	m := IndexMetadata{
		Format:      IndexFormatNative,
		Version:     "1",
		CreatedAt:   time.Now(),
		ProjectRoot: "/repo",
		FilesCount:  3,
	}
	if err := s.SaveIndexMetadata(m); err != nil {
		t.Fatal(err)
	}

	got, ok, err := s.LoadIndexMetadata()
	if err != nil || !ok {
		t.Fatalf("expected metadata, ok=%v err=%v", ok, err)
	}
	if got.ProjectRoot != "/repo" || got.FilesCount != 3 {
		t.Fatalf("got %+v", got)
	}
}
