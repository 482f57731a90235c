package lsp

import (
	"context"
	"os/exec"
	"testing"
	"time"
)

func requireCat(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}
}

// cat echoes stdin back on stdout, which happens to make it a serviceable
// stand-in LSP server for exercising the framing and handshake plumbing:
// our outgoing "initialize" request comes straight back as a
// well-formed, same-id response.
func catConfig(lang string) ServerConfig {
	return ServerConfig{Language: lang, Command: "cat", RootURI: "file:///tmp"}
}

func TestAcquireUnknownLanguageFails(t *testing.T) {
	p := NewPool(nil, 0, 1)
	if _, err := p.Acquire(context.Background(), "cobol"); err == nil {
		t.Fatal("expected error acquiring a language with no configured server")
	}
}

func TestAcquireSpawnsAndReleaseReturnsToPool(t *testing.T) {
	requireCat(t)
	p := NewPool([]ServerConfig{catConfig("go")}, 0, 1)
	defer p.Close(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	h1, err := p.Acquire(ctx, "go")
	if err != nil {
		t.Fatal(err)
	}
	c1 := h1.Client
	h1.Release()

	h2, err := p.Acquire(ctx, "go")
	if err != nil {
		t.Fatal(err)
	}
	if h2.Client != c1 {
		t.Fatal("expected Acquire after Release to reuse the same client")
	}
	h2.Release()
}

func TestDropDiscardsClientFromPool(t *testing.T) {
	requireCat(t)
	p := NewPool([]ServerConfig{catConfig("go")}, 0, 1)
	defer p.Close(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	h1, err := p.Acquire(ctx, "go")
	if err != nil {
		t.Fatal(err)
	}
	c1 := h1.Client
	h1.Drop()

	h2, err := p.Acquire(ctx, "go")
	if err != nil {
		t.Fatal(err)
	}
	defer h2.Release()
	if h2.Client == c1 {
		t.Fatal("expected Drop to force a fresh client on next Acquire")
	}
}
