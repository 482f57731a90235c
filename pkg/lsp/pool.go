package lsp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gnana997/codeindex/pkg/codeindexerr"
)

// ServerConfig names the server binary and args to spawn for one
// language, and the root URI to initialize it against.
type ServerConfig struct {
	Language string
	Command  string
	Args     []string
	RootURI  string
}

// entry is one pooled client plus its last-use bookkeeping for idle
// eviction.
type entry struct {
	client   *Client
	lang     string
	lastUsed time.Time
	acquired bool
}

// Pool manages one LSP client process per language, spawning lazily on
// first use and evicting idle clients after idleTimeout so a long-running
// watch session doesn't accumulate one process per language forever.
// Handles are acquired exclusively: a client in use by one extraction is
// never handed to a second caller concurrently, since LSP servers are not
// safe for concurrent requests against the same connection.
type Pool struct {
	mu          sync.Mutex
	configs     map[string]ServerConfig
	clients     map[string]*entry
	idleTimeout time.Duration
	maxRetries  int

	stopSweep chan struct{}
}

// NewPool returns a Pool that spawns servers per configs. idleTimeout
// bounds how long an unacquired client may sit before being shut down;
// zero disables idle eviction. maxRetries bounds how many times Acquire
// will respawn a server that failed to start before giving up.
func NewPool(configs []ServerConfig, idleTimeout time.Duration, maxRetries int) *Pool {
	m := make(map[string]ServerConfig, len(configs))
	for _, c := range configs {
		m[c.Language] = c
	}
	if maxRetries <= 0 {
		maxRetries = 1
	}
	p := &Pool{
		configs:     m,
		clients:     make(map[string]*entry),
		idleTimeout: idleTimeout,
		maxRetries:  maxRetries,
		stopSweep:   make(chan struct{}),
	}
	if idleTimeout > 0 {
		go p.sweepLoop()
	}
	return p
}

func (p *Pool) sweepLoop() {
	ticker := time.NewTicker(p.idleTimeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.evictIdle()
		case <-p.stopSweep:
			return
		}
	}
}

func (p *Pool) evictIdle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	for lang, e := range p.clients {
		if e.acquired {
			continue
		}
		if now.Sub(e.lastUsed) >= p.idleTimeout {
			e.client.Close()
			delete(p.clients, lang)
		}
	}
}

// Handle wraps an acquired client and must be released exactly once via
// Release.
type Handle struct {
	pool   *Pool
	lang   string
	Client *Client
}

// Acquire returns an exclusive handle to the client for language. If no
// client exists yet, or the existing one was dropped for an error, Acquire
// spawns a fresh one (up to maxRetries attempts) per the pool's
// ServerConfig for that language. It blocks if another caller currently
// holds the same language's client.
func (p *Pool) Acquire(ctx context.Context, language string) (*Handle, error) {
	cfg, ok := p.configs[language]
	if !ok {
		return nil, codeindexerr.New(codeindexerr.KindIndexing, fmt.Sprintf("no lsp server configured for %s", language), nil)
	}

	for {
		p.mu.Lock()
		e, exists := p.clients[language]
		if exists && !e.acquired {
			e.acquired = true
			p.mu.Unlock()
			return &Handle{pool: p, lang: language, Client: e.client}, nil
		}
		if exists && e.acquired {
			p.mu.Unlock()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(10 * time.Millisecond):
				continue
			}
		}
		p.mu.Unlock()

		var lastErr error
		var client *Client
		for attempt := 0; attempt < p.maxRetries; attempt++ {
			client, lastErr = Spawn(ctx, cfg.Command, cfg.Args, cfg.RootURI)
			if lastErr == nil {
				break
			}
		}
		if lastErr != nil {
			return nil, codeindexerr.New(codeindexerr.KindIndexing, fmt.Sprintf("spawn lsp server for %s", language), lastErr)
		}

		p.mu.Lock()
		if existing, ok := p.clients[language]; ok && !existing.acquired {
			// Lost the race with another caller's successful spawn; keep
			// the one already installed and discard ours.
			client.Close()
			existing.acquired = true
			p.mu.Unlock()
			return &Handle{pool: p, lang: language, Client: existing.client}, nil
		}
		p.clients[language] = &entry{client: client, lang: language, lastUsed: time.Now(), acquired: true}
		p.mu.Unlock()
		return &Handle{pool: p, lang: language, Client: client}, nil
	}
}

// Release returns h's client to the pool for reuse by the next Acquire.
func (h *Handle) Release() {
	h.pool.mu.Lock()
	defer h.pool.mu.Unlock()
	if e, ok := h.pool.clients[h.lang]; ok {
		e.acquired = false
		e.lastUsed = time.Now()
	}
}

// Drop discards h's client instead of returning it to the pool, for use
// when the caller observed the client enter a broken state.
func (h *Handle) Drop() {
	h.pool.mu.Lock()
	defer h.pool.mu.Unlock()
	h.Client.Close()
	delete(h.pool.clients, h.lang)
}

// Close shuts down every pooled client and stops idle eviction.
func (p *Pool) Close(ctx context.Context) {
	if p.idleTimeout > 0 {
		close(p.stopSweep)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for lang, e := range p.clients {
		_ = e.client.Shutdown(ctx)
		delete(p.clients, lang)
	}
}
