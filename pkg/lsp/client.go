package lsp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gnana997/codeindex/pkg/codeindexerr"
)

// Client is a single spawned language server process, communicating over
// stdio with Content-Length framed JSON-RPC 2.0 messages. A Client talks to
// exactly one process for exactly one language; pkg/lsp.Pool manages a set
// of these keyed by language.
type Client struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	nextID atomic.Int64

	mu      sync.Mutex // guards pending
	pending map[int64]chan response

	closed atomic.Bool
	readErr chan error
}

// Spawn launches command (found on PATH) with args, completes the
// initialize/initialized handshake against rootURI, and returns a ready
// Client. The caller owns the returned Client's lifetime and must call
// Shutdown or Close.
func Spawn(ctx context.Context, command string, args []string, rootURI string) (*Client, error) {
	cmd := exec.Command(command, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, codeindexerr.New(codeindexerr.KindIndexing, "lsp stdin pipe", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, codeindexerr.New(codeindexerr.KindIndexing, "lsp stdout pipe", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, codeindexerr.New(codeindexerr.KindIndexing, fmt.Sprintf("spawn %s", command), err)
	}

	c := &Client{
		cmd:     cmd,
		stdin:   stdin,
		pending: make(map[int64]chan response),
		readErr: make(chan error, 1),
	}
	go c.readLoop(stdout)

	if err := c.initialize(ctx, rootURI); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) readLoop(r io.Reader) {
	reader := bufio.NewReader(r)
	for {
		msg, err := readFramedMessage(reader)
		if err != nil {
			c.readErr <- err
			c.failAllPending(err)
			return
		}

		var resp response
		if err := json.Unmarshal(msg, &resp); err != nil {
			continue
		}
		if resp.ID == nil {
			continue // server notification or request; this client ignores both
		}

		c.mu.Lock()
		ch, ok := c.pending[*resp.ID]
		if ok {
			delete(c.pending, *resp.ID)
		}
		c.mu.Unlock()
		if ok {
			ch <- resp
		}
	}
}

func (c *Client) failAllPending(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.pending {
		ch <- response{Error: &rpcError{Message: err.Error()}}
		delete(c.pending, id)
	}
}

// readFramedMessage reads one Content-Length: N\r\n\r\n<N bytes> message.
func readFramedMessage(r *bufio.Reader) ([]byte, error) {
	var contentLength int
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break // blank line ends the header block
		}
		if strings.HasPrefix(line, "Content-Length:") {
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Content-Length:")))
			if err != nil {
				return nil, fmt.Errorf("lsp: malformed Content-Length header %q: %w", line, err)
			}
			contentLength = n
		}
	}
	if contentLength == 0 {
		return nil, fmt.Errorf("lsp: missing Content-Length header")
	}
	buf := make([]byte, contentLength)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func writeFramedMessage(w io.Writer, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Content-Length: %d\r\n\r\n", len(body))
	buf.Write(body)
	_, err = w.Write(buf.Bytes())
	return err
}

// call sends a request and blocks for its matching response, bounded by
// ctx, or by 30 seconds when ctx carries no deadline. It is the single
// chokepoint every exported RPC goes through.
func (c *Client) call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	if c.closed.Load() {
		return nil, codeindexerr.New(codeindexerr.KindIndexing, "lsp call on closed client", nil)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	id := c.nextID.Add(1)
	ch := make(chan response, 1)
	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()

	req := request{JSONRPC: "2.0", ID: id, Method: method, Params: params}
	if err := writeFramedMessage(c.stdin, req); err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, codeindexerr.New(codeindexerr.KindIndexing, "lsp write request", err)
	}

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return nil, codeindexerr.New(codeindexerr.KindIndexing, fmt.Sprintf("lsp %s", method), fmt.Errorf("%s", resp.Error.Message))
		}
		return resp.Result, nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, codeindexerr.New(codeindexerr.KindIndexing, fmt.Sprintf("lsp %s timed out", method), ctx.Err())
	}
}

func (c *Client) notify(method string, params interface{}) error {
	n := notification{JSONRPC: "2.0", Method: method, Params: params}
	return writeFramedMessage(c.stdin, n)
}

func (c *Client) initialize(ctx context.Context, rootURI string) error {
	params := map[string]interface{}{
		"processId": os.Getpid(),
		"rootUri":   rootURI,
		"capabilities": map[string]interface{}{
			"textDocument": map[string]interface{}{
				"documentSymbol": map[string]interface{}{
					"hierarchicalDocumentSymbolSupport": true,
				},
				"definition": map[string]interface{}{},
				"references": map[string]interface{}{},
			},
		},
		"initializationOptions": map[string]interface{}{},
	}
	if _, err := c.call(ctx, "initialize", params); err != nil {
		return err
	}
	return c.notify("initialized", map[string]interface{}{})
}

// DidOpen notifies the server that uri is open with the given content, so
// a subsequent DocumentSymbols call has something to analyze.
func (c *Client) DidOpen(uri, languageID, text string) error {
	return c.notify("textDocument/didOpen", map[string]interface{}{
		"textDocument": map[string]interface{}{
			"uri":        uri,
			"languageId": languageID,
			"version":    1,
			"text":       text,
		},
	})
}

// DocumentSymbols requests textDocument/documentSymbol for uri and parses
// the hierarchical result.
func (c *Client) DocumentSymbols(ctx context.Context, uri string) ([]DocumentSymbol, error) {
	raw, err := c.call(ctx, "textDocument/documentSymbol", map[string]interface{}{
		"textDocument": map[string]interface{}{"uri": uri},
	})
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var symbols []DocumentSymbol
	if err := json.Unmarshal(raw, &symbols); err != nil {
		return nil, codeindexerr.New(codeindexerr.KindIndexing, "lsp parse documentSymbol response", err)
	}
	return symbols, nil
}

// Shutdown performs the graceful shutdown/exit handshake and waits for the
// process to exit, bounded by ctx.
func (c *Client) Shutdown(ctx context.Context) error {
	if c.closed.Swap(true) {
		return nil
	}
	_, _ = c.call(ctx, "shutdown", nil)
	_ = c.notify("exit", nil)
	_ = c.stdin.Close()

	done := make(chan error, 1)
	go func() { done <- c.cmd.Wait() }()
	select {
	case <-done:
	case <-ctx.Done():
		_ = c.cmd.Process.Kill()
	case <-time.After(5 * time.Second):
		_ = c.cmd.Process.Kill()
	}
	return nil
}

// Close forcibly kills the server process without the shutdown handshake,
// for use when a Client is being discarded after an error.
func (c *Client) Close() {
	if c.closed.Swap(true) {
		return
	}
	_ = c.stdin.Close()
	if c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
	}
}
