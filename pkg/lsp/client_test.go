package lsp

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

func TestWriteThenReadFramedMessageRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	msg := request{JSONRPC: "2.0", ID: 1, Method: "initialize", Params: map[string]string{"k": "v"}}
	if err := writeFramedMessage(&buf, msg); err != nil {
		t.Fatal(err)
	}

	got, err := readFramedMessage(bufio.NewReader(&buf))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(got), `"method":"initialize"`) {
		t.Fatalf("expected decoded body to contain method, got %s", got)
	}
}

func TestReadFramedMessageRejectsMissingContentLength(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("\r\n{}"))
	if _, err := readFramedMessage(r); err == nil {
		t.Fatal("expected error for missing Content-Length header")
	}
}

func TestReadFramedMessageParsesHeaderThenBody(t *testing.T) {
	raw := "Content-Length: 12\r\n\r\n" + `{"a":"bcde"}`
	r := bufio.NewReader(strings.NewReader(raw))
	got, err := readFramedMessage(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"a":"bcde"}` {
		t.Fatalf("got %q", got)
	}
}

func TestKindTableCoversCommonKinds(t *testing.T) {
	cases := map[int]string{5: "Class", 12: "Function", 6: "Method"}
	for k, want := range cases {
		if got := KindTable[k]; got != want {
			t.Fatalf("KindTable[%d] = %q, want %q", k, got, want)
		}
	}
}
