package resp3

import (
	"bytes"
	"testing"
)

// drain feeds the full message to the parser, one Parse call at a time,
// and returns every node produced.
func drain(t *testing.T, p *Parser, msg []byte) []Node {
	t.Helper()
	var nodes []Node
	pos := 0
	for !p.Done() {
		node, n, err := p.Parse(msg[pos:])
		if err != nil {
			t.Fatalf("parse error at pos %d: %v", pos, err)
		}
		pos += n
		if node != nil {
			nodes = append(nodes, *node)
		}
		if n == 0 && node == nil {
			t.Fatalf("no progress made, message incomplete")
		}
	}
	if pos != len(msg) {
		t.Fatalf("consumed %d of %d bytes", pos, len(msg))
	}
	return nodes
}

func TestParserSimpleString(t *testing.T) {
	p := NewParser()
	nodes := drain(t, p, []byte("+OK\r\n"))
	if len(nodes) != 1 || nodes[0].Type != SimpleString || string(nodes[0].Value) != "OK" {
		t.Fatalf("unexpected nodes: %+v", nodes)
	}
}

func TestParserArrayOfTwo(t *testing.T) {
	p := NewParser()
	msg := []byte("*2\r\n:1\r\n:2\r\n")
	nodes := drain(t, p, msg)
	if len(nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d: %+v", len(nodes), nodes)
	}
	if nodes[0].Type != Array || nodes[0].AggregateSize != 2 || nodes[0].Depth != 0 {
		t.Fatalf("bad array header: %+v", nodes[0])
	}
	if nodes[1].Depth != 1 || string(nodes[1].Value) != "1" {
		t.Fatalf("bad element 1: %+v", nodes[1])
	}
	if nodes[2].Depth != 1 || string(nodes[2].Value) != "2" {
		t.Fatalf("bad element 2: %+v", nodes[2])
	}
}

func TestParserBlobStringPreservesCRLF(t *testing.T) {
	p := NewParser()
	body := []byte("foo\r\nbar")
	msg := append([]byte("$8\r\n"), append(append([]byte{}, body...), []byte("\r\n")...)...)
	nodes := drain(t, p, msg)
	if len(nodes) != 1 || nodes[0].Type != BlobString {
		t.Fatalf("unexpected nodes: %+v", nodes)
	}
	if !bytes.Equal(nodes[0].Value, body) {
		t.Fatalf("value mismatch: got %q want %q", nodes[0].Value, body)
	}
}

func TestParserChunkedFeedMatchesWhole(t *testing.T) {
	msg := []byte("*3\r\n$3\r\nfoo\r\n:42\r\n#t\r\n")

	whole := drain(t, NewParser(), msg)

	for split := 1; split < len(msg); split++ {
		p := NewParser()
		var got []Node
		pos := 0
		pending := append([]byte{}, msg[:split]...)
		fed := split
		for !p.Done() {
			for {
				node, n, err := p.Parse(pending[pos:])
				if err == ErrNeedMore {
					break
				}
				if err != nil {
					t.Fatalf("split=%d: parse error: %v", split, err)
				}
				pos += n
				if node != nil {
					got = append(got, *node)
				}
			}
			if p.Done() {
				break
			}
			if fed >= len(msg) {
				t.Fatalf("split=%d: ran out of input before done", split)
			}
			grow := fed + 1
			if grow > len(msg) {
				grow = len(msg)
			}
			pending = append(pending[:0:0], msg[:grow]...)
			fed = grow
		}
		if len(got) != len(whole) {
			t.Fatalf("split=%d: got %d nodes, want %d", split, len(got), len(whole))
		}
		for i := range got {
			if got[i].Type != whole[i].Type || got[i].Depth != whole[i].Depth ||
				!bytes.Equal(got[i].Value, whole[i].Value) || got[i].AggregateSize != whole[i].AggregateSize {
				t.Fatalf("split=%d: node %d mismatch: got %+v want %+v", split, i, got[i], whole[i])
			}
		}
	}
}

func TestParserPush(t *testing.T) {
	p := NewParser()
	nodes := drain(t, p, []byte(">2\r\n+one\r\n+two\r\n"))
	if len(nodes) != 3 || nodes[0].Type != Push || nodes[0].AggregateSize != 2 {
		t.Fatalf("unexpected nodes: %+v", nodes)
	}
}

func TestParserStreamedString(t *testing.T) {
	p := NewParser()
	msg := []byte("$?\r\n;4\r\nHell\r\n;1\r\no\r\n;0\r\n")
	nodes := drain(t, p, msg)
	if len(nodes) != 3 {
		t.Fatalf("expected 3 streamed_string_part nodes, got %d: %+v", len(nodes), nodes)
	}
	if string(nodes[0].Value) != "Hell" || string(nodes[1].Value) != "o" {
		t.Fatalf("unexpected chunk values: %+v", nodes)
	}
	if len(nodes[2].Value) != 0 {
		t.Fatalf("expected empty terminator value, got %q", nodes[2].Value)
	}
}

func TestParserExceedsMaxNestedDepth(t *testing.T) {
	p := NewParser()
	msg := bytes.Repeat([]byte("*1\r\n"), MaxDepth+2)
	_, _, err := drainUntilErr(p, msg)
	if err != ErrExceedsMaxNestedDepth {
		t.Fatalf("expected ErrExceedsMaxNestedDepth, got %v", err)
	}
}

func TestParserInvalidDataType(t *testing.T) {
	p := NewParser()
	_, _, err := p.Parse([]byte("@nope\r\n"))
	if err != ErrInvalidDataType {
		t.Fatalf("expected ErrInvalidDataType, got %v", err)
	}
}

func TestParserNotANumber(t *testing.T) {
	p := NewParser()
	_, _, err := p.Parse([]byte("*abc\r\n"))
	if err != ErrNotANumber {
		t.Fatalf("expected ErrNotANumber, got %v", err)
	}
}

func drainUntilErr(p *Parser, buf []byte) (*Node, int, error) {
	pos := 0
	for {
		node, n, err := p.Parse(buf[pos:])
		if err != nil {
			return node, pos + n, err
		}
		pos += n
		if node != nil && p.Done() {
			return node, pos, nil
		}
	}
}
