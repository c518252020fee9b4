package resp3

import (
	"bytes"
	"strconv"
)

// MaxDepth is the maximum nesting depth a RESP3 message may reach. It is
// fixed, not configurable: a legitimate Redis reply never needs more than
// this, and bounding it keeps the sizes stack a fixed-size array.
const MaxDepth = 5

const sep = "\r\n"

// Parser is an incremental, pull-driven RESP3 decoder. It never copies
// bytes: Node.Value slices directly into the buffer handed to Parse, so
// callers that need to retain a value beyond the next Parse call must copy
// it themselves.
//
// A Parser processes one "unit" of input per Parse call — one line, or one
// outstanding bulk body — and reports forward progress via the returned
// consumed count even when no Node was produced (e.g. the "$?\r\n" streamed
// string header). Callers should loop: advance their cursor by consumed,
// and if node is nil and err is nil, call Parse again immediately; if err
// is ErrNeedMore, wait for more bytes before calling again.
type Parser struct {
	depth     int
	sizes     [MaxDepth + 1]int
	streaming [MaxDepth + 1]bool

	bulkType   Type
	bulkLength int

	// started is set once the first line of input has been consumed, so a
	// fresh parser does not report Done.
	started bool
}

// NewParser returns a Parser ready to decode a new top-level message.
func NewParser() *Parser {
	p := &Parser{}
	p.Reset()
	return p
}

// Reset discards any in-progress message and returns the parser to its
// initial state, ready for a new top-level message.
func (p *Parser) Reset() {
	p.depth = 0
	p.sizes[0] = 2 // root sentinel (> 1); collapse() never pops depth 0.
	for i := 1; i <= MaxDepth; i++ {
		p.sizes[i] = 1
	}
	for i := range p.streaming {
		p.streaming[i] = false
	}
	p.bulkType = Invalid
	p.bulkLength = -1
	p.started = false
}

// Done reports whether the parser has completed a full top-level message
// and is ready to start a new one.
func (p *Parser) Done() bool {
	return p.started && p.depth == 0 && p.bulkType == Invalid
}

// IsParsing reports whether a message is partially consumed.
func (p *Parser) IsParsing() bool {
	return !p.Done()
}

// Depth returns the parser's current nesting depth.
func (p *Parser) Depth() int {
	return p.depth
}

// Parse consumes one unit of buf. It returns:
//   - (node, n, nil): a complete node was produced; n bytes were consumed.
//   - (nil, n, nil): forward progress was made (n bytes consumed) but no
//     node is ready yet; call Parse again with the remaining bytes.
//   - (nil, 0, ErrNeedMore): buf does not contain a full line/body; call
//     again once more bytes have arrived. No state changes.
//   - (nil, n, err): a fatal protocol error; the connection must be torn
//     down. n bytes were nominally consumed but are meaningless at this
//     point.
func (p *Parser) Parse(buf []byte) (*Node, int, error) {
	if p.bulkType != Invalid {
		return p.parseBulkBody(buf)
	}
	return p.parseLine(buf)
}

func (p *Parser) parseBulkBody(buf []byte) (*Node, int, error) {
	need := p.bulkLength + 2
	if len(buf) < need {
		return nil, 0, ErrNeedMore
	}

	typ := p.bulkType
	depth := p.depth
	value := buf[:p.bulkLength]

	p.bulkType = Invalid
	p.bulkLength = -1

	node := &Node{Type: typ, Depth: depth, Value: value}

	if !(typ == StreamedStringPart && p.streaming[depth]) {
		p.sizes[depth]--
		p.collapse()
	}
	return node, need, nil
}

func (p *Parser) parseLine(buf []byte) (*Node, int, error) {
	idx := bytes.Index(buf, []byte(sep))
	if idx < 0 {
		return nil, 0, ErrNeedMore
	}
	lineLen := idx + len(sep)
	p.started = true
	b := buf[0]
	typ, ok := ByteToType(b)
	if !ok {
		return nil, lineLen, ErrInvalidDataType
	}
	payload := buf[1:idx]

	switch typ {
	case SimpleString, SimpleError, Number, Double, BigNumber, Null:
		depth := p.depth
		var value []byte
		if typ != Null {
			value = payload
		}
		node := &Node{Type: typ, Depth: depth, Value: value}
		p.sizes[depth]--
		p.collapse()
		return node, lineLen, nil

	case Boolean:
		if len(payload) != 1 || (payload[0] != 't' && payload[0] != 'f') {
			return nil, lineLen, ErrUnexpectedBoolValue
		}
		depth := p.depth
		node := &Node{Type: typ, Depth: depth, Value: payload}
		p.sizes[depth]--
		p.collapse()
		return node, lineLen, nil

	case Array, Push, Set, Map, Attribute:
		count, err := strconv.Atoi(string(payload))
		if err != nil || count < 0 {
			return nil, lineLen, ErrNotANumber
		}
		depth := p.depth
		node := &Node{Type: typ, Depth: depth, AggregateSize: count}
		if count == 0 {
			p.sizes[depth]--
			p.collapse()
		} else {
			if p.depth+1 > MaxDepth {
				return nil, lineLen, ErrExceedsMaxNestedDepth
			}
			p.depth++
			p.sizes[p.depth] = typ.Multiplicity() * count
		}
		return node, lineLen, nil

	case BlobString:
		if len(payload) == 1 && payload[0] == '?' {
			// Streamed string: "$?\r\n" opens an unbounded sequence of
			// streamed_string_part nodes, closed by a zero-length part.
			if p.depth+1 > MaxDepth {
				return nil, lineLen, ErrExceedsMaxNestedDepth
			}
			p.depth++
			p.streaming[p.depth] = true
			return nil, lineLen, nil
		}
		length, err := strconv.Atoi(string(payload))
		if err != nil || length < 0 {
			return nil, lineLen, ErrNotANumber
		}
		p.bulkType = BlobString
		p.bulkLength = length
		return nil, lineLen, nil

	case VerbatimString, BlobError:
		length, err := strconv.Atoi(string(payload))
		if err != nil || length < 0 {
			return nil, lineLen, ErrNotANumber
		}
		p.bulkType = typ
		p.bulkLength = length
		return nil, lineLen, nil

	case StreamedStringPart:
		length, err := strconv.Atoi(string(payload))
		if err != nil || length < 0 {
			return nil, lineLen, ErrNotANumber
		}
		if length == 0 {
			// Terminator: closes the streaming level opened by "$?\r\n".
			depth := p.depth
			node := &Node{Type: StreamedStringPart, Depth: depth, Value: []byte{}}
			p.streaming[depth] = false
			p.depth--
			p.sizes[p.depth]--
			p.collapse()
			return node, lineLen, nil
		}
		p.bulkType = StreamedStringPart
		p.bulkLength = length
		return nil, lineLen, nil

	default:
		return nil, lineLen, ErrInvalidDataType
	}
}

// collapse pops every fully-consumed level off the sizes stack, propagating
// completion up to the parent.
func (p *Parser) collapse() {
	for p.depth > 0 && p.sizes[p.depth] == 0 {
		p.depth--
		p.sizes[p.depth]--
	}
}
