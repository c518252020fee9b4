package redis3

import (
	"bufio"
	"fmt"
	"net"

	"redis3/internal/adapter"
	"redis3/internal/request"
	"redis3/internal/resp3"
)

// sendCommand writes one command over conn and parses exactly one RESP3
// reply into an adapter.Tree, using the same parser and blob-string wire
// format as the main connection. Sentinel conversations are short,
// unpipelined request/reply exchanges, so there is no need to involve the
// multiplexer here.
func sendCommand(conn net.Conn, r *bufio.Reader, cmd string, args ...interface{}) (adapter.Value, error) {
	req := request.New()
	req.Push(cmd, args...)
	if _, err := conn.Write(req.Bytes()); err != nil {
		return adapter.Value{}, fmt.Errorf("redis3: sentinel write: %w", err)
	}

	tree := &adapter.Tree{}
	tree.OnInit()
	parser := resp3.NewParser()
	buf := make([]byte, 4096)
	pending := pendingBuf{}

	for {
		node, n, err := parser.Parse(pending.bytes())
		if err == resp3.ErrNeedMore {
			more, rerr := r.Read(buf)
			if rerr != nil {
				return adapter.Value{}, fmt.Errorf("redis3: sentinel read: %w", rerr)
			}
			pending.append(buf[:more])
			continue
		}
		if err != nil {
			return adapter.Value{}, fmt.Errorf("redis3: sentinel parse: %w", err)
		}
		pending.advance(n)
		if node != nil {
			var adapterErr error
			tree.OnNode(*node, &adapterErr)
			if adapterErr != nil {
				return adapter.Value{}, adapterErr
			}
		}
		if parser.Done() {
			tree.OnDone()
			return tree.Result, nil
		}
	}
}

// pendingBuf is a tiny growable byte accumulator used by the sentinel
// request/reply helper above and by the setup handshake in run.go, neither
// of which needs the full mux.ReadBuffer machinery (no pipelining, no push
// routing).
type pendingBuf struct {
	data  []byte
	begin int
}

func (p *pendingBuf) bytes() []byte {
	return p.data[p.begin:]
}

func (p *pendingBuf) append(b []byte) {
	p.data = append(p.data, b...)
}

func (p *pendingBuf) advance(n int) {
	p.begin += n
	if p.begin == len(p.data) {
		p.data = p.data[:0]
		p.begin = 0
	}
}
