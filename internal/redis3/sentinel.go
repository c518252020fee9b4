package redis3

import (
	"bufio"
	"fmt"
	"net"
	"strconv"

	"redis3/internal/adapter"
	"redis3/internal/resp3"
)

// resolveMaster implements spec §4.F's Sentinel master discovery: iterate
// the sentinel list, ask the first one that answers for the master address
// and its gossiped peer list, rotate it to the front, and merge the
// gossiped list into the bootstrap list (deduplicated, bootstrap entries
// always retained).
func resolveMaster(cfg *Config) (master Addr, updated []Addr, err error) {
	sc := cfg.Sentinel
	for i, sentinelAddr := range sc.Addresses {
		conn, derr := net.DialTimeout("tcp", sentinelAddr.String(), cfg.ConnectTimeout)
		if derr != nil {
			continue
		}
		r := bufio.NewReader(conn)

		masterNode, cerr := sendCommand(conn, r, "SENTINEL", "get-master-addr-by-name", sc.MasterName)
		if cerr != nil || masterNode.Type == resp3.Null {
			conn.Close()
			continue
		}
		hostPort, cerr := masterNode.ToStringSlice()
		if cerr != nil || len(hostPort) != 2 {
			conn.Close()
			continue
		}
		port, perr := strconv.Atoi(hostPort[1])
		if perr != nil {
			conn.Close()
			continue
		}
		master = Addr{Host: hostPort[0], Port: port}

		gossipNode, _ := sendCommand(conn, r, "SENTINEL", "SENTINELS", sc.MasterName)
		conn.Close()

		gossiped := parseSentinelGossip(gossipNode)
		rotated := append([]Addr{sentinelAddr}, sc.Addresses[:i]...)
		rotated = append(rotated, sc.Addresses[i+1:]...)
		return master, mergeSentinelLists(rotated, gossiped), nil
	}
	return Addr{}, nil, ErrSentinelResolveFailed
}

// parseSentinelGossip extracts host/port pairs from a SENTINEL SENTINELS
// reply: an array whose elements are each a flat ip/port/... field list
// (the classic RESP2-style alternating key/value array Redis uses here,
// regardless of RESP3 HELLO negotiation).
func parseSentinelGossip(node adapter.Value) []Addr {
	var out []Addr
	for _, entry := range node.Children {
		fields, err := entry.ToStringSlice()
		if err != nil {
			continue
		}
		var host, port string
		for i := 0; i+1 < len(fields); i += 2 {
			switch fields[i] {
			case "ip":
				host = fields[i+1]
			case "port":
				port = fields[i+1]
			}
		}
		if host == "" || port == "" {
			continue
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			continue
		}
		out = append(out, Addr{Host: host, Port: p})
	}
	return out
}

// mergeSentinelLists merges gossiped into bootstrap, deduplicated and
// order-preserving, with every bootstrap-supplied address always retained
// even if the gossiped list omits it.
func mergeSentinelLists(bootstrap, gossiped []Addr) []Addr {
	seen := make(map[string]bool, len(bootstrap)+len(gossiped))
	out := make([]Addr, 0, len(bootstrap)+len(gossiped))
	for _, a := range bootstrap {
		key := a.String()
		if !seen[key] {
			seen[key] = true
			out = append(out, a)
		}
	}
	for _, a := range gossiped {
		key := a.String()
		if !seen[key] {
			seen[key] = true
			out = append(out, a)
		}
	}
	return out
}

// verifyRole connects to addr and confirms ROLE reports "master" (spec
// §4.F step 3).
func verifyRole(cfg *Config, addr Addr) error {
	conn, err := net.DialTimeout("tcp", addr.String(), cfg.ConnectTimeout)
	if err != nil {
		return fmt.Errorf("redis3: role check dial: %w", err)
	}
	defer conn.Close()
	r := bufio.NewReader(conn)

	node, err := sendCommand(conn, r, "ROLE")
	if err != nil {
		return fmt.Errorf("redis3: role check: %w", err)
	}
	if len(node.Children) == 0 {
		return ErrRoleCheckFailed
	}
	role, err := node.Children[0].ToString()
	if err != nil || role != "master" {
		return ErrRoleCheckFailed
	}
	return nil
}
