package redis3

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"
)

// dial opens the configured transport: UNIX stream socket, plain TCP, or
// TLS-over-TCP. TCP keepalive is enabled the way the migration client
// tunes its Dragonfly connections, since a long-lived pipelined connection
// benefits from the same early dead-peer detection.
func dial(ctx context.Context, cfg *Config) (net.Conn, error) {
	if cfg.UnixSocket != "" {
		return dialUnix(ctx, cfg)
	}
	return dialTCP(ctx, cfg)
}

func dialUnix(ctx context.Context, cfg *Config) (net.Conn, error) {
	dialer := &net.Dialer{}
	resolveCtx, cancel := context.WithTimeout(ctx, cfg.ResolveTimeout)
	defer cancel()
	conn, err := dialer.DialContext(resolveCtx, "unix", cfg.UnixSocket)
	if err != nil {
		if resolveCtx.Err() != nil {
			return nil, fmt.Errorf("redis3: %w: %v", ErrConnectTimeout, err)
		}
		return nil, fmt.Errorf("redis3: dial unix %s: %w", cfg.UnixSocket, err)
	}
	return conn, nil
}

func dialTCP(ctx context.Context, cfg *Config) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	conn, err := dialer.DialContext(connectCtx, "tcp", cfg.Addr.String())
	if err != nil {
		if connectCtx.Err() != nil {
			return nil, fmt.Errorf("redis3: %w: %v", ErrConnectTimeout, err)
		}
		return nil, fmt.Errorf("redis3: dial %s: %w", cfg.Addr, err)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetKeepAlive(true)
		_ = tcpConn.SetKeepAlivePeriod(30 * time.Second)
	}

	if !cfg.UseSSL {
		return conn, nil
	}

	tlsConn := tls.Client(conn, &tls.Config{ServerName: cfg.Addr.Host})
	handshakeCtx, hcancel := context.WithTimeout(ctx, cfg.SSLHandshakeTimeout)
	defer hcancel()
	if err := tlsConn.HandshakeContext(handshakeCtx); err != nil {
		conn.Close()
		if handshakeCtx.Err() != nil {
			return nil, fmt.Errorf("redis3: %w: %v", ErrSSLHandshakeTimeout, err)
		}
		return nil, fmt.Errorf("redis3: tls handshake: %w", err)
	}
	return tlsConn, nil
}
