package integration

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

// Config points at one live Redis-protocol server. go-redis acts as the
// known-good peer: every command is issued through it first, then the
// redis3cli binary is used to read the same key back, so any wire-level
// divergence between this module's client and go-redis shows up as a
// mismatch rather than a silent pass.
type Config struct {
	Server struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
	} `yaml:"server"`
}

func TestClientAgainstGoRedis(t *testing.T) {
	configPath := "integration.yaml"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Skip("Skipping integration test: integration.yaml not found. Create it with server.addr and server.password to run.")
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config: %v", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("Failed to parse config: %v", err)
	}

	ctx := context.Background()

	peer := redis.NewClient(&redis.Options{
		Addr:     cfg.Server.Addr,
		Password: cfg.Server.Password,
	})
	defer peer.Close()

	if err := peer.Ping(ctx).Err(); err != nil {
		t.Skipf("Skipping integration test: server unavailable (%v)", err)
	}

	testKey := "test:redis3:key"
	testValue := fmt.Sprintf("value-%d", time.Now().UnixNano())

	t.Logf("Writing %s via go-redis...", testKey)
	if err := peer.Set(ctx, testKey, testValue, 0).Err(); err != nil {
		t.Fatalf("go-redis SET failed: %v", err)
	}

	cmdBuild := exec.Command("go", "build", "-o", "redis3cli-integration", "../../cmd/redis3cli")
	if out, err := cmdBuild.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build redis3cli: %s", out)
	}
	defer os.Remove("redis3cli-integration")

	clientConfigPath := writeClientConfig(t, cfg.Server.Addr, cfg.Server.Password)
	defer os.Remove(clientConfigPath)

	t.Log("Reading back via redis3cli...")
	cmdRun := exec.Command("./redis3cli-integration", "exec", "--config", clientConfigPath, "GET", testKey)
	out, err := cmdRun.CombinedOutput()
	if err != nil {
		t.Fatalf("redis3cli exec failed: %v\n%s", err, out)
	}

	if !strings.Contains(string(out), testValue) {
		t.Fatalf("redis3cli did not read back the value written by go-redis.\nWant value %q in output:\n%s", testValue, out)
	}

	t.Log("SUCCESS: redis3cli and go-redis agree on wire-level read/write behavior.")
}

func writeClientConfig(t *testing.T, addr, password string) string {
	t.Helper()
	host, port, err := splitHostPort(addr)
	if err != nil {
		t.Fatalf("parse server addr %q: %v", addr, err)
	}
	body := fmt.Sprintf("addr:\n  host: %q\n  port: %d\nusername: default\npassword: %q\n", host, port, password)
	path := "redis3cli-integration.yaml"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write client config: %v", err)
	}
	return path
}

func splitHostPort(addr string) (string, int, error) {
	var host string
	var port int
	if _, err := fmt.Sscanf(addr, "%[^:]:%d", &host, &port); err != nil {
		return "", 0, err
	}
	return host, port, nil
}

