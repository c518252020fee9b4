package request

import "testing"

func TestPushPing(t *testing.T) {
	r := New()
	r.Push("PING")
	want := "*1\r\n$4\r\nPING\r\n"
	if got := string(r.Bytes()); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if r.ExpectedResponses() != 1 {
		t.Fatalf("expected 1 response, got %d", r.ExpectedResponses())
	}
}

func TestPushSetWithOptions(t *testing.T) {
	r := New()
	r.Push("SET", "key", "value", "EX", "2")
	want := "*5\r\n$3\r\nSET\r\n$3\r\nkey\r\n$5\r\nvalue\r\n$2\r\nEX\r\n$1\r\n2\r\n"
	if got := string(r.Bytes()); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPushRangeHSET(t *testing.T) {
	r := New()
	r.PushRange("HSET", "key", []Pair{
		NewPair("k1", "v1"),
		NewPair("k2", "v2"),
	})
	want := "*6\r\n$4\r\nHSET\r\n$3\r\nkey\r\n$2\r\nk1\r\n$2\r\nv1\r\n$2\r\nk2\r\n$2\r\nv2\r\n"
	if got := string(r.Bytes()); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if r.ExpectedResponses() != 1 {
		t.Fatalf("expected 1 response, got %d", r.ExpectedResponses())
	}
}

func TestPushSubscribeDoesNotCountResponse(t *testing.T) {
	r := New()
	r.Push("SUBSCRIBE", "channel")
	if r.ExpectedResponses() != 0 {
		t.Fatalf("expected 0 expected responses for a push-reply command, got %d", r.ExpectedResponses())
	}
}

func TestMultipleCommandsAccumulate(t *testing.T) {
	r := New()
	r.Push("PING")
	r.Push("PING")
	if r.ExpectedResponses() != 2 {
		t.Fatalf("expected 2, got %d", r.ExpectedResponses())
	}
	want := "*1\r\n$4\r\nPING\r\n*1\r\n$4\r\nPING\r\n"
	if got := string(r.Bytes()); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestClearResetsBufferAndCounters(t *testing.T) {
	r := New()
	r.Push("PING")
	r.Clear()
	if r.ExpectedResponses() != 0 || len(r.Bytes()) != 0 {
		t.Fatalf("expected clean state after Clear, got expected=%d bytes=%q", r.ExpectedResponses(), r.Bytes())
	}
}

func TestSetPriorityAndConfig(t *testing.T) {
	r := New()
	r.SetPriority(true)
	if !r.Priority() {
		t.Fatal("expected priority to be true")
	}
	cfg := Config{CancelOnConnectionLost: true, Retry: false}
	r.SetConfig(cfg)
	if got := r.GetConfig(); got != cfg {
		t.Fatalf("got %+v, want %+v", got, cfg)
	}
}

func TestHelloSetupNoAuthNoSelect(t *testing.T) {
	r := New()
	r.Push("HELLO", "3")
	want := "*2\r\n$5\r\nHELLO\r\n$1\r\n3\r\n"
	if got := string(r.Bytes()); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestHelloSetupWithAuthSetnameAndSelect(t *testing.T) {
	r := New()
	r.Push("HELLO", "3", "AUTH", "u", "p", "SETNAME", "app")
	r.Push("SELECT", "2")
	want := "*7\r\n$5\r\nHELLO\r\n$1\r\n3\r\n$4\r\nAUTH\r\n$1\r\nu\r\n$1\r\np\r\n$7\r\nSETNAME\r\n$3\r\napp\r\n" +
		"*2\r\n$6\r\nSELECT\r\n$1\r\n2\r\n"
	if got := string(r.Bytes()); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
