package redis3

import "testing"

func TestSetupRequestNoAuthNoSelect(t *testing.T) {
	cfg := &Config{Username: "default"}
	r := buildSetupRequest(cfg)
	want := "*2\r\n$5\r\nHELLO\r\n$1\r\n3\r\n"
	if got := string(r.Bytes()); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if !r.Priority() {
		t.Fatal("expected setup request to be priority")
	}
	if r.GetConfig().Retry {
		t.Fatal("expected setup request to be non-retryable")
	}
	if !r.GetConfig().CancelOnConnectionLost {
		t.Fatal("expected setup request to cancel on connection lost")
	}
}

func TestSetupRequestFullyPopulated(t *testing.T) {
	db := 2
	cfg := &Config{Username: "u", Password: "p", ClientName: "app", Database: &db}
	r := buildSetupRequest(cfg)
	want := "*7\r\n$5\r\nHELLO\r\n$1\r\n3\r\n$4\r\nAUTH\r\n$1\r\nu\r\n$1\r\np\r\n$7\r\nSETNAME\r\n$3\r\napp\r\n" +
		"*2\r\n$6\r\nSELECT\r\n$1\r\n2\r\n"
	if got := string(r.Bytes()); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSkipAuthRules(t *testing.T) {
	cases := []struct {
		user, pass string
		want       bool
	}{
		{"", "", true},
		{"default", "", true},
		{"default", "x", false},
		{"someuser", "", false},
	}
	for _, c := range cases {
		if got := skipAuth(c.user, c.pass); got != c.want {
			t.Fatalf("skipAuth(%q,%q) = %v, want %v", c.user, c.pass, got, c.want)
		}
	}
}
