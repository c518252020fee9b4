package redis3

import "redis3/internal/request"

// buildSetupRequest composes the setup request from configuration (spec
// §4.F): HELLO 3, with optional AUTH and SETNAME, followed by an optional
// SELECT. The request is marked priority and non-retryable, and is
// cancelled outright if the connection is lost mid-flight — it is rebuilt
// from scratch on every reconnect rather than replayed (spec §9's "Open
// Questions" resolution on priority requests).
func buildSetupRequest(cfg *Config) *request.Request {
	r := request.New()

	helloArgs := []interface{}{"3"}
	if !skipAuth(cfg.Username, cfg.Password) {
		helloArgs = append(helloArgs, "AUTH", cfg.Username, cfg.Password)
	}
	if cfg.ClientName != "" {
		helloArgs = append(helloArgs, "SETNAME", cfg.ClientName)
	}
	r.Push("HELLO", helloArgs...)

	if db := cfg.DatabaseIndex(); db != 0 {
		r.Push("SELECT", db)
	}

	r.SetPriority(true)
	r.SetConfig(request.Config{
		CancelOnConnectionLost: true,
		Retry:                  false,
	})
	return r
}

// skipAuth reports whether AUTH should be omitted: the user is empty, or is
// the literal "default" with an empty password.
func skipAuth(username, password string) bool {
	if username == "" {
		return true
	}
	if username == "default" && password == "" {
		return true
	}
	return false
}
