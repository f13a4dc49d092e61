package auth

import (
	"os"
	"strings"
	"time"
)

const authLogPath = "log/auth.log"

var loggingEnv = os.Getenv("LOGGING")

// LogAuthAttempt appends one line per login, register or Google OAuth attempt
// to the auth log. Enabled with LOGGING=true, otherwise a no-op.
// Line layout: timestamp (RFC3339) | level | authType | status | identifier? | message?
// level is debug|info|warning|error|fatal, authType Local|Google,
// status Success|Fail. identifier carries the username or email when known.
func LogAuthAttempt(level string, authType string, status string, identifier string, message string) {
	if !strings.EqualFold(loggingEnv, "true") {
		return
	}

	// logging must never take down an auth flow, every failure below is silent
	if err := os.MkdirAll("log", 0o750); err != nil {
		return
	}
	f, err := os.OpenFile(authLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()

	ts := time.Now().UTC().Format(time.RFC3339)
	parts := []string{ts, level, authType, status}
	if identifier != "" {
		parts = append(parts, identifier)
	}
	if message != "" {
		parts = append(parts, message)
	}

	_, _ = f.WriteString(strings.Join(parts, " | ") + "\n")
}
