// Package logging provides the structured logger used across the
// controller, planning pipeline, and both tool servers.
//
// Adapted from the field-redaction logger pattern used elsewhere in the
// coaching stack: athlete- and conversation-scoped identifiers are hashed
// rather than dropped, so log correlation across a turn still works without
// leaking raw IDs to a shared log sink.
package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Logger wraps a zap.SugaredLogger with key/value redaction.
type Logger struct {
	sugar *zap.SugaredLogger
}

// New creates a Logger for the given mode ("prod"/"production" or anything
// else for development formatting).
func New(mode string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)

	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return &Logger{sugar: z.Sugar()}, nil
}

// Sync flushes any buffered log entries. Call on shutdown.
func (l *Logger) Sync() {
	_ = l.sugar.Sync()
}

func (l *Logger) Debug(msg string, kv ...any) { l.sugar.Debugw(msg, sanitize(kv)...) }
func (l *Logger) Info(msg string, kv ...any)  { l.sugar.Infow(msg, sanitize(kv)...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.sugar.Warnw(msg, sanitize(kv)...) }
func (l *Logger) Error(msg string, kv ...any) { l.sugar.Errorw(msg, sanitize(kv)...) }

// With returns a child logger carrying the given key/values on every entry.
func (l *Logger) With(kv ...any) *Logger {
	return &Logger{sugar: l.sugar.With(sanitize(kv)...)}
}

var (
	hashOnce sync.Once
	hashSalt string
)

// hashKeys are logged as a truncated salted hash instead of their raw value.
var hashKeys = map[string]bool{
	"user_id":         true,
	"athlete_id":      true,
	"conversation_id": true,
	"session_id":      true,
}

// redactKeys are dropped entirely from log output.
var redactKeys = map[string]bool{
	"target_time":    true, // race-goal pace, treated as sensitive athlete data
	"race_date":      true,
	"prompt_content": true,
}

func sanitize(kv []any) []any {
	if len(kv) == 0 {
		return kv
	}
	out := make([]any, 0, len(kv))
	for i := 0; i < len(kv); i += 2 {
		if i == len(kv)-1 {
			out = append(out, kv[i])
			break
		}
		key := strings.ToLower(fmt.Sprint(kv[i]))
		out = append(out, kv[i], sanitizeValue(key, kv[i+1]))
	}
	return out
}

func sanitizeValue(key string, val any) any {
	switch {
	case redactKeys[key]:
		return "[REDACTED]"
	case hashKeys[key]:
		return hashValue(val)
	default:
		return val
	}
}

func hashValue(val any) string {
	hashOnce.Do(func() {
		// Salt is process-local: it only needs to make hashes unguessable
		// across log-sink readers, not survive restarts.
		hashSalt = fmt.Sprintf("%p", &hashOnce)
	})
	raw := fmt.Sprint(val)
	if raw == "" {
		return ""
	}
	h := sha256.New()
	h.Write([]byte(hashSalt))
	h.Write([]byte(raw))
	sum := hex.EncodeToString(h.Sum(nil))
	return "hash:" + sum[:12]
}
