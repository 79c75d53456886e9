// Package events provides the structured logger shared by every lox
// component. Entries carry key=value fields and secrets are redacted
// the moment a field is attached.
package events

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/picvet/lox/internal/config"
)

// LogLevel orders severities from most to least verbose.
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

var levelNames = [...]string{"debug", "info", "warn", "error"}

func (l LogLevel) String() string {
	if l < DebugLevel || l > ErrorLevel {
		return "info"
	}
	return levelNames[l]
}

func parseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Field names whose values never reach the output. Matched case
// insensitively when the field is attached, so a derived logger never
// holds the secret at all.
var sensitiveFields = map[string]struct{}{
	"passphrase":  {},
	"password":    {},
	"key":         {},
	"secret":      {},
	"totp_secret": {},
	"token":       {},
}

const redactedValue = "[REDACTED]"

func sanitizeField(key string, value interface{}) interface{} {
	if _, sensitive := sensitiveFields[strings.ToLower(key)]; sensitive {
		return redactedValue
	}
	return value
}

// Logger emits structured entries in json or text form. Derived
// loggers share the parent's writer and mutex; their field maps are
// never mutated after derivation, so only writes need the lock.
type Logger struct {
	mu     *sync.Mutex
	level  LogLevel
	format string
	out    io.Writer
	color  bool
	fields map[string]interface{}
}

// NewLogger builds a logger from the log section of the config. With
// no file configured, entries go to stderr so stdout stays free for
// command output and JSON results.
func NewLogger(cfg *config.LogConfig) (*Logger, error) {
	out := io.Writer(os.Stderr)
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
	}

	return &Logger{
		mu:     &sync.Mutex{},
		level:  parseLevel(cfg.Level),
		format: cfg.Format,
		out:    out,
		color:  cfg.Color && cfg.File == "" && isTerminal(out),
		fields: map[string]interface{}{},
	}, nil
}

// NewTestLogger returns a logger writing to the given output, used by
// tests to capture entries.
func NewTestLogger(level LogLevel, format string, output io.Writer) *Logger {
	return &Logger{
		mu:     &sync.Mutex{},
		level:  level,
		format: format,
		out:    output,
		fields: map[string]interface{}{},
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (l *Logger) clone(extra int) *Logger {
	next := &Logger{
		mu:     l.mu,
		level:  l.level,
		format: l.format,
		out:    l.out,
		color:  l.color,
		fields: make(map[string]interface{}, len(l.fields)+extra),
	}
	for k, v := range l.fields {
		next.fields[k] = v
	}
	return next
}

// WithField returns a logger that attaches key=value to every entry.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	next := l.clone(1)
	next.fields[key] = sanitizeField(key, value)
	return next
}

// WithFields returns a logger that attaches all given fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	next := l.clone(len(fields))
	for k, v := range fields {
		next.fields[k] = sanitizeField(k, v)
	}
	return next
}

// WithError attaches err under the "error" field.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

func (l *Logger) Debug(msg string) { l.emit(DebugLevel, msg) }
func (l *Logger) Info(msg string)  { l.emit(InfoLevel, msg) }
func (l *Logger) Warn(msg string)  { l.emit(WarnLevel, msg) }
func (l *Logger) Error(msg string) { l.emit(ErrorLevel, msg) }

func (l *Logger) emit(level LogLevel, msg string) {
	if level < l.level {
		return
	}

	now := time.Now().UTC()
	var line []byte
	if l.format == "json" {
		line = l.jsonLine(now, level, msg)
	} else {
		line = l.textLine(now, level, msg)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.out.Write(append(line, '\n'))
}

func (l *Logger) jsonLine(now time.Time, level LogLevel, msg string) []byte {
	entry := make(map[string]interface{}, len(l.fields)+3)
	for k, v := range l.fields {
		entry[k] = v
	}
	entry["time"] = now.Format(time.RFC3339Nano)
	entry["level"] = level.String()
	entry["msg"] = msg

	line, err := json.Marshal(entry)
	if err != nil {
		// A field value the encoder cannot represent. Keep the event.
		line, _ = json.Marshal(map[string]string{
			"time":  now.Format(time.RFC3339Nano),
			"level": level.String(),
			"msg":   msg,
		})
	}
	return line
}

var levelColors = [...]string{"\x1b[36m", "\x1b[32m", "\x1b[33m", "\x1b[31m"}

const colorReset = "\x1b[0m"

func (l *Logger) textLine(now time.Time, level LogLevel, msg string) []byte {
	var b strings.Builder
	b.WriteString(now.Format(time.RFC3339))
	b.WriteString(" [")
	tag := strings.ToUpper(level.String())
	if l.color {
		b.WriteString(levelColors[level])
		b.WriteString(tag)
		b.WriteString(colorReset)
	} else {
		b.WriteString(tag)
	}
	b.WriteString("] ")
	b.WriteString(msg)

	keys := make([]string, 0, len(l.fields))
	for k := range l.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, l.fields[k])
	}
	return []byte(b.String())
}
