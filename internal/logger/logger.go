// Package logger writes the application's operational log. Lines go to
// dated files under the configured directory (cinema_api_YYYY_MM_DD.log
// for everything, errors_YYYY_MM_DD.log for errors only) and are echoed
// to stdout. Each line carries a timestamp, the logger name, a level and
// a message; structured details are appended as a JSON object so the
// logs API can parse them back out.
package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	loggerName  = "cinema_api"
	generalStem = "cinema_api_"
	errorStem   = "errors_"
	fileStamp   = "2006_01_02"
	lineStamp   = "2006-01-02 15:04:05"
)

// Logger is safe for concurrent use. Files roll over at midnight; the
// roll check happens on write so an idle logger never touches the disk.
type Logger struct {
	mu      sync.Mutex
	dir     string
	day     string
	general *os.File
	errFile *os.File
}

// New creates the log directory if needed and opens today's files.
func New(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	l := &Logger{dir: dir}
	if err := l.open(time.Now()); err != nil {
		return nil, err
	}
	return l, nil
}

// Dir returns the directory the log files live in.
func (l *Logger) Dir() string { return l.dir }

// Close flushes and closes the underlying files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var first error
	if l.general != nil {
		if err := l.general.Close(); err != nil {
			first = err
		}
		l.general = nil
	}
	if l.errFile != nil {
		if err := l.errFile.Close(); err != nil && first == nil {
			first = err
		}
		l.errFile = nil
	}
	return first
}

func (l *Logger) open(now time.Time) error {
	day := now.Format(fileStamp)
	general, err := os.OpenFile(filepath.Join(l.dir, generalStem+day+".log"),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	errFile, err := os.OpenFile(filepath.Join(l.dir, errorStem+day+".log"),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		general.Close()
		return fmt.Errorf("open error log file: %w", err)
	}
	if l.general != nil {
		l.general.Close()
	}
	if l.errFile != nil {
		l.errFile.Close()
	}
	l.day = day
	l.general = general
	l.errFile = errFile
	return nil
}

func (l *Logger) write(level, msg string) {
	if l == nil {
		return
	}
	now := time.Now()
	line := fmt.Sprintf("%s - %s - %s - %s\n", now.Format(lineStamp), loggerName, level, msg)

	l.mu.Lock()
	defer l.mu.Unlock()
	if day := now.Format(fileStamp); day != l.day {
		if err := l.open(now); err != nil {
			fmt.Fprintf(os.Stderr, "logger: rollover failed: %v\n", err)
		}
	}
	if l.general != nil {
		l.general.WriteString(line)
	}
	if level == "ERROR" && l.errFile != nil {
		l.errFile.WriteString(line)
	}
	os.Stdout.WriteString(line)
}

// Info logs at INFO level.
func (l *Logger) Info(format string, args ...any) { l.write("INFO", fmt.Sprintf(format, args...)) }

// Warning logs at WARNING level.
func (l *Logger) Warning(format string, args ...any) {
	l.write("WARNING", fmt.Sprintf(format, args...))
}

// Error logs at ERROR level. Lines land in the dated error file as well
// as the general one.
func (l *Logger) Error(format string, args ...any) { l.write("ERROR", fmt.Sprintf(format, args...)) }

// Endpoint records one handled HTTP request. Responses with a 4xx or
// 5xx status log at ERROR so they show up in the error file.
func (l *Logger) Endpoint(method, path string, status int, elapsed time.Duration, detail map[string]any) {
	payload := map[string]any{
		"method":         method,
		"endpoint":       path,
		"status_code":    status,
		"execution_time": fmt.Sprintf("%.3fs", elapsed.Seconds()),
	}
	for k, v := range detail {
		payload[k] = v
	}
	msg := fmt.Sprintf("[%s] %s - Status: %d - %s", method, path, status, detailJSON(payload))
	if status >= 400 {
		l.write("ERROR", msg)
	} else {
		l.write("INFO", msg)
	}
}

// StoreOp records one storage operation against an entity collection.
func (l *Logger) StoreOp(op, collection string, err error, detail map[string]any) {
	payload := map[string]any{
		"operation":  op,
		"collection": collection,
	}
	for k, v := range detail {
		payload[k] = v
	}
	if err != nil {
		payload["error_message"] = err.Error()
		l.write("ERROR", fmt.Sprintf("DB_ERROR [%s] %s - %s", op, collection, detailJSON(payload)))
		return
	}
	l.write("INFO", fmt.Sprintf("DB_OPERATION [%s] %s - %s", op, collection, detailJSON(payload)))
}

// RuleViolation records a rejected business operation, such as deleting
// a director whose movies still exist.
func (l *Logger) RuleViolation(rule, details string, data map[string]any) {
	payload := map[string]any{
		"rule":    rule,
		"details": details,
	}
	for k, v := range data {
		payload[k] = v
	}
	l.write("WARNING", fmt.Sprintf("BUSINESS_RULE_VIOLATION - %s: %s - %s", rule, details, detailJSON(payload)))
}

// Timing records how long a named operation took. Anything slower than
// five seconds is flagged as a slow operation at WARNING level.
func (l *Logger) Timing(operation string, elapsed time.Duration, detail map[string]any) {
	payload := map[string]any{
		"operation":      operation,
		"execution_time": fmt.Sprintf("%.3fs", elapsed.Seconds()),
	}
	for k, v := range detail {
		payload[k] = v
	}
	if elapsed > 5*time.Second {
		l.write("WARNING", fmt.Sprintf("SLOW_OPERATION - %s took %.3fs - %s",
			operation, elapsed.Seconds(), detailJSON(payload)))
		return
	}
	l.write("INFO", fmt.Sprintf("PERFORMANCE - %s - %s", operation, detailJSON(payload)))
}

// detailJSON renders a detail map as compact JSON, dropping nil values
// to keep lines clean.
func detailJSON(payload map[string]any) string {
	for k, v := range payload {
		if v == nil {
			delete(payload, k)
		}
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%v", payload)
	}
	return string(b)
}
