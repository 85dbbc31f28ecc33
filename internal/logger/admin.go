package logger

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// This file backs the logs inspection API: listing files, tailing the
// current day, aggregate statistics and cleanup of old files. Everything
// operates on the dated files written by Logger, parsing the same
// "timestamp - name - level - message" line format back apart.

// FileInfo describes one log file on disk.
type FileInfo struct {
	Filename     string    `json:"filename"`
	SizeBytes    int64     `json:"size_bytes"`
	SizeMB       float64   `json:"size_mb"`
	LastModified time.Time `json:"last_modified"`
	Type         string    `json:"type"`
}

// Files lists every log file in the directory, newest first.
func (l *Logger) Files() ([]FileInfo, error) {
	paths, err := filepath.Glob(filepath.Join(l.dir, "*.log"))
	if err != nil {
		return nil, err
	}
	out := make([]FileInfo, 0, len(paths))
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			continue
		}
		name := filepath.Base(p)
		kind := "general"
		if strings.Contains(name, "error") {
			kind = "error"
		}
		out = append(out, FileInfo{
			Filename:     name,
			SizeBytes:    st.Size(),
			SizeMB:       mb(st.Size()),
			LastModified: st.ModTime().UTC(),
			Type:         kind,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastModified.After(out[j].LastModified) })
	return out, nil
}

// Entry is one parsed log line. Data holds the trailing JSON payload
// when the line carries one.
type Entry struct {
	Timestamp string         `json:"timestamp"`
	Logger    string         `json:"logger"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	Raw       string         `json:"raw_line"`
}

// Recent returns up to lines entries from the end of today's file.
// logType "error" selects the error file, anything else the general
// one; level filters to a single level when non-empty. The second
// return value names the file that was read.
func (l *Logger) Recent(lines int, logType, level string) ([]Entry, string, error) {
	stem := generalStem
	if logType == "error" {
		stem = errorStem
	}
	name := stem + time.Now().Format(fileStamp) + ".log"
	path := filepath.Join(l.dir, name)

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, name, nil
		}
		return nil, name, err
	}

	all := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	if len(all) > lines {
		all = all[len(all)-lines:]
	}

	out := make([]Entry, 0, len(all))
	for _, line := range all {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		e := parseLine(line)
		if level != "" && !strings.EqualFold(e.Level, level) {
			continue
		}
		out = append(out, e)
	}
	return out, name, nil
}

// parseLine splits "timestamp - name - level - message" and pulls a
// trailing JSON object out of the message when present. Unparseable
// lines come back with the raw text as the message.
func parseLine(line string) Entry {
	parts := strings.SplitN(line, " - ", 4)
	if len(parts) < 4 {
		return Entry{Message: line, Raw: line}
	}
	e := Entry{
		Timestamp: parts[0],
		Logger:    parts[1],
		Level:     parts[2],
		Message:   parts[3],
		Raw:       line,
	}
	if i := strings.Index(e.Message, " - {"); i >= 0 {
		var data map[string]any
		if err := json.Unmarshal([]byte(e.Message[i+3:]), &data); err == nil {
			e.Data = data
			e.Message = e.Message[:i]
		}
	} else if strings.HasPrefix(e.Message, "{") {
		var data map[string]any
		if err := json.Unmarshal([]byte(e.Message), &data); err == nil {
			e.Data = data
		}
	}
	return e
}

// Stats aggregates level, endpoint and per-day counts across all log
// files. Files larger than 10 MB are counted but not scanned.
type Stats struct {
	TotalFiles   int            `json:"total_files"`
	TotalSizeMB  float64        `json:"total_size_mb"`
	ByLevel      map[string]int `json:"by_level"`
	ByEndpoint   map[string]int `json:"by_endpoint"`
	ByDay        map[string]int `json:"by_day"`
	RecentErrors []string       `json:"recent_errors"`
}

const maxScanBytes = 10 * 1024 * 1024

// Statistics walks the log directory and builds a Stats summary.
func (l *Logger) Statistics() (*Stats, error) {
	paths, err := filepath.Glob(filepath.Join(l.dir, "*.log"))
	if err != nil {
		return nil, err
	}
	stats := &Stats{
		ByLevel:      map[string]int{"INFO": 0, "WARNING": 0, "ERROR": 0},
		ByEndpoint:   map[string]int{},
		ByDay:        map[string]int{},
		RecentErrors: []string{},
	}
	var totalBytes int64
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			continue
		}
		stats.TotalFiles++
		totalBytes += st.Size()

		name := filepath.Base(p)
		day := ""
		if strings.HasPrefix(name, generalStem) {
			day = strings.TrimSuffix(strings.TrimPrefix(name, generalStem), ".log")
			if _, ok := stats.ByDay[day]; !ok {
				stats.ByDay[day] = 0
			}
		}
		if st.Size() >= maxScanBytes {
			continue
		}
		raw, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		for _, line := range strings.Split(string(raw), "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			if day != "" {
				stats.ByDay[day]++
			}
			for _, level := range []string{"INFO", "WARNING", "ERROR"} {
				if strings.Contains(line, " - "+level+" - ") {
					stats.ByLevel[level]++
					break
				}
			}
			for _, method := range []string{"GET", "POST", "PUT", "DELETE"} {
				marker := " [" + method + "] "
				i := strings.Index(line, marker)
				if i < 0 {
					continue
				}
				rest := line[i+len(marker):]
				if j := strings.Index(rest, " - Status:"); j > 0 {
					stats.ByEndpoint[method+" "+rest[:j]]++
				}
				break
			}
			if strings.Contains(line, " - ERROR - ") && len(stats.RecentErrors) < 10 {
				stats.RecentErrors = append(stats.RecentErrors, strings.TrimSpace(line))
			}
		}
	}
	stats.TotalSizeMB = mb(totalBytes)
	return stats, nil
}

// DeletedFile describes one file removed by Clean.
type DeletedFile struct {
	Filename     string    `json:"filename"`
	SizeMB       float64   `json:"size_mb"`
	LastModified time.Time `json:"last_modified"`
}

// CleanResult summarises a cleanup run.
type CleanResult struct {
	DeletedFiles       []DeletedFile `json:"deleted_files"`
	TotalDeleted       int           `json:"total_deleted"`
	TotalSizeDeletedMB float64       `json:"total_size_deleted_mb"`
	CutoffDate         time.Time     `json:"cutoff_date"`
}

// Clean removes log files last modified more than olderThanDays ago.
// Today's open files are never older than that, so they survive.
func (l *Logger) Clean(olderThanDays int) (*CleanResult, error) {
	if olderThanDays < 1 {
		return nil, fmt.Errorf("days_older_than must be at least 1")
	}
	paths, err := filepath.Glob(filepath.Join(l.dir, "*.log"))
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	res := &CleanResult{DeletedFiles: []DeletedFile{}, CutoffDate: cutoff.UTC()}
	var deletedBytes int64
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil || !st.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(p); err != nil {
			l.Error("failed to remove log file %s: %v", filepath.Base(p), err)
			continue
		}
		res.DeletedFiles = append(res.DeletedFiles, DeletedFile{
			Filename:     filepath.Base(p),
			SizeMB:       mb(st.Size()),
			LastModified: st.ModTime().UTC(),
		})
		deletedBytes += st.Size()
		l.Info("log file removed: %s", filepath.Base(p))
	}
	res.TotalDeleted = len(res.DeletedFiles)
	res.TotalSizeDeletedMB = mb(deletedBytes)
	return res, nil
}

func mb(n int64) float64 {
	return math.Round(float64(n)/(1024*1024)*100) / 100
}
