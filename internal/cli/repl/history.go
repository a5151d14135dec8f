package repl

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/yndnr/booklend-go/internal/telemetry/logger"
)

// History keeps recent shell lines, persisted to a file.
type History struct {
	entries []string
	maxSize int
	file    string
}

// NewHistory creates a History stored at ~/.booklend/history.
func NewHistory() *History {
	homeDir, _ := os.UserHomeDir()
	return NewHistoryAt(filepath.Join(homeDir, ".booklend", "history"))
}

// NewHistoryAt creates a History stored at path. An empty path keeps
// history in memory only.
func NewHistoryAt(path string) *History {
	return &History{maxSize: 1000, file: path}
}

// Add records a line. Lines carrying credentials (--password, --token)
// are never recorded.
func (h *History) Add(line string) {
	if sensitive(line) {
		return
	}
	h.entries = append(h.entries, line)
	if len(h.entries) > h.maxSize {
		h.entries = h.entries[len(h.entries)-h.maxSize:]
	}
}

// Get returns the history entry at index (0 = most recent).
func (h *History) Get(index int) string {
	if index < 0 || index >= len(h.entries) {
		return ""
	}
	return h.entries[len(h.entries)-1-index]
}

// Entries returns all entries, oldest first.
func (h *History) Entries() []string {
	return append([]string(nil), h.entries...)
}

// Load loads history from file. A missing file is not an error.
func (h *History) Load() error {
	if h.file == "" {
		return nil
	}
	file, err := os.Open(h.file)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			h.Add(line)
		}
	}
	return scanner.Err()
}

// Save writes history to file with owner-only permissions.
func (h *History) Save() error {
	if h.file == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(h.file), 0700); err != nil {
		return err
	}

	var sb strings.Builder
	for _, entry := range h.entries {
		sb.WriteString(entry)
		sb.WriteByte('\n')
	}
	return os.WriteFile(h.file, []byte(sb.String()), 0600)
}

// sensitive reports whether any flag in line names a secret.
func sensitive(line string) bool {
	for _, field := range strings.Fields(line) {
		name, ok := strings.CutPrefix(field, "--")
		if !ok {
			continue
		}
		name, _, _ = strings.Cut(name, "=")
		if logger.IsSensitiveKey(name) {
			return true
		}
	}
	return false
}
