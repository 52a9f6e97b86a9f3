// Package capture persists raw completion payloads for debugging.
package capture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileSink writes each payload as an indented JSON file inside one
// directory per session.
type FileSink struct {
	sessionID string
	dir       string
}

// NewFileSink creates a session directory under root. The caller should
// leave capture disabled when this fails.
func NewFileSink(root string) (*FileSink, error) {
	if root == "" {
		return nil, fmt.Errorf("capture directory not configured")
	}

	id := uuid.New().String()
	dir := filepath.Join(root, time.Now().Format("20060102-150405")+"-"+id[:8])

	// 0700: payloads contain the whole conversation
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create capture directory: %w", err)
	}

	return &FileSink{sessionID: id, dir: dir}, nil
}

func (s *FileSink) SessionID() string {
	return s.sessionID
}

func (s *FileSink) Dir() string {
	return s.dir
}

// Capture writes payload to <dir>/<name>.json.
func (s *FileSink) Capture(name string, payload any) error {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return fmt.Errorf("invalid capture name %q", name)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	path := filepath.Join(s.dir, name+".json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write capture file: %w", err)
	}
	return nil
}
