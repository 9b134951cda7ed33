package scratch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	filePrefix   = "upload-"
	maxSuffixLen = 12
)

// Space stages uploads as uniquely named files under one directory.
type Space struct {
	basePath string
}

func New(basePath string) (*Space, error) {
	if basePath == "" {
		basePath = filepath.Join(os.TempDir(), "doc-classifier")
	}
	if err := os.MkdirAll(basePath, 0o700); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &Space{basePath: basePath}, nil
}

func (s *Space) Dir() string {
	return s.basePath
}

func (s *Space) Write(ctx context.Context, data []byte, suffix string) (string, func(), error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	path := filepath.Join(s.basePath, filePrefix+uuid.NewString()+sanitizeSuffix(suffix))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", nil, fmt.Errorf("create scratch file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", nil, fmt.Errorf("write scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", nil, fmt.Errorf("close scratch file: %w", err)
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			_ = os.Remove(path)
		})
	}
	return path, release, nil
}

// Sweep removes staged files older than maxAge, left behind by a crash.
func (s *Space) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return 0, fmt.Errorf("read scratch dir: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), filePrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.basePath, entry.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

// sanitizeSuffix keeps a short ".ext" made of ASCII letters and digits so the
// remote service can infer a type; anything else is dropped.
func sanitizeSuffix(suffix string) string {
	if !strings.HasPrefix(suffix, ".") || len(suffix) < 2 || len(suffix) > maxSuffixLen {
		return ""
	}
	for _, r := range suffix[1:] {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		default:
			return ""
		}
	}
	return strings.ToLower(suffix)
}
