// Package files stores uploaded lease documents on disk, organised by
// upload date with collision-free names.
package files

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/donexus/lease-extract/internal/config"
)

// Manager saves, locates and removes uploaded documents under a root
// upload directory, one subdirectory per day.
type Manager struct {
	dir        string
	maxBytes   int64
	extensions map[string]bool

	now func() time.Time
}

// NewManager creates the upload directory if needed.
func NewManager(cfg config.UploadConfig) (*Manager, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "./uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "files: create upload dir %s", dir)
	}

	maxMB := cfg.MaxFileSizeMB
	if maxMB <= 0 {
		maxMB = 10
	}

	exts := map[string]bool{}
	for _, e := range cfg.Extensions {
		exts[strings.ToLower(e)] = true
	}
	if len(exts) == 0 {
		exts[".pdf"] = true
		exts[".txt"] = true
	}

	return &Manager{
		dir:        dir,
		maxBytes:   maxMB * 1024 * 1024,
		extensions: exts,
		now:        time.Now,
	}, nil
}

// ValidateFilename rejects names with path separators and unsupported
// extensions before any bytes are read.
func (m *Manager) ValidateFilename(filename string) error {
	if filename == "" {
		return eris.New("files: no filename provided")
	}
	if strings.Contains(filename, "..") ||
		strings.ContainsAny(filename, `/\`) {
		return eris.Errorf("files: invalid filename %q", filename)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !m.extensions[ext] {
		return eris.Errorf("files: file type %q not allowed", ext)
	}
	return nil
}

// Save streams r to disk under today's date directory. The stored name is
// <short-uuid>_<sanitized-stem><ext>. Returns the stored path.
func (m *Manager) Save(r io.Reader, filename string) (string, error) {
	if err := m.ValidateFilename(filename); err != nil {
		return "", err
	}

	dateDir := filepath.Join(m.dir, m.now().Format("2006-01-02"))
	if err := os.MkdirAll(dateDir, 0o755); err != nil {
		return "", eris.Wrap(err, "files: create date dir")
	}

	stored := storageName(filename)
	path := filepath.Join(dateDir, stored)

	f, err := os.Create(path)
	if err != nil {
		return "", eris.Wrap(err, "files: create file")
	}
	defer f.Close()

	n, err := io.Copy(f, io.LimitReader(r, m.maxBytes+1))
	if err != nil {
		os.Remove(path)
		return "", eris.Wrap(err, "files: write file")
	}
	if n > m.maxBytes {
		os.Remove(path)
		return "", eris.Errorf("files: file exceeds %d byte limit", m.maxBytes)
	}
	if n == 0 {
		os.Remove(path)
		return "", eris.New("files: uploaded file is empty")
	}

	zap.L().Info("file saved",
		zap.String("original", filename),
		zap.String("stored", stored),
		zap.Int64("bytes", n))
	return path, nil
}

// Delete removes a stored file. Missing files are not an error.
func (m *Manager) Delete(path string) error {
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			zap.L().Warn("file already gone", zap.String("path", path))
			return nil
		}
		return eris.Wrapf(err, "files: delete %s", path)
	}
	zap.L().Info("file deleted", zap.String("path", path))
	return nil
}

// List returns all stored files, sorted, optionally filtered to one
// date directory (YYYY-MM-DD).
func (m *Manager) List(date string) ([]string, error) {
	var dirs []string
	if date != "" {
		dirs = []string{filepath.Join(m.dir, date)}
	} else {
		entries, err := os.ReadDir(m.dir)
		if err != nil {
			return nil, eris.Wrap(err, "files: read upload dir")
		}
		for _, e := range entries {
			if e.IsDir() {
				dirs = append(dirs, filepath.Join(m.dir, e.Name()))
			}
		}
	}

	var out []string
	for _, d := range dirs {
		entries, err := os.ReadDir(d)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, eris.Wrapf(err, "files: read %s", d)
		}
		for _, e := range entries {
			if !e.IsDir() {
				out = append(out, filepath.Join(d, e.Name()))
			}
		}
	}
	return out, nil
}

// storageName builds "<8-char-uuid>_<sanitized-stem><ext>".
func storageName(filename string) string {
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filepath.Base(filename), ext)

	var safe strings.Builder
	for _, r := range stem {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_':
			safe.WriteRune(r)
		case r == ' ':
			safe.WriteByte('_')
		}
	}
	return uuid.New().String()[:8] + "_" + safe.String() + strings.ToLower(ext)
}
