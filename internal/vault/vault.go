// Package vault enumerates the note files of a vault directory.
package vault

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	recallerrors "github.com/notewell/recall/internal/errors"
)

// DataDirName is the recall data directory inside a vault. It is never
// indexed.
const DataDirName = ".recall"

// DefaultMaxFileSize is the per-note size cap in bytes.
const DefaultMaxFileSize = 1024 * 1024

// Document is one note discovered in the vault.
type Document struct {
	// ID is the vault-relative path, with forward slashes. It doubles
	// as the source ID in the index.
	ID string
	// Path is the absolute file path.
	Path string
	// ModTime is the file's modification time.
	ModTime time.Time
	// Size is the file size in bytes.
	Size int64
}

// Load reads the document content.
func (d Document) Load() (string, error) {
	data, err := os.ReadFile(d.Path)
	if err != nil {
		return "", recallerrors.CacheError(recallerrors.ErrCodeCacheRead,
			"failed to read note "+d.ID, err)
	}
	return string(data), nil
}

// Vault is a directory of notes.
type Vault struct {
	root        string
	extensions  map[string]struct{}
	maxFileSize int64
}

// Options configures vault enumeration.
type Options struct {
	// Extensions lists the note extensions to include, e.g. ".md".
	Extensions []string
	// MaxFileSize skips files larger than this many bytes.
	MaxFileSize int64
}

// New creates a vault rooted at dir. The root must exist and be a
// directory.
func New(dir string, opts Options) (*Vault, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, recallerrors.ConfigError("failed to resolve vault root", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, recallerrors.ConfigError("vault root does not exist: "+abs, err)
	}
	if !info.IsDir() {
		return nil, recallerrors.ConfigError("vault root is not a directory: "+abs, nil)
	}

	exts := opts.Extensions
	if len(exts) == 0 {
		exts = []string{".md", ".txt"}
	}
	extSet := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		extSet[strings.ToLower(e)] = struct{}{}
	}

	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	return &Vault{root: abs, extensions: extSet, maxFileSize: maxSize}, nil
}

// Root returns the absolute vault root.
func (v *Vault) Root() string { return v.root }

// Documents walks the vault and returns its notes sorted by ID. Hidden
// directories and the recall data directory are skipped, as are
// symlinks and oversized files.
func (v *Vault) Documents() ([]Document, error) {
	var docs []Document

	err := filepath.WalkDir(v.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("skipping unreadable vault entry",
				slog.String("path", path), slog.Any("error", err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		if d.IsDir() {
			if path == v.root {
				return nil
			}
			if strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if !v.Indexable(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			slog.Warn("skipping note without file info",
				slog.String("path", path), slog.Any("error", err))
			return nil
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			return nil
		}
		if info.Size() > v.maxFileSize {
			slog.Debug("skipping oversized note",
				slog.String("path", path), slog.Int64("size", info.Size()))
			return nil
		}

		id, err := v.SourceID(path)
		if err != nil {
			return nil
		}
		docs = append(docs, Document{
			ID:      id,
			Path:    path,
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, recallerrors.CacheError(recallerrors.ErrCodeCacheRead,
			"failed to walk vault", err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// Lookup stats a single path and returns it as a Document when it is
// an indexable note.
func (v *Vault) Lookup(path string) (Document, bool) {
	if !v.Indexable(path) {
		return Document{}, false
	}
	info, err := os.Lstat(path)
	if err != nil || info.IsDir() || info.Mode()&fs.ModeSymlink != 0 {
		return Document{}, false
	}
	if info.Size() > v.maxFileSize {
		return Document{}, false
	}
	id, err := v.SourceID(path)
	if err != nil {
		return Document{}, false
	}
	return Document{ID: id, Path: path, ModTime: info.ModTime(), Size: info.Size()}, true
}

// Indexable reports whether a path is a note this vault would index:
// matching extension, not hidden, and outside the data directory.
func (v *Vault) Indexable(path string) bool {
	if _, ok := v.extensions[strings.ToLower(filepath.Ext(path))]; !ok {
		return false
	}
	rel, err := filepath.Rel(v.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") {
			return false
		}
	}
	return true
}

// SourceID converts an absolute path to the vault-relative source ID.
func (v *Vault) SourceID(path string) (string, error) {
	rel, err := filepath.Rel(v.root, path)
	if err != nil {
		return "", recallerrors.New(recallerrors.ErrCodeInvalidInput,
			"path is outside the vault: "+path, err)
	}
	return filepath.ToSlash(rel), nil
}
