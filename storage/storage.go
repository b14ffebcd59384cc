package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

const (
	AreaTemp  = "temp"
	AreaLocal = "local"
	AreaMain  = "main"
)

var (
	ErrInvalidPath = errors.New("invalid storage path")
	ErrCannotCopy  = errors.New("unsupported copy between storage areas")
)

// Area is a named region of a file store
type Area interface {
	// Delete removes path and everything below it. An empty path wipes the area root.
	Delete(ctx context.Context, path string) error
}

// LocalArea lives on the local filesystem
type LocalArea interface {
	Area
	// GetPath returns the absolute path for name, creating its parent directory
	GetPath(name string) (string, error)
	GetStream(ctx context.Context, name string) (io.ReadCloser, error)
	// Save writes reader into name, replacing any previous content
	Save(name string, reader io.Reader) (int64, error)
	// GetSize returns the size of name in bytes, or -1 if it cannot be read
	GetSize(name string) int64
	// Move renames src to dst inside the area, replacing dst
	Move(src, dst string) error
}

// URLArea vends globally fetchable URLs with a bounded lifetime
type URLArea interface {
	Area
	GetURL(ctx context.Context, name string) (string, error)
}

// StreamArea can stream its objects back
type StreamArea interface {
	Area
	GetStream(ctx context.Context, name string) (io.ReadCloser, error)
}

// FileStore exposes the three storage areas of one namespace.
// Main is either a LocalArea or a remote area implementing URLArea and
// StreamArea; callers must type-assert for the capability they need.
type FileStore interface {
	Temp() LocalArea
	Local() LocalArea
	Main() Area

	CopyTempToLocal(ctx context.Context, src, dst string) error
	CopyTempToMain(ctx context.Context, src, dst string) error
	CopyLocalToTemp(ctx context.Context, src, dst string) error
	CopyLocalToMain(ctx context.Context, src, dst string) error
	CopyMainToTemp(ctx context.Context, src, dst string) error
	CopyMainToLocal(ctx context.Context, src, dst string) error

	// Delete removes path from all three areas
	Delete(ctx context.Context, path string) error
}

// cleanPath normalizes a relative storage path and refuses anything
// escaping the area root
func cleanPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	cleaned := path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", nil
	}
	for _, part := range strings.Split(p, "/") {
		if part == ".." {
			return "", ErrInvalidPath
		}
	}
	return cleaned, nil
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	if name == "" {
		return prefix
	}
	return prefix + "/" + name
}

// OpenStream returns a reader for name in area, whatever kind of area it is
func OpenStream(ctx context.Context, area Area, name string) (io.ReadCloser, error) {
	if s, ok := area.(StreamArea); ok {
		return s.GetStream(ctx, name)
	}
	return nil, errors.New("storage area cannot stream")
}
