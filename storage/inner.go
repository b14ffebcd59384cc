package storage

import (
	"context"
	"io"
)

// InnerFileStore prefixes every path of an existing file store with a
// fixed namespace
type InnerFileStore struct {
	outer  FileStore
	prefix string
}

func NewInnerFileStore(outer FileStore, prefix string) (*InnerFileStore, error) {
	cleaned, err := cleanPath(prefix)
	if err != nil {
		return nil, err
	}
	return &InnerFileStore{outer: outer, prefix: cleaned}, nil
}

// Prefix is the namespace inside the outer store
func (s *InnerFileStore) Prefix() string { return s.prefix }

func (s *InnerFileStore) path(name string) (string, error) {
	cleaned, err := cleanPath(name)
	if err != nil {
		return "", err
	}
	return joinPath(s.prefix, cleaned), nil
}

func (s *InnerFileStore) Temp() LocalArea {
	return &innerLocalArea{innerArea{s.outer.Temp(), s}}
}

func (s *InnerFileStore) Local() LocalArea {
	return &innerLocalArea{innerArea{s.outer.Local(), s}}
}

func (s *InnerFileStore) Main() Area {
	return wrapArea(s.outer.Main(), s)
}

func (s *InnerFileStore) copy(ctx context.Context, fn func(context.Context, string, string) error, src, dst string) error {
	srcPath, err := s.path(src)
	if err != nil {
		return err
	}
	dstPath, err := s.path(dst)
	if err != nil {
		return err
	}
	return fn(ctx, srcPath, dstPath)
}

func (s *InnerFileStore) CopyTempToLocal(ctx context.Context, src, dst string) error {
	return s.copy(ctx, s.outer.CopyTempToLocal, src, dst)
}

func (s *InnerFileStore) CopyTempToMain(ctx context.Context, src, dst string) error {
	return s.copy(ctx, s.outer.CopyTempToMain, src, dst)
}

func (s *InnerFileStore) CopyLocalToTemp(ctx context.Context, src, dst string) error {
	return s.copy(ctx, s.outer.CopyLocalToTemp, src, dst)
}

func (s *InnerFileStore) CopyLocalToMain(ctx context.Context, src, dst string) error {
	return s.copy(ctx, s.outer.CopyLocalToMain, src, dst)
}

func (s *InnerFileStore) CopyMainToTemp(ctx context.Context, src, dst string) error {
	return s.copy(ctx, s.outer.CopyMainToTemp, src, dst)
}

func (s *InnerFileStore) CopyMainToLocal(ctx context.Context, src, dst string) error {
	return s.copy(ctx, s.outer.CopyMainToLocal, src, dst)
}

func (s *InnerFileStore) Delete(ctx context.Context, name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	return s.outer.Delete(ctx, p)
}

// wrapArea keeps the capabilities of the outer area visible through the prefix
func wrapArea(area Area, s *InnerFileStore) Area {
	base := innerArea{area, s}
	switch area.(type) {
	case LocalArea:
		return &innerLocalArea{base}
	case URLArea:
		return &innerURLArea{base}
	}
	return &base
}

type innerArea struct {
	area  Area
	store *InnerFileStore
}

func (a *innerArea) Delete(ctx context.Context, name string) error {
	p, err := a.store.path(name)
	if err != nil {
		return err
	}
	return a.area.Delete(ctx, p)
}

type innerLocalArea struct {
	innerArea
}

func (a *innerLocalArea) GetPath(name string) (string, error) {
	p, err := a.store.path(name)
	if err != nil {
		return "", err
	}
	return a.area.(LocalArea).GetPath(p)
}

func (a *innerLocalArea) GetStream(ctx context.Context, name string) (io.ReadCloser, error) {
	p, err := a.store.path(name)
	if err != nil {
		return nil, err
	}
	return a.area.(LocalArea).GetStream(ctx, p)
}

func (a *innerLocalArea) Save(name string, reader io.Reader) (int64, error) {
	p, err := a.store.path(name)
	if err != nil {
		return 0, err
	}
	return a.area.(LocalArea).Save(p, reader)
}

func (a *innerLocalArea) GetSize(name string) int64 {
	p, err := a.store.path(name)
	if err != nil {
		return -1
	}
	return a.area.(LocalArea).GetSize(p)
}

func (a *innerLocalArea) Move(src, dst string) error {
	from, err := a.store.path(src)
	if err != nil {
		return err
	}
	to, err := a.store.path(dst)
	if err != nil {
		return err
	}
	return a.area.(LocalArea).Move(from, to)
}

type innerURLArea struct {
	innerArea
}

func (a *innerURLArea) GetURL(ctx context.Context, name string) (string, error) {
	p, err := a.store.path(name)
	if err != nil {
		return "", err
	}
	return a.area.(URLArea).GetURL(ctx, p)
}

func (a *innerURLArea) GetStream(ctx context.Context, name string) (io.ReadCloser, error) {
	p, err := a.store.path(name)
	if err != nil {
		return nil, err
	}
	return OpenStream(ctx, a.area, p)
}
