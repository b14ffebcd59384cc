package storage

import (
	"context"
	"path/filepath"
)

// TransferArea is a main area that is not on the local filesystem, files
// are moved in and out of it with explicit uploads and downloads
type TransferArea interface {
	Area
	Upload(ctx context.Context, name, localPath string) error
	Download(ctx context.Context, name, localPath string) error
}

// Store is a file store with temp and local areas on disk under root and
// a main area that is either on disk too or remote
type Store struct {
	temp  *DiskArea
	local *DiskArea
	main  Area
}

// NewStore lays out <root>/temp and <root>/local and uses main as is
func NewStore(root string, main Area) *Store {
	return &Store{
		temp:  NewDiskArea(filepath.Join(root, AreaTemp)),
		local: NewDiskArea(filepath.Join(root, AreaLocal)),
		main:  main,
	}
}

// NewLocalStore keeps all three areas under root
func NewLocalStore(root string) *Store {
	return NewStore(root, NewDiskArea(filepath.Join(root, AreaMain)))
}

func (s *Store) Temp() LocalArea  { return s.temp }
func (s *Store) Local() LocalArea { return s.local }
func (s *Store) Main() Area       { return s.main }

func copyLocal(from, to LocalArea, src, dst string) error {
	srcPath, err := from.GetPath(src)
	if err != nil {
		return err
	}
	dstPath, err := to.GetPath(dst)
	if err != nil {
		return err
	}
	return copyFile(srcPath, dstPath)
}

func (s *Store) toMain(ctx context.Context, from LocalArea, src, dst string) error {
	switch main := s.main.(type) {
	case LocalArea:
		return copyLocal(from, main, src, dst)
	case TransferArea:
		srcPath, err := from.GetPath(src)
		if err != nil {
			return err
		}
		return main.Upload(ctx, dst, srcPath)
	}
	return ErrCannotCopy
}

func (s *Store) fromMain(ctx context.Context, to LocalArea, src, dst string) error {
	switch main := s.main.(type) {
	case LocalArea:
		return copyLocal(main, to, src, dst)
	case TransferArea:
		dstPath, err := to.GetPath(dst)
		if err != nil {
			return err
		}
		return main.Download(ctx, src, dstPath)
	}
	return ErrCannotCopy
}

func (s *Store) CopyTempToLocal(_ context.Context, src, dst string) error {
	return copyLocal(s.temp, s.local, src, dst)
}

func (s *Store) CopyLocalToTemp(_ context.Context, src, dst string) error {
	return copyLocal(s.local, s.temp, src, dst)
}

func (s *Store) CopyTempToMain(ctx context.Context, src, dst string) error {
	return s.toMain(ctx, s.temp, src, dst)
}

func (s *Store) CopyLocalToMain(ctx context.Context, src, dst string) error {
	return s.toMain(ctx, s.local, src, dst)
}

func (s *Store) CopyMainToTemp(ctx context.Context, src, dst string) error {
	return s.fromMain(ctx, s.temp, src, dst)
}

func (s *Store) CopyMainToLocal(ctx context.Context, src, dst string) error {
	return s.fromMain(ctx, s.local, src, dst)
}

func (s *Store) Delete(ctx context.Context, path string) error {
	for _, area := range []Area{s.temp, s.local, s.main} {
		if err := area.Delete(ctx, path); err != nil {
			return err
		}
	}
	return nil
}
