package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// DiskArea is a storage area rooted at a directory on the local filesystem
type DiskArea struct {
	// BasePath is a directory that is writable by the current process
	BasePath  string
	dirs      map[string]bool
	dirsMutex sync.Mutex
}

func NewDiskArea(basePath string) *DiskArea {
	return &DiskArea{
		BasePath: basePath,
		dirs:     make(map[string]bool, 10),
	}
}

func (s *DiskArea) createDir(dir string) error {
	s.dirsMutex.Lock()
	defer s.dirsMutex.Unlock()

	if ok := s.dirs[dir]; ok {
		// Deletes may have removed it since
		if _, err := os.Stat(dir); err == nil {
			return nil
		}
	}
	if err := os.MkdirAll(dir, 0777); err != nil {
		return err
	}
	s.dirs[dir] = true
	return nil
}

func (s *DiskArea) forgetDirs(prefix string) {
	s.dirsMutex.Lock()
	defer s.dirsMutex.Unlock()
	for dir := range s.dirs {
		if dir == prefix || len(dir) > len(prefix) && dir[:len(prefix)+1] == prefix+string(filepath.Separator) {
			delete(s.dirs, dir)
		}
	}
}

func (s *DiskArea) getFullPath(name string) (string, error) {
	cleaned, err := cleanPath(name)
	if err != nil {
		return "", err
	}
	if cleaned == "" {
		return s.BasePath, nil
	}
	return filepath.Join(s.BasePath, filepath.FromSlash(cleaned)), nil
}

func (s *DiskArea) GetPath(name string) (string, error) {
	fileName, err := s.getFullPath(name)
	if err != nil {
		return "", err
	}
	if err := s.createDir(filepath.Dir(fileName)); err != nil {
		return "", err
	}
	return fileName, nil
}

func (s *DiskArea) GetStream(_ context.Context, name string) (io.ReadCloser, error) {
	fileName, err := s.getFullPath(name)
	if err != nil {
		return nil, err
	}
	return os.Open(fileName)
}

func (s *DiskArea) Save(name string, reader io.Reader) (int64, error) {
	fileName, err := s.GetPath(name)
	if err != nil {
		return 0, err
	}
	file, err := os.Create(fileName)
	if err != nil {
		return 0, err
	}
	result, err := io.Copy(file, reader)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return result, err
}

func (s *DiskArea) Delete(_ context.Context, name string) error {
	fileName, err := s.getFullPath(name)
	if err != nil {
		return err
	}
	s.forgetDirs(fileName)
	if fileName == s.BasePath {
		entries, err := os.ReadDir(fileName)
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if err := os.RemoveAll(filepath.Join(fileName, entry.Name())); err != nil {
				return err
			}
		}
		return nil
	}
	return os.RemoveAll(fileName)
}

func (s *DiskArea) GetSize(name string) int64 {
	fileName, err := s.getFullPath(name)
	if err != nil {
		return -1
	}
	fi, err := os.Stat(fileName)
	if err != nil {
		return -1
	}
	return fi.Size()
}

func (s *DiskArea) Move(src, dst string) error {
	from, err := s.getFullPath(src)
	if err != nil {
		return err
	}
	to, err := s.GetPath(dst)
	if err != nil {
		return err
	}
	return os.Rename(from, to)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
