package storage

import (
	"context"
	"io"
	"os"
	"time"
)

const DefaultURLTTL = time.Hour

// Backend is an object store holding the main area of remote catalogs
type Backend interface {
	Upload(ctx context.Context, key, localPath string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	// DeletePrefix removes key and every object below key+"/", all versions
	DeletePrefix(ctx context.Context, key string) error
}

// RemoteArea maps area names to object keys under a configured prefix
type RemoteArea struct {
	backend Backend
	prefix  string
	ttl     time.Duration
}

func NewRemoteArea(backend Backend, prefix string, ttl time.Duration) (*RemoteArea, error) {
	cleaned, err := cleanPath(prefix)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultURLTTL
	}
	return &RemoteArea{backend: backend, prefix: cleaned, ttl: ttl}, nil
}

func (a *RemoteArea) key(name string) (string, error) {
	cleaned, err := cleanPath(name)
	if err != nil {
		return "", err
	}
	return joinPath(a.prefix, cleaned), nil
}

func (a *RemoteArea) GetURL(ctx context.Context, name string) (string, error) {
	key, err := a.key(name)
	if err != nil {
		return "", err
	}
	return a.backend.SignedURL(ctx, key, a.ttl)
}

func (a *RemoteArea) GetStream(ctx context.Context, name string) (io.ReadCloser, error) {
	key, err := a.key(name)
	if err != nil {
		return nil, err
	}
	return a.backend.Open(ctx, key)
}

func (a *RemoteArea) Delete(ctx context.Context, name string) error {
	key, err := a.key(name)
	if err != nil {
		return err
	}
	return a.backend.DeletePrefix(ctx, key)
}

func (a *RemoteArea) Upload(ctx context.Context, name, localPath string) error {
	key, err := a.key(name)
	if err != nil {
		return err
	}
	return a.backend.Upload(ctx, key, localPath)
}

func (a *RemoteArea) Download(ctx context.Context, name, localPath string) error {
	reader, err := a.GetStream(ctx, name)
	if err != nil {
		return err
	}
	defer reader.Close()
	out, err := os.Create(localPath)
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, reader); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// matchesPrefix tells whether key is prefix itself or lies below it
func matchesPrefix(key, prefix string) bool {
	if prefix == "" {
		return true
	}
	return key == prefix || len(key) > len(prefix) && key[:len(prefix)+1] == prefix+"/"
}
