package storage

import (
	"context"
	"mediacat/config"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"go.uber.org/zap"
)

// Open builds the file store a descriptor points to. Temp and local areas
// always live under root.
func Open(ctx context.Context, root string, d Descriptor, urlTTL time.Duration, log *zap.Logger) (FileStore, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	var backend Backend
	var err error
	switch d.Type {
	case TypeServer:
		return NewLocalStore(root), nil
	case TypeBackblaze:
		backend, err = NewBackblazeBackend(ctx, d.KeyID, d.Key, d.Bucket, log)
	case TypeS3:
		backend, err = NewS3Backend(d.KeyID, d.Key, d.Bucket, d.Region, d.Endpoint, log)
	}
	if err != nil {
		return nil, err
	}
	main, err := NewRemoteArea(backend, d.Path, urlTTL)
	if err != nil {
		return nil, err
	}
	return NewStore(root, main), nil
}

// Registry hands out one file store per distinct descriptor so remote
// backends authorize only once per process
type Registry struct {
	root   string
	urlTTL time.Duration
	log    *zap.Logger
	stores cmap.ConcurrentMap[string, FileStore]
}

func NewRegistry(root string, urlTTL time.Duration, log *zap.Logger) *Registry {
	return &Registry{
		root:   root,
		urlTTL: urlTTL,
		log:    log,
		stores: cmap.New[FileStore](),
	}
}

func (r *Registry) Open(ctx context.Context, d Descriptor) (FileStore, error) {
	key := d.cacheKey()
	if store, ok := r.stores.Get(key); ok {
		return store, nil
	}
	store, err := Open(ctx, r.root, d, r.urlTTL, r.log)
	if err != nil {
		r.log.Error("cannot open storage", zap.String("type", string(d.Type)), zap.Error(err))
		return nil, err
	}
	// Another goroutine may have won, keep the first one
	if !r.stores.SetIfAbsent(key, store) {
		store, _ = r.stores.Get(key)
	}
	return store, nil
}

// Root is the directory holding the temp and local areas
func (r *Registry) Root() string { return r.root }

// DefaultDescriptor is used for catalogs created without an explicit
// storage: the configured Backblaze or S3 bucket, otherwise the server disk
func DefaultDescriptor() Descriptor {
	if config.BACKBLAZE_KEY_ID != "" && config.BACKBLAZE_BUCKET != "" {
		return Descriptor{
			Type:   TypeBackblaze,
			KeyID:  config.BACKBLAZE_KEY_ID,
			Key:    config.BACKBLAZE_KEY,
			Bucket: config.BACKBLAZE_BUCKET,
			Path:   config.BACKBLAZE_PATH,
		}
	}
	if config.S3_KEY_ID != "" && config.S3_BUCKET != "" {
		return Descriptor{
			Type:     TypeS3,
			KeyID:    config.S3_KEY_ID,
			Key:      config.S3_KEY,
			Bucket:   config.S3_BUCKET,
			Path:     config.S3_PATH,
			Region:   config.S3_REGION,
			Endpoint: config.S3_ENDPOINT,
		}
	}
	return Descriptor{Type: TypeServer}
}
