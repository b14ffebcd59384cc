package service

import (
	"context"
	"io"
	"mediacat/fault"
	"mediacat/models"
	"mediacat/processing"
	"mediacat/storage"
	"mediacat/utils"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MediaInput carries the optional parts of a create or update. Nil
// relation lists are left alone, empty ones clear the membership.
type MediaInput struct {
	Catalog  *string        `json:"catalog"`
	Albums   []string       `json:"albums"`
	Tags     []string       `json:"tags"`
	People   []string       `json:"people"`
	Metadata map[string]any `json:"metadata"`
}

// Payload is an uploaded file
type Payload struct {
	Reader   io.Reader
	Filename string
}

// MediaDetails is a media with its effective metadata and memberships
type MediaDetails struct {
	models.Media
	Metadata map[string]any `json:"metadata"`
	Albums   []string       `json:"albums"`
	Tags     []string       `json:"tags"`
	People   []string       `json:"people"`
}

// Location tells where a stored file can be fetched from, either a local
// path or a signed URL
type Location struct {
	Path     string
	URL      string
	Filename string
	MimeType string
}

const (
	VariantOriginal = ""
	VariantH264     = "h264"
	VariantVP9      = "vp9"
)

var variantNames = map[string]string{
	VariantH264: "h264.mp4",
	VariantVP9:  "vp9.mp4",
}

func (s *Service) media(user *models.User, id string, modify bool) (models.Media, error) {
	media, err := models.GetMedia(s.db, id)
	if err != nil {
		return media, err
	}
	return media, s.check(user, media.CatalogID, modify)
}

func (s *Service) details(media models.Media) (MediaDetails, error) {
	d := MediaDetails{Media: media, Metadata: media.Metadata().Serialize()}
	var err error
	if d.Albums, err = media.AlbumIDs(s.db); err != nil {
		return d, err
	}
	if d.Tags, err = media.TagIDs(s.db); err != nil {
		return d, err
	}
	if d.People, err = media.PersonIDs(s.db); err != nil {
		return d, err
	}
	return d, nil
}

func (s *Service) GetMedia(user *models.User, id string) (MediaDetails, error) {
	media, err := s.media(user, id, false)
	if err != nil {
		return MediaDetails{}, err
	}
	return s.details(media)
}

// apply writes the relations and metadata overrides of in to media
func apply(tx *gorm.DB, media *models.Media, in MediaInput) error {
	if in.Albums != nil {
		if err := media.SetAlbums(tx, in.Albums); err != nil {
			return err
		}
	}
	if in.Tags != nil {
		if err := media.SetTags(tx, in.Tags); err != nil {
			return err
		}
	}
	if in.People != nil {
		if err := media.SetPeople(tx, in.People); err != nil {
			return err
		}
	}
	if in.Metadata != nil {
		return media.Metadata().Deserialize(in.Metadata)
	}
	return nil
}

// targetName keeps the extension of the uploaded file, the ingest derives
// one from the mimetype otherwise
func targetName(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return ""
	}
	return processing.SourceName + ext
}

// stagedPrefix names a replacement payload written to temp before the
// update that carries it is committed
const stagedPrefix = "upload-"

// writePayload stores the upload as name in the temp area of the media
func (s *Service) writePayload(temp storage.LocalArea, name string, p *Payload) error {
	path, err := temp.GetPath(name)
	if err != nil {
		return fault.ServerError.Wrap(err, nil)
	}
	free, err := storage.FreeSpace(filepath.Dir(path))
	if err != nil {
		return fault.ServerError.Wrap(err, nil)
	}
	if free < s.minFreeSpace {
		s.log.Error("upload refused, temp is full", zap.Uint64("free", free))
		return fault.ServerError.New(fault.Args{"reason": "not enough free space"})
	}
	if _, err := temp.Save(name, p.Reader); err != nil {
		return fault.ServerError.Wrap(err, nil)
	}
	return nil
}

// replacePayload drops the files of the previous payload and makes the
// staged upload the one waiting for ingest
func (s *Service) replacePayload(ctx context.Context, store storage.FileStore, staged string) error {
	if err := store.Local().Delete(ctx, ""); err != nil {
		s.log.Warn("stale local files left behind", zap.Error(err))
	}
	if err := store.Main().Delete(ctx, ""); err != nil {
		s.log.Warn("stale main files left behind", zap.Error(err))
	}
	if err := store.Temp().Move(staged, processing.SourceName); err != nil {
		return fault.ServerError.Wrap(err, nil)
	}
	return nil
}

func (s *Service) enqueue(ctx context.Context, media *models.Media, p *Payload) {
	if p == nil {
		return
	}
	s.queue.Enqueue(ctx, processing.Job{Kind: processing.JobNewFile, MediaID: media.ID, TargetName: targetName(p.Filename)})
}

// CreateMedia stores a media, its memberships and overrides, and the
// payload if any. Ingest starts once everything is committed.
func (s *Service) CreateMedia(ctx context.Context, user *models.User, catalogID string, in MediaInput, p *Payload) (MediaDetails, error) {
	if err := s.check(user, catalogID, true); err != nil {
		return MediaDetails{}, err
	}
	media := models.Media{ID: utils.NewID('M'), CatalogID: catalogID, NewFile: p != nil}
	var store storage.FileStore
	if p != nil {
		var err error
		if store, err = processing.MediaStore(ctx, s.db, s.stores, &media); err != nil {
			return MediaDetails{}, err
		}
		if err := s.writePayload(store.Temp(), processing.SourceName, p); err != nil {
			_ = store.Delete(ctx, "")
			return MediaDetails{}, err
		}
		if in.Metadata == nil {
			in.Metadata = map[string]any{}
		}
		if _, ok := in.Metadata["filename"]; !ok && p.Filename != "" {
			in.Metadata["filename"] = filepath.Base(p.Filename)
		}
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := media.Create(tx); err != nil {
			return err
		}
		if err := apply(tx, &media, in); err != nil {
			return err
		}
		return media.Save(tx)
	})
	if err != nil {
		if store != nil {
			_ = store.Delete(ctx, "")
		}
		return MediaDetails{}, err
	}
	s.enqueue(ctx, &media, p)
	return s.details(media)
}

// UpdateMedia changes memberships and overrides. A new payload replaces
// every stored file of the media and ingest runs again. Nothing on disk
// changes unless the update is saved.
func (s *Service) UpdateMedia(ctx context.Context, user *models.User, id string, in MediaInput, p *Payload) (MediaDetails, error) {
	var updated models.Media
	var store storage.FileStore
	staged := ""
	err := models.WithMediaLock(s.db, id, func(tx *gorm.DB, media *models.Media) error {
		if err := s.check(user, media.CatalogID, true); err != nil {
			return err
		}
		if in.Catalog != nil && *in.Catalog != media.CatalogID {
			return fault.CatalogChange.New(fault.Args{"media": media.ID})
		}
		if p != nil {
			var err error
			if store, err = processing.MediaStore(ctx, tx, s.stores, media); err != nil {
				return err
			}
			media.NewFile = true
			media.StorageID = uuid.New().String()
			staged = stagedPrefix + media.StorageID
			if err := s.writePayload(store.Temp(), staged, p); err != nil {
				return err
			}
		}
		err := tx.Transaction(func(tx *gorm.DB) error {
			if err := apply(tx, media, in); err != nil {
				return err
			}
			return media.Save(tx)
		})
		if err != nil {
			return err
		}
		updated = *media
		// Still under the media lock, so ingest cannot run in between
		if staged != "" {
			return s.replacePayload(ctx, store, staged)
		}
		return nil
	})
	if err != nil {
		if staged != "" {
			if derr := store.Temp().Delete(ctx, staged); derr != nil {
				s.log.Warn("staged upload left behind", zap.String("media", id), zap.Error(derr))
			}
		}
		return MediaDetails{}, err
	}
	s.enqueue(ctx, &updated, p)
	return s.details(updated)
}

// DeleteMedia removes the media and its files in every area
func (s *Service) DeleteMedia(ctx context.Context, user *models.User, id string) error {
	var store storage.FileStore
	err := models.WithMediaLock(s.db, id, func(tx *gorm.DB, media *models.Media) error {
		if err := s.check(user, media.CatalogID, true); err != nil {
			return err
		}
		var err error
		if store, err = processing.MediaStore(ctx, tx, s.stores, media); err != nil {
			return err
		}
		return media.Delete(tx)
	})
	if err != nil {
		return err
	}
	if err := store.Delete(ctx, ""); err != nil {
		s.log.Warn("media files left behind", zap.String("media", id), zap.Error(err))
	}
	return nil
}

// Thumbnail writes a JPEG no larger than size x size. The result is cut
// from the closest pre-generated derivative and never upscaled. The
// returned ETag changes with every new payload.
func (s *Service) Thumbnail(ctx context.Context, user *models.User, id string, size int, w io.Writer) (etag string, err error) {
	if size <= 0 {
		return "", fault.ValidationFailure.New(fault.Args{"size": size})
	}
	media, err := s.media(user, id, false)
	if err != nil {
		return "", err
	}
	if media.Info == nil {
		return "", fault.NotFound.New(fault.Args{"media": id, "reason": "not processed"})
	}
	store, err := processing.MediaStore(ctx, s.db, s.stores, &media)
	if err != nil {
		return "", err
	}
	derivative := processing.PickThumbnailSize(size)
	r, err := store.Local().GetStream(ctx, processing.ThumbnailName(derivative))
	if err != nil {
		return "", fault.NotFound.Wrap(err, fault.Args{"media": id})
	}
	defer r.Close()
	if size >= derivative {
		_, err = io.Copy(w, r)
	} else {
		_, err = utils.CreateThumb(uint(size), r, w)
	}
	if err != nil {
		return "", fault.ServerError.Wrap(err, fault.Args{"media": id})
	}
	return media.StorageID, nil
}

// Download locates the original or one of the encoded video variants
func (s *Service) Download(ctx context.Context, user *models.User, id, variant string) (Location, error) {
	media, err := s.media(user, id, false)
	if err != nil {
		return Location{}, err
	}
	if media.Info == nil || media.MediaFilename == nil {
		return Location{}, fault.NotFound.New(fault.Args{"media": id, "reason": "not processed"})
	}
	loc := Location{Filename: *media.MediaFilename, MimeType: media.Info.MimeType}
	if name, _ := media.Metadata().Get("filename"); name != nil {
		loc.Filename = name.(string)
	}
	stored := *media.MediaFilename
	if variant != VariantOriginal {
		name, ok := variantNames[variant]
		if !ok {
			return Location{}, fault.ValidationFailure.New(fault.Args{"variant": variant})
		}
		if !media.IsVideo() {
			return Location{}, fault.NotFound.New(fault.Args{"media": id, "variant": variant})
		}
		stored = name
		loc.Filename = strings.TrimSuffix(loc.Filename, filepath.Ext(loc.Filename)) + "." + variant + ".mp4"
		loc.MimeType = "video/mp4"
	}

	store, err := processing.MediaStore(ctx, s.db, s.stores, &media)
	if err != nil {
		return Location{}, err
	}
	switch main := store.Main().(type) {
	case storage.LocalArea:
		if loc.Path, err = main.GetPath(stored); err == nil {
			if _, statErr := os.Stat(loc.Path); statErr != nil {
				return Location{}, fault.NotFound.Wrap(statErr, fault.Args{"media": id})
			}
		}
	case storage.URLArea:
		loc.URL, err = main.GetURL(ctx, stored)
	default:
		return Location{}, fault.ServerError.New(fault.Args{"reason": "main area cannot serve files"})
	}
	if err != nil {
		return Location{}, fault.ServerError.Wrap(err, fault.Args{"media": id})
	}
	return loc, nil
}

func (s *Service) GetMetadata(user *models.User, id string) (map[string]any, error) {
	media, err := s.media(user, id, false)
	if err != nil {
		return nil, err
	}
	return media.Metadata().Serialize(), nil
}

// PatchMetadata sets the supplied overrides, a null value clears one
func (s *Service) PatchMetadata(user *models.User, id string, values map[string]any) (map[string]any, error) {
	var result map[string]any
	err := models.WithMediaLock(s.db, id, func(tx *gorm.DB, media *models.Media) error {
		if err := s.check(user, media.CatalogID, true); err != nil {
			return err
		}
		if err := media.Metadata().Deserialize(values); err != nil {
			return err
		}
		if err := media.Save(tx); err != nil {
			return err
		}
		result = media.Metadata().Serialize()
		return nil
	})
	return result, err
}
