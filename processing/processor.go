// Package processing runs the ingest tasks of uploaded media: metadata
// extraction, thumbnails, video encoding and metadata import.
package processing

import (
	"context"
	"encoding/json"
	"mediacat/fault"
	"mediacat/metadata"
	"mediacat/models"
	"mediacat/storage"
	"os"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProcessVersion is bumped whenever importing changes, media imported by
// an older version get re-imported by the sweep
const ProcessVersion = 1

const (
	// SourceName is the payload waiting in temp
	SourceName   = "original"
	metadataName = "metadata.json"
)

// AllowedTypes are the mimetypes accepted for new files
var AllowedTypes = map[string]bool{
	"image/jpeg":       true,
	"image/png":        true,
	"video/mp4":        true,
	"video/x-m4v":      true,
	"video/x-matroska": true,
	"video/webm":       true,
	"video/quicktime":  true,
	"video/mpeg":       true,
}

// Stores opens the file store behind a catalog's storage descriptor
type Stores interface {
	Open(ctx context.Context, d storage.Descriptor) (storage.FileStore, error)
}

type Processor struct {
	db     *gorm.DB
	stores Stores
	runner Runner
	log    *zap.Logger
}

func NewProcessor(db *gorm.DB, stores Stores, runner Runner, log *zap.Logger) *Processor {
	return &Processor{db: db, stores: stores, runner: runner, log: log}
}

// MediaStore returns the file store namespaced to the media's own files
func MediaStore(ctx context.Context, tx *gorm.DB, stores Stores, media *models.Media) (*storage.InnerFileStore, error) {
	catalog, err := models.GetCatalog(tx, media.CatalogID)
	if err != nil {
		return nil, err
	}
	d, err := catalog.Descriptor()
	if err != nil {
		return nil, err
	}
	store, err := stores.Open(ctx, d)
	if err != nil {
		return nil, fault.ServerError.Wrap(err, fault.Args{"catalog": catalog.ID})
	}
	inner, err := storage.NewInnerFileStore(store, media.Path())
	if err != nil {
		return nil, fault.ServerError.Wrap(err, fault.Args{"media": media.ID})
	}
	return inner, nil
}

// TargetName is the name the original is stored under in main
func TargetName(mimeType string) string {
	if mt := mimetype.Lookup(mimeType); mt != nil {
		return SourceName + mt.Extension()
	}
	return SourceName
}

// ProcessNewFile ingests the payload waiting in temp. It does nothing when
// the media has no new file.
func (p *Processor) ProcessNewFile(ctx context.Context, mediaID, targetName string) error {
	start := time.Now()
	log := p.log.With(zap.String("media", mediaID))
	err := models.WithMediaLock(p.db, mediaID, func(tx *gorm.DB, media *models.Media) error {
		if !media.NewFile {
			log.Debug("no new file")
			return nil
		}
		store, err := MediaStore(ctx, tx, p.stores, media)
		if err != nil {
			return err
		}
		src, err := store.Temp().GetPath(SourceName)
		if err != nil {
			return Error.Wrap(err)
		}
		rec, err := p.extract(ctx, src)
		if err != nil {
			return err
		}

		mimeType := stringValue(rec["MIMEType"])
		if !AllowedTypes[mimeType] {
			return fault.UnknownType.New(fault.Args{"mimetype": mimeType})
		}
		if targetName == "" {
			targetName = TargetName(mimeType)
		}
		rec["FileName"] = targetName
		if _, ok := rec["FileSize"]; !ok {
			if size := store.Temp().GetSize(SourceName); size >= 0 {
				rec["FileSize"] = float64(size)
			}
		}
		rec["FileUploadDate"] = metadata.FormatDateTime(time.Now().UTC())

		if strings.HasPrefix(mimeType, "video/") {
			err = p.processVideo(ctx, store, src)
		} else {
			err = generateThumbs(src, store.Local())
		}
		if err != nil {
			return err
		}
		if err := store.CopyTempToMain(ctx, SourceName, targetName); err != nil {
			return Error.Wrap(err)
		}
		if err := writeRecord(store.Local(), rec); err != nil {
			return err
		}
		if err := p.importMetadata(ctx, tx, media, store); err != nil {
			return err
		}

		media.NewFile = false
		if err := media.Save(tx); err != nil {
			return err
		}
		if err := store.Temp().Delete(ctx, ""); err != nil {
			log.Warn("cannot wipe temp", zap.Error(err))
		}
		return nil
	})
	if err != nil {
		log.Error("process new file failed", zap.Error(err))
		return err
	}
	log.Info("processed new file", zap.Duration("took", time.Since(start)))
	return nil
}

// ProcessMetadata re-imports the stored metadata record when it was
// imported by another ProcessVersion
func (p *Processor) ProcessMetadata(ctx context.Context, mediaID string) error {
	log := p.log.With(zap.String("media", mediaID))
	err := models.WithMediaLock(p.db, mediaID, func(tx *gorm.DB, media *models.Media) error {
		if media.Info != nil && media.Info.ProcessVersion == ProcessVersion {
			log.Debug("metadata up to date")
			return nil
		}
		store, err := MediaStore(ctx, tx, p.stores, media)
		if err != nil {
			return err
		}
		return p.importMetadata(ctx, tx, media, store)
	})
	if err != nil {
		log.Error("process metadata failed", zap.Error(err))
	}
	return err
}

// extract runs exiftool on path and returns its only record
func (p *Processor) extract(ctx context.Context, path string) (metadata.Record, error) {
	out, err := p.runner.Run(ctx, ExtractTimeout, "exiftool", "-n", "-json", path)
	if err != nil {
		return nil, err
	}
	var records []metadata.Record
	if err := json.Unmarshal(out, &records); err != nil {
		return nil, Error.Wrap(err)
	}
	if len(records) != 1 {
		return nil, Error.New("expected one metadata record, got %d", len(records))
	}
	return records[0], nil
}

func writeRecord(local storage.LocalArea, rec metadata.Record) error {
	path, err := local.GetPath(metadataName)
	if err != nil {
		return Error.Wrap(err)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return Error.Wrap(err)
	}
	return Error.Wrap(os.WriteFile(path, data, 0o644))
}

func readRecord(ctx context.Context, local storage.LocalArea) (metadata.Record, error) {
	r, err := local.GetStream(ctx, metadataName)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer r.Close()
	var rec metadata.Record
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return nil, Error.Wrap(err)
	}
	return rec, nil
}

// importMetadata refreshes MediaInfo and the imported metadata columns
// from local/metadata.json
func (p *Processor) importMetadata(ctx context.Context, tx *gorm.DB, media *models.Media, store storage.FileStore) error {
	rec, err := readRecord(ctx, store.Local())
	if err != nil {
		return err
	}
	info := models.MediaInfo{
		ProcessVersion: ProcessVersion,
		MimeType:       stringValue(rec["MIMEType"]),
		Width:          int(numberValue(rec["ImageWidth"])),
		Height:         int(numberValue(rec["ImageHeight"])),
		FileSize:       int64(numberValue(rec["FileSize"])),
	}
	if d, ok := rec["Duration"].(float64); ok {
		info.Duration = &d
	}
	if uploaded, ok := metadata.ParseDateTime(stringValue(rec["FileUploadDate"])); ok {
		info.Uploaded = uploaded
	}
	if err := media.SaveInfo(tx, info); err != nil {
		return err
	}
	metadata.Import(&media.Columns, rec, media)
	return media.Save(tx)
}

func stringValue(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func numberValue(v any) float64 {
	f, _ := v.(float64)
	return f
}
