package models

import (
	"errors"
	"mediacat/db"
	"mediacat/fault"
	"mediacat/metadata"
	"mediacat/utils"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Media struct {
	ID        string  `gorm:"primaryKey;type:varchar(30)" json:"id"`
	CatalogID string  `gorm:"type:varchar(30);not null;index:catalog_media_created,priority:1" json:"catalog"`
	Catalog   Catalog `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Created   int64   `gorm:"autoCreateTime;index:catalog_media_created,priority:2" json:"created"`
	NewFile   bool    `gorm:"not null;default:false;index" json:"-"`
	StorageID string  `gorm:"type:varchar(36);not null" json:"-"`

	metadata.Columns `gorm:"embedded"`

	Info *MediaInfo `gorm:"foreignKey:MediaID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"info,omitempty"`
}

// TableName overrides the table name
func (Media) TableName() string {
	return "media"
}

// MediaInfo describes the stored file. It exists once the file has been
// processed.
type MediaInfo struct {
	MediaID        string    `gorm:"primaryKey;type:varchar(30)" json:"-"`
	ProcessVersion int       `gorm:"not null;index" json:"process_version"`
	Uploaded       time.Time `json:"uploaded"`
	MimeType       string    `gorm:"type:varchar(50)" json:"mimetype"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	Duration       *float64  `json:"duration"`
	FileSize       int64     `json:"file_size"`
}

// TableName overrides the table name
func (MediaInfo) TableName() string {
	return "media_info"
}

type MediaAlbum struct {
	MediaID string `gorm:"primaryKey;type:varchar(30)"`
	Media   Media  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	AlbumID string `gorm:"primaryKey;type:varchar(30);index"`
	Album   Album  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

type MediaTag struct {
	MediaID string `gorm:"primaryKey;type:varchar(30)"`
	Media   Media  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	TagID   string `gorm:"primaryKey;type:varchar(30);index"`
	Tag     Tag    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

type MediaPerson struct {
	MediaID  string `gorm:"primaryKey;type:varchar(30)"`
	Media    Media  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	PersonID string `gorm:"primaryKey;type:varchar(30);index"`
	Person   Person `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// TableName overrides the table name
func (MediaPerson) TableName() string {
	return "media_people"
}

func (m *Media) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = utils.NewID('M')
	}
	if m.StorageID == "" {
		m.StorageID = uuid.New().String()
	}
	return nil
}

// BeforeUpdate keeps the catalog fixed
func (m *Media) BeforeUpdate(tx *gorm.DB) error {
	var catalogs []string
	if err := tx.Model(&Media{}).Where("id = ?", m.ID).Pluck("catalog_id", &catalogs).Error; err != nil {
		return fault.FromDB(err)
	}
	if len(catalogs) > 0 && catalogs[0] != m.CatalogID {
		return fault.CatalogChange.New(fault.Args{"media": m.ID})
	}
	return nil
}

// IsVideo is only known once the file has been processed
func (m *Media) IsVideo() bool {
	if m.Info != nil && m.Info.MimeType != "" {
		return strings.HasPrefix(m.Info.MimeType, "video/")
	}
	return false
}

// Metadata gives override-first access to the metadata fields
func (m *Media) Metadata() metadata.Envelope {
	return metadata.EnvelopeOf(&m.Columns)
}

// Path is the namespace of the media's files inside its catalog's file store
func (m *Media) Path() string {
	return m.CatalogID + "/" + m.ID
}

func GetMedia(tx *gorm.DB, id string) (media Media, err error) {
	err = tx.Preload("Info").First(&media, "id = ?", id).Error
	return media, fault.FromDB(err)
}

func (m *Media) Create(tx *gorm.DB) error {
	return fault.FromDB(tx.Omit(clause.Associations).Create(m).Error)
}

// Save writes the media row only, MediaInfo has its own upsert
func (m *Media) Save(tx *gorm.DB) error {
	return fault.FromDB(tx.Omit(clause.Associations).Save(m).Error)
}

func (m *Media) Delete(tx *gorm.DB) error {
	return tx.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&MediaAlbum{}, &MediaTag{}, &MediaPerson{}, &MediaInfo{}} {
			if err := tx.Where("media_id = ?", m.ID).Delete(model).Error; err != nil {
				return fault.FromDB(err)
			}
		}
		return fault.FromDB(tx.Delete(&Media{}, "id = ?", m.ID).Error)
	})
}

// LoadInfo fills Info, leaving it nil when the media was never processed
func (m *Media) LoadInfo(tx *gorm.DB) error {
	var info MediaInfo
	err := tx.First(&info, "media_id = ?", m.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		m.Info = nil
		return nil
	}
	if err != nil {
		return fault.FromDB(err)
	}
	m.Info = &info
	return nil
}

// SaveInfo inserts or replaces the MediaInfo of the media
func (m *Media) SaveInfo(tx *gorm.DB, info MediaInfo) error {
	info.MediaID = m.ID
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "media_id"}},
		UpdateAll: true,
	}).Create(&info).Error
	if err != nil {
		return fault.FromDB(err)
	}
	m.Info = &info
	return nil
}

// WithMediaLock loads the media row and runs fn while holding its lock.
// Ingest tasks and request-path updates of the same media exclude each
// other. On SQLite the process lock is all there is, fn then gets tx as is
// so the single connection stays free.
func WithMediaLock(tx *gorm.DB, id string, fn func(tx *gorm.DB, media *Media) error) error {
	unlock := db.LockKey("media:" + id)
	defer unlock()

	if db.IsSQLite(tx) {
		media, err := GetMedia(tx, id)
		if err != nil {
			return err
		}
		return fn(tx, &media)
	}
	return tx.Transaction(func(tx *gorm.DB) error {
		var media Media
		if err := db.ForUpdate(tx).First(&media, "id = ?", id).Error; err != nil {
			return fault.FromDB(err)
		}
		if err := media.LoadInfo(tx); err != nil {
			return err
		}
		return fn(tx, &media)
	})
}
