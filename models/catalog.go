package models

import (
	"mediacat/fault"
	"mediacat/storage"
	"mediacat/utils"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Catalog struct {
	ID        string  `gorm:"primaryKey;type:varchar(30)" json:"id"`
	CreatedAt int64   `json:"created"`
	Name      string  `gorm:"type:varchar(100);not null" json:"name"`
	StorageID uint64  `gorm:"not null" json:"-"`
	Storage   Storage `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
}

func (c *Catalog) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = utils.NewID('C')
	}
	return nil
}

func (c *Catalog) BeforeSave(tx *gorm.DB) error {
	if strings.TrimSpace(c.Name) == "" {
		return fault.ValidationFailure.New(fault.Args{"field": "name"})
	}
	return nil
}

// CreateCatalog stores the catalog with its storage descriptor and root
// album, and gives the owner full access, all in one transaction
func CreateCatalog(tx *gorm.DB, owner *User, name string, d storage.Descriptor) (catalog Catalog, err error) {
	s, err := NewStorage(d)
	if err != nil {
		return catalog, err
	}
	err = tx.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&s).Error; err != nil {
			return fault.FromDB(err)
		}
		catalog = Catalog{Name: name, StorageID: s.ID}
		if err := tx.Omit(clause.Associations).Create(&catalog).Error; err != nil {
			return fault.FromDB(err)
		}
		root := Album{CatalogID: catalog.ID, Name: name}
		if err := tx.Omit(clause.Associations).Create(&root).Error; err != nil {
			return fault.FromDB(err)
		}
		if owner != nil {
			return owner.Grant(tx, catalog.ID, true)
		}
		return nil
	})
	if err != nil {
		return Catalog{}, err
	}
	catalog.Storage = s
	return catalog, nil
}

func GetCatalog(tx *gorm.DB, id string) (catalog Catalog, err error) {
	err = tx.Preload("Storage").First(&catalog, "id = ?", id).Error
	return catalog, fault.FromDB(err)
}

// RootAlbum returns the album without parent of the catalog
func (c *Catalog) RootAlbum(tx *gorm.DB) (album Album, err error) {
	err = tx.First(&album, "catalog_id = ? AND parent_id IS NULL", c.ID).Error
	return album, fault.FromDB(err)
}

func (c *Catalog) Descriptor() (storage.Descriptor, error) {
	return c.Storage.Descriptor()
}

// Delete removes the catalog and everything it owns. The files are the
// caller's business.
func (c *Catalog) Delete(tx *gorm.DB) error {
	return tx.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&MediaAlbum{}, &MediaTag{}, &MediaPerson{}} {
			if err := tx.Where("media_id IN (?)", tx.Model(&Media{}).Select("id").Where("catalog_id = ?", c.ID)).Delete(model).Error; err != nil {
				return fault.FromDB(err)
			}
		}
		if err := tx.Where("media_id IN (?)", tx.Model(&Media{}).Select("id").Where("catalog_id = ?", c.ID)).Delete(&MediaInfo{}).Error; err != nil {
			return fault.FromDB(err)
		}
		for _, model := range []any{&Media{}, &Person{}, &UserCatalog{}} {
			if err := tx.Where("catalog_id = ?", c.ID).Delete(model).Error; err != nil {
				return fault.FromDB(err)
			}
		}
		for _, model := range []any{&Tag{}, &Album{}} {
			if err := tx.Where("catalog_id = ?", c.ID).Delete(model).Error; err != nil {
				return fault.FromDB(err)
			}
		}
		if err := tx.Delete(&Catalog{}, "id = ?", c.ID).Error; err != nil {
			return fault.FromDB(err)
		}
		return fault.FromDB(tx.Delete(&Storage{}, "id = ?", c.StorageID).Error)
	})
}
