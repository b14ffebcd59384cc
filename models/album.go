package models

import (
	"mediacat/fault"
	"mediacat/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const albumTable = "albums"

type Album struct {
	ID        string  `gorm:"primaryKey;type:varchar(30)" json:"id"`
	CatalogID string  `gorm:"type:varchar(30);not null;index" json:"catalog"`
	Catalog   Catalog `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Name      string  `gorm:"type:varchar(100);not null" json:"name"`
	ParentID  *string `gorm:"type:varchar(30);index" json:"parent"`
	Parent    *Album  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Stub      *string `gorm:"type:varchar(30);uniqueIndex" json:"stub"`
}

func (a *Album) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = utils.NewID('A')
	}
	return nil
}

func (a *Album) BeforeSave(tx *gorm.DB) error {
	if a.Stub != nil && *a.Stub == "" {
		a.Stub = nil
	}
	return validateNode(tx, a.node())
}

func (a *Album) node() node {
	return node{table: albumTable, id: a.ID, catalogID: a.CatalogID, parentID: a.ParentID, name: a.Name}
}

func GetAlbum(tx *gorm.DB, id string) (album Album, err error) {
	err = tx.First(&album, "id = ?", id).Error
	return album, fault.FromDB(err)
}

// CreateAlbums creates all albums or none. Parents may refer to albums
// earlier in the list.
func CreateAlbums(tx *gorm.DB, albums []Album) error {
	nodes := make([]node, len(albums))
	for i := range albums {
		nodes[i] = albums[i].node()
	}
	if err := checkBatchNames(nodes); err != nil {
		return err
	}
	return tx.Transaction(func(tx *gorm.DB) error {
		for i := range albums {
			if err := tx.Omit(clause.Associations).Create(&albums[i]).Error; err != nil {
				return fault.FromDB(err)
			}
		}
		return nil
	})
}

// Descendants returns the album and all its transitive children
func (a *Album) Descendants(tx *gorm.DB) (albums []Album, err error) {
	err = descendants(tx, albumTable, a.ID, &albums)
	return
}

func (a *Album) Save(tx *gorm.DB) error {
	return fault.FromDB(tx.Omit(clause.Associations).Save(a).Error)
}

func (a *Album) Delete(tx *gorm.DB) error {
	if a.ParentID == nil {
		return fault.NotAllowed.New(fault.Args{"album": a.ID, "reason": "the root album cannot be deleted"})
	}
	return fault.FromDB(tx.Delete(&Album{}, "id = ?", a.ID).Error)
}
