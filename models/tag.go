package models

import (
	"errors"
	"mediacat/db"
	"mediacat/fault"
	"mediacat/utils"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	tagTable      = "tags"
	tagCreateLock = "Tag.create"
)

type Tag struct {
	ID        string  `gorm:"primaryKey;type:varchar(30)" json:"id"`
	CatalogID string  `gorm:"type:varchar(30);not null;index" json:"catalog"`
	Catalog   Catalog `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Name      string  `gorm:"type:varchar(100);not null" json:"name"`
	ParentID  *string `gorm:"type:varchar(30);index" json:"parent"`
	Parent    *Tag    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = utils.NewID('T')
	}
	return nil
}

func (t *Tag) BeforeSave(tx *gorm.DB) error {
	return validateNode(tx, t.node())
}

func (t *Tag) node() node {
	return node{table: tagTable, id: t.ID, catalogID: t.CatalogID, parentID: t.ParentID, name: t.Name}
}

func GetTag(tx *gorm.DB, id string) (tag Tag, err error) {
	err = tx.First(&tag, "id = ?", id).Error
	return tag, fault.FromDB(err)
}

// CreateTags creates all tags or none. Parents may refer to tags earlier
// in the list.
func CreateTags(tx *gorm.DB, tags []Tag) error {
	nodes := make([]node, len(tags))
	for i := range tags {
		nodes[i] = tags[i].node()
	}
	if err := checkBatchNames(nodes); err != nil {
		return err
	}
	return tx.Transaction(func(tx *gorm.DB) error {
		for i := range tags {
			if err := tx.Omit(clause.Associations).Create(&tags[i]).Error; err != nil {
				return fault.FromDB(err)
			}
		}
		return nil
	})
}

// Descendants returns the tag and all its transitive children
func (t *Tag) Descendants(tx *gorm.DB) (tags []Tag, err error) {
	err = descendants(tx, tagTable, t.ID, &tags)
	return
}

func (t *Tag) Save(tx *gorm.DB) error {
	return fault.FromDB(tx.Omit(clause.Associations).Save(t).Error)
}

func (t *Tag) Delete(tx *gorm.DB) error {
	return fault.FromDB(tx.Delete(&Tag{}, "id = ?", t.ID).Error)
}

// GetTagForPath resolves a path of tag names to a tag, creating what is
// missing. A single name matches any tag with that name when there is no
// top-level one.
func GetTagForPath(tx *gorm.DB, catalogID string, path []string) (Tag, error) {
	return GetTagForPathMatching(tx, catalogID, path, len(path) == 1)
}

func GetTagForPathMatching(tx *gorm.DB, catalogID string, path []string, matchAny bool) (tag Tag, err error) {
	if len(path) == 0 {
		return tag, fault.InvalidTag.New(fault.Args{"path": path})
	}
	for _, name := range path {
		if strings.TrimSpace(name) == "" {
			return tag, fault.InvalidTag.New(fault.Args{"path": strings.Join(path, "/")})
		}
	}
	err = db.WithNamedLock(tx, tagCreateLock, func(tx *gorm.DB) error {
		tag, err = tagForPath(tx, catalogID, path, matchAny)
		return err
	})
	return tag, err
}

func tagForPath(tx *gorm.DB, catalogID string, path []string, matchAny bool) (Tag, error) {
	name := path[len(path)-1]
	if len(path) == 1 {
		var tag Tag
		err := tx.Where("catalog_id = ? AND parent_id IS NULL AND LOWER(name) = LOWER(?)", catalogID, name).First(&tag).Error
		if err == nil {
			return tag, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return tag, fault.FromDB(err)
		}
		if matchAny {
			err = tx.Where("catalog_id = ? AND LOWER(name) = LOWER(?)", catalogID, name).Order("id").First(&tag).Error
			if err == nil {
				return tag, nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return tag, fault.FromDB(err)
			}
		}
		tag = Tag{CatalogID: catalogID, Name: name}
		return tag, fault.FromDB(tx.Omit(clause.Associations).Create(&tag).Error)
	}

	parent, err := tagForPath(tx, catalogID, path[:len(path)-1], matchAny)
	if err != nil {
		return parent, err
	}
	var tag Tag
	err = tx.Where("catalog_id = ? AND parent_id = ? AND LOWER(name) = LOWER(?)", catalogID, parent.ID, name).First(&tag).Error
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return tag, fault.FromDB(err)
	}
	tag = Tag{CatalogID: catalogID, Name: name, ParentID: &parent.ID}
	return tag, fault.FromDB(tx.Omit(clause.Associations).Create(&tag).Error)
}
