package models

import (
	"mediacat/fault"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// relation describes one of the media membership join tables
type relation struct {
	table  string
	column string
	target string
	model  func(mediaID, id string) any
}

var (
	albumRelation = relation{
		table:  "media_albums",
		column: "album_id",
		target: albumTable,
		model:  func(mediaID, id string) any { return &MediaAlbum{MediaID: mediaID, AlbumID: id} },
	}
	tagRelation = relation{
		table:  "media_tags",
		column: "tag_id",
		target: tagTable,
		model:  func(mediaID, id string) any { return &MediaTag{MediaID: mediaID, TagID: id} },
	}
	personRelation = relation{
		table:  "media_people",
		column: "person_id",
		target: personTable,
		model:  func(mediaID, id string) any { return &MediaPerson{MediaID: mediaID, PersonID: id} },
	}
)

// checkSameCatalog fails unless every id exists in the media's catalog
func (m *Media) checkSameCatalog(tx *gorm.DB, r relation, ids []string) error {
	for _, id := range ids {
		var catalogs []string
		if err := tx.Table(r.target).Where("id = ?", id).Pluck("catalog_id", &catalogs).Error; err != nil {
			return fault.FromDB(err)
		}
		if len(catalogs) == 0 {
			return fault.NotFound.New(fault.Args{r.column: id})
		}
		if catalogs[0] != m.CatalogID {
			return fault.CatalogMismatch.New(fault.Args{"media": m.ID, r.column: id})
		}
	}
	return nil
}

func (m *Media) add(tx *gorm.DB, r relation, ids ...string) error {
	if err := m.checkSameCatalog(tx, r, ids); err != nil {
		return err
	}
	for _, id := range ids {
		err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(r.model(m.ID, id)).Error
		if err != nil {
			return fault.FromDB(err)
		}
	}
	return nil
}

func (m *Media) remove(tx *gorm.DB, r relation, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return fault.FromDB(tx.Exec("DELETE FROM "+r.table+" WHERE media_id = ? AND "+r.column+" IN ?", m.ID, ids).Error)
}

// set replaces the membership set
func (m *Media) set(tx *gorm.DB, r relation, ids []string) error {
	if err := m.checkSameCatalog(tx, r, ids); err != nil {
		return err
	}
	return tx.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM "+r.table+" WHERE media_id = ?", m.ID).Error; err != nil {
			return fault.FromDB(err)
		}
		return m.add(tx, r, ids...)
	})
}

func (m *Media) ids(tx *gorm.DB, r relation) ([]string, error) {
	ids := []string{}
	err := tx.Table(r.table).Where("media_id = ?", m.ID).Order(r.column).Pluck(r.column, &ids).Error
	return ids, fault.FromDB(err)
}

func (m *Media) AddAlbums(tx *gorm.DB, ids ...string) error {
	return m.add(tx, albumRelation, ids...)
}

func (m *Media) AddTags(tx *gorm.DB, ids ...string) error {
	return m.add(tx, tagRelation, ids...)
}

func (m *Media) AddPeople(tx *gorm.DB, ids ...string) error {
	return m.add(tx, personRelation, ids...)
}

func (m *Media) SetAlbums(tx *gorm.DB, ids []string) error {
	return m.set(tx, albumRelation, ids)
}

func (m *Media) SetTags(tx *gorm.DB, ids []string) error {
	return m.set(tx, tagRelation, ids)
}

func (m *Media) SetPeople(tx *gorm.DB, ids []string) error {
	return m.set(tx, personRelation, ids)
}

func (m *Media) RemoveAlbums(tx *gorm.DB, ids ...string) error {
	return m.remove(tx, albumRelation, ids...)
}

func (m *Media) RemoveTags(tx *gorm.DB, ids ...string) error {
	return m.remove(tx, tagRelation, ids...)
}

func (m *Media) RemovePeople(tx *gorm.DB, ids ...string) error {
	return m.remove(tx, personRelation, ids...)
}

func (m *Media) AlbumIDs(tx *gorm.DB) ([]string, error) {
	return m.ids(tx, albumRelation)
}

func (m *Media) TagIDs(tx *gorm.DB) ([]string, error) {
	return m.ids(tx, tagRelation)
}

func (m *Media) PersonIDs(tx *gorm.DB) ([]string, error) {
	return m.ids(tx, personRelation)
}
