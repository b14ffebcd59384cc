package models

import (
	"mediacat/db"

	"gorm.io/gorm"
)

// expressionIndex is a unique index gorm tags cannot describe
type expressionIndex struct {
	table  string
	name   string
	sqlite string
	mysql  string
}

var expressionIndexes = []expressionIndex{
	{
		table:  "albums",
		name:   "uniq_album_name",
		sqlite: "CREATE UNIQUE INDEX uniq_album_name ON albums (catalog_id, COALESCE(parent_id, 'NONE'), LOWER(name))",
		mysql:  "CREATE UNIQUE INDEX uniq_album_name ON albums (catalog_id, (COALESCE(parent_id, 'NONE')), (LOWER(name)))",
	},
	{
		// One root album per catalog
		table:  "albums",
		name:   "uniq_album_root",
		sqlite: "CREATE UNIQUE INDEX uniq_album_root ON albums (catalog_id) WHERE parent_id IS NULL",
		mysql:  "CREATE UNIQUE INDEX uniq_album_root ON albums (catalog_id, (CASE WHEN parent_id IS NULL THEN 1 END))",
	},
	{
		table:  "tags",
		name:   "uniq_tag_name",
		sqlite: "CREATE UNIQUE INDEX uniq_tag_name ON tags (catalog_id, COALESCE(parent_id, 'NONE'), LOWER(name))",
		mysql:  "CREATE UNIQUE INDEX uniq_tag_name ON tags (catalog_id, (COALESCE(parent_id, 'NONE')), (LOWER(name)))",
	},
	{
		table:  "people",
		name:   "uniq_person_name",
		sqlite: "CREATE UNIQUE INDEX uniq_person_name ON people (catalog_id, LOWER(name))",
		mysql:  "CREATE UNIQUE INDEX uniq_person_name ON people (catalog_id, (LOWER(name)))",
	},
}

// Migrate creates or updates the schema
func Migrate(tx *gorm.DB) error {
	err := tx.AutoMigrate(
		&db.NamedLock{},
		&User{},
		&Storage{},
		&Catalog{},
		&UserCatalog{},
		&Album{},
		&Tag{},
		&Person{},
		&Media{},
		&MediaInfo{},
		&MediaAlbum{},
		&MediaTag{},
		&MediaPerson{},
	)
	if err != nil {
		return err
	}
	for _, index := range expressionIndexes {
		if tx.Migrator().HasIndex(index.table, index.name) {
			continue
		}
		ddl := index.mysql
		if db.IsSQLite(tx) {
			ddl = index.sqlite
		}
		if err := tx.Exec(ddl).Error; err != nil {
			return err
		}
	}
	return nil
}
