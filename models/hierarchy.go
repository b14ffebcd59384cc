package models

import (
	"mediacat/fault"
	"strings"

	"gorm.io/gorm"
)

// node is the part of an album, tag or person the validators look at
type node struct {
	table     string
	id        string
	catalogID string
	parentID  *string
	name      string
}

// validateNode checks that the parent is in the same catalog, that the
// parent chain does not loop back and that no sibling has the same name
func validateNode(tx *gorm.DB, n node) error {
	if strings.TrimSpace(n.name) == "" {
		return fault.InvalidName.New(fault.Args{"name": n.name})
	}
	if n.parentID != nil {
		var parentCatalog []string
		err := tx.Table(n.table).Where("id = ?", *n.parentID).Pluck("catalog_id", &parentCatalog).Error
		if err != nil {
			return fault.FromDB(err)
		}
		if len(parentCatalog) == 0 {
			return fault.NotFound.New(fault.Args{"parent": *n.parentID})
		}
		if parentCatalog[0] != n.catalogID {
			return fault.CatalogMismatch.New(fault.Args{"parent": *n.parentID, "catalog": n.catalogID})
		}
		if n.id != "" {
			cyclic, err := isAncestor(tx, n.table, n.id, *n.parentID)
			if err != nil {
				return err
			}
			if cyclic {
				return fault.CyclicStructure.New(fault.Args{"id": n.id, "parent": *n.parentID})
			}
		}
	}

	query := tx.Table(n.table).
		Where("catalog_id = ? AND LOWER(name) = LOWER(?)", n.catalogID, n.name)
	if n.id != "" {
		query = query.Where("id <> ?", n.id)
	}
	if n.table != personTable {
		if n.parentID == nil {
			query = query.Where("parent_id IS NULL")
		} else {
			query = query.Where("parent_id = ?", *n.parentID)
		}
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return fault.FromDB(err)
	}
	if count > 0 {
		return fault.InvalidName.New(fault.Args{"name": n.name})
	}
	return nil
}

// isAncestor reports whether id is start or one of its ancestors
func isAncestor(tx *gorm.DB, table, id, start string) (bool, error) {
	if id == start {
		return true, nil
	}
	var count int64
	err := tx.Raw(`WITH RECURSIVE ancestors(id, parent_id) AS (
		SELECT id, parent_id FROM `+table+` WHERE id = ?
		UNION
		SELECT t.id, t.parent_id FROM `+table+` t JOIN ancestors a ON t.id = a.parent_id
	) SELECT COUNT(*) FROM ancestors WHERE id = ?`, start, id).Scan(&count).Error
	if err != nil {
		return false, fault.FromDB(err)
	}
	return count > 0, nil
}

// descendantIDs returns id and the ids of all its transitive children
func descendantIDs(tx *gorm.DB, table, id string) ([]string, error) {
	var ids []string
	err := tx.Raw(`WITH RECURSIVE tree(id) AS (
		SELECT id FROM `+table+` WHERE id = ?
		UNION
		SELECT t.id FROM `+table+` t JOIN tree ON t.parent_id = tree.id
	) SELECT id FROM tree`, id).Scan(&ids).Error
	return ids, fault.FromDB(err)
}

// descendants loads the node and its transitive children joined back to the table
func descendants(tx *gorm.DB, table, id string, dest any) error {
	err := tx.Raw(`WITH RECURSIVE tree(id) AS (
		SELECT id FROM `+table+` WHERE id = ?
		UNION
		SELECT t.id FROM `+table+` t JOIN tree ON t.parent_id = tree.id
	) SELECT `+table+`.* FROM `+table+` JOIN tree ON `+table+`.id = tree.id ORDER BY `+table+`.name`, id).Scan(dest).Error
	return fault.FromDB(err)
}

// checkBatchNames refuses names repeated inside a bulk create, each
// entry is validated against the database when it is saved
func checkBatchNames(entries []node) error {
	seen := map[string]bool{}
	for _, n := range entries {
		parent := "NONE"
		if n.parentID != nil {
			parent = *n.parentID
		}
		key := n.catalogID + "\x00" + parent + "\x00" + strings.ToLower(n.name)
		if seen[key] {
			return fault.InvalidName.New(fault.Args{"name": n.name})
		}
		seen[key] = true
	}
	return nil
}
