package service

import (
	"mediacat/fault"
	"mediacat/models"

	"gorm.io/gorm"
)

const (
	FieldAlbum  = "album"
	FieldTag    = "tag"
	FieldPerson = "person"

	ModifierChild      = "child"
	ModifierDescendant = "descendant"
)

// Filter restricts a search to media linked to Value. With the child
// modifier the link must be direct, with descendant any album or tag below
// Value counts as well.
type Filter struct {
	Field    string `json:"field" binding:"required"`
	Modifier string `json:"modifier"`
	Value    string `json:"value" binding:"required"`
}

// SearchMedia returns the media of the catalog matching every filter,
// newest first
func (s *Service) SearchMedia(user *models.User, catalogID string, filters []Filter) ([]MediaDetails, error) {
	if err := s.check(user, catalogID, false); err != nil {
		return nil, err
	}
	query := s.db.Preload("Info").Where("catalog_id = ?", catalogID)
	for _, f := range filters {
		sub, err := s.filterQuery(catalogID, f)
		if err != nil {
			return nil, err
		}
		query = query.Where("id IN (?)", sub)
	}
	var media []models.Media
	if err := query.Order("created DESC, id").Find(&media).Error; err != nil {
		return nil, fault.FromDB(err)
	}
	result := make([]MediaDetails, 0, len(media))
	for _, m := range media {
		d, err := s.details(m)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, nil
}

// filterQuery returns the media ids matching f as a subquery
func (s *Service) filterQuery(catalogID string, f Filter) (*gorm.DB, error) {
	modifier := f.Modifier
	if modifier == "" {
		modifier = ModifierChild
	}
	if modifier != ModifierChild && modifier != ModifierDescendant {
		return nil, fault.ValidationFailure.New(fault.Args{"modifier": f.Modifier})
	}
	var table, column string
	var ids []string
	switch f.Field {
	case FieldAlbum:
		album, err := models.GetAlbum(s.db, f.Value)
		if err != nil || album.CatalogID != catalogID {
			return nil, fault.NotFound.New(fault.Args{"album": f.Value})
		}
		table, column, ids = "media_albums", "album_id", []string{album.ID}
		if modifier == ModifierDescendant {
			albums, err := album.Descendants(s.db)
			if err != nil {
				return nil, err
			}
			ids = ids[:0]
			for _, a := range albums {
				ids = append(ids, a.ID)
			}
		}
	case FieldTag:
		tag, err := models.GetTag(s.db, f.Value)
		if err != nil || tag.CatalogID != catalogID {
			return nil, fault.NotFound.New(fault.Args{"tag": f.Value})
		}
		table, column, ids = "media_tags", "tag_id", []string{tag.ID}
		if modifier == ModifierDescendant {
			tags, err := tag.Descendants(s.db)
			if err != nil {
				return nil, err
			}
			ids = ids[:0]
			for _, t := range tags {
				ids = append(ids, t.ID)
			}
		}
	case FieldPerson:
		// People are flat
		if modifier != ModifierChild {
			return nil, fault.ValidationFailure.New(fault.Args{"field": f.Field, "modifier": f.Modifier})
		}
		person, err := models.GetPerson(s.db, f.Value)
		if err != nil || person.CatalogID != catalogID {
			return nil, fault.NotFound.New(fault.Args{"person": f.Value})
		}
		table, column, ids = "media_people", "person_id", []string{person.ID}
	default:
		return nil, fault.ValidationFailure.New(fault.Args{"field": f.Field})
	}
	return s.db.Table(table).Select("media_id").Where(column+" IN ?", ids), nil
}
