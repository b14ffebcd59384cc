package service

import (
	"mediacat/fault"
	"mediacat/models"
)

type AlbumInput struct {
	Name string `json:"name" binding:"required"`
	// Parent defaults to the catalog's root album
	Parent *string `json:"parent"`
	Stub   *string `json:"stub"`
}

type TagInput struct {
	Name   string  `json:"name" binding:"required"`
	Parent *string `json:"parent"`
}

type PersonInput struct {
	Name string `json:"name" binding:"required"`
}

func (s *Service) check(user *models.User, catalogID string, modify bool) error {
	if modify {
		return user.CheckCanModify(s.db, catalogID)
	}
	return user.CheckCanSee(s.db, catalogID)
}

func (s *Service) album(user *models.User, id string, modify bool) (models.Album, error) {
	album, err := models.GetAlbum(s.db, id)
	if err != nil {
		return album, err
	}
	return album, s.check(user, album.CatalogID, modify)
}

func (s *Service) ListAlbums(user *models.User, catalogID string) (albums []models.Album, err error) {
	if err := s.check(user, catalogID, false); err != nil {
		return nil, err
	}
	err = s.db.Where("catalog_id = ?", catalogID).Order("name").Find(&albums).Error
	return albums, fault.FromDB(err)
}

func (s *Service) CreateAlbum(user *models.User, catalogID string, in AlbumInput) (models.Album, error) {
	if err := s.check(user, catalogID, true); err != nil {
		return models.Album{}, err
	}
	album := models.Album{CatalogID: catalogID, Name: in.Name, ParentID: in.Parent, Stub: in.Stub}
	if album.ParentID == nil {
		catalog := models.Catalog{ID: catalogID}
		root, err := catalog.RootAlbum(s.db)
		if err != nil {
			return models.Album{}, err
		}
		album.ParentID = &root.ID
	}
	albums := []models.Album{album}
	if err := models.CreateAlbums(s.db, albums); err != nil {
		return models.Album{}, err
	}
	return albums[0], nil
}

func (s *Service) GetAlbum(user *models.User, id string) (models.Album, error) {
	return s.album(user, id, false)
}

// UpdateAlbum replaces name, parent and stub. The root album keeps having
// no parent, any other album without parent moves under the root.
func (s *Service) UpdateAlbum(user *models.User, id string, in AlbumInput) (models.Album, error) {
	album, err := s.album(user, id, true)
	if err != nil {
		return album, err
	}
	if album.ParentID == nil {
		if in.Parent != nil {
			return album, fault.NotAllowed.New(fault.Args{"album": id, "reason": "root album"})
		}
	} else if in.Parent == nil {
		catalog := models.Catalog{ID: album.CatalogID}
		root, err := catalog.RootAlbum(s.db)
		if err != nil {
			return album, err
		}
		in.Parent = &root.ID
	}
	album.Name, album.ParentID, album.Stub = in.Name, in.Parent, in.Stub
	if err := album.Save(s.db); err != nil {
		return album, err
	}
	return album, nil
}

func (s *Service) DeleteAlbum(user *models.User, id string) error {
	album, err := s.album(user, id, true)
	if err != nil {
		return err
	}
	return album.Delete(s.db)
}

// AlbumDescendants returns the album and everything below it
func (s *Service) AlbumDescendants(user *models.User, id string) ([]models.Album, error) {
	album, err := s.album(user, id, false)
	if err != nil {
		return nil, err
	}
	return album.Descendants(s.db)
}

func (s *Service) tag(user *models.User, id string, modify bool) (models.Tag, error) {
	tag, err := models.GetTag(s.db, id)
	if err != nil {
		return tag, err
	}
	return tag, s.check(user, tag.CatalogID, modify)
}

func (s *Service) ListTags(user *models.User, catalogID string) (tags []models.Tag, err error) {
	if err := s.check(user, catalogID, false); err != nil {
		return nil, err
	}
	err = s.db.Where("catalog_id = ?", catalogID).Order("name").Find(&tags).Error
	return tags, fault.FromDB(err)
}

func (s *Service) CreateTag(user *models.User, catalogID string, in TagInput) (models.Tag, error) {
	if err := s.check(user, catalogID, true); err != nil {
		return models.Tag{}, err
	}
	tags := []models.Tag{{CatalogID: catalogID, Name: in.Name, ParentID: in.Parent}}
	if err := models.CreateTags(s.db, tags); err != nil {
		return models.Tag{}, err
	}
	return tags[0], nil
}

func (s *Service) GetTag(user *models.User, id string) (models.Tag, error) {
	return s.tag(user, id, false)
}

func (s *Service) UpdateTag(user *models.User, id string, in TagInput) (models.Tag, error) {
	tag, err := s.tag(user, id, true)
	if err != nil {
		return tag, err
	}
	tag.Name, tag.ParentID = in.Name, in.Parent
	if err := tag.Save(s.db); err != nil {
		return tag, err
	}
	return tag, nil
}

func (s *Service) DeleteTag(user *models.User, id string) error {
	tag, err := s.tag(user, id, true)
	if err != nil {
		return err
	}
	return tag.Delete(s.db)
}

func (s *Service) TagDescendants(user *models.User, id string) ([]models.Tag, error) {
	tag, err := s.tag(user, id, false)
	if err != nil {
		return nil, err
	}
	return tag.Descendants(s.db)
}

// TagForPath resolves or creates the tag at path. matchAny defaults to true
// for single-element paths.
func (s *Service) TagForPath(user *models.User, catalogID string, path []string, matchAny *bool) (models.Tag, error) {
	if err := s.check(user, catalogID, true); err != nil {
		return models.Tag{}, err
	}
	if matchAny == nil {
		return models.GetTagForPath(s.db, catalogID, path)
	}
	return models.GetTagForPathMatching(s.db, catalogID, path, *matchAny)
}

func (s *Service) person(user *models.User, id string, modify bool) (models.Person, error) {
	person, err := models.GetPerson(s.db, id)
	if err != nil {
		return person, err
	}
	return person, s.check(user, person.CatalogID, modify)
}

func (s *Service) ListPeople(user *models.User, catalogID string) (people []models.Person, err error) {
	if err := s.check(user, catalogID, false); err != nil {
		return nil, err
	}
	err = s.db.Where("catalog_id = ?", catalogID).Order("name").Find(&people).Error
	return people, fault.FromDB(err)
}

func (s *Service) CreatePerson(user *models.User, catalogID string, in PersonInput) (models.Person, error) {
	if err := s.check(user, catalogID, true); err != nil {
		return models.Person{}, err
	}
	people := []models.Person{{CatalogID: catalogID, Name: in.Name}}
	if err := models.CreatePeople(s.db, people); err != nil {
		return models.Person{}, err
	}
	return people[0], nil
}

func (s *Service) GetPerson(user *models.User, id string) (models.Person, error) {
	return s.person(user, id, false)
}

func (s *Service) UpdatePerson(user *models.User, id string, in PersonInput) (models.Person, error) {
	person, err := s.person(user, id, true)
	if err != nil {
		return person, err
	}
	person.Name = in.Name
	if err := person.Save(s.db); err != nil {
		return person, err
	}
	return person, nil
}

func (s *Service) DeletePerson(user *models.User, id string) error {
	person, err := s.person(user, id, true)
	if err != nil {
		return err
	}
	return person.Delete(s.db)
}

func (s *Service) PersonForName(user *models.User, catalogID, name string) (models.Person, error) {
	if err := s.check(user, catalogID, true); err != nil {
		return models.Person{}, err
	}
	return models.GetPersonForName(s.db, catalogID, name)
}
