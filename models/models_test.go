package models

import (
	"mediacat/db/dbtest"
	"mediacat/fault"
	"mediacat/storage"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb := dbtest.Open(t)
	require.NoError(t, Migrate(gdb))
	return gdb
}

func newCatalog(t *testing.T, tx *gorm.DB, owner *User, name string) Catalog {
	t.Helper()
	catalog, err := CreateCatalog(tx, owner, name, storage.Descriptor{Type: storage.TypeServer})
	require.NoError(t, err)
	return catalog
}

func TestMigrateTwice(t *testing.T) {
	gdb := openDB(t)
	assert.NoError(t, Migrate(gdb))
}

func TestCreateCatalog(t *testing.T) {
	gdb := openDB(t)
	owner, err := UserCreate(gdb, "Owner", "owner@example.com", "secret")
	require.NoError(t, err)

	catalog := newCatalog(t, gdb, &owner, "Family")
	assert.Equal(t, byte('C'), catalog.ID[0])

	root, err := catalog.RootAlbum(gdb)
	require.NoError(t, err)
	assert.Nil(t, root.ParentID)
	assert.Equal(t, catalog.ID, root.CatalogID)

	// Only one root album per catalog
	err = gdb.Create(&Album{CatalogID: catalog.ID, Name: "Another root"}).Error
	assert.Error(t, err)

	loaded, err := GetCatalog(gdb, catalog.ID)
	require.NoError(t, err)
	d, err := loaded.Descriptor()
	require.NoError(t, err)
	assert.Equal(t, storage.TypeServer, d.Type)

	loaded.Storage.Type = string(storage.TypeS3)
	assert.True(t, fault.ValidationFailure.Has(gdb.Save(&loaded.Storage).Error))
}

func TestAccessControl(t *testing.T) {
	gdb := openDB(t)
	owner, err := UserCreate(gdb, "Owner", "owner@example.com", "secret")
	require.NoError(t, err)
	reader, err := UserCreate(gdb, "Reader", "reader@example.com", "secret")
	require.NoError(t, err)
	stranger, err := UserCreate(gdb, "Stranger", "stranger@example.com", "secret")
	require.NoError(t, err)
	catalog := newCatalog(t, gdb, &owner, "Family")
	require.NoError(t, reader.Grant(gdb, catalog.ID, false))

	assert.NoError(t, owner.CheckCanModify(gdb, catalog.ID))
	assert.NoError(t, reader.CheckCanSee(gdb, catalog.ID))

	err = reader.CheckCanModify(gdb, catalog.ID)
	assert.True(t, fault.NotAllowed.Has(err))
	assert.Equal(t, 403, fault.StatusOf(err))

	err = stranger.CheckCanSee(gdb, catalog.ID)
	assert.True(t, fault.NotFound.Has(err))
	assert.Equal(t, 404, fault.StatusOf(err))
	assert.True(t, fault.NotFound.Has(stranger.CheckCanModify(gdb, catalog.ID)))

	catalogs, err := reader.Catalogs(gdb)
	require.NoError(t, err)
	require.Len(t, catalogs, 1)
	assert.Equal(t, catalog.ID, catalogs[0].ID)

	_, err = UserLogin(gdb, "reader@example.com", "wrong")
	assert.True(t, fault.LoginFailed.Has(err))
	logged, err := UserLogin(gdb, "reader@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, reader.ID, logged.ID)
}

func TestAlbumCycle(t *testing.T) {
	gdb := openDB(t)
	catalog := newCatalog(t, gdb, nil, "Cat")
	root, err := catalog.RootAlbum(gdb)
	require.NoError(t, err)

	a1 := Album{CatalogID: catalog.ID, Name: "A1", ParentID: &root.ID}
	require.NoError(t, gdb.Create(&a1).Error)
	a2 := Album{CatalogID: catalog.ID, Name: "A2", ParentID: &a1.ID}
	require.NoError(t, gdb.Create(&a2).Error)

	a1.ParentID = &a2.ID
	err = a1.Save(gdb)
	assert.True(t, fault.CyclicStructure.Has(err), "got %v", err)

	a1.ParentID = &a1.ID
	err = a1.Save(gdb)
	assert.True(t, fault.CyclicStructure.Has(err), "got %v", err)
}

func TestCatalogMismatch(t *testing.T) {
	gdb := openDB(t)
	c1 := newCatalog(t, gdb, nil, "One")
	c2 := newCatalog(t, gdb, nil, "Two")

	tag := Tag{CatalogID: c1.ID, Name: "T"}
	require.NoError(t, gdb.Create(&tag).Error)
	media := Media{CatalogID: c2.ID}
	require.NoError(t, media.Create(gdb))

	err := media.AddTags(gdb, tag.ID)
	assert.True(t, fault.CatalogMismatch.Has(err), "got %v", err)

	child := Tag{CatalogID: c2.ID, Name: "child", ParentID: &tag.ID}
	err = gdb.Create(&child).Error
	assert.True(t, fault.CatalogMismatch.Has(err), "got %v", err)

	root1, err := c1.RootAlbum(gdb)
	require.NoError(t, err)
	err = media.SetAlbums(gdb, []string{root1.ID})
	assert.True(t, fault.CatalogMismatch.Has(err), "got %v", err)
}

func TestNameUniqueness(t *testing.T) {
	gdb := openDB(t)
	catalog := newCatalog(t, gdb, nil, "Cat")
	root, err := catalog.RootAlbum(gdb)
	require.NoError(t, err)

	require.NoError(t, gdb.Create(&Album{CatalogID: catalog.ID, Name: "Summer", ParentID: &root.ID}).Error)
	err = gdb.Create(&Album{CatalogID: catalog.ID, Name: "SUMMER", ParentID: &root.ID}).Error
	assert.True(t, fault.InvalidName.Has(err), "got %v", err)

	winter := Album{CatalogID: catalog.ID, Name: "Winter", ParentID: &root.ID}
	require.NoError(t, gdb.Create(&winter).Error)
	winter.Name = "summer"
	assert.True(t, fault.InvalidName.Has(winter.Save(gdb)))

	// Same name under another parent is fine
	require.NoError(t, gdb.Create(&Album{CatalogID: catalog.ID, Name: "summer", ParentID: &winter.ID}).Error)

	require.NoError(t, gdb.Create(&Tag{CatalogID: catalog.ID, Name: "dog"}).Error)
	err = gdb.Create(&Tag{CatalogID: catalog.ID, Name: "Dog"}).Error
	assert.True(t, fault.InvalidName.Has(err))

	require.NoError(t, gdb.Create(&Person{CatalogID: catalog.ID, Name: "Alice"}).Error)
	err = gdb.Create(&Person{CatalogID: catalog.ID, Name: "alice"}).Error
	assert.True(t, fault.InvalidName.Has(err))

	err = CreateTags(gdb, []Tag{{CatalogID: catalog.ID, Name: "cat"}, {CatalogID: catalog.ID, Name: "CAT"}})
	assert.True(t, fault.InvalidName.Has(err))
	var count int64
	require.NoError(t, gdb.Model(&Tag{}).Where("LOWER(name) = 'cat'").Count(&count).Error)
	assert.Zero(t, count)
}

func TestDescendants(t *testing.T) {
	gdb := openDB(t)
	catalog := newCatalog(t, gdb, nil, "Cat")
	root, err := catalog.RootAlbum(gdb)
	require.NoError(t, err)

	idA, idB, idC, idD := "Aalbum-a", "Aalbum-b", "Aalbum-c", "Aalbum-d"
	albums := []Album{
		{ID: idA, CatalogID: catalog.ID, Name: "a", ParentID: &root.ID},
		{ID: idB, CatalogID: catalog.ID, Name: "b", ParentID: &idA},
		{ID: idC, CatalogID: catalog.ID, Name: "c", ParentID: &idB},
		{ID: idD, CatalogID: catalog.ID, Name: "d", ParentID: &root.ID},
	}
	require.NoError(t, CreateAlbums(gdb, albums))

	a := albums[0]
	got, err := a.Descendants(gdb)
	require.NoError(t, err)
	var names []string
	for _, album := range got {
		names = append(names, album.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"a", "b", "c"}, names)

	all, err := root.Descendants(gdb)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestTagForPath(t *testing.T) {
	gdb := openDB(t)
	catalog := newCatalog(t, gdb, nil, "Cat")

	_, err := GetTagForPath(gdb, catalog.ID, nil)
	assert.True(t, fault.InvalidTag.Has(err))

	sub, err := GetTagForPath(gdb, catalog.ID, []string{"toplevel", "sublevel"})
	require.NoError(t, err)
	require.NotNil(t, sub.ParentID)
	top, err := GetTag(gdb, *sub.ParentID)
	require.NoError(t, err)
	assert.Equal(t, "toplevel", top.Name)
	assert.Nil(t, top.ParentID)

	again, err := GetTagForPath(gdb, catalog.ID, []string{"sublevel"})
	require.NoError(t, err)
	assert.Equal(t, sub.ID, again.ID)

	fresh, err := GetTagForPathMatching(gdb, catalog.ID, []string{"sublevel"}, false)
	require.NoError(t, err)
	assert.NotEqual(t, sub.ID, fresh.ID)
	assert.Nil(t, fresh.ParentID)

	// The top-level one is now preferred
	again, err = GetTagForPath(gdb, catalog.ID, []string{"SubLevel"})
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, again.ID)

	var count int64
	require.NoError(t, gdb.Model(&Tag{}).Where("catalog_id = ?", catalog.ID).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestPersonForName(t *testing.T) {
	gdb := openDB(t)
	catalog := newCatalog(t, gdb, nil, "Cat")

	alice, err := GetPersonForName(gdb, catalog.ID, "Alice")
	require.NoError(t, err)
	again, err := GetPersonForName(gdb, catalog.ID, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, again.ID)
	assert.Equal(t, "Alice", again.Name)
}

func TestMediaCatalogChange(t *testing.T) {
	gdb := openDB(t)
	c1 := newCatalog(t, gdb, nil, "One")
	c2 := newCatalog(t, gdb, nil, "Two")

	media := Media{CatalogID: c1.ID}
	require.NoError(t, media.Create(gdb))
	assert.Equal(t, byte('M'), media.ID[0])
	assert.NotEmpty(t, media.StorageID)

	media.CatalogID = c2.ID
	assert.True(t, fault.CatalogChange.Has(media.Save(gdb)))
}

func TestMediaRelations(t *testing.T) {
	gdb := openDB(t)
	catalog := newCatalog(t, gdb, nil, "Cat")
	media := Media{CatalogID: catalog.ID}
	require.NoError(t, media.Create(gdb))

	t1, err := GetTagForPath(gdb, catalog.ID, []string{"one"})
	require.NoError(t, err)
	t2, err := GetTagForPath(gdb, catalog.ID, []string{"two"})
	require.NoError(t, err)

	require.NoError(t, media.AddTags(gdb, t1.ID, t1.ID))
	require.NoError(t, media.SetTags(gdb, []string{t2.ID}))
	ids, err := media.TagIDs(gdb)
	require.NoError(t, err)
	assert.Equal(t, []string{t2.ID}, ids)

	require.NoError(t, media.RemoveTags(gdb, t2.ID))
	ids, err = media.TagIDs(gdb)
	require.NoError(t, err)
	assert.Empty(t, ids)

	assert.True(t, fault.NotFound.Has(media.AddPeople(gdb, "Pmissing")))
}

func TestMediaInfoAndDelete(t *testing.T) {
	gdb := openDB(t)
	catalog := newCatalog(t, gdb, nil, "Cat")
	media := Media{CatalogID: catalog.ID}
	require.NoError(t, media.Create(gdb))

	require.NoError(t, media.LoadInfo(gdb))
	assert.Nil(t, media.Info)

	require.NoError(t, media.SaveInfo(gdb, MediaInfo{ProcessVersion: 1, MimeType: "video/mp4", Width: 10, Height: 20}))
	require.NoError(t, media.SaveInfo(gdb, MediaInfo{ProcessVersion: 2, MimeType: "video/mp4", Width: 30, Height: 20}))
	loaded, err := GetMedia(gdb, media.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Info)
	assert.Equal(t, 2, loaded.Info.ProcessVersion)
	assert.Equal(t, 30, loaded.Info.Width)
	assert.True(t, loaded.IsVideo())

	require.NoError(t, loaded.Delete(gdb))
	_, err = GetMedia(gdb, media.ID)
	assert.True(t, fault.NotFound.Has(err))
}

func TestDeleteCatalog(t *testing.T) {
	gdb := openDB(t)
	owner, err := UserCreate(gdb, "Owner", "owner@example.com", "secret")
	require.NoError(t, err)
	catalog := newCatalog(t, gdb, &owner, "Cat")
	_, err = GetTagForPath(gdb, catalog.ID, []string{"a", "b", "c"})
	require.NoError(t, err)
	media := Media{CatalogID: catalog.ID}
	require.NoError(t, media.Create(gdb))
	root, err := catalog.RootAlbum(gdb)
	require.NoError(t, err)
	require.NoError(t, media.AddAlbums(gdb, root.ID))

	require.NoError(t, catalog.Delete(gdb))
	for _, model := range []any{&Catalog{}, &Album{}, &Tag{}, &Media{}, &MediaAlbum{}, &UserCatalog{}, &Storage{}} {
		var count int64
		require.NoError(t, gdb.Model(model).Count(&count).Error)
		assert.Zero(t, count, "%T", model)
	}
}
