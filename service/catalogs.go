package service

import (
	"context"
	"mediacat/fault"
	"mediacat/models"
	"mediacat/storage"

	"go.uber.org/zap"
)

func (s *Service) ListCatalogs(user *models.User) ([]models.Catalog, error) {
	return user.Catalogs(s.db)
}

// CreateCatalog creates a catalog owned by user. A nil descriptor selects
// the configured default storage.
func (s *Service) CreateCatalog(user *models.User, name string, d *storage.Descriptor) (models.Catalog, error) {
	descriptor := storage.DefaultDescriptor()
	if d != nil {
		descriptor = *d
	}
	return models.CreateCatalog(s.db, user, name, descriptor)
}

func (s *Service) GetCatalog(user *models.User, id string) (models.Catalog, error) {
	if err := user.CheckCanSee(s.db, id); err != nil {
		return models.Catalog{}, err
	}
	return models.GetCatalog(s.db, id)
}

// DeleteCatalog removes the catalog rows, then its whole file tree
func (s *Service) DeleteCatalog(ctx context.Context, user *models.User, id string) error {
	if err := user.CheckCanModify(s.db, id); err != nil {
		return err
	}
	catalog, err := models.GetCatalog(s.db, id)
	if err != nil {
		return err
	}
	d, err := catalog.Descriptor()
	if err != nil {
		return err
	}
	if err := catalog.Delete(s.db); err != nil {
		return err
	}
	store, err := s.stores.Open(ctx, d)
	if err == nil {
		err = store.Delete(ctx, catalog.ID)
	}
	if err != nil {
		s.log.Warn("catalog files left behind", zap.String("catalog", id), zap.Error(err))
	}
	return nil
}

// Grant gives the user registered with email access to the catalog
func (s *Service) Grant(user *models.User, catalogID, email string, canModify bool) error {
	if err := user.CheckCanModify(s.db, catalogID); err != nil {
		return err
	}
	var grantee models.User
	if err := s.db.First(&grantee, "email = ?", email).Error; err != nil {
		return fault.FromDB(err)
	}
	return grantee.Grant(s.db, catalogID, canModify)
}
