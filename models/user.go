package models

import (
	"errors"
	"mediacat/fault"
	"mediacat/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type User struct {
	ID        string `gorm:"primaryKey;type:varchar(30)" json:"id"`
	CreatedAt int64  `json:"created"`
	Name      string `gorm:"type:varchar(100)" json:"name"`
	Email     string `gorm:"type:varchar(150);index:uniq_email,unique" json:"email"`
	Password  string `gorm:"type:varchar(128)" json:"-"`
	PassSalt  string `gorm:"type:varchar(200)" json:"-"`
}

// UserCatalog grants a user access to a catalog
type UserCatalog struct {
	UserID    string  `gorm:"primaryKey;type:varchar(30)"`
	User      User    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CatalogID string  `gorm:"primaryKey;type:varchar(30);index"`
	Catalog   Catalog `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CanModify bool    `gorm:"not null;default:false"`
}

const saltSize = 60

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = utils.NewID('U')
	}
	return nil
}

func UserCreate(tx *gorm.DB, name, email, plainTextPassword string) (u User, err error) {
	u.Email = email
	u.Name = name
	u.SetPassword(plainTextPassword)
	return u, fault.FromDB(tx.Create(&u).Error)
}

func (u *User) SetPassword(plainTextPassword string) {
	u.PassSalt = utils.RandSalt(saltSize)
	u.Password = utils.Sha512String(plainTextPassword + u.PassSalt)
}

func UserLogin(tx *gorm.DB, email, plainTextPassword string) (u User, err error) {
	result := tx.First(&u, "email = ?", email)
	if result.Error != nil || u.Password != utils.Sha512String(plainTextPassword+u.PassSalt) {
		return User{}, fault.LoginFailed.New(nil)
	}
	return u, nil
}

func (u *User) access(tx *gorm.DB, catalogID string) (*UserCatalog, error) {
	var access UserCatalog
	err := tx.First(&access, "user_id = ? AND catalog_id = ?", u.ID, catalogID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &access, fault.FromDB(err)
}

// CheckCanSee fails with not-found unless the user has access to the catalog
func (u *User) CheckCanSee(tx *gorm.DB, catalogID string) error {
	access, err := u.access(tx, catalogID)
	if err != nil {
		return err
	}
	if access == nil {
		return fault.NotFound.New(fault.Args{"catalog": catalogID})
	}
	return nil
}

// CheckCanModify fails like CheckCanSee, then with not-allowed for read-only access
func (u *User) CheckCanModify(tx *gorm.DB, catalogID string) error {
	access, err := u.access(tx, catalogID)
	if err != nil {
		return err
	}
	if access == nil {
		return fault.NotFound.New(fault.Args{"catalog": catalogID})
	}
	if !access.CanModify {
		return fault.NotAllowed.New(fault.Args{"catalog": catalogID})
	}
	return nil
}

// Grant gives the user access to a catalog, replacing any previous access
func (u *User) Grant(tx *gorm.DB, catalogID string, canModify bool) error {
	access := UserCatalog{UserID: u.ID, CatalogID: catalogID, CanModify: canModify}
	err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "catalog_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"can_modify"}),
	}).Create(&access).Error
	return fault.FromDB(err)
}

// Catalogs lists the catalogs the user can see
func (u *User) Catalogs(tx *gorm.DB) ([]Catalog, error) {
	var catalogs []Catalog
	err := tx.Joins("JOIN user_catalogs ON user_catalogs.catalog_id = catalogs.id").
		Where("user_catalogs.user_id = ?", u.ID).
		Order("catalogs.name").
		Find(&catalogs).Error
	return catalogs, fault.FromDB(err)
}
