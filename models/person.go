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
	personTable      = "people"
	personCreateLock = "Person.create"
)

type Person struct {
	ID        string  `gorm:"primaryKey;type:varchar(30)" json:"id"`
	CatalogID string  `gorm:"type:varchar(30);not null;index" json:"catalog"`
	Catalog   Catalog `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Name      string  `gorm:"type:varchar(100);not null" json:"name"`
}

// TableName overrides the table name
func (Person) TableName() string {
	return personTable
}

func (p *Person) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = utils.NewID('P')
	}
	return nil
}

func (p *Person) BeforeSave(tx *gorm.DB) error {
	return validateNode(tx, p.node())
}

func (p *Person) node() node {
	return node{table: personTable, id: p.ID, catalogID: p.CatalogID, name: p.Name}
}

func GetPerson(tx *gorm.DB, id string) (person Person, err error) {
	err = tx.First(&person, "id = ?", id).Error
	return person, fault.FromDB(err)
}

// CreatePeople creates all people or none
func CreatePeople(tx *gorm.DB, people []Person) error {
	nodes := make([]node, len(people))
	for i := range people {
		nodes[i] = people[i].node()
	}
	if err := checkBatchNames(nodes); err != nil {
		return err
	}
	return tx.Transaction(func(tx *gorm.DB) error {
		for i := range people {
			if err := tx.Omit(clause.Associations).Create(&people[i]).Error; err != nil {
				return fault.FromDB(err)
			}
		}
		return nil
	})
}

func (p *Person) Save(tx *gorm.DB) error {
	return fault.FromDB(tx.Omit(clause.Associations).Save(p).Error)
}

func (p *Person) Delete(tx *gorm.DB) error {
	return fault.FromDB(tx.Delete(&Person{}, "id = ?", p.ID).Error)
}

// GetPersonForName finds the person with that name, ignoring case, or creates it
func GetPersonForName(tx *gorm.DB, catalogID, name string) (person Person, err error) {
	if strings.TrimSpace(name) == "" {
		return person, fault.InvalidName.New(fault.Args{"name": name})
	}
	err = db.WithNamedLock(tx, personCreateLock, func(tx *gorm.DB) error {
		err := tx.Where("catalog_id = ? AND LOWER(name) = LOWER(?)", catalogID, name).First(&person).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fault.FromDB(err)
		}
		person = Person{CatalogID: catalogID, Name: name}
		return fault.FromDB(tx.Omit(clause.Associations).Create(&person).Error)
	})
	return person, err
}
