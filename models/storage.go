package models

import (
	"mediacat/fault"
	"mediacat/storage"

	"gorm.io/gorm"
)

// Storage is the persisted form of a storage descriptor. It never changes
// once created.
type Storage struct {
	ID        uint64 `gorm:"primaryKey"`
	CreatedAt int64
	Type      string `gorm:"type:varchar(20);not null"`
	Payload   string `gorm:"type:text"`
}

func NewStorage(d storage.Descriptor) (Storage, error) {
	if err := d.Validate(); err != nil {
		return Storage{}, err
	}
	payload, err := d.Payload()
	if err != nil {
		return Storage{}, fault.ServerError.Wrap(err, nil)
	}
	return Storage{Type: string(d.Type), Payload: payload}, nil
}

func (s *Storage) BeforeUpdate(tx *gorm.DB) error {
	return fault.ValidationFailure.New(fault.Args{"storage": s.ID, "reason": "storage cannot be changed"})
}

func (s *Storage) Descriptor() (storage.Descriptor, error) {
	return storage.ParseDescriptor(storage.Type(s.Type), s.Payload)
}
