package db

import (
	"sync"

	cmap "github.com/orcaman/concurrent-map/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NamedLock rows back the advisory locks on databases that lack them
type NamedLock struct {
	Name string `gorm:"primaryKey;type:varchar(100)"`
}

var processLocks = cmap.New[*sync.Mutex]()

func processMutex(key string) *sync.Mutex {
	processLocks.SetIfAbsent(key, &sync.Mutex{})
	mu, _ := processLocks.Get(key)
	return mu
}

// LockKey takes an in-process exclusive lock on key and returns its release func
func LockKey(key string) func() {
	mu := processMutex(key)
	mu.Lock()
	return mu.Unlock
}

// WithNamedLock runs fn in a transaction while holding the named lock.
// Other processes are excluded by a SELECT ... FOR UPDATE on the lock row
// (SQLite serializes writers itself).
func WithNamedLock(tx *gorm.DB, name string, fn func(tx *gorm.DB) error) error {
	unlock := LockKey("named:" + name)
	defer unlock()

	if IsSQLite(tx) {
		return tx.Transaction(fn)
	}
	lock := NamedLock{Name: name}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&lock).Error; err != nil {
		return err
	}
	return tx.Transaction(func(tx *gorm.DB) error {
		if err := ForUpdate(tx).First(&lock, "name = ?", name).Error; err != nil {
			return err
		}
		return fn(tx)
	})
}

// ForUpdate adds a row lock to the next query where the dialect supports it
func ForUpdate(tx *gorm.DB) *gorm.DB {
	if IsSQLite(tx) {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
