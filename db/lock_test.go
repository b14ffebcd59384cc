package db_test

import (
	"errors"
	"mediacat/db"
	"mediacat/db/dbtest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type counter struct {
	Name  string `gorm:"primaryKey"`
	Value int
}

func TestWithNamedLockSerializes(t *testing.T) {
	gdb := dbtest.Open(t)
	require.NoError(t, gdb.AutoMigrate(&db.NamedLock{}, &counter{}))
	require.NoError(t, gdb.Create(&counter{Name: "c"}).Error)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.WithNamedLock(gdb, "counter", func(tx *gorm.DB) error {
				var c counter
				if err := tx.First(&c, "name = ?", "c").Error; err != nil {
					return err
				}
				c.Value++
				return tx.Save(&c).Error
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var c counter
	require.NoError(t, gdb.First(&c, "name = ?", "c").Error)
	assert.Equal(t, 8, c.Value)
}

func TestWithNamedLockRollsBack(t *testing.T) {
	gdb := dbtest.Open(t)
	require.NoError(t, gdb.AutoMigrate(&db.NamedLock{}, &counter{}))

	boom := errors.New("boom")
	err := db.WithNamedLock(gdb, "counter", func(tx *gorm.DB) error {
		if err := tx.Create(&counter{Name: "x", Value: 1}).Error; err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int64
	require.NoError(t, gdb.Model(&counter{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestLockKey(t *testing.T) {
	unlock := db.LockKey("media:1")
	acquired := make(chan struct{})
	go func() {
		release := db.LockKey("media:1")
		close(acquired)
		release()
	}()
	select {
	case <-acquired:
		t.Fatal("second LockKey acquired while the first is held")
	default:
	}
	unlock()
	<-acquired
}
