package fault

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestKindHasThroughWrapping(t *testing.T) {
	err := CyclicStructure.New(Args{"id": "A123"})
	wrapped := fmt.Errorf("saving album: %w", err)

	assert.True(t, CyclicStructure.Has(wrapped))
	assert.False(t, InvalidName.Has(wrapped))
	assert.Equal(t, CyclicStructure, KindOf(wrapped))
	assert.Equal(t, Args{"id": "A123"}, ArgsOf(wrapped))
	assert.Contains(t, err.Error(), "cyclic-structure")
	assert.Contains(t, err.Error(), "id=A123")
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ValidationFailure.New(nil), http.StatusBadRequest},
		{InvalidTag.New(nil), http.StatusBadRequest},
		{NotFound.New(nil), http.StatusNotFound},
		{NotAllowed.New(nil), http.StatusForbidden},
		{LoginFailed.New(nil), http.StatusForbidden},
		{IntegrityError.New(nil), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestFromDB(t *testing.T) {
	assert.Nil(t, FromDB(nil))
	assert.True(t, NotFound.Has(FromDB(gorm.ErrRecordNotFound)))
	assert.True(t, IntegrityError.Has(FromDB(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})))
	assert.True(t, IntegrityError.Has(FromDB(errors.New("UNIQUE constraint failed: tags.name"))))
	assert.True(t, ServerError.Has(FromDB(errors.New("connection reset"))))

	original := InvalidName.New(Args{"name": "x"})
	assert.Same(t, original, FromDB(original))
}
