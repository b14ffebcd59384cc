// Package fault holds the error kinds shared by every domain operation.
// Each kind maps to an HTTP status for the transport layer.
package fault

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/zeebo/errs"
	"gorm.io/gorm"
)

// Args are optional details attached to an error, e.g. the offending name
type Args map[string]any

type Kind struct {
	Name   string
	Status int
	class  errs.Class
}

var (
	CatalogMismatch   = newKind("catalog-mismatch", http.StatusBadRequest)
	CyclicStructure   = newKind("cyclic-structure", http.StatusBadRequest)
	InvalidName       = newKind("invalid-name", http.StatusBadRequest)
	InvalidTag        = newKind("invalid-tag", http.StatusBadRequest)
	CatalogChange     = newKind("catalog-change", http.StatusBadRequest)
	NotFound          = newKind("not-found", http.StatusNotFound)
	NotAllowed        = newKind("not-allowed", http.StatusForbidden)
	UnknownType       = newKind("unknown-type", http.StatusBadRequest)
	LoginFailed       = newKind("login-failed", http.StatusForbidden)
	ValidationFailure = newKind("validation-failure", http.StatusBadRequest)
	IntegrityError    = newKind("integrity-error", http.StatusInternalServerError)
	ServerError       = newKind("server-error", http.StatusInternalServerError)
)

func newKind(name string, status int) *Kind {
	return &Kind{Name: name, Status: status, class: errs.Class(name)}
}

type Error struct {
	Kind *Kind
	Args Args
	err  error
}

func (e *Error) Error() string { return e.err.Error() }
func (e *Error) Unwrap() error { return e.err }

// New creates an error of this kind with optional arguments
func (k *Kind) New(args Args) error {
	return &Error{Kind: k, Args: args, err: k.class.New("%s", describe(args))}
}

// Wrap attaches this kind to an underlying error
func (k *Kind) Wrap(err error, args Args) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: k, Args: args, err: k.class.Wrap(err)}
}

// Has reports whether err, or anything it wraps, is of this kind
func (k *Kind) Has(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return k.class.Has(err)
}

// KindOf returns the kind of err. Unclassified errors are server errors.
func KindOf(err error) *Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ServerError
}

func ArgsOf(err error) Args {
	var e *Error
	if errors.As(err, &e) {
		return e.Args
	}
	return nil
}

func StatusOf(err error) int {
	return KindOf(err).Status
}

// FromDB classifies errors coming back from gorm and the SQL drivers
func FromDB(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound.Wrap(err, nil)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated) {
		return IntegrityError.Wrap(err, nil)
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1062, 1451, 1452:
			return IntegrityError.Wrap(err, nil)
		}
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "FOREIGN KEY constraint failed") {
		return IntegrityError.Wrap(err, nil)
	}
	return ServerError.Wrap(err, nil)
}

func describe(args Args) string {
	if len(args) == 0 {
		return ""
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, args[k]))
	}
	return strings.Join(parts, " ")
}
