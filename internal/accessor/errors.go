package accessor

import (
	"errors"
	"fmt"

	"github.com/tuannm99/novarow/internal/engine"
	"github.com/tuannm99/novarow/internal/record"
	"github.com/tuannm99/novarow/internal/storage"
)

var (
	ErrInvalidHandle   = errors.New("accessor: invalid handle")
	ErrUnknownColumn   = errors.New("accessor: unknown column")
	ErrNullValue       = errors.New("accessor: null value")
	ErrIllegalArgument = errors.New("accessor: illegal argument")
	ErrTypeMismatch    = fmt.Errorf("%w: type mismatch", ErrIllegalArgument)
	ErrOutOfMemory     = errors.New("accessor: out of memory")
)

// classify maps an engine or codec error onto the accessor taxonomy.
func classify(err error) error {
	switch {
	case errors.Is(err, engine.ErrRecordNotFound),
		errors.Is(err, engine.ErrTableDropped),
		errors.Is(err, engine.ErrStoreClosed):
		return ErrInvalidHandle
	case errors.Is(err, engine.ErrColumnNotFound):
		return ErrUnknownColumn
	case errors.Is(err, record.ErrSchemaMismatchNotAllowNull):
		return ErrNullValue
	case errors.Is(err, record.ErrSchemaMismatch):
		return ErrTypeMismatch
	case errors.Is(err, record.ErrVarTooLong),
		errors.Is(err, record.ErrInvalidText),
		errors.Is(err, record.ErrInvalidLink),
		errors.Is(err, record.ErrInvalidTimestamp),
		errors.Is(err, storage.ErrTupleTooLarge):
		return ErrIllegalArgument
	}
	return nil
}

// translate keeps both the accessor class and the underlying cause visible
// to errors.Is.
func translate(op string, err error) error {
	if class := classify(err); class != nil {
		return fmt.Errorf("accessor: %s: %w: %w", op, class, err)
	}
	return fmt.Errorf("accessor: %s: %w", op, err)
}

func columnErr(op, column string, class error) error {
	return fmt.Errorf("accessor: %s %q: %w", op, column, class)
}
