package record

import "errors"

var (
	ErrSchemaMismatch             = errors.New("rowcodec: schema/values mismatch")
	ErrSchemaMismatchNotAllowNull = errors.New("rowcodec: null value for non-nullable column")
	ErrBadBuffer                  = errors.New("rowcodec: buffer underflow/overflow")
	ErrVarTooLong                 = errors.New("rowcodec: variable length exceeds u16")
	ErrInvalidText                = errors.New("rowcodec: text is not valid UTF-8")
	ErrInvalidLink                = errors.New("rowcodec: link target must be a non-negative key")
	ErrInvalidTimestamp           = errors.New("rowcodec: timestamp is not in canonical form")
	ErrUnsupportedType            = errors.New("rowcodec: unsupported type")

	ErrDuplicateColumn   = errors.New("schema: duplicate column")
	ErrEmptyColumnName   = errors.New("schema: empty column name")
	ErrInvalidColumnName = errors.New("schema: column name is not valid UTF-8")
	ErrMissingLinkTarget = errors.New("schema: link column without target table")
	ErrForeignColumnKey  = errors.New("schema: column key belongs to another table")
	ErrTooManyColumns    = errors.New("schema: too many columns")
	ErrColumnNotInSchema = errors.New("schema: column not found")
)
