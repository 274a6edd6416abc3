package accessor

import (
	"errors"
	"fmt"
	"time"

	"github.com/tuannm99/novarow/internal/record"
)

// Get reads the field as a Value; null is Value.IsNull. On an invalid handle
// it returns the column's default for a fresh record.
func (r *Row) Get(key record.ColKey) (record.Value, error) {
	if !r.IsValid() {
		if r.Table() != nil {
			if col, ok := r.b.table.Column(key); ok {
				return record.Default(col), fmt.Errorf("accessor: get: %w", ErrInvalidHandle)
			}
		}
		return record.Null(), fmt.Errorf("accessor: get: %w", ErrInvalidHandle)
	}
	col, err := r.column("get", key)
	if err != nil {
		return record.Null(), err
	}
	if col.List {
		return record.Null(), columnErr("get", col.Name, ErrTypeMismatch)
	}
	v, err := r.b.table.Get(r.b.key, key)
	if err != nil {
		return readFailed("get", col, err)
	}
	return v, nil
}

// readFailed is Get's error result. A record that went away after the
// validity check reads as the column default, the same as a stale handle.
func readFailed(op string, col record.Column, err error) (record.Value, error) {
	err = translate(op, err)
	if errors.Is(err, ErrInvalidHandle) {
		return record.Default(col), err
	}
	return record.Null(), err
}

// getTyped reads a scalar column of type want. A null field yields the zero
// T with ErrNullValue.
func getTyped[T any](r *Row, op string, key record.ColKey, want record.ColumnType, as func(record.Value) (T, bool)) (T, error) {
	var zero T
	col, err := r.column(op, key)
	if err != nil {
		return zero, err
	}
	if col.List || col.Type != want {
		return zero, fmt.Errorf("accessor: %s %q is %s: %w", op, col.Name, col.FieldType(), ErrTypeMismatch)
	}
	v, err := r.b.table.Get(r.b.key, key)
	if err != nil {
		return zero, translate(op, err)
	}
	if col.Nullable && v.IsNull() {
		return zero, columnErr(op, col.Name, ErrNullValue)
	}
	x, ok := as(v)
	if !ok {
		return zero, columnErr(op, col.Name, ErrNullValue)
	}
	return x, nil
}

func (r *Row) GetInt64(key record.ColKey) (int64, error) {
	return getTyped(r, "get int64", key, record.ColInt64, record.Value.AsInt64)
}

func (r *Row) GetBool(key record.ColKey) (bool, error) {
	return getTyped(r, "get bool", key, record.ColBool, record.Value.AsBool)
}

func (r *Row) GetFloat(key record.ColKey) (float32, error) {
	return getTyped(r, "get float", key, record.ColFloat32, record.Value.AsFloat32)
}

func (r *Row) GetDouble(key record.ColKey) (float64, error) {
	return getTyped(r, "get double", key, record.ColFloat64, record.Value.AsFloat64)
}

func (r *Row) GetString(key record.ColKey) (string, error) {
	return getTyped(r, "get string", key, record.ColText, record.Value.AsText)
}

// GetBinary returns a copy the caller may keep and modify.
func (r *Row) GetBinary(key record.ColKey) ([]byte, error) {
	return getTyped(r, "get binary", key, record.ColBytes, record.Value.AsBytes)
}

// GetTimestamp returns milliseconds since the Unix epoch.
func (r *Row) GetTimestamp(key record.ColKey) (int64, error) {
	ts, err := getTyped(r, "get timestamp", key, record.ColTimestamp, record.Value.AsTimestamp)
	return ts.Millis(), err
}

// GetTime is GetTimestamp at full resolution.
func (r *Row) GetTime(key record.ColKey) (time.Time, error) {
	ts, err := getTyped(r, "get timestamp", key, record.ColTimestamp, record.Value.AsTimestamp)
	return ts.Time(), err
}

// Set writes v. Null into a non-nullable column fails with ErrNullValue; a
// value of another type fails with ErrTypeMismatch; an oversized or non
// UTF-8 payload fails with ErrIllegalArgument. A failed Set changes nothing.
func (r *Row) Set(key record.ColKey, v record.Value) error {
	col, err := r.column("set", key)
	if err != nil {
		return err
	}
	switch {
	case col.List:
		return fmt.Errorf("accessor: set %q is %s: %w", col.Name, col.FieldType(), ErrTypeMismatch)
	case v.IsNull() && !col.Nullable:
		return columnErr("set", col.Name, ErrNullValue)
	case !v.IsNull() && v.Type() != col.Type:
		return fmt.Errorf("accessor: set %q is %s, value is %s: %w", col.Name, col.FieldType(), v.Type(), ErrTypeMismatch)
	}
	if err := r.b.table.Set(r.b.key, key, v); err != nil {
		return translate("set", err)
	}
	return nil
}

func (r *Row) SetInt64(key record.ColKey, v int64) error    { return r.Set(key, record.Int64(v)) }
func (r *Row) SetBool(key record.ColKey, v bool) error      { return r.Set(key, record.Bool(v)) }
func (r *Row) SetFloat(key record.ColKey, v float32) error  { return r.Set(key, record.Float32(v)) }
func (r *Row) SetDouble(key record.ColKey, v float64) error { return r.Set(key, record.Float64(v)) }
func (r *Row) SetString(key record.ColKey, v string) error  { return r.Set(key, record.Text(v)) }

// SetBinary stores a copy of v; a nil slice is null.
func (r *Row) SetBinary(key record.ColKey, v []byte) error { return r.Set(key, record.Bytes(v)) }

// SetTimestamp stores ms milliseconds since the Unix epoch.
func (r *Row) SetTimestamp(key record.ColKey, ms int64) error {
	return r.Set(key, record.TimestampMillis(ms))
}

func (r *Row) SetTime(key record.ColKey, t time.Time) error {
	return r.Set(key, record.TimestampOf(record.TimestampFromTime(t)))
}

// IsNull reports whether the field holds null. Non-nullable columns are
// never null.
func (r *Row) IsNull(key record.ColKey) (bool, error) {
	col, err := r.column("is null", key)
	if err != nil {
		return false, err
	}
	if col.List {
		return false, columnErr("is null", col.Name, ErrTypeMismatch)
	}
	if !col.Nullable {
		return false, nil
	}
	null, err := r.b.table.IsNull(r.b.key, key)
	if err != nil {
		return false, translate("is null", err)
	}
	return null, nil
}

// SetNull clears a nullable field. On a non-nullable column it does nothing,
// unlike Set(key, record.Null()) which fails with ErrNullValue.
func (r *Row) SetNull(key record.ColKey) error {
	col, err := r.column("set null", key)
	if err != nil {
		return err
	}
	if col.List {
		return columnErr("set null", col.Name, ErrTypeMismatch)
	}
	if !col.Nullable {
		return nil
	}
	if err := r.b.table.SetNull(r.b.key, key); err != nil {
		return translate("set null", err)
	}
	return nil
}
