package accessor

import (
	"fmt"

	"github.com/tuannm99/novarow/internal/record"
)

// NullLink is what GetLink returns for an empty link.
const NullLink = int64(record.NullObjKey)

func (r *Row) linkColumn(op string, key record.ColKey) (record.Column, error) {
	col, err := r.column(op, key)
	if err != nil {
		return col, err
	}
	if col.Type != record.ColLink || col.List {
		return col, fmt.Errorf("accessor: %s %q is %s: %w", op, col.Name, col.FieldType(), ErrTypeMismatch)
	}
	return col, nil
}

// GetLink returns the target record key, NullLink when the link is empty.
// An invalid handle also reads as NullLink, matching IsNullLink.
func (r *Row) GetLink(key record.ColKey) (int64, error) {
	if _, err := r.linkColumn("get link", key); err != nil {
		return NullLink, err
	}
	v, err := r.b.table.Get(r.b.key, key)
	if err != nil {
		return NullLink, translate("get link", err)
	}
	target, _ := v.AsLink()
	return int64(target), nil
}

// IsNullLink reports whether the link is empty. It reports true along with
// the error when the handle is invalid or the column is not a link.
func (r *Row) IsNullLink(key record.ColKey) (bool, error) {
	if _, err := r.linkColumn("is null link", key); err != nil {
		return true, err
	}
	null, err := r.b.table.IsNull(r.b.key, key)
	if err != nil {
		return true, translate("is null link", err)
	}
	return null, nil
}

// SetLink points the link at target in the column's target table. Whether
// that record exists is not checked.
func (r *Row) SetLink(key record.ColKey, target int64) error {
	col, err := r.linkColumn("set link", key)
	if err != nil {
		return err
	}
	if target < 0 {
		return fmt.Errorf("accessor: set link %q to %d: %w", col.Name, target, ErrIllegalArgument)
	}
	if err := r.b.table.SetLink(r.b.key, key, record.ObjKey(target)); err != nil {
		return translate("set link", err)
	}
	return nil
}

// NullifyLink empties the link. Emptying an empty link is fine.
func (r *Row) NullifyLink(key record.ColKey) error {
	if _, err := r.linkColumn("nullify link", key); err != nil {
		return err
	}
	if err := r.b.table.SetLink(r.b.key, key, record.NullObjKey); err != nil {
		return translate("nullify link", err)
	}
	return nil
}

// LinkTarget names the table a link column points into.
func (r *Row) LinkTarget(key record.ColKey) (string, error) {
	col, err := r.column("link target", key)
	if err != nil {
		return "", err
	}
	if !col.Type.IsLink() {
		return "", fmt.Errorf("accessor: link target %q is %s: %w", col.Name, col.FieldType(), ErrTypeMismatch)
	}
	return col.Target, nil
}
