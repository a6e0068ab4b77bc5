package crud

import (
	"reflect"

	"github.com/conduit-lang/descriptor/internal/orm/schema"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// referenceHolder receives the key of a referenced entity
type referenceHolder struct {
	column *schema.Column
	key    reflect.Value // **K
}

// scanEntity scans one row, selected in entity.Columns order, into a new
// entity and returns a pointer to it.
//
// Reference columns produce a stub of the target entity holding only its
// key; NULL references leave the pointer nil.
func scanEntity(row rowScanner, entity *schema.EntityType) (reflect.Value, error) {
	ptr := entity.New()
	elem := ptr.Elem()

	dest := make([]any, len(entity.Columns))
	var refs []referenceHolder

	for i, c := range entity.Columns {
		if c.Reference != nil {
			holder := reflect.New(reflect.PointerTo(c.GoType))
			refs = append(refs, referenceHolder{column: c, key: holder})
			dest[i] = holder.Interface()
			continue
		}
		dest[i] = elem.FieldByIndex(c.Index).Addr().Interface()
	}

	if err := row.Scan(dest...); err != nil {
		return reflect.Value{}, err
	}

	for _, ref := range refs {
		key := ref.key.Elem()
		if key.IsNil() {
			continue
		}
		target := reflect.New(ref.column.Reference.Target)
		target.Elem().FieldByIndex(ref.column.Reference.TargetKey).Set(key.Elem())
		elem.FieldByIndex(ref.column.Index).Set(target)
	}

	return ptr, nil
}

// columnValue extracts the value stored in column c from an entity struct
func columnValue(elem reflect.Value, c *schema.Column) any {
	field := elem.FieldByIndex(c.Index)

	if c.Reference != nil {
		if field.IsNil() {
			return nil
		}
		return field.Elem().FieldByIndex(c.Reference.TargetKey).Interface()
	}

	if field.Kind() == reflect.Pointer && field.IsNil() {
		return nil
	}
	return field.Interface()
}

// setGeneratedKey stores a store-generated integer key into the field
func setGeneratedKey(field reflect.Value, id int64) {
	switch field.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		field.SetUint(uint64(id))
	default:
		field.SetInt(id)
	}
}
