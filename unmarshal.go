package pf

import (
	"fmt"
	"reflect"
	"strings"
)

var valueType = reflect.TypeOf(Value{})

// Decode copies attributes from src into the struct pointed to by v.
// If v is not a pointer to a struct, Decode returns an error.
//
// Decode uses struct tags to map keys to fields:
//   - `pf:"key"` - reads attribute "key" into this field
//   - `pf:"key,required"` - a missing key is an error instead of being skipped
//   - `pf:"-"` - ignores this field
//
// Untagged fields use the lower-cased field name. Scalars must match the
// field's kind exactly (string, signed/unsigned integers, floats, bool); a
// mismatch is a *GetError. When src is an *AntelopePf, []string fields are
// filled from tables and struct or *struct fields from branches.
//
// Example:
//
//	type Taper struct {
//	    Front0 float64 `pf:"front0"`
//	    Tail0  float64 `pf:"tail0"`
//	}
//	type Params struct {
//	    Algorithm string   `pf:"algorithm,required"`
//	    NFFT      int      `pf:"operator_nfft"`
//	    Rows      []string `pf:"mdlist"`
//	    Taper     Taper    `pf:"wavelet_taper"`
//	}
func Decode(src Attributes, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("pf: decode target must be a non-nil pointer")
	}

	elem := rv.Elem()
	if elem.Kind() != reflect.Struct {
		return fmt.Errorf("pf: decode target must be a pointer to struct")
	}

	return decodeStruct(src, elem)
}

// decodeStruct fills the exported fields of v from src.
func decodeStruct(src Attributes, v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		if !fieldValue.CanSet() {
			continue
		}

		tag := field.Tag.Get("pf")
		if tag == "-" {
			continue
		}

		key, opts := parseTag(tag)
		if key == "" {
			key = strings.ToLower(field.Name)
		}

		found, err := decodeField(src, key, fieldValue)
		if err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
		if !found && hasOption(opts, "required") {
			return fmt.Errorf("field %s: %w", field.Name, missingFor(key, fieldValue))
		}
	}

	return nil
}

// decodeField sets one field. found is false when src has nothing under key.
func decodeField(src Attributes, key string, field reflect.Value) (bool, error) {
	pfsrc, _ := src.(*AntelopePf)

	switch {
	case field.Type() == valueType:
		v, ok := src.Lookup(key)
		if ok {
			field.Set(reflect.ValueOf(v))
		}
		return ok, nil
	case field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.String:
		if pfsrc == nil {
			return false, fmt.Errorf("table %s requires a parameter file source", key)
		}
		rows, ok := pfsrc.tables[key]
		if !ok {
			return false, nil
		}
		slice := reflect.MakeSlice(field.Type(), len(rows), len(rows))
		for i, row := range rows {
			slice.Index(i).SetString(row)
		}
		field.Set(slice)
		return true, nil
	case field.Kind() == reflect.Struct:
		branch, err := branchFor(pfsrc, key)
		if branch == nil || err != nil {
			return false, err
		}
		return true, decodeStruct(branch, field)
	case field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct:
		branch, err := branchFor(pfsrc, key)
		if branch == nil || err != nil {
			return false, err
		}
		ptr := reflect.New(field.Type().Elem())
		if err := decodeStruct(branch, ptr.Elem()); err != nil {
			return true, err
		}
		field.Set(ptr)
		return true, nil
	case field.Kind() == reflect.Ptr:
		v, ok := src.Lookup(key)
		if !ok {
			return false, nil
		}
		ptr := reflect.New(field.Type().Elem())
		if err := setScalar(ptr.Elem(), key, v); err != nil {
			return true, err
		}
		field.Set(ptr)
		return true, nil
	default:
		v, ok := src.Lookup(key)
		if !ok {
			return false, nil
		}
		return true, setScalar(field, key, v)
	}
}

func branchFor(src *AntelopePf, key string) (*AntelopePf, error) {
	if src == nil {
		return nil, fmt.Errorf("branch %s requires a parameter file source", key)
	}
	return src.branches[key], nil
}

// setScalar stores v in field when their kinds agree.
func setScalar(field reflect.Value, key string, v Value) error {
	mismatch := func(want Kind) error {
		return &GetError{Key: key, Space: SpaceAttribute, Want: want, Found: v.Kind()}
	}

	switch field.Kind() {
	case reflect.String:
		if v.kind != KindString {
			return mismatch(KindString)
		}
		field.SetString(v.strVal)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v.kind != KindLong {
			return mismatch(KindLong)
		}
		if field.OverflowInt(v.longVal) {
			return fmt.Errorf("value %d of %s overflows %s", v.longVal, key, field.Type())
		}
		field.SetInt(v.longVal)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if v.kind != KindLong {
			return mismatch(KindLong)
		}
		if v.longVal < 0 || field.OverflowUint(uint64(v.longVal)) {
			return fmt.Errorf("value %d of %s overflows %s", v.longVal, key, field.Type())
		}
		field.SetUint(uint64(v.longVal))
	case reflect.Float32, reflect.Float64:
		if v.kind != KindDouble {
			return mismatch(KindDouble)
		}
		field.SetFloat(v.doubleVal)
	case reflect.Bool:
		if v.kind != KindBool {
			return mismatch(KindBool)
		}
		field.SetBool(v.boolVal)
	case reflect.Interface:
		if field.NumMethod() != 0 {
			return fmt.Errorf("unsupported field type: %s", field.Type())
		}
		field.Set(reflect.ValueOf(v.Interface()))
	default:
		return fmt.Errorf("unsupported field type: %s", field.Type())
	}
	return nil
}

// missingFor builds the lookup fault for a required field.
func missingFor(key string, field reflect.Value) error {
	switch {
	case field.Kind() == reflect.Slice:
		return &GetError{Key: key, Space: SpaceTable}
	case field.Kind() == reflect.Struct && field.Type() != valueType,
		field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct:
		return &GetError{Key: key, Space: SpaceBranch}
	}
	return &GetError{Key: key, Space: SpaceAttribute, Want: fieldKind(field)}
}

func fieldKind(field reflect.Value) Kind {
	t := field.Type()
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return KindString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return KindLong
	case reflect.Float32, reflect.Float64:
		return KindDouble
	case reflect.Bool:
		return KindBool
	}
	return KindInvalid
}

// Helper functions

func parseTag(tag string) (string, []string) {
	parts := strings.Split(tag, ",")
	if len(parts) == 0 {
		return "", nil
	}
	return parts[0], parts[1:]
}

func hasOption(opts []string, option string) bool {
	for _, opt := range opts {
		if opt == option {
			return true
		}
	}
	return false
}
