package util

import (
	"fmt"
	"reflect"
)

// IsStructInitialized returns an error naming the first exported field of s
// (a struct or pointer to one) that still has its zero value. Fields tagged
// `wire:"-"` are skipped.
func IsStructInitialized(s any) error {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return fmt.Errorf("%T is nil", s)
		}
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return fmt.Errorf("%T is not a struct", s)
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() || field.Tag.Get("wire") == "-" {
			continue
		}

		if v.Field(i).IsZero() {
			return fmt.Errorf("%s.%s is not initialized", t.Name(), field.Name)
		}
	}

	return nil
}
