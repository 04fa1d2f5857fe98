package utils

import (
	"fmt"
	"reflect"
	"strings"
)

// FieldNames returns the wire names of the fields of struct type T, in
// declaration order.
//
// The name of a field is taken from its `json` tag when present, otherwise
// from the Go field name. Fields tagged `json:"-"` and unexported fields are
// skipped. Embedded structs without a tag name contribute their own fields,
// mirroring how `encoding/json` flattens them. A struct type embedded again
// inside itself, directly or through other embedded types, is visited once.
//
// T must be a struct or a pointer to a struct.
//
// Example:
//
//	type Customer struct {
//		ID      string `json:"id"`
//		Name    string `json:"name"`
//		Secret  string `json:"-"`
//		Country string
//	}
//	names, err := FieldNames[Customer]()
//	// names will be []string{"id", "name", "Country"}
func FieldNames[T any]() ([]string, error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("entity type must be a struct or a pointer to a struct, got %s", typ.Kind())
	}

	names := collectFieldNames(typ, make([]string, 0, typ.NumField()), make(map[reflect.Type]bool))
	if len(names) == 0 {
		return nil, fmt.Errorf("entity type %s has no selectable fields", typ.Name())
	}
	return names, nil
}

func collectFieldNames(typ reflect.Type, names []string, visited map[reflect.Type]bool) []string {
	visited[typ] = true
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)

		tagName := ""
		if tag, ok := field.Tag.Lookup("json"); ok {
			if tag == "-" {
				continue
			}
			tagName, _, _ = strings.Cut(tag, ",")
		}

		if field.Anonymous && tagName == "" {
			embedded := field.Type
			if embedded.Kind() == reflect.Ptr {
				embedded = embedded.Elem()
			}
			if embedded.Kind() == reflect.Struct {
				if !visited[embedded] {
					names = collectFieldNames(embedded, names, visited)
				}
				continue
			}
		}

		if !field.IsExported() {
			continue
		}
		if tagName == "" {
			tagName = field.Name
		}
		names = append(names, tagName)
	}
	return names
}
