package export

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

type (
	// SchemaAccumulator builds a parquet-go JSON schema by watching rows go
	// by. Fields seeded through NewSchemaAccumulator keep their order, any
	// other key appends when it is first seen. A field stays untyped until a
	// non-nil value reveals its type, and untyped fields are left out of the
	// final schema.
	SchemaAccumulator struct {
		fields []*fieldSchema
		index  map[string]*fieldSchema
	}

	fieldSchema struct {
		tag    schemaTag
		fields []*fieldSchema
		typed  bool
	}

	schemaTag struct {
		Name           string
		Type           string
		ConvertedType  string
		Encoding       string
		RepetitionType string
	}

	jsonSchema struct {
		Tag    string        `json:",omitempty"`
		Fields []*jsonSchema `json:",omitempty"`
	}
)

const (
	repOptional = "OPTIONAL"
	repRequired = "REQUIRED"
)

func NewSchemaAccumulator(names ...string) *SchemaAccumulator {
	a := &SchemaAccumulator{
		index: make(map[string]*fieldSchema, len(names)),
	}
	for _, name := range names {
		a.addField(name)
	}
	return a
}

func (a *SchemaAccumulator) addField(name string) *fieldSchema {
	f := &fieldSchema{
		tag: schemaTag{
			Name:           name,
			RepetitionType: repOptional,
		},
	}
	a.fields = append(a.fields, f)
	a.index[name] = f
	return f
}

// WriteRow folds one row into the schema. Field names are taken from the row
// keys exactly as given, they must match the keys of the JSON rows handed to
// the parquet writer later.
func (a *SchemaAccumulator) WriteRow(row map[string]any) {
	var unseen []string
	for key := range row {
		if _, exists := a.index[key]; !exists {
			unseen = append(unseen, key)
		}
	}
	sort.Strings(unseen)
	for _, key := range unseen {
		a.addField(key)
	}
	for key, val := range row {
		f := a.index[key]
		if f.typed {
			continue
		}
		typeField(f, val)
	}
}

// typeField fills in the parquet type for a field from a concrete value. A
// nil value leaves the field untyped so a later row can still type it.
func typeField(f *fieldSchema, val any) {
	if val == nil {
		return
	}
	switch val.(type) {
	case string, *string:
		f.tag.Type = "BYTE_ARRAY"
		f.tag.ConvertedType = "UTF8"
		f.tag.Encoding = "PLAIN"
		f.typed = true
		return
	case bool, *bool:
		f.tag.Type = "BOOLEAN"
		f.typed = true
		return
	case time.Time, *time.Time:
		// marshals to an RFC 3339 string
		f.tag.Type = "BYTE_ARRAY"
		f.tag.ConvertedType = "UTF8"
		f.tag.Encoding = "PLAIN"
		f.typed = true
		return
	}

	rt := reflect.TypeOf(val)
	if rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt.Kind() == reflect.Slice {
		rv := reflect.ValueOf(val)
		if rv.Kind() == reflect.Pointer {
			rv = rv.Elem()
		}
		for i := 0; i < rv.Len(); i++ {
			elem := rv.Index(i).Interface()
			if elem == nil {
				continue
			}
			sub := &fieldSchema{
				tag: schemaTag{
					Name:           "Element",
					RepetitionType: repOptional,
				},
			}
			typeField(sub, elem)
			if !sub.typed {
				continue
			}
			f.tag.Type = "LIST"
			f.fields = []*fieldSchema{sub}
			f.typed = true
			return
		}
		// empty or all-nil list, keep waiting
		return
	}

	// everything else rides as a JSON number
	f.tag.Type = "DOUBLE"
	f.typed = true
}

// ColumnNames returns every accumulated field name in schema order,
// including fields that never resolved a type.
func (a *SchemaAccumulator) ColumnNames() []string {
	names := make([]string, 0, len(a.fields))
	for _, f := range a.fields {
		names = append(names, f.tag.Name)
	}
	return names
}

// TypedColumnNames returns the field names that resolved a type, which are
// the ones SchemaString will emit.
func (a *SchemaAccumulator) TypedColumnNames() []string {
	names := make([]string, 0, len(a.fields))
	for _, f := range a.fields {
		if f.typed {
			names = append(names, f.tag.Name)
		}
	}
	return names
}

// SchemaString renders the JSON schema string that parquet-go's JSON writer
// consumes.
func (a *SchemaAccumulator) SchemaString() (string, error) {
	root := jsonSchema{
		Tag: fmt.Sprintf("name=parquet_go_root, repetitiontype=%s", repRequired),
	}
	for _, f := range a.fields {
		if !f.typed {
			continue
		}
		root.Fields = append(root.Fields, f.render())
	}
	jsonBytes, err := json.Marshal(root)
	if err != nil {
		return "", fmt.Errorf("error in json.Marshal: %w", err)
	}
	return string(jsonBytes), nil
}

func (f *fieldSchema) render() *jsonSchema {
	var tagParts []string
	if f.tag.Type != "" {
		tagParts = append(tagParts, "type="+f.tag.Type)
	}
	if f.tag.ConvertedType != "" {
		tagParts = append(tagParts, "convertedtype="+f.tag.ConvertedType)
	}
	if f.tag.Encoding != "" {
		tagParts = append(tagParts, "encoding="+f.tag.Encoding)
	}
	if f.tag.Name != "" {
		tagParts = append(tagParts, "name="+f.tag.Name)
	}
	if f.tag.RepetitionType != "" {
		tagParts = append(tagParts, "repetitiontype="+f.tag.RepetitionType)
	}
	out := &jsonSchema{
		Tag: strings.Join(tagParts, ", "),
	}
	for _, sub := range f.fields {
		out.Fields = append(out.Fields, sub.render())
	}
	return out
}
