package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/stratasite/internal/app/store/docstore"
)

// Field coercion helpers shared by the entity normalizers. Stored documents
// are schemaless, so every read tolerates a missing field, a nil value, or a
// value of the wrong type. Decoded BSON yields bson.M / primitive.A for
// nested values; documents built in-process use plain maps and slices, and
// both shapes must normalize identically.

// docString returns the string under key, or def when the field is missing,
// empty, or not a string.
func docString(doc docstore.Document, key, def string) string {
	if s, ok := doc[key].(string); ok && s != "" {
		return s
	}
	return def
}

// docBool returns the bool under key, or false for anything else.
func docBool(doc docstore.Document, key string) bool {
	b, _ := doc[key].(bool)
	return b
}

// docStrings returns the sequence under key as strings. Any stored value
// that is not an array is discarded, yielding the empty sequence; non-string
// elements inside an array are skipped rather than coerced.
func docStrings(doc docstore.Document, key string) []string {
	items, ok := asSlice(doc[key])
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// docInt returns the integer under key, or def when the field is missing or
// not numeric. BSON decodes small numbers as int32 and JSON decodes them as
// float64, so both are accepted.
func docInt(doc docstore.Document, key string, def int) int {
	switch n := doc[key].(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return def
}

// docMap returns the nested object under key, or nil when the field is
// missing or not an object.
func docMap(doc docstore.Document, key string) docstore.Document {
	m, _ := asMap(doc[key])
	return m
}

// docTime returns the timestamp under key, or the zero time.
func docTime(doc docstore.Document, key string) time.Time {
	switch v := doc[key].(type) {
	case time.Time:
		return v
	case primitive.DateTime:
		return v.Time().UTC()
	}
	return time.Time{}
}

// subString reads a scalar string from an already-extracted nested object.
func subString(m docstore.Document, key, def string) string {
	if m == nil {
		return def
	}
	return docString(m, key, def)
}

func subBool(m docstore.Document, key string) bool {
	if m == nil {
		return false
	}
	return docBool(m, key)
}

func subStrings(m docstore.Document, key string) []string {
	if m == nil {
		return []string{}
	}
	return docStrings(m, key)
}

func asMap(v any) (docstore.Document, bool) {
	switch m := v.(type) {
	case docstore.Document:
		return m, true
	case map[string]any:
		return docstore.Document(m), true
	case bson.M:
		return docstore.Document(m), true
	}
	return nil, false
}

func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case primitive.A:
		return []any(s), true
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	case []docstore.Document:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	}
	return nil, false
}
