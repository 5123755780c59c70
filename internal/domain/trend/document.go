package trend

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document is an upstream object kept field for field. Only the fields the
// pipeline reads or stamps are interpreted; everything else is stored as
// delivered.
type Document map[string]interface{}

// String reads a field as text. Missing and null fields read as ""
func (d Document) String(key string) string {
	v, ok := d[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Documents reads a field holding an array of objects. Elements that are not
// objects are skipped.
func (d Document) Documents(key string) []Document {
	var items []interface{}
	switch v := d[key].(type) {
	case []interface{}:
		items = v
	case primitive.A:
		items = v
	case []Document:
		return v
	default:
		return nil
	}

	docs := make([]Document, 0, len(items))
	for _, item := range items {
		if doc, ok := AsDocument(item); ok {
			docs = append(docs, doc)
		}
	}
	return docs
}

// Clone returns a shallow copy
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// AsDocument converts the object shapes produced by JSON and BSON decoding
func AsDocument(v interface{}) (Document, bool) {
	switch doc := v.(type) {
	case Document:
		return doc, true
	case map[string]interface{}:
		return Document(doc), true
	case primitive.M:
		return Document(doc), true
	case primitive.D:
		out := make(Document, len(doc))
		for _, e := range doc {
			out[e.Key] = e.Value
		}
		return out, true
	default:
		return nil, false
	}
}
