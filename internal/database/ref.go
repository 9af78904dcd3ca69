package database

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Ref is a reference to a parent document. On disk it is always stored as a
// bare ObjectID; query pipelines may replace the field with the referenced
// document ($lookup), in which case the decoded Ref carries the document too.
// Consumers branch on Resolved() instead of runtime type checks.
type Ref[T any] struct {
	ID  bson.ObjectID
	Doc *T
}

// NewRef returns an unresolved reference to the given id.
func NewRef[T any](id bson.ObjectID) Ref[T] {
	return Ref[T]{ID: id}
}

// ResolvedRef returns a resolved reference carrying the document.
func ResolvedRef[T any](id bson.ObjectID, doc *T) Ref[T] {
	return Ref[T]{ID: id, Doc: doc}
}

// Resolved reports whether the reference carries the full document.
func (r Ref[T]) Resolved() bool {
	return r.Doc != nil
}

// IsZero reports whether the reference is unset. The bson encoder uses it for
// omitempty handling.
func (r Ref[T]) IsZero() bool {
	return r.Doc == nil && r.ID.IsZero()
}

// MarshalBSONValue always emits the stored form, a bare ObjectID.
func (r Ref[T]) MarshalBSONValue() (byte, []byte, error) {
	return byte(bson.TypeObjectID), r.ID[:], nil
}

// UnmarshalBSONValue accepts either a bare ObjectID or a populated document.
func (r *Ref[T]) UnmarshalBSONValue(t byte, data []byte) error {
	switch bson.Type(t) {
	case bson.TypeObjectID:
		if len(data) != 12 {
			return fmt.Errorf("invalid ObjectID length %d", len(data))
		}
		copy(r.ID[:], data)
		r.Doc = nil
		return nil
	case bson.TypeEmbeddedDocument:
		var doc T
		if err := bson.Unmarshal(data, &doc); err != nil {
			return err
		}
		var header struct {
			ID bson.ObjectID `bson:"_id"`
		}
		if err := bson.Unmarshal(data, &header); err != nil {
			return err
		}
		r.ID = header.ID
		r.Doc = &doc
		return nil
	case bson.TypeNull, bson.TypeUndefined:
		*r = Ref[T]{}
		return nil
	default:
		return fmt.Errorf("cannot decode %s into a document reference", bson.Type(t))
	}
}
