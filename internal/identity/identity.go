// Package identity defines the contract for the record store that maps
// a faceId to the attributes of the person it belongs to. One record
// exists per enrolled image, not per person.
package identity

import "context"

// Attributes describes who an enrolled face belongs to. Values are
// opaque strings; nothing beyond presence is validated.
type Attributes struct {
	Name         string
	Email        string
	Organization string // optional
}

// Record is the identity row keyed by the biometric faceId.
type Record struct {
	FaceID     string
	Attributes Attributes
}

// Store is the key-value contract consumed by the enrollment coordinator
// and the identification flow.
//
// Put creates or overwrites the record keyed by faceId.
//
// Get returns nil (not an error) when no record exists for the key.
//
// Delete is idempotent; deleting an absent key is not an error. It
// exists for compensation only.
type Store interface {
	Put(ctx context.Context, rec Record) error
	Get(ctx context.Context, faceID string) (*Record, error)
	Delete(ctx context.Context, faceID string) error
}
