// Package biometric defines the contract for the external face index.
// The index owns feature extraction and similarity search; callers only
// see opaque face identifiers and confidence scores.
package biometric

import "context"

// ImageRef points at image bytes already at rest in object storage.
// The enrollment and identification paths never read pixel data through
// this reference; only backends that need bytes (the local index) do.
type ImageRef struct {
	Bucket string
	Key    string
}

// Match is a search candidate. Confidence is a similarity score in
// [0, 100] as reported by the index.
type Match struct {
	FaceID     string
	Confidence float64
}

// Index is the capability set consumed by the enrollment coordinator and
// the identification flow.
//
// Enroll submits one image for feature extraction and indexing and
// returns the newly assigned faceId. It fails with fault.CodeNoFace when
// the index finds no usable face, and fault.CodeService on any
// transport or service-level failure.
//
// Search returns the single best match with similarity >= threshold
// (inclusive), or nil when no candidate clears the threshold. A nil
// match is not an error.
//
// Remove is an idempotent bulk delete; removing an absent id is not an
// error. It exists for compensation only.
type Index interface {
	Enroll(ctx context.Context, ref ImageRef) (string, error)
	Search(ctx context.Context, ref ImageRef, threshold float64) (*Match, error)
	Remove(ctx context.Context, faceIDs []string) error
}
