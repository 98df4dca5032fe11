// Package memory provides an in-memory biometric index. It backs the
// development "memory" mode and the saga tests; error injection fields
// let tests fail a specific call.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/facegate/facegate/internal/biometric"
	"github.com/facegate/facegate/internal/fault"
)

// Index matches faces by exact image key: a probe matches an enrolled
// face when both reference the same object. Each hit is reported with
// the configured similarity so threshold behavior stays testable.
type Index struct {
	mu    sync.RWMutex
	faces map[string]string // faceID -> image key
	order []string          // faceIDs in enrollment order

	// Similarity reported for every search hit (constructor default 100).
	Similarity float64

	// Error injection
	FailEnrollOn int // 1-based enroll call number to fail, 0 = never
	EnrollErr    error
	SearchErr    error
	RemoveErr    error
	NoFaceKeys   map[string]bool // image keys that contain no usable face

	enrollCalls int
	enrollRefs  []biometric.ImageRef
	removeCalls [][]string
}

// NewIndex creates an empty in-memory index.
func NewIndex() *Index {
	return &Index{
		faces:      make(map[string]string),
		Similarity: 100,
		NoFaceKeys: make(map[string]bool),
	}
}

// Enroll assigns a fresh faceId to the image. Every call yields a new
// id, so enrolling the same image twice creates two faces, like the
// real index.
func (x *Index) Enroll(ctx context.Context, ref biometric.ImageRef) (string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.enrollCalls++
	x.enrollRefs = append(x.enrollRefs, ref)
	if x.FailEnrollOn > 0 && x.enrollCalls == x.FailEnrollOn {
		err := x.EnrollErr
		if err == nil {
			err = fault.New(fault.CodeService, "injected enroll failure")
		}
		return "", err
	}
	if x.NoFaceKeys[ref.Key] {
		return "", fault.Newf(fault.CodeNoFace, "no face detected in %s", ref.Key)
	}

	faceID := uuid.NewString()
	x.faces[faceID] = ref.Key
	x.order = append(x.order, faceID)
	return faceID, nil
}

// Search returns the earliest enrolled face with the same image key,
// provided the configured similarity reaches the threshold (inclusive).
func (x *Index) Search(ctx context.Context, ref biometric.ImageRef, threshold float64) (*biometric.Match, error) {
	if x.SearchErr != nil {
		return nil, x.SearchErr
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.Similarity < threshold {
		return nil, nil
	}
	for _, faceID := range x.order {
		if x.faces[faceID] == ref.Key {
			return &biometric.Match{FaceID: faceID, Confidence: x.Similarity}, nil
		}
	}
	return nil, nil
}

// Remove deletes the given faceIds. Absent ids are ignored.
func (x *Index) Remove(ctx context.Context, faceIDs []string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.removeCalls = append(x.removeCalls, append([]string(nil), faceIDs...))
	if x.RemoveErr != nil {
		return x.RemoveErr
	}

	for _, id := range faceIDs {
		if _, ok := x.faces[id]; !ok {
			continue
		}
		delete(x.faces, id)
		for i, ordered := range x.order {
			if ordered == id {
				x.order = append(x.order[:i], x.order[i+1:]...)
				break
			}
		}
	}
	return nil
}

// FaceIDs returns the ids currently in the index, in enrollment order.
func (x *Index) FaceIDs() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return append([]string(nil), x.order...)
}

// Count returns the number of indexed faces.
func (x *Index) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.faces)
}

// EnrollCalls returns how many Enroll calls were made, including failed ones.
func (x *Index) EnrollCalls() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.enrollCalls
}

// EnrolledRefs returns every image reference passed to Enroll, in call order.
func (x *Index) EnrolledRefs() []biometric.ImageRef {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return append([]biometric.ImageRef(nil), x.enrollRefs...)
}

// RemoveCalls returns the recorded Remove invocations.
func (x *Index) RemoveCalls() [][]string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.removeCalls
}
