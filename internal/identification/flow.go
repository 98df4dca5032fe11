// Package identification drives the search-then-join read path: find the
// best biometric match for a probe image, then load the identity record
// the faceId points at.
package identification

import (
	"context"

	"go.uber.org/zap"

	"github.com/facegate/facegate/internal/biometric"
	"github.com/facegate/facegate/internal/fault"
	"github.com/facegate/facegate/internal/identity"
)

// Result is a successful identification: the matched face, the
// similarity the index reported for it, and the attributes recorded at
// enrollment time.
type Result struct {
	FaceID     string
	Confidence float64
	Attributes identity.Attributes
}

// Flow joins the biometric index with the identity store for reads.
type Flow struct {
	index biometric.Index
	store identity.Store
	log   *zap.Logger
}

// NewFlow creates an identification flow over the given backends.
func NewFlow(index biometric.Index, store identity.Store, log *zap.Logger) *Flow {
	if log == nil {
		log = zap.NewNop()
	}
	return &Flow{index: index, store: store, log: log}
}

// Identify searches the index for the probe image and resolves the best
// match to an identity record. It returns (nil, nil) when no indexed
// face reaches the threshold: a negative result is a legitimate outcome,
// not a failure. A match whose faceId has no identity record is an
// integrity failure and surfaces as fault.CodeInconsistent rather than
// being masked as "nobody enrolled".
func (f *Flow) Identify(ctx context.Context, probe biometric.ImageRef, threshold float64) (*Result, error) {
	if probe.Key == "" {
		return nil, fault.New(fault.CodeValidation, "probe image is required")
	}
	if threshold < 0 || threshold > 100 {
		return nil, fault.Newf(fault.CodeValidation, "threshold must be in [0, 100], got %v", threshold)
	}

	match, err := f.index.Search(ctx, probe, threshold)
	if err != nil {
		return nil, fault.Wrap(err, fault.CodeService, "searching biometric index")
	}
	if match == nil {
		return nil, nil
	}

	rec, err := f.store.Get(ctx, match.FaceID)
	if err != nil {
		return nil, fault.Wrap(err, fault.CodeService, "loading identity record")
	}
	if rec == nil {
		f.log.Error("biometric match has no identity record",
			zap.String("face_id", match.FaceID),
			zap.Float64("confidence", match.Confidence))
		return nil, fault.Newf(fault.CodeInconsistent, "face %s is indexed but has no identity record", match.FaceID)
	}

	f.log.Debug("face identified",
		zap.String("face_id", match.FaceID),
		zap.Float64("confidence", match.Confidence))

	return &Result{
		FaceID:     match.FaceID,
		Confidence: match.Confidence,
		Attributes: rec.Attributes,
	}, nil
}
