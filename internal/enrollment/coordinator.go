// Package enrollment drives the multi-image registration saga across the
// biometric index and the identity store. The two systems share no
// transaction mechanism, so atomicity is restored by explicit backward
// recovery: on the first failure every face enrolled during the request
// is removed again and every identity record written is deleted.
package enrollment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/facegate/facegate/internal/biometric"
	"github.com/facegate/facegate/internal/fault"
	"github.com/facegate/facegate/internal/identity"
)

// Request is one enrollment: an ordered, non-empty list of images of the
// same person plus the identity attributes to record for each face.
type Request struct {
	Images     []biometric.ImageRef
	Attributes identity.Attributes
}

// Failure reports a failed enrollment. Compensated tells the caller
// whether the rollback fully succeeded; when it did not, Leftover lists
// the faceIds that may still exist in one of the external systems and
// require manual reconciliation.
type Failure struct {
	Err         error
	Compensated bool
	Leftover    []string
}

func (f *Failure) Error() string {
	if f.Compensated {
		return fmt.Sprintf("enrollment failed (rolled back): %v", f.Err)
	}
	return fmt.Sprintf("enrollment failed (rollback incomplete): %v", f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Coordinator is the sole writer of the join invariant between the
// biometric index and the identity store.
type Coordinator struct {
	index     biometric.Index
	store     identity.Store
	log       *zap.Logger
	maxImages int
}

// NewCoordinator creates a coordinator over the given backends.
// maxImages caps the number of images per request; zero means no cap.
func NewCoordinator(index biometric.Index, store identity.Store, log *zap.Logger, maxImages int) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		index:     index,
		store:     store,
		log:       log,
		maxImages: maxImages,
	}
}

// Enroll registers every image in request order, one at a time. For each
// image the face is indexed first and the identity record written
// second, so identity records only ever exist for indexed faces. On the
// first failure the loop stops and all work done so far is compensated;
// the returned error is a *Failure carrying the rollback outcome.
// Validation errors are returned directly since nothing was attempted.
func (c *Coordinator) Enroll(ctx context.Context, req Request) error {
	if err := c.validate(req); err != nil {
		return err
	}

	// enrolled tracks every faceId the index assigned during this
	// request; committed tracks the prefix that also has an identity
	// record. committed is always a prefix of enrolled.
	var enrolled []string
	var committed []string

	for i, ref := range req.Images {
		// A cancelled request must not leave a partial join visible, so
		// abandonment takes the same rollback path as a failed call.
		if err := ctx.Err(); err != nil {
			return c.fail(ctx, fault.Wrap(err, fault.CodeService, fmt.Sprintf("enrollment abandoned before image %d", i+1)), enrolled, committed)
		}

		faceID, err := c.index.Enroll(ctx, ref)
		if err != nil {
			// This image contributed no faceId; roll back the prefix.
			return c.fail(ctx, fault.Wrap(err, fault.CodeService, fmt.Sprintf("indexing image %d of %d", i+1, len(req.Images))), enrolled, committed)
		}
		enrolled = append(enrolled, faceID)

		rec := identity.Record{FaceID: faceID, Attributes: req.Attributes}
		if err := c.store.Put(ctx, rec); err != nil {
			// The face exists in the index without a record, so this
			// faceId is part of the rollback set.
			return c.fail(ctx, fault.Wrap(err, fault.CodeService, fmt.Sprintf("recording identity for image %d of %d", i+1, len(req.Images))), enrolled, committed)
		}
		committed = append(committed, faceID)

		c.log.Debug("image enrolled",
			zap.String("face_id", faceID),
			zap.Int("image", i+1),
			zap.Int("total", len(req.Images)))
	}

	return nil
}

func (c *Coordinator) validate(req Request) error {
	if len(req.Images) == 0 {
		return fault.New(fault.CodeValidation, "at least one image is required")
	}
	if c.maxImages > 0 && len(req.Images) > c.maxImages {
		return fault.Newf(fault.CodeValidation, "at most %d images per enrollment, got %d", c.maxImages, len(req.Images))
	}
	if req.Attributes.Name == "" {
		return fault.New(fault.CodeValidation, "name is required")
	}
	if req.Attributes.Email == "" {
		return fault.New(fault.CodeValidation, "email is required")
	}
	for i, ref := range req.Images {
		if ref.Key == "" {
			return fault.Newf(fault.CodeValidation, "image %d has an empty key", i+1)
		}
	}
	return nil
}

// fail runs compensation and wraps the original failure with the
// rollback outcome. Compensation runs even when the request context is
// already cancelled: abandoning the undo would leave a partial join.
func (c *Coordinator) fail(ctx context.Context, cause error, enrolled, committed []string) error {
	compensated := c.compensate(context.WithoutCancel(ctx), enrolled, committed)

	f := &Failure{Err: cause, Compensated: compensated}
	if !compensated {
		f.Leftover = enrolled
	}
	return f
}

// compensate undoes a partial enrollment: first the biometric records
// for every enrolled faceId, then the identity records for the committed
// prefix. The deletes are a strict subset of the removes since identity
// records are only written after successful indexing. A failed
// compensating call is reported, never retried; the caller surfaces the
// inconsistency instead of looping.
func (c *Coordinator) compensate(ctx context.Context, enrolled, committed []string) bool {
	compensated := true

	if len(enrolled) > 0 {
		c.log.Info("rolling back enrolled faces", zap.Strings("face_ids", enrolled))
		if err := c.index.Remove(ctx, enrolled); err != nil {
			c.log.Error("failed to remove faces from biometric index",
				zap.Strings("face_ids", enrolled),
				zap.Error(err))
			compensated = false
		}
	}

	for _, faceID := range committed {
		if err := c.store.Delete(ctx, faceID); err != nil {
			c.log.Error("failed to delete identity record",
				zap.String("face_id", faceID),
				zap.Error(err))
			compensated = false
		}
	}

	return compensated
}
