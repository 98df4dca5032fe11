package identification

import (
	"context"
	"errors"
	"testing"

	"github.com/facegate/facegate/internal/biometric"
	biomemory "github.com/facegate/facegate/internal/biometric/memory"
	"github.com/facegate/facegate/internal/enrollment"
	"github.com/facegate/facegate/internal/fault"
	"github.com/facegate/facegate/internal/identity"
	idmemory "github.com/facegate/facegate/internal/identity/memory"
)

func enrollOne(t *testing.T, index biometric.Index, store identity.Store, key string) {
	t.Helper()
	coord := enrollment.NewCoordinator(index, store, nil, 0)
	err := coord.Enroll(context.Background(), enrollment.Request{
		Images:     []biometric.ImageRef{{Bucket: "faces", Key: key}},
		Attributes: identity.Attributes{Name: "Jane Roe", Email: "jane@example.com"},
	})
	if err != nil {
		t.Fatalf("enrollment failed: %v", err)
	}
}

func TestIdentifyRoundTrip(t *testing.T) {
	index := biomemory.NewIndex()
	store := idmemory.NewStore()
	enrollOne(t, index, store, "jane.jpg")

	flow := NewFlow(index, store, nil)
	res, err := flow.Identify(context.Background(), biometric.ImageRef{Bucket: "faces", Key: "jane.jpg"}, 80)
	if err != nil {
		t.Fatalf("expected a match, got %v", err)
	}
	if res == nil {
		t.Fatal("expected a result, got not-found")
	}

	if res.FaceID != index.FaceIDs()[0] {
		t.Errorf("expected the enrolled faceId, got %q", res.FaceID)
	}
	if res.Attributes.Name != "Jane Roe" || res.Attributes.Email != "jane@example.com" {
		t.Errorf("enrolled attributes came back changed: %+v", res.Attributes)
	}
	if res.Confidence < 80 {
		t.Errorf("confidence %v below the search threshold", res.Confidence)
	}
}

func TestIdentifyNotFound(t *testing.T) {
	index := biomemory.NewIndex()
	store := idmemory.NewStore()
	enrollOne(t, index, store, "jane.jpg")

	flow := NewFlow(index, store, nil)
	res, err := flow.Identify(context.Background(), biometric.ImageRef{Bucket: "faces", Key: "stranger.jpg"}, 80)
	if err != nil {
		t.Fatalf("no match must not be an error, got %v", err)
	}
	if res != nil {
		t.Fatalf("expected not-found, got %+v", res)
	}
}

func TestIdentifyThresholdBoundary(t *testing.T) {
	index := biomemory.NewIndex()
	store := idmemory.NewStore()
	enrollOne(t, index, store, "jane.jpg")
	index.Similarity = 80

	flow := NewFlow(index, store, nil)
	probe := biometric.ImageRef{Bucket: "faces", Key: "jane.jpg"}

	// Similarity equal to the threshold is a match: the bound is inclusive.
	res, err := flow.Identify(context.Background(), probe, 80)
	if err != nil || res == nil {
		t.Fatalf("expected match at the inclusive bound, got res=%v err=%v", res, err)
	}

	// One unit above the true similarity is not.
	res, err = flow.Identify(context.Background(), probe, 81)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != nil {
		t.Fatalf("expected not-found one unit past the similarity, got %+v", res)
	}
}

func TestIdentifyInconsistentState(t *testing.T) {
	index := biomemory.NewIndex()
	store := idmemory.NewStore()
	enrollOne(t, index, store, "jane.jpg")

	// Delete the record out-of-band, breaking the join invariant.
	faceID := index.FaceIDs()[0]
	if err := store.Delete(context.Background(), faceID); err != nil {
		t.Fatalf("out-of-band delete failed: %v", err)
	}

	flow := NewFlow(index, store, nil)
	_, err := flow.Identify(context.Background(), biometric.ImageRef{Bucket: "faces", Key: "jane.jpg"}, 80)
	if !fault.HasCode(err, fault.CodeInconsistent) {
		t.Fatalf("expected inconsistent-state error, got %v", err)
	}
	if fault.HasCode(err, fault.CodeNotFound) {
		t.Error("a broken join must not be masked as not-found")
	}
}

func TestIdentifyValidation(t *testing.T) {
	flow := NewFlow(biomemory.NewIndex(), idmemory.NewStore(), nil)

	_, err := flow.Identify(context.Background(), biometric.ImageRef{}, 80)
	if !fault.HasCode(err, fault.CodeValidation) {
		t.Errorf("expected validation error for empty probe, got %v", err)
	}

	_, err = flow.Identify(context.Background(), biometric.ImageRef{Key: "x.jpg"}, 101)
	if !fault.HasCode(err, fault.CodeValidation) {
		t.Errorf("expected validation error for out-of-range threshold, got %v", err)
	}
}

func TestIdentifySearchFailure(t *testing.T) {
	index := biomemory.NewIndex()
	index.SearchErr = errors.New("search unavailable")
	flow := NewFlow(index, idmemory.NewStore(), nil)

	_, err := flow.Identify(context.Background(), biometric.ImageRef{Key: "x.jpg"}, 80)
	if !fault.HasCode(err, fault.CodeService) {
		t.Errorf("expected service error, got %v", err)
	}
}

func TestIdentifyStoreFailure(t *testing.T) {
	index := biomemory.NewIndex()
	store := idmemory.NewStore()
	enrollOne(t, index, store, "jane.jpg")
	store.GetErr = errors.New("store unavailable")

	flow := NewFlow(index, store, nil)
	_, err := flow.Identify(context.Background(), biometric.ImageRef{Bucket: "faces", Key: "jane.jpg"}, 80)
	if !fault.HasCode(err, fault.CodeService) {
		t.Errorf("expected service error, got %v", err)
	}
}
