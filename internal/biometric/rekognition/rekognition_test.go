package rekognition

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/facegate/facegate/internal/biometric"
	"github.com/facegate/facegate/internal/fault"
)

// fakeAPI records inputs and plays back scripted outputs.
type fakeAPI struct {
	indexIn  *rekognition.IndexFacesInput
	indexOut *rekognition.IndexFacesOutput
	indexErr error

	searchIn  *rekognition.SearchFacesByImageInput
	searchOut *rekognition.SearchFacesByImageOutput
	searchErr error

	deleteIn  *rekognition.DeleteFacesInput
	deleteErr error
}

func (f *fakeAPI) IndexFaces(ctx context.Context, params *rekognition.IndexFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.IndexFacesOutput, error) {
	f.indexIn = params
	return f.indexOut, f.indexErr
}

func (f *fakeAPI) SearchFacesByImage(ctx context.Context, params *rekognition.SearchFacesByImageInput, optFns ...func(*rekognition.Options)) (*rekognition.SearchFacesByImageOutput, error) {
	f.searchIn = params
	return f.searchOut, f.searchErr
}

func (f *fakeAPI) DeleteFaces(ctx context.Context, params *rekognition.DeleteFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DeleteFacesOutput, error) {
	f.deleteIn = params
	return &rekognition.DeleteFacesOutput{}, f.deleteErr
}

func TestEnrollBuildsS3Reference(t *testing.T) {
	api := &fakeAPI{
		indexOut: &rekognition.IndexFacesOutput{
			FaceRecords: []types.FaceRecord{
				{Face: &types.Face{FaceId: aws.String("face-1")}},
			},
		},
	}
	index := NewIndex(api, "people")

	faceID, err := index.Enroll(context.Background(), biometric.ImageRef{Bucket: "faces", Key: "jane.jpg"})
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if faceID != "face-1" {
		t.Errorf("expected face-1, got %q", faceID)
	}

	in := api.indexIn
	if aws.ToString(in.CollectionId) != "people" {
		t.Errorf("unexpected collection: %v", in.CollectionId)
	}
	if aws.ToString(in.Image.S3Object.Bucket) != "faces" || aws.ToString(in.Image.S3Object.Name) != "jane.jpg" {
		t.Errorf("unexpected S3 object reference: %+v", in.Image.S3Object)
	}
	if aws.ToInt32(in.MaxFaces) != 1 {
		t.Errorf("expected MaxFaces 1, got %v", in.MaxFaces)
	}
}

func TestEnrollNoFaceRecords(t *testing.T) {
	api := &fakeAPI{indexOut: &rekognition.IndexFacesOutput{}}
	index := NewIndex(api, "people")

	_, err := index.Enroll(context.Background(), biometric.ImageRef{Bucket: "faces", Key: "landscape.jpg"})
	if !fault.HasCode(err, fault.CodeNoFace) {
		t.Errorf("expected no-face error, got %v", err)
	}
}

func TestEnrollServiceError(t *testing.T) {
	api := &fakeAPI{indexErr: errors.New("throttled")}
	index := NewIndex(api, "people")

	_, err := index.Enroll(context.Background(), biometric.ImageRef{Bucket: "faces", Key: "jane.jpg"})
	if !fault.HasCode(err, fault.CodeService) {
		t.Errorf("expected service error, got %v", err)
	}
}

func TestSearchReturnsBestMatch(t *testing.T) {
	api := &fakeAPI{
		searchOut: &rekognition.SearchFacesByImageOutput{
			FaceMatches: []types.FaceMatch{
				{
					Face:       &types.Face{FaceId: aws.String("face-9")},
					Similarity: aws.Float32(97.5),
				},
			},
		},
	}
	index := NewIndex(api, "people")

	match, err := index.Search(context.Background(), biometric.ImageRef{Bucket: "faces", Key: "probe.jpg"}, 80)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if match == nil || match.FaceID != "face-9" {
		t.Fatalf("expected face-9, got %+v", match)
	}
	if match.Confidence != 97.5 {
		t.Errorf("expected confidence 97.5, got %v", match.Confidence)
	}
	if aws.ToFloat32(api.searchIn.FaceMatchThreshold) != 80 {
		t.Errorf("threshold not forwarded: %v", api.searchIn.FaceMatchThreshold)
	}
}

func TestSearchNoMatchIsNotAnError(t *testing.T) {
	api := &fakeAPI{searchOut: &rekognition.SearchFacesByImageOutput{}}
	index := NewIndex(api, "people")

	match, err := index.Search(context.Background(), biometric.ImageRef{Bucket: "faces", Key: "probe.jpg"}, 80)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match != nil {
		t.Errorf("expected nil match, got %+v", match)
	}
}

func TestSearchInvalidParameterMeansNoFace(t *testing.T) {
	api := &fakeAPI{searchErr: &types.InvalidParameterException{Message: aws.String("no faces in the image")}}
	index := NewIndex(api, "people")

	_, err := index.Search(context.Background(), biometric.ImageRef{Bucket: "faces", Key: "blank.jpg"}, 80)
	if !fault.HasCode(err, fault.CodeNoFace) {
		t.Errorf("expected no-face error, got %v", err)
	}
}

func TestRemoveForwardsIDsAndSkipsEmptySet(t *testing.T) {
	api := &fakeAPI{}
	index := NewIndex(api, "people")

	if err := index.Remove(context.Background(), nil); err != nil {
		t.Fatalf("empty remove: %v", err)
	}
	if api.deleteIn != nil {
		t.Error("expected no DeleteFaces call for an empty set")
	}

	if err := index.Remove(context.Background(), []string{"a", "b"}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := api.deleteIn.FaceIds; len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("unexpected faceIds forwarded: %v", got)
	}
}
