// Package rekognition implements the biometric index on AWS Rekognition
// collections. Images are passed as S3 object references; Rekognition
// fetches the bytes itself.
package rekognition

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/facegate/facegate/internal/biometric"
	"github.com/facegate/facegate/internal/fault"
)

// API is the subset of the Rekognition client this package uses.
type API interface {
	IndexFaces(ctx context.Context, params *rekognition.IndexFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.IndexFacesOutput, error)
	SearchFacesByImage(ctx context.Context, params *rekognition.SearchFacesByImageInput, optFns ...func(*rekognition.Options)) (*rekognition.SearchFacesByImageOutput, error)
	DeleteFaces(ctx context.Context, params *rekognition.DeleteFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DeleteFacesOutput, error)
}

// Index adapts a Rekognition collection to the biometric.Index contract.
type Index struct {
	api        API
	collection string
}

// NewIndex creates an index over the given collection.
func NewIndex(api API, collection string) *Index {
	return &Index{api: api, collection: collection}
}

func s3Image(ref biometric.ImageRef) *types.Image {
	return &types.Image{
		S3Object: &types.S3Object{
			Bucket: aws.String(ref.Bucket),
			Name:   aws.String(ref.Key),
		},
	}
}

// Enroll indexes the largest face in the image and returns its faceId.
func (x *Index) Enroll(ctx context.Context, ref biometric.ImageRef) (string, error) {
	out, err := x.api.IndexFaces(ctx, &rekognition.IndexFacesInput{
		CollectionId: aws.String(x.collection),
		Image:        s3Image(ref),
		MaxFaces:     aws.Int32(1),
	})
	if err != nil {
		return "", fault.Wrap(err, fault.CodeService, fmt.Sprintf("indexing %s", ref.Key))
	}
	if len(out.FaceRecords) == 0 {
		return "", fault.Newf(fault.CodeNoFace, "no usable face in %s", ref.Key)
	}

	face := out.FaceRecords[0].Face
	if face == nil || face.FaceId == nil {
		return "", fault.Newf(fault.CodeService, "index response for %s carries no faceId", ref.Key)
	}
	return *face.FaceId, nil
}

// Search returns the best match at or above threshold, or nil when no
// indexed face is similar enough. Rekognition treats FaceMatchThreshold
// as an inclusive lower bound.
func (x *Index) Search(ctx context.Context, ref biometric.ImageRef, threshold float64) (*biometric.Match, error) {
	out, err := x.api.SearchFacesByImage(ctx, &rekognition.SearchFacesByImageInput{
		CollectionId:       aws.String(x.collection),
		Image:              s3Image(ref),
		FaceMatchThreshold: aws.Float32(float32(threshold)),
		MaxFaces:           aws.Int32(1),
	})
	if err != nil {
		// Rekognition rejects probe images without a detectable face as
		// an invalid parameter rather than returning zero matches.
		var invalid *types.InvalidParameterException
		if errors.As(err, &invalid) {
			return nil, fault.Wrap(err, fault.CodeNoFace, fmt.Sprintf("no usable face in probe %s", ref.Key))
		}
		return nil, fault.Wrap(err, fault.CodeService, fmt.Sprintf("searching with probe %s", ref.Key))
	}
	if len(out.FaceMatches) == 0 {
		return nil, nil
	}

	best := out.FaceMatches[0]
	if best.Face == nil || best.Face.FaceId == nil {
		return nil, fault.New(fault.CodeService, "search response carries no faceId")
	}
	match := &biometric.Match{FaceID: *best.Face.FaceId}
	if best.Similarity != nil {
		match.Confidence = float64(*best.Similarity)
	}
	return match, nil
}

// Remove deletes the given faceIds from the collection. Rekognition
// ignores ids that are already gone, which gives the idempotency the
// compensation path relies on.
func (x *Index) Remove(ctx context.Context, faceIDs []string) error {
	if len(faceIDs) == 0 {
		return nil
	}
	_, err := x.api.DeleteFaces(ctx, &rekognition.DeleteFacesInput{
		CollectionId: aws.String(x.collection),
		FaceIds:      faceIDs,
	})
	if err != nil {
		return fault.Wrap(err, fault.CodeService, "deleting faces from collection")
	}
	return nil
}
