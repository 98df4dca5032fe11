// Package dynamo implements the identity store on a DynamoDB table
// keyed by faceId.
package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/facegate/facegate/internal/fault"
	"github.com/facegate/facegate/internal/identity"
)

// API is the subset of the DynamoDB client this package uses.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Store adapts a DynamoDB table to the identity.Store contract.
//
// Table schema: partition key faceId (S); attributes name (S), email (S)
// and organization (S, only present when set).
type Store struct {
	api   API
	table string
}

// NewStore creates a store over the given table.
func NewStore(api API, table string) *Store {
	return &Store{api: api, table: table}
}

func key(faceID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"faceId": &types.AttributeValueMemberS{Value: faceID},
	}
}

// Put creates or overwrites the record keyed by its faceId.
func (s *Store) Put(ctx context.Context, rec identity.Record) error {
	item := map[string]types.AttributeValue{
		"faceId": &types.AttributeValueMemberS{Value: rec.FaceID},
		"name":   &types.AttributeValueMemberS{Value: rec.Attributes.Name},
		"email":  &types.AttributeValueMemberS{Value: rec.Attributes.Email},
	}
	if rec.Attributes.Organization != "" {
		item["organization"] = &types.AttributeValueMemberS{Value: rec.Attributes.Organization}
	}

	_, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fault.Wrap(err, fault.CodeService, fmt.Sprintf("putting identity record %s", rec.FaceID))
	}
	return nil
}

// Get returns the record for faceID, or nil when the key does not exist.
func (s *Store) Get(ctx context.Context, faceID string) (*identity.Record, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       key(faceID),
	})
	if err != nil {
		return nil, fault.Wrap(err, fault.CodeService, fmt.Sprintf("getting identity record %s", faceID))
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	rec := &identity.Record{FaceID: faceID}
	rec.Attributes.Name = stringAttr(out.Item, "name")
	rec.Attributes.Email = stringAttr(out.Item, "email")
	rec.Attributes.Organization = stringAttr(out.Item, "organization")
	return rec, nil
}

// Delete removes the record for faceID. DynamoDB treats deletes of
// absent keys as a no-op, which the compensation path relies on.
func (s *Store) Delete(ctx context.Context, faceID string) error {
	_, err := s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       key(faceID),
	})
	if err != nil {
		return fault.Wrap(err, fault.CodeService, fmt.Sprintf("deleting identity record %s", faceID))
	}
	return nil
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if attr, ok := item[name].(*types.AttributeValueMemberS); ok {
		return attr.Value
	}
	return ""
}
