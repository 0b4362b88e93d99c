package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/whesense/attnlens/blobstore"
)

// IndexName is the logical blob name of the scene catalog pointer. Reading
// it yields the key of the current catalog document; writing it publishes
// a new catalog version.
const IndexName = "INDEX"

// CatalogStore is an S3 store with atomic catalog publication on top.
// Scene packs are plain S3 objects, but the viewer-facing catalog (the
// list of published scenes and their manifest keys) must move atomically
// from one version to the next while several producers upload scenes.
// S3 alone cannot compare-and-swap, so the INDEX pointer lives in DynamoDB
// and is advanced with a conditional write.
//
// Table schema:
//   - Partition key: catalog_uri (string), the s3://bucket/prefix of the store
//   - Sort key: version (number), monotonically increasing
//
// Create the table with:
//
//	aws dynamodb create-table \
//	  --table-name attnlens-catalog \
//	  --attribute-definitions AttributeName=catalog_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=catalog_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type CatalogStore struct {
	s3Store    *Store
	ddbClient  DDBClient
	tableName  string
	catalogURI string
}

// DDBClient is the subset of the DynamoDB API the catalog store uses.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// ErrConcurrentModification is returned when another producer published a
// catalog version between read and commit.
var ErrConcurrentModification = errors.New("concurrent catalog modification detected")

// NewCatalogStore wraps an S3 store with DynamoDB-coordinated catalog
// publication. catalogURI should be the "s3://bucket/prefix" of the store;
// it is the partition key that scopes versions to this catalog.
func NewCatalogStore(s3Store *Store, ddbClient DDBClient, tableName, catalogURI string) *CatalogStore {
	return &CatalogStore{
		s3Store:    s3Store,
		ddbClient:  ddbClient,
		tableName:  tableName,
		catalogURI: catalogURI,
	}
}

// Open opens a blob for reading. Opening INDEX resolves the current
// catalog pointer from DynamoDB instead of S3.
func (s *CatalogStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if name == IndexName {
		version, catalogKey, err := s.latestVersion(ctx)
		if err != nil {
			return nil, err
		}
		if version == 0 {
			return nil, blobstore.ErrNotFound
		}
		return &pointerBlob{content: []byte(catalogKey)}, nil
	}
	return s.s3Store.Open(ctx, name)
}

// Put writes a blob. Writing INDEX commits the given catalog key as the
// next version; it fails with ErrConcurrentModification if another
// producer committed first.
func (s *CatalogStore) Put(ctx context.Context, name string, data []byte) error {
	if name == IndexName {
		return s.commitVersion(ctx, string(data))
	}
	return s.s3Store.Put(ctx, name, data)
}

// Create creates a writable blob on the underlying S3 store.
func (s *CatalogStore) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	return s.s3Store.Create(ctx, name)
}

// Delete deletes a blob from the underlying S3 store.
func (s *CatalogStore) Delete(ctx context.Context, name string) error {
	return s.s3Store.Delete(ctx, name)
}

// List lists blobs with the given prefix.
func (s *CatalogStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.s3Store.List(ctx, prefix)
}

// latestVersion returns the highest committed catalog version and its key.
func (s *CatalogStore) latestVersion(ctx context.Context) (uint64, string, error) {
	resp, err := s.ddbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("catalog_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: s.catalogURI},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, "", fmt.Errorf("failed to query DynamoDB: %w", err)
	}

	if len(resp.Items) == 0 {
		return 0, "", nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("invalid version attribute in DynamoDB")
	}
	keyAttr, ok := item["catalog_key"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("invalid catalog_key attribute in DynamoDB")
	}

	var version uint64
	if _, err := fmt.Sscanf(versionAttr.Value, "%d", &version); err != nil {
		return 0, "", fmt.Errorf("failed to parse version: %w", err)
	}

	return version, keyAttr.Value, nil
}

// commitVersion advances the catalog pointer with a conditional write.
func (s *CatalogStore) commitVersion(ctx context.Context, catalogKey string) error {
	currentVersion, _, err := s.latestVersion(ctx)
	if err != nil {
		return err
	}

	newVersion := currentVersion + 1

	_, err = s.ddbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"catalog_uri": &types.AttributeValueMemberS{Value: s.catalogURI},
			"version":     &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", newVersion)},
			"catalog_key": &types.AttributeValueMemberS{Value: catalogKey},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})

	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentModification
		}
		return fmt.Errorf("failed to commit catalog version: %w", err)
	}

	return nil
}

// pointerBlob serves the resolved INDEX pointer from memory.
type pointerBlob struct {
	content []byte
}

func (b *pointerBlob) Close() error {
	return nil
}

func (b *pointerBlob) Size() int64 {
	return int64(len(b.content))
}

func (b *pointerBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if off >= int64(len(b.content)) {
		return 0, io.EOF
	}
	n := copy(p, b.content[off:])
	if off+int64(n) == int64(len(b.content)) && n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *pointerBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if off >= int64(len(b.content)) {
		return blobstore.NopReadCloser(bytes.NewReader(nil)), nil
	}
	end := off + length
	if end > int64(len(b.content)) {
		end = int64(len(b.content))
	}
	return blobstore.NopReadCloser(bytes.NewReader(b.content[off:end])), nil
}
