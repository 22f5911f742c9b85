package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/marketpulse/internal/config"
)

// snapshotTTL bounds how long DynamoDB keeps a snapshot item. The S3 copy
// is kept indefinitely.
const snapshotTTL = 400 * 24 * time.Hour

// DynamoAPI is the subset of the DynamoDB client used here.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// S3API is the subset of the S3 client used here.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// AWSStorage keeps one DynamoDB item per snapshot and archives the full
// JSON document to S3.
type AWSStorage struct {
	dynamoClient DynamoAPI
	s3Client     S3API
	tableName    string
	bucketName   string
}

// DynamoDBItem represents a snapshot row in DynamoDB.
type DynamoDBItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	ID         string `dynamodbav:"ID"`
	Data       string `dynamodbav:"Data"`
	ArchiveKey string `dynamodbav:"ArchiveKey,omitempty"`
	Timestamp  int64  `dynamodbav:"Timestamp"`
	TTL        int64  `dynamodbav:"TTL,omitempty"`
}

// NewAWSStorage loads AWS credentials and builds the DynamoDB and S3
// clients. Static keys win over the profile; with neither the default chain
// is used (IAM role on ECS).
func NewAWSStorage(ctx context.Context, cfg config.StorageConfig) (*AWSStorage, error) {
	if cfg.DynamoDBTable == "" {
		return nil, fmt.Errorf("aws storage requires a dynamodb table")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	} else if profile := cfg.GetAWSProfile(); profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return NewAWSStorageWithClients(dynamodb.NewFromConfig(awsCfg), s3.NewFromConfig(awsCfg), cfg.DynamoDBTable, cfg.S3Bucket), nil
}

// NewAWSStorageWithClients builds an AWSStorage over existing clients. An
// empty bucket disables the S3 archive.
func NewAWSStorageWithClients(dynamo DynamoAPI, s3Client S3API, tableName, bucket string) *AWSStorage {
	return &AWSStorage{
		dynamoClient: dynamo,
		s3Client:     s3Client,
		tableName:    tableName,
		bucketName:   bucket,
	}
}

func partitionKey(campaignID string) string {
	return "CAMPAIGN#" + campaignID
}

func archiveKey(snap *Snapshot) string {
	return fmt.Sprintf("reports/%s/%s.json", snap.CampaignID, snap.SortKey())
}

// SaveSnapshot archives snap to S3 first, then writes the DynamoDB item.
func (a *AWSStorage) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	item := DynamoDBItem{
		PK:        partitionKey(snap.CampaignID),
		SK:        snap.SortKey(),
		ID:        snap.ID,
		Data:      string(data),
		Timestamp: snap.CreatedAt.Unix(),
		TTL:       snap.CreatedAt.Add(snapshotTTL).Unix(),
	}

	if a.bucketName != "" && a.s3Client != nil {
		key := archiveKey(snap)
		if err := a.saveToS3(ctx, key, data); err != nil {
			return fmt.Errorf("archiving snapshot: %w", err)
		}
		item.ArchiveKey = key
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshaling item: %w", err)
	}

	_, err = a.dynamoClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(a.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("putting snapshot item: %w", err)
	}
	return nil
}

// ListSnapshots queries a campaign's partition newest first.
func (a *AWSStorage) ListSnapshots(ctx context.Context, campaignID string, limit int) ([]Snapshot, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(a.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: partitionKey(campaignID)},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}

	var out []Snapshot
	for {
		result, err := a.dynamoClient.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("querying snapshots: %w", err)
		}

		var items []DynamoDBItem
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshaling items: %w", err)
		}
		for _, item := range items {
			snap, err := a.decodeItem(ctx, item)
			if err != nil {
				return nil, err
			}
			out = append(out, *snap)
		}

		if len(result.LastEvaluatedKey) == 0 || (limit > 0 && len(out) >= limit) {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []Snapshot{}
	}
	return out, nil
}

// decodeItem prefers the inline Data and falls back to the archive copy.
func (a *AWSStorage) decodeItem(ctx context.Context, item DynamoDBItem) (*Snapshot, error) {
	data := []byte(item.Data)
	if len(data) == 0 && item.ArchiveKey != "" {
		fetched, err := a.getFromS3(ctx, item.ArchiveKey)
		if err != nil {
			return nil, fmt.Errorf("reading archived snapshot %s: %w", item.ArchiveKey, err)
		}
		data = fetched
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", item.SK, err)
	}
	return &snap, nil
}

// Ping checks the table and, when configured, the archive bucket.
func (a *AWSStorage) Ping(ctx context.Context) error {
	if _, err := a.dynamoClient.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(a.tableName),
	}); err != nil {
		return fmt.Errorf("dynamodb: %w", err)
	}
	if a.bucketName != "" && a.s3Client != nil {
		if _, err := a.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
			Bucket: aws.String(a.bucketName),
		}); err != nil {
			return fmt.Errorf("s3: %w", err)
		}
	}
	return nil
}

func (a *AWSStorage) saveToS3(ctx context.Context, key string, data []byte) error {
	_, err := a.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	return err
}

func (a *AWSStorage) getFromS3(ctx context.Context, key string) ([]byte, error) {
	result, err := a.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer result.Body.Close()

	return io.ReadAll(result.Body)
}
