// Package dynamo is the DynamoDB metadata store. One item per photo keyed by
// photo_id; listing goes through the UserIdIndex and UserVersionIndex GSIs.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"

	"photo-versions-backend/internal/metrics"
	"photo-versions-backend/internal/models"
)

const backend = "dynamodb"

// API is the subset of the DynamoDB client the store uses.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

type Config struct {
	Table           string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

type Store struct {
	client API
	table  string
	log    zerolog.Logger
}

func New(ctx context.Context, cfg Config, log zerolog.Logger) (*Store, error) {
	if cfg.Table == "" {
		return nil, errors.New("dynamodb table name is required")
	}
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewWithClient(client, cfg.Table, log), nil
}

func NewWithClient(client API, table string, log zerolog.Logger) *Store {
	return &Store{
		client: client,
		table:  table,
		log:    log.With().Str("component", "dynamo-store").Logger(),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)})
	return err
}

func (s *Store) PutPhoto(ctx context.Context, photo *models.Photo) (err error) {
	defer observe("put", time.Now(), &err)

	rec, err := toRecord(photo)
	if err != nil {
		return err
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal photo %s: %w", photo.ID, err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put photo %s: %w", photo.ID, err)
	}
	return nil
}

func (s *Store) GetPhoto(ctx context.Context, photoID string) (photo *models.Photo, err error) {
	defer observe("get", time.Now(), &err)

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            photoKey(photoID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get photo %s: %w", photoID, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec photoRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal photo %s: %w", photoID, err)
	}
	return rec.toPhoto()
}

// UpdatePhoto issues one conditional UpdateItem covering every set field. An
// edit moves the item to the owner's edited partition of UserVersionIndex,
// which needs the stored user_id first.
func (s *Store) UpdatePhoto(ctx context.Context, photoID string, update models.PhotoUpdate) (err error) {
	defer observe("update", time.Now(), &err)

	ownerID := ""
	if update.Edited != nil {
		ownerID, err = s.ownerOf(ctx, photoID)
		if err != nil {
			return err
		}
	}
	input, err := s.buildUpdate(photoID, ownerID, update)
	if err != nil {
		return err
	}
	if input == nil {
		return nil
	}
	_, err = s.client.UpdateItem(ctx, input)
	if isConditionFailed(err) {
		return models.ErrPhotoNotFound
	}
	if err != nil {
		return fmt.Errorf("update photo %s: %w", photoID, err)
	}
	return nil
}

func (s *Store) ownerOf(ctx context.Context, photoID string) (string, error) {
	expr, err := expression.NewBuilder().
		WithProjection(expression.NamesList(expression.Name("user_id"))).
		Build()
	if err != nil {
		return "", fmt.Errorf("build owner projection for %s: %w", photoID, err)
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                aws.String(s.table),
		Key:                      photoKey(photoID),
		ProjectionExpression:     expr.Projection(),
		ExpressionAttributeNames: expr.Names(),
		ConsistentRead:           aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("get owner of %s: %w", photoID, err)
	}
	owner, ok := out.Item["user_id"].(*types.AttributeValueMemberS)
	if !ok || owner.Value == "" {
		return "", models.ErrPhotoNotFound
	}
	return owner.Value, nil
}

func (s *Store) buildUpdate(photoID, ownerID string, update models.PhotoUpdate) (*dynamodb.UpdateItemInput, error) {
	var set expression.UpdateBuilder
	fields := 0
	assign := func(attr string, value interface{}) {
		set = set.Set(expression.Name(attr), expression.Value(value))
		fields++
	}

	if update.Status != nil {
		assign("status", string(*update.Status))
	}
	if e := update.Edited; e != nil {
		assign("version_type", string(models.VersionEdited))
		assign("user_version", userVersionKey(ownerID, models.VersionEdited))
		assign("has_edited_version", true)
		assign("edited_filename", e.Filename)
		assign("edited_content_type", e.ContentType)
		assign("edited_file_size", e.SizeBytes)
		assign("edited_s3_key", e.BlobKey)
		assign("edited_bucket", e.BucketID)
		assign("edit_count", e.EditCount)
	}
	if update.Attrs != nil {
		rec, err := toRecord(&models.Photo{Attrs: update.Attrs})
		if err != nil {
			return nil, err
		}
		if rec.Attributes == "" {
			rec.Attributes = "{}"
		}
		assign("attributes", rec.Attributes)
	}
	if fields == 0 {
		return nil, nil
	}
	if !update.UpdatedAt.IsZero() {
		assign("updated_at", formatTime(update.UpdatedAt))
	}

	expr, err := expression.NewBuilder().WithUpdate(set).WithCondition(recordExists()).Build()
	if err != nil {
		return nil, fmt.Errorf("build update for %s: %w", photoID, err)
	}
	return &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       photoKey(photoID),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}, nil
}

func recordExists() expression.ConditionBuilder {
	return expression.AttributeExists(expression.Name("photo_id"))
}

func (s *Store) DeletePhoto(ctx context.Context, photoID string) (err error) {
	defer observe("delete", time.Now(), &err)

	expr, err := expression.NewBuilder().WithCondition(recordExists()).Build()
	if err != nil {
		return fmt.Errorf("build delete condition for %s: %w", photoID, err)
	}
	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(s.table),
		Key:                      photoKey(photoID),
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if isConditionFailed(err) {
		return models.ErrPhotoNotFound
	}
	if err != nil {
		return fmt.Errorf("delete photo %s: %w", photoID, err)
	}
	return nil
}

// QueryPhotosByOwner reads newest first from the owner index matching the
// filter. It asks for one item past the limit so Next is only set when
// another page really exists.
func (s *Store) QueryPhotosByOwner(ctx context.Context, query models.PhotoQuery) (page *models.PhotoPage, err error) {
	defer observe("query", time.Now(), &err)

	input, err := s.buildQuery(query)
	if err != nil {
		return nil, err
	}
	want := query.Limit + 1
	records := make([]photoRecord, 0, want)
	for {
		input.Limit = aws.Int32(int32(want - len(records)))
		out, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("query photos of %s: %w", query.OwnerID, err)
		}
		var batch []photoRecord
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal photos: %w", err)
		}
		records = append(records, batch...)
		if len(records) >= want || len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	photos := make([]*models.Photo, 0, len(records))
	for i := range records {
		photo, err := records[i].toPhoto()
		if err != nil {
			return nil, err
		}
		photos = append(photos, photo)
	}

	page = &models.PhotoPage{Photos: photos}
	if len(photos) > query.Limit {
		page.Photos = photos[:query.Limit]
		last := page.Photos[len(page.Photos)-1]
		page.Next = &models.PageKey{CreatedAt: last.CreatedAt, PhotoID: last.ID}
	}
	return page, nil
}

func (s *Store) buildQuery(query models.PhotoQuery) (*dynamodb.QueryInput, error) {
	index, pkName, pkValue := UserIDIndex, "user_id", query.OwnerID
	if query.VersionType != "" {
		index, pkName, pkValue = UserVersionIndex, "user_version", userVersionKey(query.OwnerID, query.VersionType)
	}

	keyCond := expression.Key(pkName).Equal(expression.Value(pkValue))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("build query for %s: %w", query.OwnerID, err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.table),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	}
	if query.After != nil {
		input.ExclusiveStartKey = map[string]types.AttributeValue{
			"photo_id":   str(query.After.PhotoID),
			pkName:       str(pkValue),
			"created_at": str(formatTime(query.After.CreatedAt)),
		}
	}
	return input, nil
}

func photoKey(photoID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"photo_id": str(photoID)}
}

func str(v string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: v}
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return err != nil && errors.As(err, &ccf)
}

func observe(operation string, start time.Time, err *error) {
	metrics.RecordMetadataOperation(backend, operation, *err, time.Since(start).Seconds())
}
