package sync

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/picvet/lox/internal/config"
	"github.com/picvet/lox/internal/events"
)

// Wire schema shared with every client that reads the table. All
// revisions live under one partition key; the GSI orders them by push
// time.
const (
	partitionKey   = "VAULT_DATA"
	recordType     = "DATA_VAULT"
	timestampIndex = "TimestampIndex"
)

// DynamoRemote stores revisions as items in a DynamoDB table.
type DynamoRemote struct {
	client *dynamodb.Client
	table  string
	name   string
	logger *events.Logger
}

// NewDynamoRemote connects to the configured table.
func NewDynamoRemote(cfg config.SyncConfig, logger *events.Logger) (*DynamoRemote, error) {
	awsCfg, err := loadAWSConfig(context.Background(), cfg)
	if err != nil {
		return nil, syncErr("dynamodb", "configure", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &DynamoRemote{
		client: client,
		table:  cfg.Table,
		name:   cfg.CommonName,
		logger: logger.WithField("component", "dynamo_remote"),
	}, nil
}

// Push uploads a revision as a new item.
func (r *DynamoRemote) Push(ctx context.Context, rev Revision) (string, error) {
	fillRevision(&rev, r.name)

	pctx, cancel := context.WithTimeout(ctx, payloadTimeout)
	defer cancel()

	_, err := r.client.PutItem(pctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      marshalRevision(rev),
	})
	if err != nil {
		return "", syncErr("dynamodb", "push", err)
	}

	r.logger.WithFields(map[string]interface{}{
		"remote_id": rev.ID,
		"size":      len(rev.Data),
	}).Info("Pushed revision")

	return rev.ID, nil
}

// PullLatest returns the newest revision across all pushers.
func (r *DynamoRemote) PullLatest(ctx context.Context) (*Revision, error) {
	out, err := r.queryNewest(ctx, 1, payloadTimeout)
	if err != nil {
		return nil, syncErr("dynamodb", "pull", err)
	}
	if len(out.Items) == 0 {
		return nil, ErrNoRevisions
	}

	rev, err := unmarshalItem(out.Items[0])
	if err != nil {
		return nil, syncErr("dynamodb", "pull", err)
	}

	r.logger.WithFields(map[string]interface{}{
		"remote_id": rev.ID,
		"size":      len(rev.Data),
	}).Info("Pulled latest revision")

	return rev, nil
}

// List returns revision metadata, newest first.
func (r *DynamoRemote) List(ctx context.Context, limit int) ([]RevisionInfo, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	out, err := r.queryNewest(ctx, limit, metadataTimeout)
	if err != nil {
		return nil, syncErr("dynamodb", "list", err)
	}

	infos := make([]RevisionInfo, 0, len(out.Items))
	for _, item := range out.Items {
		rev, err := unmarshalItem(item)
		if err != nil {
			return nil, syncErr("dynamodb", "list", err)
		}
		infos = append(infos, RevisionInfo{
			ID:       rev.ID,
			Name:     rev.Name,
			Size:     int64(len(rev.Data)),
			PushedAt: rev.PushedAt,
		})
	}

	return infos, nil
}

// queryNewest reads revisions through the timestamp GSI in descending
// push order.
func (r *DynamoRemote) queryNewest(ctx context.Context, limit int, timeout time.Duration) (*dynamodb.QueryOutput, error) {
	qctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return r.client.Query(qctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		IndexName:              aws.String(timestampIndex),
		KeyConditionExpression: aws.String("#rt = :rt"),
		ExpressionAttributeNames: map[string]string{
			"#rt": "record_type",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":rt": &types.AttributeValueMemberS{Value: recordType},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
}

// fillRevision stamps id, name, and push time when the caller left
// them empty.
func fillRevision(rev *Revision, name string) {
	if rev.ID == "" {
		rev.ID = uuid.NewString()
	}
	if rev.Name == "" {
		rev.Name = name
	}
	if rev.PushedAt.IsZero() {
		rev.PushedAt = time.Now().UTC()
	}
}

// marshalRevision lays a revision out in the shared wire schema. The
// payload is base64 because the schema predates clients that could
// store binary attributes.
func marshalRevision(rev Revision) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk":           &types.AttributeValueMemberS{Value: partitionKey},
		"sk":           &types.AttributeValueMemberS{Value: rev.ID},
		"common_name":  &types.AttributeValueMemberS{Value: rev.Name},
		"timestamp_ms": &types.AttributeValueMemberN{Value: strconv.FormatInt(rev.PushedAt.UnixMilli(), 10)},
		"vault_data":   &types.AttributeValueMemberS{Value: base64.StdEncoding.EncodeToString(rev.Data)},
		"record_type":  &types.AttributeValueMemberS{Value: recordType},
	}
}

// unmarshalItem reads a wire item back into a revision.
func unmarshalItem(item map[string]types.AttributeValue) (*Revision, error) {
	rev := &Revision{}

	if v, ok := item["sk"].(*types.AttributeValueMemberS); ok {
		rev.ID = v.Value
	}
	if v, ok := item["common_name"].(*types.AttributeValueMemberS); ok {
		rev.Name = v.Value
	}

	payload, ok := item["vault_data"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, fmt.Errorf("item %s missing vault_data", rev.ID)
	}
	data, err := base64.StdEncoding.DecodeString(payload.Value)
	if err != nil {
		return nil, fmt.Errorf("decode vault_data: %w", err)
	}
	rev.Data = data

	if v, ok := item["timestamp_ms"].(*types.AttributeValueMemberN); ok {
		ms, err := strconv.ParseInt(v.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp_ms: %w", err)
		}
		rev.PushedAt = time.UnixMilli(ms).UTC()
	}

	return rev, nil
}
