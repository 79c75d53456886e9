package sync

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/picvet/lox/internal/config"
	"github.com/picvet/lox/internal/events"
)

// S3Remote stores revisions as objects under a key prefix. Push time
// is encoded in the key so a plain listing sorts by it.
type S3Remote struct {
	client *s3.Client
	bucket string
	prefix string
	name   string
	logger *events.Logger
}

// NewS3Remote connects to the configured bucket.
func NewS3Remote(cfg config.SyncConfig, logger *events.Logger) (*S3Remote, error) {
	awsCfg, err := loadAWSConfig(context.Background(), cfg)
	if err != nil {
		return nil, syncErr("s3", "configure", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Remote{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		name:   cfg.CommonName,
		logger: logger.WithField("component", "s3_remote"),
	}, nil
}

// Push uploads a revision as a new object.
func (r *S3Remote) Push(ctx context.Context, rev Revision) (string, error) {
	fillRevision(&rev, r.name)
	key := objectKey(r.prefix, rev.Name, rev.ID, rev.PushedAt)

	pctx, cancel := context.WithTimeout(ctx, payloadTimeout)
	defer cancel()

	_, err := r.client.PutObject(pctx, &s3.PutObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(rev.Data),
	})
	if err != nil {
		return "", syncErr("s3", "push", err)
	}

	r.logger.WithFields(map[string]interface{}{
		"object_key": key,
		"size":       len(rev.Data),
	}).Info("Pushed revision")

	return rev.ID, nil
}

// PullLatest downloads the newest revision under the vault prefix.
func (r *S3Remote) PullLatest(ctx context.Context) (*Revision, error) {
	objects, err := r.listObjects(ctx)
	if err != nil {
		return nil, syncErr("s3", "pull", err)
	}
	if len(objects) == 0 {
		return nil, ErrNoRevisions
	}
	newest := objects[0]

	gctx, cancel := context.WithTimeout(ctx, payloadTimeout)
	defer cancel()

	out, err := r.client.GetObject(gctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(newest.key),
	})
	if err != nil {
		return nil, syncErr("s3", "pull", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, syncErr("s3", "pull", err)
	}

	r.logger.WithFields(map[string]interface{}{
		"object_key": newest.key,
		"size":       len(data),
	}).Info("Pulled latest revision")

	return &Revision{
		ID:       newest.id,
		Name:     r.name,
		Data:     data,
		PushedAt: newest.pushedAt,
	}, nil
}

// List returns revision metadata, newest first.
func (r *S3Remote) List(ctx context.Context, limit int) ([]RevisionInfo, error) {
	objects, err := r.listObjects(ctx)
	if err != nil {
		return nil, syncErr("s3", "list", err)
	}

	if limit <= 0 {
		limit = defaultListLimit
	}
	if len(objects) > limit {
		objects = objects[:limit]
	}

	infos := make([]RevisionInfo, 0, len(objects))
	for _, obj := range objects {
		infos = append(infos, RevisionInfo{
			ID:       obj.id,
			Name:     r.name,
			Size:     obj.size,
			PushedAt: obj.pushedAt,
		})
	}

	return infos, nil
}

type s3Object struct {
	key      string
	id       string
	size     int64
	pushedAt time.Time
}

// listObjects returns stored revisions under the vault prefix, newest
// first. Objects that don't follow the key layout are skipped.
func (r *S3Remote) listObjects(ctx context.Context) ([]s3Object, error) {
	lctx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()

	var objects []s3Object

	paginator := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.bucket),
		Prefix: aws.String(objectPrefix(r.prefix, r.name)),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(lctx)
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			id, pushedAt, err := parseKey(key)
			if err != nil {
				r.logger.WithField("object_key", key).Warn("Skipping foreign object")
				continue
			}
			objects = append(objects, s3Object{
				key:      key,
				id:       id,
				size:     aws.ToInt64(obj.Size),
				pushedAt: pushedAt,
			})
		}
	}

	sortNewestFirst(objects)

	return objects, nil
}

// sortNewestFirst orders objects by push time, ties broken by id for a
// stable listing.
func sortNewestFirst(objects []s3Object) {
	sort.Slice(objects, func(i, j int) bool {
		if !objects[i].pushedAt.Equal(objects[j].pushedAt) {
			return objects[i].pushedAt.After(objects[j].pushedAt)
		}
		return objects[i].id > objects[j].id
	})
}

// objectKey lays out <prefix>/<name>/<unix-ms>-<uuid>.enc.
func objectKey(prefix, name, id string, pushedAt time.Time) string {
	file := fmt.Sprintf("%d-%s.enc", pushedAt.UnixMilli(), id)
	return path.Join(strings.TrimSuffix(prefix, "/"), name, file)
}

// objectPrefix is the listing prefix for one vault name.
func objectPrefix(prefix, name string) string {
	return path.Join(strings.TrimSuffix(prefix, "/"), name) + "/"
}

// parseKey recovers the id and push time encoded in an object key.
func parseKey(key string) (string, time.Time, error) {
	stem, ok := strings.CutSuffix(path.Base(key), ".enc")
	if !ok {
		return "", time.Time{}, fmt.Errorf("unexpected object key %q", key)
	}

	msPart, id, ok := strings.Cut(stem, "-")
	if !ok || id == "" {
		return "", time.Time{}, fmt.Errorf("unexpected object key %q", key)
	}

	ms, err := strconv.ParseInt(msPart, 10, 64)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("parse key timestamp: %w", err)
	}

	return id, time.UnixMilli(ms).UTC(), nil
}
