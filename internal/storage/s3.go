package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"trainerbook/internal/config"
	"trainerbook/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config" // Alias config to avoid clash
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

// s3Store implements ScheduleStore on a single S3 object holding the whole
// document. Conditional writes carry the ETag observed at load time in an
// If-Match header, so the bucket itself rejects a replace that would
// clobber a newer revision. That makes this store safe across processes,
// unlike the file store's in-process-only write lock.
type s3Store struct {
	client   *s3.Client
	bucket   string
	key      string
	defaults domain.Settings
	logger   *zap.Logger

	// etagMu guards the (version, etag) pair observed by the last Load.
	// CompareAndSwap needs the ETag belonging to the version it swaps on.
	etagMu      sync.Mutex
	etagVersion int64
	etag        string
}

// NewS3Store creates a store over one object in an S3-compatible bucket.
func NewS3Store(cfg config.S3Config, defaults domain.Settings, logger *zap.Logger) (ScheduleStore, error) {
	// Custom resolver for S3-compatible endpoints (like MinIO, DigitalOcean Spaces)
	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.Endpoint != "" {
			return aws.Endpoint{
				PartitionID:   "aws",
				URL:           cfg.Endpoint,
				SigningRegion: cfg.Region,
			}, nil
		}
		// Fallback to default AWS endpoint resolution if no custom endpoint is set
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsSDKConfig, err := awsCfg.LoadDefaultConfig(context.TODO(),
		awsCfg.WithRegion(cfg.Region),
		awsCfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		awsCfg.WithEndpointResolverWithOptions(customResolver),
	)
	if err != nil {
		return nil, fmt.Errorf("load AWS SDK config: %w", err)
	}

	// Path-style addressing is required by most S3-compatible services.
	client := s3.NewFromConfig(awsSDKConfig, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	logger.Info("S3 schedule store initialized",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("bucket", cfg.BucketName),
		zap.String("key", cfg.ObjectKey))

	return &s3Store{
		client:   client,
		bucket:   cfg.BucketName,
		key:      cfg.ObjectKey,
		defaults: defaults,
		logger:   logger,
	}, nil
}

func (s *s3Store) Load(ctx context.Context) (domain.Schedule, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			s.rememberETag(0, "")
			return domain.NewSchedule(s.defaults), nil
		}
		return domain.Schedule{}, fmt.Errorf("%w: get s3://%s/%s: %v", ErrUnavailable, s.bucket, s.key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return domain.Schedule{}, fmt.Errorf("%w: read s3://%s/%s: %v", ErrUnavailable, s.bucket, s.key, err)
	}

	schedule := domain.NewSchedule(s.defaults)
	if err := json.Unmarshal(data, &schedule); err != nil {
		return domain.Schedule{}, fmt.Errorf("%w: decode s3://%s/%s: %v", ErrUnavailable, s.bucket, s.key, err)
	}
	if schedule.Bookings == nil {
		schedule.Bookings = []domain.Booking{}
	}
	if schedule.Blocked == nil {
		schedule.Blocked = []string{}
	}

	s.rememberETag(schedule.Version, aws.ToString(out.ETag))
	return schedule, nil
}

func (s *s3Store) CompareAndSwap(ctx context.Context, expectedVersion int64, next domain.Schedule) error {
	etag, ok := s.etagFor(expectedVersion)
	if !ok {
		// The caller swaps on a version this store has not observed; load
		// once to learn the matching ETag (or fail fast on a stale version).
		current, err := s.Load(ctx)
		if err != nil {
			return err
		}
		if current.Version != expectedVersion {
			return fmt.Errorf("%w: have version %d, expected %d", ErrVersionConflict, current.Version, expectedVersion)
		}
		etag, _ = s.etagFor(expectedVersion)
	}

	next.Version = expectedVersion + 1
	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode schedule: %v", ErrUnavailable, err)
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	}
	if etag == "" {
		// Nothing observed yet: the put must create the object, not
		// overwrite one another writer created in the meantime.
		input.IfNoneMatch = aws.String("*")
	} else {
		input.IfMatch = aws.String(etag)
	}

	out, err := s.client.PutObject(ctx, input)
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "PreconditionFailed", "ConditionalRequestConflict":
				return fmt.Errorf("%w: s3 precondition failed for version %d", ErrVersionConflict, expectedVersion)
			}
		}
		return fmt.Errorf("%w: put s3://%s/%s: %v", ErrUnavailable, s.bucket, s.key, err)
	}

	s.rememberETag(next.Version, aws.ToString(out.ETag))
	s.logger.Debug("schedule persisted",
		zap.Int64("version", next.Version),
		zap.Int("bookings", len(next.Bookings)))
	return nil
}

func (s *s3Store) rememberETag(version int64, etag string) {
	s.etagMu.Lock()
	s.etagVersion = version
	s.etag = etag
	s.etagMu.Unlock()
}

func (s *s3Store) etagFor(version int64) (string, bool) {
	s.etagMu.Lock()
	defer s.etagMu.Unlock()
	if s.etagVersion != version {
		return "", false
	}
	return s.etag, true
}
