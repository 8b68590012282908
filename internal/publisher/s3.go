package publisher

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "github.com/hogyzen12/optimisoor/config"
	"github.com/hogyzen12/optimisoor/logger"
)

// Uploader pushes a dated directory's artifacts to an S3-compatible bucket,
// one PutObject per file under a {prefix}{date}/ key.
type Uploader struct {
	cfg      appconfig.S3Config
	version  string
	s3Client *s3.Client
	log      *logger.Entry
}

func NewUploader(cfg appconfig.S3Config, version string) (*Uploader, error) {
	log := logger.GetLogger()
	ctx := context.Background()

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"",
			),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		log.WithComponent("uploader").WithError(err).Warn("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	creds, err := awsCfg.Credentials.Retrieve(ctx)
	if err != nil || !creds.HasKeys() {
		return nil, fmt.Errorf("aws credentials not found")
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	log.WithEnv("AWS_REGION").WithComponent("uploader").WithFields(logger.Fields{
		"bucket":     cfg.Bucket,
		"region":     cfg.Region,
		"endpoint":   cfg.Endpoint,
		"path_style": cfg.PathStyle,
	}).Info("uploader initialized")

	return &Uploader{
		cfg:      cfg,
		version:  version,
		s3Client: s3Client,
		log:      log.WithComponent("uploader"),
	}, nil
}

// UploadDir puts every artifact directly inside dir into the bucket. The
// directory's base name (the day bucket) becomes the key's date segment.
func (u *Uploader) UploadDir(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("list dated directory: %w", err)
	}

	date := filepath.Base(dir)
	uploaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") && !strings.HasSuffix(name, ".parquet") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read artifact %s: %w", name, err)
		}

		key := u.objectKey(date, name)
		if err := u.putObject(ctx, key, name, data); err != nil {
			u.log.WithError(err).
				WithEnv("S3_BUCKET").
				WithFields(logger.Fields{"bucket": u.cfg.Bucket, "key": key}).
				Error("failed to upload artifact")
			return fmt.Errorf("upload %s: %w", name, err)
		}
		logger.IncrementUpload(int64(len(data)))
		uploaded++
	}

	logger.LogDataFlowEntry(u.log, "dated_dir", "s3_bucket", uploaded, "artifacts")
	logger.GetLogger().LogMetric("uploader", "artifacts_uploaded", uploaded, "counter", logger.Fields{"date": date})
	u.log.WithFields(logger.Fields{"dir": dir, "uploaded": uploaded}).Info("uploaded cycle artifacts")
	return nil
}

func (u *Uploader) objectKey(date, name string) string {
	prefix := strings.Trim(u.cfg.Prefix, "/")
	if prefix == "" {
		return fmt.Sprintf("%s/%s", date, name)
	}
	return fmt.Sprintf("%s/%s/%s", prefix, date, name)
}

func (u *Uploader) putObject(ctx context.Context, key, name string, data []byte) error {
	contentType := "application/octet-stream"
	if strings.HasSuffix(name, ".json") {
		contentType = "application/json"
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"optimisoor-version": u.version,
		},
	}

	if _, err := u.s3Client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put object to bucket %s: %w", u.cfg.Bucket, err)
	}

	u.log.WithFields(logger.Fields{"key": key, "bytes": len(data)}).Debug("uploaded artifact")
	return nil
}
