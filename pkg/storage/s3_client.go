package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// ErrArchiveDisabled is returned when no archive bucket is configured
var ErrArchiveDisabled = errors.New("report archive is disabled")

// ArchivedObject describes a stored report
type ArchivedObject struct {
	Bucket      string    `json:"bucket"`
	Key         string    `json:"key"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ReportArchive stores rendered reports and hands back a download link
type ReportArchive interface {
	Archive(ctx context.Context, name, contentType string, body io.Reader) (*ArchivedObject, error)
	Enabled() bool
}

// S3Options configures the S3 archive
type S3Options struct {
	Bucket        string
	Region        string
	Prefix        string
	PresignExpiry time.Duration
}

type objectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type objectPresigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Archive uploads reports to S3 and presigns GET URLs
type S3Archive struct {
	uploader  objectUploader
	presigner objectPresigner
	options   S3Options
	logger    *zap.Logger
	now       func() time.Time
}

// NewS3Archive builds an archive from the default AWS credential chain
func NewS3Archive(ctx context.Context, opts S3Options, logger *zap.Logger) (*S3Archive, error) {
	if opts.Bucket == "" {
		return nil, ErrArchiveDisabled
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	return newS3Archive(manager.NewUploader(client), s3.NewPresignClient(client), opts, logger), nil
}

func newS3Archive(uploader objectUploader, presigner objectPresigner, opts S3Options, logger *zap.Logger) *S3Archive {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PresignExpiry <= 0 {
		opts.PresignExpiry = 15 * time.Minute
	}
	return &S3Archive{
		uploader:  uploader,
		presigner: presigner,
		options:   opts,
		logger:    logger,
		now:       time.Now,
	}
}

func (a *S3Archive) Enabled() bool { return true }

// Archive uploads body under the configured prefix and returns a presigned URL
func (a *S3Archive) Archive(ctx context.Context, name, contentType string, body io.Reader) (*ArchivedObject, error) {
	key := path.Join(a.options.Prefix, a.now().UTC().Format("2006/01/02"), name)

	if _, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.options.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}); err != nil {
		return nil, fmt.Errorf("failed to upload report: %w", err)
	}

	req, err := a.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.options.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(a.options.PresignExpiry))
	if err != nil {
		return nil, fmt.Errorf("failed to presign report url: %w", err)
	}

	a.logger.Info("Report archived",
		zap.String("bucket", a.options.Bucket),
		zap.String("key", key))

	return &ArchivedObject{
		Bucket:      a.options.Bucket,
		Key:         key,
		DownloadURL: req.URL,
		ExpiresAt:   a.now().Add(a.options.PresignExpiry),
	}, nil
}

// noopArchive is used when archiving is not configured
type noopArchive struct{}

// NewNoopArchive returns an archive that refuses every upload
func NewNoopArchive() ReportArchive {
	return noopArchive{}
}

func (noopArchive) Enabled() bool { return false }

func (noopArchive) Archive(ctx context.Context, name, contentType string, body io.Reader) (*ArchivedObject, error) {
	return nil, ErrArchiveDisabled
}
