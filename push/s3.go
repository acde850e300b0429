package push

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 publishes to an S3 bucket.
type S3 struct {
	client putObjectAPI
	logger *logrus.Logger
}

// NewS3 loads the default AWS credential chain. region may be empty.
func NewS3(ctx context.Context, region string, logger *logrus.Logger) (*S3, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return newS3(s3.NewFromConfig(cfg), logger), nil
}

func newS3(client putObjectAPI, logger *logrus.Logger) *S3 {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &S3{client: client, logger: logger}
}

func (p *S3) UploadDir(ctx context.Context, localDir, bucket, prefix string, ignoreExt []string) error {
	files, err := Walk(localDir, prefix, ignoreExt)
	if err != nil {
		return err
	}
	p.logger.Infof("Pushing %d files in %s to s3://%s/%s", len(files), localDir, bucket, prefix)
	for _, f := range files {
		if err := p.put(ctx, f, bucket); err != nil {
			return err
		}
	}
	return nil
}

func (p *S3) put(ctx context.Context, f File, bucket string) error {
	fh, err := os.Open(f.Path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", f.Path, err)
	}
	defer fh.Close()

	p.logger.Debugf("Pushing %s to s3://%s/%s", f.Path, bucket, f.Key)
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(f.Key),
		Body:   fh,
	})
	if err != nil {
		return fmt.Errorf("uploading %s to s3://%s/%s: %w", f.Path, bucket, f.Key, err)
	}
	return nil
}
