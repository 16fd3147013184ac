package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"

	"secure-drive/internal/config"
	"secure-drive/internal/content"
	apperrors "secure-drive/pkg/errors"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

const (
	emptyAWSSessionToken         = ""
	contentTypeOctetStream       = "application/octet-stream"
	metaOriginalName             = "original-name"
	metaCharset                  = "utf-8"
	errFailedCreateAWSSessionFmt = "failed to create AWS session: %w"
	errFailedPutObjectFmt        = "failed to put object %s: %w"
	errFailedGetObjectFmt        = "failed to get object %s: %w"
	errFailedReadObjectFmt       = "failed to read object %s: %w"
	errFailedHeadBucketFmt       = "failed to reach bucket %s: %w"
	errFailedHashContentFmt      = "failed to compute content id: %w"
)

// Client stores blobs in an S3-compatible bucket under their computed CID.
type Client struct {
	svc    s3iface.S3API
	bucket string
	prefix string
}

func NewClient(cfg config.S3Config) (*Client, error) {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			emptyAWSSessionToken,
		)
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf(errFailedCreateAWSSessionFmt, err)
	}

	return NewClientWithAPI(s3.New(sess), cfg.Bucket, cfg.Prefix), nil
}

func NewClientWithAPI(svc s3iface.S3API, bucket, prefix string) *Client {
	return &Client{svc: svc, bucket: bucket, prefix: prefix}
}

func (c *Client) Add(ctx context.Context, data []byte, name string) (string, error) {
	id, err := content.ComputeID(data)
	if err != nil {
		return "", fmt.Errorf(errFailedHashContentFmt, err)
	}

	key := c.objectKey(id)
	_, err = c.svc.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentTypeOctetStream),
		Metadata: map[string]*string{
			// user metadata travels as headers and must stay US-ASCII
			metaOriginalName: aws.String(mime.QEncoding.Encode(metaCharset, name)),
		},
	})
	if err != nil {
		return "", fmt.Errorf(errFailedPutObjectFmt, key, err)
	}

	return id, nil
}

func (c *Client) Cat(ctx context.Context, id string) ([]byte, error) {
	key := c.objectKey(id)
	out, err := c.svc.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf(errFailedGetObjectFmt, key, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf(errFailedGetObjectFmt, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf(errFailedReadObjectFmt, key, err)
	}
	return data, nil
}

func (c *Client) Ping(ctx context.Context) error {
	_, err := c.svc.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.bucket),
	})
	if err != nil {
		return fmt.Errorf(errFailedHeadBucketFmt, c.bucket, err)
	}
	return nil
}

func (c *Client) objectKey(id string) string {
	return c.prefix + id
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return false
	}
	switch aerr.Code() {
	case s3.ErrCodeNoSuchKey, "NotFound":
		return true
	}
	return false
}
