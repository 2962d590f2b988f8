package cloud

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// uploadExpiry is how long a presigned upload URL stays valid.
const uploadExpiry = time.Hour

// S3Presigner implements UploadPresigner against an S3 bucket.
type S3Presigner struct {
	presign *s3.PresignClient
	bucket  string
}

// NewS3Presigner returns a presigner for the given bucket.
func NewS3Presigner(client *s3.Client, bucket string) *S3Presigner {
	return &S3Presigner{presign: s3.NewPresignClient(client), bucket: bucket}
}

// PresignUpload returns a presigned PUT URL for fileName with the given
// content type. The object key embeds the current time so repeated uploads
// of the same file name never collide.
func (p *S3Presigner) PresignUpload(ctx context.Context, fileName, contentType string) (*PresignedUpload, error) {
	if p.bucket == "" {
		return nil, errors.New("s3 bucket not configured")
	}
	key := uploadKey(time.Now(), fileName)
	req, err := p.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(uploadExpiry))
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}
	return &PresignedUpload{URL: req.URL, Key: key}, nil
}

// uploadKey builds the object key for an upload. Path separators in the file
// name are flattened so clients cannot place objects outside uploads/.
func uploadKey(now time.Time, fileName string) string {
	fileName = strings.NewReplacer("/", "_", "\\", "_").Replace(fileName)
	return fmt.Sprintf("uploads/%d-%s", now.UnixMilli(), fileName)
}
