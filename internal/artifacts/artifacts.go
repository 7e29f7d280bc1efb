package artifacts

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/hashicorp/go-hclog"
)

// Uploader copies report files to an S3 bucket so CI runs leave a durable
// artifact behind.
type Uploader struct {
	Bucket string
	Region string
	Logger hclog.Logger
}

// UploadKey builds the object key for one report file of a run.
func UploadKey(app, runID, path string) string {
	return filepath.ToSlash(filepath.Join(app, runID, filepath.Base(path)))
}

// Upload sends the file at path to the configured bucket and returns its
// object location.
func (u *Uploader) Upload(app, runID, path string) (string, error) {
	sess := session.Must(session.NewSession(&aws.Config{
		Region: aws.String(u.Region),
	}))
	uploader := s3manager.NewUploader(sess)

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open report file %q: %w", path, err)
	}
	defer file.Close()

	key := UploadKey(app, runID, path)
	result, err := uploader.Upload(&s3manager.UploadInput{
		Bucket: aws.String(u.Bucket),
		Key:    aws.String(key),
		Body:   file,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %q: %w", key, err)
	}

	u.Logger.Info("uploaded report artifact", "bucket", u.Bucket, "key", key)
	return result.Location, nil
}
