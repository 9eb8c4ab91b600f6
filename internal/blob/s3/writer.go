package s3blob

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Writer uploads objects to the client's configured bucket. Snapshot
// archives are small, so a single PutObject per upload is sufficient.
type Writer struct {
	client *s3.Client
	bucket string
}

// NewWriter creates a Writer bound to c's bucket.
func NewWriter(c *Client) *Writer {
	return &Writer{
		client: c.s3,
		bucket: c.bucket,
	}
}

// Put uploads data as one object at the given key.
func (w *Writer) Put(ctx context.Context, path string, data io.Reader, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(path),
		Body:        data,
		ContentType: aws.String(contentType),
	}

	_, err := w.client.PutObject(ctx, input)
	if err != nil {
		return fmt.Errorf("s3blob: put object %s: %w", path, err)
	}
	return nil
}
