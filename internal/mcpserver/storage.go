package mcpserver

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/lumenworks/sage/internal/artifact"
)

// Storage materializes finished video artifacts into S3 and hands back a
// CDN URL, the server-side counterpart of the CLI's local videos dir.
type Storage struct {
	client     *s3.Client
	fetch      artifact.Fetcher
	bucket     string
	cdnBaseURL string
}

// NewStorage creates an S3-backed materializer.
func NewStorage(client *s3.Client, fetch artifact.Fetcher, bucket, cdnBaseURL string) *Storage {
	return &Storage{client: client, fetch: fetch, bucket: bucket, cdnBaseURL: cdnBaseURL}
}

// Materialize downloads the artifact from the provider and uploads it to
// videos/<jobID>.mp4, returning the public URL.
func (s *Storage) Materialize(ctx context.Context, jobID, uri string) (string, error) {
	data, err := s.fetch.DownloadVideo(ctx, uri)
	if err != nil {
		return "", err
	}

	key := "videos/" + jobID + ".mp4"
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &s.bucket,
		Key:           &key,
		Body:          bytes.NewReader(data),
		ContentType:   aws.String("video/mp4"),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("upload to s3: %w", err)
	}

	return s.cdnBaseURL + "/" + key, nil
}
