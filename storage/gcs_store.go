package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// GCSStore keeps assets in a Google Cloud Storage bucket.
type GCSStore struct {
	cl         *storage.Client
	bucketName string
}

// NewGCSStore creates a client from credentialsFile, or from application
// default credentials when it is empty.
func NewGCSStore(ctx context.Context, bucketName, credentialsFile string) (*GCSStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSStore{cl: client, bucketName: bucketName}, nil
}

// Upload writes the file under a fresh asset id and returns its public URL.
func (g *GCSStore) Upload(ctx context.Context, localPath, namespace string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open staged file: %w", err)
	}
	defer file.Close()

	objectPath := ObjectKey(namespace, uuid.NewString())

	wc := g.cl.Bucket(g.bucketName).Object(objectPath).NewWriter(ctx)
	wc.ContentType = contentTypeFor(localPath)
	if _, err := io.Copy(wc, file); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("io.Copy: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("Writer.Close: %w", err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucketName, objectPath), nil
}

// BulkDelete deletes each object in turn and joins the failures.
func (g *GCSStore) BulkDelete(ctx context.Context, namespace string, assetIDs []string) error {
	var errs []error
	bucket := g.cl.Bucket(g.bucketName)
	for _, id := range assetIDs {
		err := bucket.Object(ObjectKey(namespace, id)).Delete(ctx)
		if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			errs = append(errs, fmt.Errorf("delete %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func (g *GCSStore) Close() error {
	return g.cl.Close()
}
