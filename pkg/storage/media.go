package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// MediaStore persists call recordings and report snapshots under
// tenant-scoped object prefixes.
type MediaStore interface {
	SaveRecording(ctx context.Context, tenantID uint, filename string, r io.Reader) (string, error)
	WriteReportSnapshot(ctx context.Context, tenantID uint, document []byte, generatedAt time.Time) (string, error)
}

type minioStore struct {
	client *minio.Client
	bucket string
}

func NewMediaStore(client *minio.Client, bucket string) MediaStore {
	return &minioStore{client: client, bucket: bucket}
}

func (s *minioStore) SaveRecording(ctx context.Context, tenantID uint, filename string, r io.Reader) (string, error) {
	objectName := fmt.Sprintf("recordings/%d/%s-%s", tenantID, uuid.New().String(), SafeBaseName(filename))
	// Size -1 streams the upload in fixed-size parts so memory stays
	// bounded regardless of recording size.
	_, err := s.client.PutObject(ctx, s.bucket, objectName, r, -1, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return "", err
	}
	return objectName, nil
}

func (s *minioStore) WriteReportSnapshot(ctx context.Context, tenantID uint, document []byte, generatedAt time.Time) (string, error) {
	objectName := fmt.Sprintf("reports/%d/report-%d.json", tenantID, generatedAt.Unix())
	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(document), int64(len(document)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", err
	}
	return objectName, nil
}

// SafeBaseName strips client-supplied path components from an upload
// filename, keeping only a sanitized final element.
func SafeBaseName(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "recording"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, base)
}
