package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

type DocumentKind string

const (
	DocAadharCard DocumentKind = "aadhar_card"
	DocVoterID    DocumentKind = "voter_id"
)

func (k DocumentKind) Valid() bool {
	return k == DocAadharCard || k == DocVoterID
}

// DocumentStore keeps identity documents as opaque blobs addressed by ref.
type DocumentStore interface {
	Put(ctx context.Context, userID int64, kind DocumentKind, filename string, r io.Reader, size int64, contentType string) (string, error)
	Exists(ctx context.Context, ref string) (bool, error)
}

type MinioDocumentStore struct {
	client *minio.Client
	bucket string
}

func NewMinioDocumentStore(client *minio.Client, bucket string) *MinioDocumentStore {
	return &MinioDocumentStore{client: client, bucket: bucket}
}

func (s *MinioDocumentStore) Put(ctx context.Context, userID int64, kind DocumentKind, filename string, r io.Reader, size int64, contentType string) (string, error) {
	ref := ObjectKey(userID, kind, filename, uuid.NewString())
	_, err := s.client.PutObject(ctx, s.bucket, ref, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put document: %w", err)
	}
	return ref, nil
}

func (s *MinioDocumentStore) Exists(ctx context.Context, ref string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, ref, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, fmt.Errorf("stat document: %w", err)
}

// ObjectKey is identity/<user>/<kind>-<id><ext>. Client file names never reach the key.
func ObjectKey(userID int64, kind DocumentKind, filename, id string) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) > 8 {
		ext = ""
	}
	return fmt.Sprintf("identity/%d/%s-%s%s", userID, kind, id, ext)
}

// OwnedBy reports whether ref lies under the identity prefix of userID.
func OwnedBy(ref string, userID int64) bool {
	prefix := fmt.Sprintf("identity/%d/", userID)
	return strings.HasPrefix(ref, prefix) && path.Clean(ref) == ref && len(ref) > len(prefix)
}
