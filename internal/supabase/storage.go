package supabase

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	storage "github.com/supabase-community/storage-go"
)

// StorageClient talks to one bucket. Reads go through public URLs; writes
// run as the signed in user so the bucket's policies see who is asking.
type StorageClient struct {
	apiKey  string
	bucket  string
	baseURL string
}

func NewStorageClient(supabaseURL, apiKey, bucket string) (*StorageClient, error) {
	if bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	return &StorageClient{
		apiKey:  apiKey,
		bucket:  bucket,
		baseURL: strings.TrimSuffix(supabaseURL, "/"),
	}, nil
}

// clientFor returns a storage client authorized with the user's access
// token. An empty token falls back to the publishable key.
func (s *StorageClient) clientFor(accessToken string) *storage.Client {
	if accessToken == "" {
		accessToken = s.apiKey
	}
	return storage.NewClient(s.baseURL+"/storage/v1", accessToken, map[string]string{
		"apikey": s.apiKey,
	})
}

// ProjectImagePath builds the object key of a project image:
// projects/{upload_id}/{filename}.
func ProjectImagePath(uploadID uuid.UUID, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "image"
	}
	return fmt.Sprintf("projects/%s/%s", uploadID.String(), name)
}

// UploadProjectImage stores data under a fresh key and returns the storage
// path and its public URL.
func (s *StorageClient) UploadProjectImage(accessToken, filename, contentType string, data []byte) (string, string, error) {
	storagePath := ProjectImagePath(uuid.New(), filename)

	upsert := false
	_, err := s.clientFor(accessToken).UploadFile(s.bucket, storagePath, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload file: %w", err)
	}

	return storagePath, s.GetPublicURL(storagePath), nil
}

func (s *StorageClient) GetPublicURL(storagePath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s",
		s.baseURL, s.bucket, storagePath)
}

// PathFromPublicURL is the inverse of GetPublicURL. It reports false for
// URLs that do not point into this bucket.
func (s *StorageClient) PathFromPublicURL(publicURL string) (string, bool) {
	prefix := fmt.Sprintf("%s/storage/v1/object/public/%s/", s.baseURL, s.bucket)
	if !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}
	return strings.TrimPrefix(publicURL, prefix), true
}

func (s *StorageClient) DeleteFile(accessToken, storagePath string) error {
	_, err := s.clientFor(accessToken).RemoveFile(s.bucket, []string{storagePath})
	return err
}
