package imagestore

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	storage_go "github.com/supabase-community/storage-go"
	"github.com/supabase-community/supabase-go"
)

// SupabaseStore stores images in a public Supabase Storage bucket.
type SupabaseStore struct {
	// uploads mutate headers shared by the storage client
	mu      sync.Mutex
	storage *storage_go.Client
	bucket  string
}

func NewSupabaseStore(supabaseURL, serviceKey, bucket string) (*SupabaseStore, error) {
	client, err := supabase.NewClient(supabaseURL, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return &SupabaseStore{storage: client.Storage, bucket: bucket}, nil
}

// Put upserts the object. The storage client has no context support, so ctx
// is only checked before the call.
func (s *SupabaseStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	upsert := true
	cacheControl := "3600"
	_, err := s.storage.UploadOrUpdateFile(s.bucket, key, bytes.NewReader(data), false, storage_go.FileOptions{
		ContentType:  &contentType,
		CacheControl: &cacheControl,
		Upsert:       &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("supabase upload failed: %w", err)
	}
	return s.storage.GetPublicUrl(s.bucket, key).SignedURL, nil
}
