// Package remote implements the storage adapter backed by two remote
// collaborators: a row store for metadata and a blob store for file bytes.
package remote

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/notekeep/notekeep/api"
)

// A RowStore persists metadata rows and the theme flag.
type RowStore interface {
	ListMessages(ctx context.Context) ([]api.Message, error)
	InsertMessage(ctx context.Context, msg api.Message) (api.Message, error)
	DeleteMessage(ctx context.Context, id string) error
	DeleteMessages(ctx context.Context, ids []string) error

	ListFiles(ctx context.Context) ([]api.FileItem, error)
	InsertFile(ctx context.Context, item api.FileItem) (api.FileItem, error)
	DeleteFile(ctx context.Context, id string) error
	DeleteFiles(ctx context.Context, ids []string) error

	Theme(ctx context.Context) (string, error)
	SetTheme(ctx context.Context, theme string) error
}

// A BlobStore persists raw file bytes addressed by key.
type BlobStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	PublicURL(key string) string
	Remove(ctx context.Context, keys ...string) error
}

// Store mediates between the API and the two remote resources. It implements
// api.Store.
type Store struct {
	Logger *slog.Logger
	Rows   RowStore
	Blobs  BlobStore
}

// ListMessages returns all messages, newest first.
func (s *Store) ListMessages(ctx context.Context) ([]api.Message, error) {
	return s.Rows.ListMessages(ctx)
}

// InsertMessage inserts a message row. Id and timestamp are assigned by the
// row store.
func (s *Store) InsertMessage(ctx context.Context, msg api.Message) (api.Message, error) {
	return s.Rows.InsertMessage(ctx, msg)
}

// DeleteMessage deletes one message row by id.
func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	return s.Rows.DeleteMessage(ctx, id)
}

// DeleteMessages deletes the given message rows in one batch.
func (s *Store) DeleteMessages(ctx context.Context, ids []string) error {
	return s.Rows.DeleteMessages(ctx, ids)
}

// ListFiles returns all file items, newest first.
func (s *Store) ListFiles(ctx context.Context) ([]api.FileItem, error) {
	return s.Rows.ListFiles(ctx)
}

// AddFile uploads the payload under a randomized key preserving the original
// extension, then inserts a metadata row referencing the blob's public URL.
// A blob whose row insert fails is left behind; it is logged, not cleaned up.
func (s *Store) AddFile(ctx context.Context, up api.FileUpload) (api.FileItem, error) {
	key := storageKey(up.Name)
	if err := s.Blobs.Upload(ctx, key, up.Body, up.Size, up.ContentType); err != nil {
		return api.FileItem{}, fmt.Errorf("upload blob: %w", err)
	}
	url := s.Blobs.PublicURL(key)

	item, err := s.Rows.InsertFile(ctx, api.FileItem{
		Name:        up.Name,
		Size:        up.Size,
		ContentType: up.ContentType,
		URL:         url,
	})
	if err != nil {
		s.Logger.Error("Orphaned blob: row insert failed after upload", "key", key, "error", err.Error())
		return api.FileItem{}, fmt.Errorf("insert file row: %w", err)
	}
	return item, nil
}

// DeleteFile removes the blob (best effort) and then deletes the metadata
// row. A failed blob removal does not stop the row deletion.
func (s *Store) DeleteFile(ctx context.Context, file api.FileItem) error {
	key := keyFromURL(file.URL)
	if err := s.Blobs.Remove(ctx, key); err != nil {
		s.Logger.Error("Could not remove blob", "key", key, "error", err.Error())
	}
	if err := s.Rows.DeleteFile(ctx, file.ID); err != nil {
		return fmt.Errorf("delete file row: %w", err)
	}
	return nil
}

// DeleteFiles bulk-removes all blobs (best effort) and then bulk-deletes the
// metadata rows.
func (s *Store) DeleteFiles(ctx context.Context, files []api.FileItem) error {
	if len(files) == 0 {
		return nil
	}

	keys := make([]string, len(files))
	ids := make([]string, len(files))
	for i, f := range files {
		keys[i] = keyFromURL(f.URL)
		ids[i] = f.ID
	}

	if err := s.Blobs.Remove(ctx, keys...); err != nil {
		s.Logger.Error("Could not remove blobs", "count", len(keys), "error", err.Error())
	}
	if err := s.Rows.DeleteFiles(ctx, ids); err != nil {
		return fmt.Errorf("delete file rows: %w", err)
	}
	return nil
}

// Theme returns the persisted theme flag.
func (s *Store) Theme(ctx context.Context) (string, error) {
	return s.Rows.Theme(ctx)
}

// SetTheme persists the theme flag.
func (s *Store) SetTheme(ctx context.Context, theme string) error {
	return s.Rows.SetTheme(ctx, theme)
}

// storageKey derives a randomized blob key keeping the original file
// extension, so stored objects stay recognizable by type.
func storageKey(name string) string {
	return uuid.NewString() + path.Ext(name)
}

// keyFromURL recovers the blob key from the tail segment of a stored URL.
func keyFromURL(url string) string {
	return url[strings.LastIndex(url, "/")+1:]
}
