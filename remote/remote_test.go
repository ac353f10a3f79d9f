package remote

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/neilotoole/slogt"

	"github.com/notekeep/notekeep/api"
)

func TestStore_AddFile(t *testing.T) {
	log := &opLog{}
	rows := &fakeRows{log: log}
	blobs := &fakeBlobs{base: "https://files.example.com/uploads", log: log}
	s := &Store{Logger: slogt.New(t), Rows: rows, Blobs: blobs}

	item, err := s.AddFile(context.Background(), api.FileUpload{
		Name:        "photo.png",
		Size:        4,
		ContentType: "image/png",
		Body:        strings.NewReader("data"),
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(blobs.uploaded) != 1 {
		t.Fatalf("Got %d uploads, want 1", len(blobs.uploaded))
	}
	key := blobs.uploaded[0]
	if !strings.HasSuffix(key, ".png") {
		t.Errorf("Storage key %q does not preserve the extension", key)
	}
	if key == "photo.png" {
		t.Errorf("Storage key %q is not randomized", key)
	}

	if len(rows.insertedFiles) != 1 {
		t.Fatalf("Got %d row inserts, want 1", len(rows.insertedFiles))
	}
	wantURL := "https://files.example.com/uploads/" + key
	if got := rows.insertedFiles[0].URL; got != wantURL {
		t.Errorf("Got row URL %q, want %q", got, wantURL)
	}
	if item.URL != wantURL {
		t.Errorf("Got item URL %q, want %q", item.URL, wantURL)
	}

	wantOps := []string{"upload", "insert"}
	if diff := cmp.Diff(wantOps, log.list()); diff != "" {
		t.Errorf("Operations out of order (-want +got):\n%s", diff)
	}
}

func TestStore_AddFile_uploadFails(t *testing.T) {
	rows := &fakeRows{}
	blobs := &fakeBlobs{base: "https://files.example.com", uploadErr: errors.New("boom")}
	s := &Store{Logger: slogt.New(t), Rows: rows, Blobs: blobs}

	_, err := s.AddFile(context.Background(), api.FileUpload{
		Name: "a.txt",
		Body: strings.NewReader("x"),
	})
	if err == nil {
		t.Fatal("Expected an error")
	}
	if len(rows.insertedFiles) != 0 {
		t.Errorf("Row was inserted after a failed upload")
	}
}

func TestStore_AddFile_rowInsertFails(t *testing.T) {
	rows := &fakeRows{insertFileErr: errors.New("boom")}
	blobs := &fakeBlobs{base: "https://files.example.com"}
	s := &Store{Logger: slogt.New(t), Rows: rows, Blobs: blobs}

	_, err := s.AddFile(context.Background(), api.FileUpload{
		Name: "a.txt",
		Body: strings.NewReader("x"),
	})
	if err == nil {
		t.Fatal("Expected an error")
	}

	// The uploaded blob is orphaned on purpose: no cleanup happens.
	if len(blobs.uploaded) != 1 {
		t.Errorf("Got %d uploads, want 1", len(blobs.uploaded))
	}
	if len(blobs.removed) != 0 {
		t.Errorf("Blob was removed, want it left orphaned")
	}
}

func TestStore_DeleteFile(t *testing.T) {
	log := &opLog{}
	rows := &fakeRows{log: log}
	blobs := &fakeBlobs{base: "https://files.example.com/uploads", log: log}
	s := &Store{Logger: slogt.New(t), Rows: rows, Blobs: blobs}

	err := s.DeleteFile(context.Background(), api.FileItem{
		ID:  "f1",
		URL: "https://files.example.com/uploads/abc123.png",
	})
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"abc123.png"}, blobs.removed); diff != "" {
		t.Errorf("Removed keys do not match (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"f1"}, rows.deletedFileIDs); diff != "" {
		t.Errorf("Deleted row ids do not match (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"remove", "deleteRow"}, log.list()); diff != "" {
		t.Errorf("Blob removal must precede row deletion (-want +got):\n%s", diff)
	}
}

func TestStore_DeleteFile_blobRemovalFails(t *testing.T) {
	rows := &fakeRows{}
	blobs := &fakeBlobs{base: "https://files.example.com", removeErr: errors.New("boom")}
	s := &Store{Logger: slogt.New(t), Rows: rows, Blobs: blobs}

	err := s.DeleteFile(context.Background(), api.FileItem{
		ID:  "f1",
		URL: "https://files.example.com/abc.png",
	})
	if err != nil {
		t.Fatalf("Blob removal is best effort, got error: %v", err)
	}
	if diff := cmp.Diff([]string{"f1"}, rows.deletedFileIDs); diff != "" {
		t.Errorf("Row was not deleted after failed blob removal (-want +got):\n%s", diff)
	}
}

func TestStore_DeleteFiles(t *testing.T) {
	rows := &fakeRows{}
	blobs := &fakeBlobs{base: "https://files.example.com"}
	s := &Store{Logger: slogt.New(t), Rows: rows, Blobs: blobs}

	err := s.DeleteFiles(context.Background(), []api.FileItem{
		{ID: "f1", URL: "https://files.example.com/k1.png"},
		{ID: "f2", URL: "https://files.example.com/k2.pdf"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"k1.png", "k2.pdf"}, blobs.removed); diff != "" {
		t.Errorf("Removed keys do not match (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]string{{"f1", "f2"}}, rows.deletedFileBatches); diff != "" {
		t.Errorf("Deleted row batches do not match (-want +got):\n%s", diff)
	}
}

func TestStore_DeleteFiles_empty(t *testing.T) {
	rows := &fakeRows{}
	blobs := &fakeBlobs{}
	s := &Store{Logger: slogt.New(t), Rows: rows, Blobs: blobs}

	if err := s.DeleteFiles(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if len(blobs.removed) != 0 || len(rows.deletedFileBatches) != 0 {
		t.Errorf("Got removals %v and row batches %v, want none", blobs.removed, rows.deletedFileBatches)
	}
}

// opLog orders operations across the two fakes so tests can assert
// blob-before-row sequencing.
type opLog struct {
	ops []string
}

func (l *opLog) add(op string) {
	l.ops = append(l.ops, op)
}

func (l *opLog) list() []string {
	return l.ops
}

type fakeRows struct {
	insertedFiles      []api.FileItem
	insertFileErr      error
	deletedFileIDs     []string
	deletedFileBatches [][]string
	log                *opLog
}

func (f *fakeRows) ListMessages(_ context.Context) ([]api.Message, error) { return nil, nil }

func (f *fakeRows) InsertMessage(_ context.Context, msg api.Message) (api.Message, error) {
	return msg, nil
}

func (f *fakeRows) DeleteMessage(_ context.Context, id string) error { return nil }

func (f *fakeRows) DeleteMessages(_ context.Context, ids []string) error { return nil }

func (f *fakeRows) ListFiles(_ context.Context) ([]api.FileItem, error) { return nil, nil }

func (f *fakeRows) InsertFile(_ context.Context, item api.FileItem) (api.FileItem, error) {
	if f.insertFileErr != nil {
		return api.FileItem{}, f.insertFileErr
	}
	if f.log != nil {
		f.log.add("insert")
	}
	item.ID = "generated"
	f.insertedFiles = append(f.insertedFiles, item)
	return item, nil
}

func (f *fakeRows) DeleteFile(_ context.Context, id string) error {
	if f.log != nil {
		f.log.add("deleteRow")
	}
	f.deletedFileIDs = append(f.deletedFileIDs, id)
	return nil
}

func (f *fakeRows) DeleteFiles(_ context.Context, ids []string) error {
	if f.log != nil {
		f.log.add("deleteRows")
	}
	f.deletedFileBatches = append(f.deletedFileBatches, ids)
	return nil
}

func (f *fakeRows) Theme(_ context.Context) (string, error) { return api.ThemeLight, nil }

func (f *fakeRows) SetTheme(_ context.Context, theme string) error { return nil }

type fakeBlobs struct {
	base      string
	uploaded  []string
	removed   []string
	uploadErr error
	removeErr error
	log       *opLog
}

func (f *fakeBlobs) Upload(_ context.Context, key string, r io.Reader, size int64, contentType string) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	if f.log != nil {
		f.log.add("upload")
	}
	f.uploaded = append(f.uploaded, key)
	return nil
}

func (f *fakeBlobs) PublicURL(key string) string {
	return f.base + "/" + key
}

func (f *fakeBlobs) Remove(_ context.Context, keys ...string) error {
	if f.log != nil {
		f.log.add("remove")
	}
	f.removed = append(f.removed, keys...)
	if f.removeErr != nil {
		return f.removeErr
	}
	return nil
}
