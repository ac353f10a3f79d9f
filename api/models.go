package api

import (
	"io"
	"time"
)

// A Message represents a persisted note.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// A FileItem represents a stored file. URL points at the payload: a public
// object-store URL for the remote backend, or an inline data URL for the
// local backend.
type FileItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}

// A FileUpload describes a file being added to storage. Body is consumed
// exactly once by the store.
type FileUpload struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.Reader
}

// Theme flag values.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)
