package redis

import (
	"time"

	"github.com/notekeep/notekeep/api"
)

// A message is the stored form of a note under the messages key.
type message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// A fileItem is the stored form of a file under the files key. DataURL holds
// the whole payload inline as a base64 data URL, so record and payload live
// and die together.
type fileItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	DataURL     string    `json:"data_url"`
	CreatedAt   time.Time `json:"created_at"`
}

func (m message) APIMessage() api.Message {
	return api.Message{
		ID:        m.ID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func (f fileItem) APIFile() api.FileItem {
	return api.FileItem{
		ID:          f.ID,
		Name:        f.Name,
		Size:        f.Size,
		ContentType: f.ContentType,
		URL:         f.DataURL,
		CreatedAt:   f.CreatedAt,
	}
}
