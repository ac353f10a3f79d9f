package postgres

import (
	"time"

	"github.com/notekeep/notekeep/api"
)

// A message represents a note in the database.
type message struct {
	ID        string    `bun:",pk,type:uuid,default:uuid_generate_v4()"`
	Content   string    `bun:",notnull"`
	CreatedAt time.Time `bun:",nullzero,default:now()"`
}

// A file represents a stored file's metadata. The payload itself lives in
// the object store; URL points at it.
type file struct {
	ID          string    `bun:",pk,type:uuid,default:uuid_generate_v4()"`
	Name        string    `bun:",notnull"`
	Size        int64     `bun:",notnull"`
	ContentType string    `bun:",notnull"`
	URL         string    `bun:",notnull"`
	CreatedAt   time.Time `bun:",nullzero,default:now()"`
}

// A setting is one row of process-wide state, such as the theme flag.
type setting struct {
	Key   string `bun:",pk"`
	Value string `bun:",notnull"`
}

func (m message) APIMessage() api.Message {
	return api.Message{
		ID:        m.ID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func (f file) APIFile() api.FileItem {
	return api.FileItem{
		ID:          f.ID,
		Name:        f.Name,
		Size:        f.Size,
		ContentType: f.ContentType,
		URL:         f.URL,
		CreatedAt:   f.CreatedAt,
	}
}
