package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/notekeep/notekeep/api"
)

// Postgres provides row storage in PostgreSQL: message rows, file metadata
// rows and the settings row holding the theme flag.
type Postgres struct {
	bun *bun.DB
}

// Connect connects to the database and pings it to ensure the connection is
// working.
func Connect(ctx context.Context, connStr string) (*Postgres, error) {
	sqlDB := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(connStr)))
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	db := bun.NewDB(sqlDB, pgdialect.New())
	return &Postgres{
		bun: db,
	}, nil
}

const themeKey = "theme"

// ListMessages returns all messages, newest first.
func (pg *Postgres) ListMessages(ctx context.Context) ([]api.Message, error) {
	var msgs []message
	err := pg.bun.NewSelect().
		Model(&msgs).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	out := make([]api.Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.APIMessage()
	}
	return out, nil
}

// InsertMessage inserts a message row. The returned message holds the
// server-assigned id and timestamp.
func (pg *Postgres) InsertMessage(ctx context.Context, msg api.Message) (api.Message, error) {
	m := &message{
		Content: msg.Content,
	}
	if _, err := pg.bun.NewInsert().Model(m).Returning("*").Exec(ctx); err != nil {
		return api.Message{}, fmt.Errorf("insert: %w", err)
	}
	return m.APIMessage(), nil
}

// DeleteMessage deletes one message row by id. Deleting an id that does not
// exist is not an error.
func (pg *Postgres) DeleteMessage(ctx context.Context, id string) error {
	_, err := pg.bun.NewDelete().
		Model((*message)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

// DeleteMessages deletes the given message rows in one statement.
func (pg *Postgres) DeleteMessages(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := pg.bun.NewDelete().
		Model((*message)(nil)).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

// ListFiles returns all file metadata rows, newest first.
func (pg *Postgres) ListFiles(ctx context.Context) ([]api.FileItem, error) {
	var files []file
	err := pg.bun.NewSelect().
		Model(&files).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	out := make([]api.FileItem, len(files))
	for i, f := range files {
		out[i] = f.APIFile()
	}
	return out, nil
}

// InsertFile inserts a file metadata row referencing an already uploaded
// blob. The returned item holds the server-assigned id and timestamp.
func (pg *Postgres) InsertFile(ctx context.Context, item api.FileItem) (api.FileItem, error) {
	f := &file{
		Name:        item.Name,
		Size:        item.Size,
		ContentType: item.ContentType,
		URL:         item.URL,
	}
	if _, err := pg.bun.NewInsert().Model(f).Returning("*").Exec(ctx); err != nil {
		return api.FileItem{}, fmt.Errorf("insert: %w", err)
	}
	return f.APIFile(), nil
}

// DeleteFile deletes one file metadata row by id.
func (pg *Postgres) DeleteFile(ctx context.Context, id string) error {
	_, err := pg.bun.NewDelete().
		Model((*file)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

// DeleteFiles deletes the given file metadata rows in one statement.
func (pg *Postgres) DeleteFiles(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := pg.bun.NewDelete().
		Model((*file)(nil)).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

// Theme returns the persisted theme flag, defaulting to light when the
// settings row has never been written.
func (pg *Postgres) Theme(ctx context.Context) (string, error) {
	var s setting
	err := pg.bun.NewSelect().
		Model(&s).
		Where("key = ?", themeKey).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return api.ThemeLight, nil
	}
	if err != nil {
		return "", fmt.Errorf("scan: %w", err)
	}
	return s.Value, nil
}

// SetTheme upserts the theme flag.
func (pg *Postgres) SetTheme(ctx context.Context, theme string) error {
	s := &setting{Key: themeKey, Value: theme}
	_, err := pg.bun.NewInsert().
		Model(s).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return nil
}
