// Package redis implements the local storage adapter: both lists live
// JSON-encoded under fixed keys in a persistent key-value store, file
// payloads embedded inline. The store is the source of truth; every mutation
// rewrites the affected list.
package redis

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/notekeep/notekeep/api"
)

// Store provides storage in Redis. It implements api.Store.
type Store struct {
	cli *redis.Client
}

// Connect connects to the Redis server and pings the server to ensure the
// connection is working.
func Connect(ctx context.Context, addr string) (*Store, error) {
	cli := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := cli.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Store{
		cli: cli,
	}, nil
}

const (
	messagesKey = "notekeep:messages"
	filesKey    = "notekeep:files"
	themeKey    = "notekeep:theme"
)

func getList[T any](ctx context.Context, cli *redis.Client, key string) ([]T, error) {
	val, err := cli.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	var out []T
	if err := json.Unmarshal([]byte(val), &out); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return out, nil
}

func setList[T any](ctx context.Context, cli *redis.Client, key string, list []T) error {
	b, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := cli.Set(ctx, key, b, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// ListMessages returns the stored message list, newest first.
func (s *Store) ListMessages(ctx context.Context) ([]api.Message, error) {
	msgs, err := getList[message](ctx, s.cli, messagesKey)
	if err != nil {
		return nil, err
	}
	out := make([]api.Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.APIMessage()
	}
	return out, nil
}

// InsertMessage prepends a message with a locally generated id and timestamp
// and rewrites the list.
func (s *Store) InsertMessage(ctx context.Context, msg api.Message) (api.Message, error) {
	msgs, err := getList[message](ctx, s.cli, messagesKey)
	if err != nil {
		return api.Message{}, err
	}

	m := message{
		ID:        uuid.NewString(),
		Content:   msg.Content,
		CreatedAt: time.Now().UTC(),
	}
	msgs = append([]message{m}, msgs...)
	if err := setList(ctx, s.cli, messagesKey, msgs); err != nil {
		return api.Message{}, err
	}
	return m.APIMessage(), nil
}

// DeleteMessage removes one message by id and rewrites the list. An unknown
// id leaves the list as it was.
func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	msgs, err := getList[message](ctx, s.cli, messagesKey)
	if err != nil {
		return err
	}
	kept := msgs[:0]
	for _, m := range msgs {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	return setList(ctx, s.cli, messagesKey, kept)
}

// DeleteMessages removes the given ids and rewrites the list.
func (s *Store) DeleteMessages(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	msgs, err := getList[message](ctx, s.cli, messagesKey)
	if err != nil {
		return err
	}
	kept := msgs[:0]
	for _, m := range msgs {
		if !drop[m.ID] {
			kept = append(kept, m)
		}
	}
	return setList(ctx, s.cli, messagesKey, kept)
}

// ListFiles returns the stored file list, newest first.
func (s *Store) ListFiles(ctx context.Context) ([]api.FileItem, error) {
	files, err := getList[fileItem](ctx, s.cli, filesKey)
	if err != nil {
		return nil, err
	}
	out := make([]api.FileItem, len(files))
	for i, f := range files {
		out[i] = f.APIFile()
	}
	return out, nil
}

// AddFile reads the payload fully, embeds it as a base64 data URL and
// prepends the record. There is no separate blob to manage.
func (s *Store) AddFile(ctx context.Context, up api.FileUpload) (api.FileItem, error) {
	payload, err := io.ReadAll(up.Body)
	if err != nil {
		return api.FileItem{}, fmt.Errorf("read payload: %w", err)
	}

	files, err := getList[fileItem](ctx, s.cli, filesKey)
	if err != nil {
		return api.FileItem{}, err
	}

	f := fileItem{
		ID:          uuid.NewString(),
		Name:        up.Name,
		Size:        int64(len(payload)),
		ContentType: up.ContentType,
		DataURL:     "data:" + up.ContentType + ";base64," + base64.StdEncoding.EncodeToString(payload),
		CreatedAt:   time.Now().UTC(),
	}
	files = append([]fileItem{f}, files...)
	if err := setList(ctx, s.cli, filesKey, files); err != nil {
		return api.FileItem{}, err
	}
	return f.APIFile(), nil
}

// DeleteFile removes one file record, payload included, and rewrites the
// list.
func (s *Store) DeleteFile(ctx context.Context, file api.FileItem) error {
	files, err := getList[fileItem](ctx, s.cli, filesKey)
	if err != nil {
		return err
	}
	kept := files[:0]
	for _, f := range files {
		if f.ID != file.ID {
			kept = append(kept, f)
		}
	}
	return setList(ctx, s.cli, filesKey, kept)
}

// DeleteFiles removes the given file records and rewrites the list.
func (s *Store) DeleteFiles(ctx context.Context, items []api.FileItem) error {
	if len(items) == 0 {
		return nil
	}
	drop := make(map[string]bool, len(items))
	for _, item := range items {
		drop[item.ID] = true
	}

	files, err := getList[fileItem](ctx, s.cli, filesKey)
	if err != nil {
		return err
	}
	kept := files[:0]
	for _, f := range files {
		if !drop[f.ID] {
			kept = append(kept, f)
		}
	}
	return setList(ctx, s.cli, filesKey, kept)
}

// Theme returns the persisted theme flag, defaulting to light when the key
// has never been written.
func (s *Store) Theme(ctx context.Context) (string, error) {
	val, err := s.cli.Get(ctx, themeKey).Result()
	if errors.Is(err, redis.Nil) {
		return api.ThemeLight, nil
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", themeKey, err)
	}
	return val, nil
}

// SetTheme persists the theme flag.
func (s *Store) SetTheme(ctx context.Context, theme string) error {
	if err := s.cli.Set(ctx, themeKey, theme, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", themeKey, err)
	}
	return nil
}
