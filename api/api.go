package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/notekeep/notekeep/api/validator"
)

// A Store provides a storage layer that persists messages and files. The
// remote implementation keeps metadata rows next to an object-store blob;
// the local implementation keeps whole lists in a key-value store with file
// payloads inlined.
type Store interface {
	ListMessages(ctx context.Context) ([]Message, error)
	InsertMessage(ctx context.Context, msg Message) (Message, error)
	DeleteMessage(ctx context.Context, id string) error
	DeleteMessages(ctx context.Context, ids []string) error

	ListFiles(ctx context.Context) ([]FileItem, error)
	AddFile(ctx context.Context, up FileUpload) (FileItem, error)
	DeleteFile(ctx context.Context, file FileItem) error
	DeleteFiles(ctx context.Context, files []FileItem) error

	Theme(ctx context.Context) (string, error)
	SetTheme(ctx context.Context, theme string) error
}

// API provides the REST endpoints for the application.
type API struct {
	Logger *slog.Logger
	Store  Store
	Val    *validator.Validator

	once sync.Once
	mux  *http.ServeMux
}

// maxUploadMemory bounds how much of a multipart upload is buffered in
// memory before spilling to disk.
const maxUploadMemory = 32 << 20

func (a *API) setupRoutes() {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /snapshot", a.snapshot)

	mux.HandleFunc("GET /messages", a.listMessages)
	mux.HandleFunc("POST /messages", a.createMessage)
	mux.HandleFunc("DELETE /messages", a.deleteAllMessages)
	mux.HandleFunc("DELETE /messages/{messageID}", a.deleteMessage)

	mux.HandleFunc("GET /files", a.listFiles)
	mux.HandleFunc("POST /files", a.uploadFiles)
	mux.HandleFunc("DELETE /files", a.deleteAllFiles)
	mux.HandleFunc("DELETE /files/{fileID}", a.deleteFile)

	mux.HandleFunc("GET /theme", a.theme)
	mux.HandleFunc("POST /theme/toggle", a.toggleTheme)

	a.mux = mux
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.once.Do(a.setupRoutes)
	a.Logger.Info("Request received", "method", r.Method, "path", r.URL.Path)
	a.mux.ServeHTTP(w, r)
}

func (a *API) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.Logger.Error("Could not encode JSON body", "error", err.Error())
	}
}

func (a *API) respondError(w http.ResponseWriter, status int, err error, msg string) {
	type response struct {
		Error string `json:"error"`
	}
	a.Logger.Error("Error", "error", err.Error())
	a.respond(w, status, response{Error: msg})
}

func (a *API) validateBody(w http.ResponseWriter, s any) bool {
	errs := a.Val.ValidateStruct(s)
	type response struct {
		Errors []validator.ValidationError `json:"errors"`
	}

	if len(errs) > 0 {
		a.respond(w, http.StatusBadRequest, &response{
			Errors: errs,
		})
		return false
	}
	return true
}

// confirmed reports whether a destructive bulk request carries the
// confirm=true parameter. Without it the request is answered with 409 and
// nothing is deleted.
func (a *API) confirmed(w http.ResponseWriter, r *http.Request) bool {
	if r.URL.Query().Get("confirm") == "true" {
		return true
	}
	a.respondError(w, http.StatusConflict, errors.New("confirmation missing"), "Bulk delete requires confirm=true")
	return false
}

type messageResponse struct {
	ID             string `json:"id"`
	Content        string `json:"content"`
	CreatedAt      string `json:"created_at"`
	CreatedDisplay string `json:"created_display"`
}

type fileResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Size           int64  `json:"size"`
	SizeDisplay    string `json:"size_display"`
	ContentType    string `json:"content_type"`
	URL            string `json:"url"`
	CreatedAt      string `json:"created_at"`
	CreatedDisplay string `json:"created_display"`
}

func newMessageResponse(msg Message) messageResponse {
	return messageResponse{
		ID:             msg.ID,
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt.UTC().Format(time.RFC3339),
		CreatedDisplay: FormatDate(msg.CreatedAt.UTC()),
	}
}

func newFileResponse(file FileItem) fileResponse {
	return fileResponse{
		ID:             file.ID,
		Name:           file.Name,
		Size:           file.Size,
		SizeDisplay:    FormatFileSize(file.Size),
		ContentType:    file.ContentType,
		URL:            file.URL,
		CreatedAt:      file.CreatedAt.UTC().Format(time.RFC3339),
		CreatedDisplay: FormatDate(file.CreatedAt.UTC()),
	}
}

func newMessageResponses(msgs []Message) []messageResponse {
	out := make([]messageResponse, len(msgs))
	for i, msg := range msgs {
		out[i] = newMessageResponse(msg)
	}
	return out
}

func newFileResponses(files []FileItem) []fileResponse {
	out := make([]fileResponse, len(files))
	for i, file := range files {
		out[i] = newFileResponse(file)
	}
	return out
}

// snapshot loads both lists in one call. The fetches run concurrently; a
// failing side is logged and returned empty rather than failing the request.
func (a *API) snapshot(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Messages []messageResponse `json:"messages"`
		Files    []fileResponse    `json:"files"`
	}

	var (
		msgs  []Message
		files []FileItem
		wg    sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		m, err := a.Store.ListMessages(r.Context())
		if err != nil {
			a.Logger.Error("Could not load messages", "error", err.Error())
			return
		}
		msgs = m
	}()
	go func() {
		defer wg.Done()
		f, err := a.Store.ListFiles(r.Context())
		if err != nil {
			a.Logger.Error("Could not load files", "error", err.Error())
			return
		}
		files = f
	}()
	wg.Wait()

	a.respond(w, http.StatusOK, response{
		Messages: newMessageResponses(msgs),
		Files:    newFileResponses(files),
	})
}

func (a *API) listMessages(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Messages []messageResponse `json:"messages"`
	}

	msgs, err := a.Store.ListMessages(r.Context())
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, err, "Could not list messages")
		return
	}

	a.respond(w, http.StatusOK, response{Messages: newMessageResponses(msgs)})
}

func (a *API) createMessage(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Content string `json:"content" validate:"required"`
	}

	var body request
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.respondError(w, http.StatusBadRequest, err, "Could not decode request body")
		return
	}

	if valid := a.validateBody(w, &body); !valid {
		return
	}

	content := strings.TrimSpace(body.Content)
	if content == "" {
		a.respondError(w, http.StatusBadRequest, errors.New("content is blank"), "Content must not be empty")
		return
	}

	msg, err := a.Store.InsertMessage(r.Context(), Message{Content: content})
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, err, "Could not save message")
		return
	}

	a.respond(w, http.StatusCreated, newMessageResponse(msg))
}

func (a *API) deleteMessage(w http.ResponseWriter, r *http.Request) {
	type response struct {
		ID string `json:"id"`
	}

	id := r.PathValue("messageID")
	if err := a.Store.DeleteMessage(r.Context(), id); err != nil {
		a.respondError(w, http.StatusInternalServerError, err, "Could not delete message")
		return
	}

	a.respond(w, http.StatusOK, response{ID: id})
}

func (a *API) deleteAllMessages(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Deleted int `json:"deleted"`
	}

	if !a.confirmed(w, r) {
		return
	}

	msgs, err := a.Store.ListMessages(r.Context())
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, err, "Could not list messages")
		return
	}
	if len(msgs) == 0 {
		a.respond(w, http.StatusOK, response{Deleted: 0})
		return
	}

	ids := make([]string, len(msgs))
	for i, msg := range msgs {
		ids[i] = msg.ID
	}

	if err := a.Store.DeleteMessages(r.Context(), ids); err != nil {
		a.respondError(w, http.StatusInternalServerError, err, "Could not delete messages")
		return
	}

	a.respond(w, http.StatusOK, response{Deleted: len(ids)})
}

func (a *API) listFiles(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Files []fileResponse `json:"files"`
	}

	files, err := a.Store.ListFiles(r.Context())
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, err, "Could not list files")
		return
	}

	a.respond(w, http.StatusOK, response{Files: newFileResponses(files)})
}

// uploadFiles stores each file of the multipart batch one at a time, in form
// order. A file that fails is logged and skipped; the rest of the batch
// continues.
func (a *API) uploadFiles(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Files []fileResponse `json:"files"`
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		a.respondError(w, http.StatusBadRequest, err, "Could not parse multipart form")
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		a.respondError(w, http.StatusBadRequest, errors.New("no files field"), "No files in request")
		return
	}

	stored := make([]fileResponse, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			a.Logger.Error("Could not open uploaded file", "name", fh.Filename, "error", err.Error())
			continue
		}
		item, err := a.Store.AddFile(r.Context(), FileUpload{
			Name:        fh.Filename,
			Size:        fh.Size,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        f,
		})
		f.Close()
		if err != nil {
			a.Logger.Error("Could not store uploaded file", "name", fh.Filename, "error", err.Error())
			continue
		}
		stored = append(stored, newFileResponse(item))
	}

	a.respond(w, http.StatusCreated, response{Files: stored})
}

func (a *API) deleteFile(w http.ResponseWriter, r *http.Request) {
	type response struct {
		ID string `json:"id"`
	}

	id := r.PathValue("fileID")
	files, err := a.Store.ListFiles(r.Context())
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, err, "Could not list files")
		return
	}

	var (
		file  FileItem
		found bool
	)
	for _, f := range files {
		if f.ID == id {
			file, found = f, true
			break
		}
	}
	if !found {
		a.respondError(w, http.StatusNotFound, errors.New("file not found"), "File not found")
		return
	}

	if err := a.Store.DeleteFile(r.Context(), file); err != nil {
		a.respondError(w, http.StatusInternalServerError, err, "Could not delete file")
		return
	}

	a.respond(w, http.StatusOK, response{ID: id})
}

func (a *API) deleteAllFiles(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Deleted int `json:"deleted"`
	}

	if !a.confirmed(w, r) {
		return
	}

	files, err := a.Store.ListFiles(r.Context())
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, err, "Could not list files")
		return
	}
	if len(files) == 0 {
		a.respond(w, http.StatusOK, response{Deleted: 0})
		return
	}

	if err := a.Store.DeleteFiles(r.Context(), files); err != nil {
		a.respondError(w, http.StatusInternalServerError, err, "Could not delete files")
		return
	}

	a.respond(w, http.StatusOK, response{Deleted: len(files)})
}

func (a *API) theme(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Theme string `json:"theme"`
	}

	theme, err := a.Store.Theme(r.Context())
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, err, "Could not read theme")
		return
	}

	a.respond(w, http.StatusOK, response{Theme: theme})
}

func (a *API) toggleTheme(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Theme string `json:"theme"`
	}

	theme, err := a.Store.Theme(r.Context())
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, err, "Could not read theme")
		return
	}

	next := ThemeDark
	if theme == ThemeDark {
		next = ThemeLight
	}

	if err := a.Store.SetTheme(r.Context(), next); err != nil {
		a.respondError(w, http.StatusInternalServerError, err, "Could not save theme")
		return
	}

	a.respond(w, http.StatusOK, response{Theme: next})
}
