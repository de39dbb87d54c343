package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/geocoder89/devdeck/internal/access"
	"github.com/geocoder89/devdeck/internal/apperr"
	"github.com/geocoder89/devdeck/internal/storage"
)

type UploadResult struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

type UploadService struct {
	store    storage.ObjectStore
	maxBytes int64
	log      *slog.Logger
}

func NewUploadService(store storage.ObjectStore, maxBytes int64, log *slog.Logger) *UploadService {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &UploadService{store: store, maxBytes: maxBytes, log: log}
}

func (s *UploadService) MaxBytes() int64 {
	return s.maxBytes
}

// UploadImage stores an image. The type is sniffed from the content, not
// taken from the client's header.
func (s *UploadService) UploadImage(ctx context.Context, caller access.Caller, filename string, size int64, r io.Reader) (UploadResult, error) {
	if err := authorize(caller, access.ActionUploadImage, access.Owned(caller.UserID)); err != nil {
		return UploadResult{}, err
	}
	if size <= 0 {
		return UploadResult{}, apperr.Validation("empty_file", "file is empty")
	}
	if size > s.maxBytes {
		return UploadResult{}, apperr.Validation("file_too_large", "file exceeds "+strconv.FormatInt(s.maxBytes, 10)+" bytes")
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return UploadResult{}, internal(err)
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	name, err := storage.ObjectName(filename, contentType)
	if err != nil {
		return UploadResult{}, apperr.Validation("unsupported_type", "only jpeg, png, gif and webp images are accepted")
	}

	url, err := s.store.Put(ctx, name, io.MultiReader(bytes.NewReader(head), r), size, contentType)
	if err != nil {
		return UploadResult{}, internal(err)
	}

	s.log.InfoContext(ctx, "image uploaded", "user_id", caller.UserID, "object", name, "size", size)
	return UploadResult{URL: url, Filename: name}, nil
}
