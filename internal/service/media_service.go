package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const maxUploadSize = 100 << 20

var allowedMediaTypes = map[string]struct{}{
	"jpg": {}, "png": {}, "gif": {}, "webp": {}, "mp4": {}, "mov": {},
}

type MediaService interface {
	Upload(ctx context.Context, userID int64, file *multipart.FileHeader) (string, error)
}

type mediaService struct {
	store ObjectStore
}

func NewMediaService(store ObjectStore) MediaService {
	return &mediaService{store: store}
}

func (s *mediaService) Upload(ctx context.Context, userID int64, file *multipart.FileHeader) (string, error) {
	if userID == 0 {
		return "", validationError("user is not valid")
	}
	if file == nil {
		return "", validationError("no file provided")
	}
	if file.Size > maxUploadSize {
		return "", validationError("file is larger than %d MB", maxUploadSize>>20)
	}

	fileContent, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("error opening file: %w", err)
	}
	defer fileContent.Close()

	fileBytes, err := io.ReadAll(io.LimitReader(fileContent, maxUploadSize+1))
	if err != nil {
		return "", fmt.Errorf("error reading file content: %w", err)
	}
	if len(fileBytes) > maxUploadSize {
		return "", validationError("file is larger than %d MB", maxUploadSize>>20)
	}

	return s.save(ctx, userID, fileBytes)
}

// save sniffs the content type and stores the bytes under a fresh nanoid key.
func (s *mediaService) save(ctx context.Context, userID int64, fileBytes []byte) (string, error) {
	fileType, err := filetype.Match(fileBytes)
	if err != nil || fileType == types.Unknown {
		return "", validationError("unsupported file type")
	}
	if _, ok := allowedMediaTypes[fileType.Extension]; !ok {
		return "", validationError("file type %s is not allowed", fileType.Extension)
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	key := fmt.Sprintf("%d/%s.%s", userID, id, fileType.Extension)
	if err := s.store.UploadToR2(ctx, key, fileBytes, fileType.MIME.Value); err != nil {
		return "", fmt.Errorf("error uploading file: %w", err)
	}

	return s.store.PublicURL(key), nil
}
