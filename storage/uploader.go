package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"

	"github.com/Dosada05/lobby-tracker/models"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader is an object store bucket.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// TournamentArchiver writes a final copy of a finished tournament to a bucket,
// so results survive after the live record is gone.
type TournamentArchiver interface {
	Archive(ctx context.Context, t *models.Tournament) (*UploadResult, error)
}

const archivePrefix = "tournaments"

type jsonArchiver struct {
	uploader FileUploader
}

func NewTournamentArchiver(uploader FileUploader) TournamentArchiver {
	return &jsonArchiver{uploader: uploader}
}

// ArchiveKey is the object key of a tournament snapshot.
func ArchiveKey(code string) string {
	return path.Join(archivePrefix, code+".json")
}

func (a *jsonArchiver) Archive(ctx context.Context, t *models.Tournament) (*UploadResult, error) {
	if t == nil {
		return nil, fmt.Errorf("archive: nil tournament")
	}
	doc, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("archive: failed to encode tournament %s: %w", t.Code, err)
	}
	return a.uploader.Upload(ctx, ArchiveKey(t.Code), "application/json", bytes.NewReader(doc))
}
