package object

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"filing-backend/internal/shared/util"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("object not found")

// Object describes a stored original upload.
type Object struct {
	Key         string
	Size        int64
	ContentType string
}

// ObjectStore keeps the original bytes of uploaded documents.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (Object, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// DocumentKey lays out originals as <hashed user>/<document id>/<file name>.
func DocumentKey(userID, documentID, fileName string) (string, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(documentID) == "" {
		return "", fmt.Errorf("user and document id are required")
	}
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", err
	}
	return path.Join(util.HashUserKey(userID), documentID, name), nil
}

// ContentType keeps a specific declared type and sniffs generic ones.
func ContentType(declared string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(declared, ";")[0]))
	if clean != "" && clean != "application/octet-stream" {
		return clean
	}
	n := len(data)
	if n > 512 {
		n = 512
	}
	return http.DetectContentType(data[:n])
}
