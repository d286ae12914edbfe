package main

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/model"
)

// readMedia loads a local file as an attachment.
func readMedia(path string) (*model.MediaFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ler %s: %w", path, err)
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &model.MediaFile{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
	}, nil
}
