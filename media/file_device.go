package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/model"
)

// FileDevice replays an existing audio file as a capture source. The CLI uses
// it where no microphone is available.
type FileDevice struct {
	Path string
}

func (d FileDevice) Open(_ context.Context) (Capture, error) {
	data, err := os.ReadFile(d.Path)
	if errors.Is(err, fs.ErrPermission) {
		return nil, fmt.Errorf("%s: %w", d.Path, model.ErrPermission)
	}
	if err != nil {
		return nil, err
	}
	return &fileCapture{data: data, contentType: audioType(d.Path, data)}, nil
}

type fileCapture struct {
	data        []byte
	contentType string
	closed      bool
}

func (c *fileCapture) Pause() error  { return nil }
func (c *fileCapture) Resume() error { return nil }

func (c *fileCapture) Finish() ([]byte, string, error) {
	if c.closed {
		return nil, "", errors.New("capture already closed")
	}
	return c.data, c.contentType, nil
}

func (c *fileCapture) Close() error {
	c.closed = true
	return nil
}

var audioExtensions = map[string]string{
	".webm": "audio/webm",
	".ogg":  "audio/ogg",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
}

func audioType(path string, data []byte) string {
	if t, ok := audioExtensions[strings.ToLower(filepath.Ext(path))]; ok {
		return t
	}
	return http.DetectContentType(data)
}
