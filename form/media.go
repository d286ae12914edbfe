package form

import (
	"fmt"
	"strings"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/model"
)

// MediaKind selects the acceptance rules of an attachment.
type MediaKind string

const (
	MediaImage MediaKind = model.AttachmentImage
	MediaAudio MediaKind = model.AttachmentAudio
	MediaVideo MediaKind = model.AttachmentVideo
)

const mb = 1024 * 1024

// MaxImages is how many images a manifestation may carry.
const MaxImages = 5

type mediaRule struct {
	types    []string
	friendly string
	maxMB    int64
}

var mediaRules = map[MediaKind]mediaRule{
	MediaImage: {[]string{"image/jpeg", "image/png", "image/gif", "image/webp"}, "JPG, PNG, GIF ou WebP", 10},
	MediaAudio: {[]string{"audio/mpeg", "audio/mp3", "audio/wav", "audio/webm", "audio/ogg", "audio/mp4"}, "MP3, WAV, OGG ou WebM", 20},
	MediaVideo: {[]string{"video/mp4", "video/webm", "video/quicktime"}, "MP4, WebM ou MOV", 100},
}

// MaxBytes is the size limit of kind.
func (k MediaKind) MaxBytes() int64 {
	return mediaRules[k].maxMB * mb
}

// CheckMedia returns the message shown when f cannot be attached as kind,
// or "" when it is acceptable.
func CheckMedia(kind MediaKind, f *model.MediaFile) string {
	rule, ok := mediaRules[kind]
	if !ok || f == nil {
		return "Arquivo inválido"
	}

	// Codec parameters such as "audio/webm;codecs=opus" are ignored.
	contentType := strings.ToLower(strings.TrimSpace(strings.SplitN(f.ContentType, ";", 2)[0]))
	accepted := false
	for _, t := range rule.types {
		if contentType == t {
			accepted = true
			break
		}
	}
	if !accepted {
		return fmt.Sprintf("Tipo de arquivo inválido. Use %s.", rule.friendly)
	}

	size := f.Size
	if size == 0 {
		size = int64(len(f.Data))
	}
	if size > rule.maxMB*mb {
		return fmt.Sprintf("Arquivo muito grande. O limite é %dMB.", rule.maxMB)
	}
	return ""
}

// HumanSize formats a byte count the way the status view shows it.
func HumanSize(n int64) string {
	switch {
	case n >= mb:
		return fmt.Sprintf("%.2f MB", float64(n)/mb)
	case n >= 1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
