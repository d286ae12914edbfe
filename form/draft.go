package form

import (
	"strings"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/model"
)

// Draft is the in-progress form state. Contact values survive toggling
// anonymity but are left out of the submission while it is on.
type Draft struct {
	Type        model.Type
	Department  string
	Subject     string
	Description string

	RecordedAudio            *model.MediaFile
	RecordedAudioDescription string
	AudioFile                *model.MediaFile
	AudioDescription         string
	Images                   []model.MediaFile
	ImageDescriptions        []string
	Video                    *model.MediaFile
	VideoDescription         string

	Anonymous       bool
	Name            string
	Email           string
	Phone           string
	TaxID           string
	ReceiveResponse bool
	AgreeTerms      bool
}

// NewDraft returns an empty draft that asks for a response.
func NewDraft() Draft {
	return Draft{ReceiveResponse: true}
}

// HasContent mirrors the content invariant of the service.
func (d *Draft) HasContent() bool {
	return strings.TrimSpace(d.Description) != "" ||
		d.RecordedAudio != nil ||
		d.AudioFile != nil ||
		len(d.Images) > 0 ||
		d.Video != nil
}

// Submission builds the canonical submission handed to the service.
func (d *Draft) Submission(c *model.Classification) *model.Submission {
	sub := &model.Submission{
		Type:                     d.Type,
		Department:               d.Department,
		Subject:                  d.Subject,
		Description:              d.Description,
		RecordedAudio:            d.RecordedAudio,
		RecordedAudioDescription: d.RecordedAudioDescription,
		AudioFile:                d.AudioFile,
		AudioDescription:         d.AudioDescription,
		Images:                   append([]model.MediaFile(nil), d.Images...),
		ImageDescriptions:        append([]string(nil), d.ImageDescriptions...),
		Video:                    d.Video,
		VideoDescription:         d.VideoDescription,
		Anonymous:                d.Anonymous,
		Classification:           c,
	}
	if !d.Anonymous {
		sub.Name = d.Name
		sub.Email = d.Email
		sub.Phone = d.Phone
		sub.TaxID = d.TaxID
	}
	return sub
}

func (d Draft) clone() Draft {
	d.Images = append([]model.MediaFile(nil), d.Images...)
	d.ImageDescriptions = append([]string(nil), d.ImageDescriptions...)
	return d
}
