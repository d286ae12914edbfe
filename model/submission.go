package model

import "strings"

// ObjectURLScheme prefixes session-only media references.
const ObjectURLScheme = "blob:"

// MediaFile is a captured or uploaded media item. Data may be nil when only
// metadata is known.
type MediaFile struct {
	Name        string `json:"name"`
	ContentType string `json:"mimeType"`
	Size        int64  `json:"size"`
	Data        []byte `json:"-"`
}

// Submission is the canonical draft handed to the manifestation service.
// Department holds a catalog key; the service resolves it to a full name.
type Submission struct {
	Type        Type   `json:"tipo" validate:"required,manifestation_type"`
	Department  string `json:"orgao" validate:"omitempty,department"`
	Subject     string `json:"assunto" validate:"max=100"`
	Description string `json:"descricao" validate:"max=5000"`

	RecordedAudio            *MediaFile  `json:"-"`
	RecordedAudioDescription string      `json:"-"`
	AudioFile                *MediaFile  `json:"-"`
	AudioDescription         string      `json:"-"`
	Images                   []MediaFile `json:"-" validate:"max=5"`
	ImageDescriptions        []string    `json:"-"`
	Video                    *MediaFile  `json:"-"`
	VideoDescription         string      `json:"-"`

	Anonymous bool   `json:"anonimo"`
	Name      string `json:"nome"`
	Email     string `json:"email" validate:"omitempty,email_address"`
	Phone     string `json:"telefone"`
	TaxID     string `json:"cpf"`

	// Classification is the advisory IZA result gathered at the content step.
	Classification *Classification `json:"-"`
}

// HasContent reports whether at least one of description, audio, image or
// video is present.
func (s *Submission) HasContent() bool {
	return strings.TrimSpace(s.Description) != "" ||
		s.RecordedAudio != nil ||
		s.AudioFile != nil ||
		len(s.Images) > 0 ||
		s.Video != nil
}

// WithoutContact returns a copy with the contact fields cleared when the
// submission is anonymous, or s itself otherwise.
func (s *Submission) WithoutContact() *Submission {
	if !s.Anonymous {
		return s
	}
	cp := *s
	cp.Name, cp.Email, cp.Phone, cp.TaxID = "", "", "", ""
	return &cp
}

// HasAudio reports whether a recorded or uploaded audio is present.
func (s *Submission) HasAudio() bool {
	return s.RecordedAudio != nil || s.AudioFile != nil
}
