package model

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a manifestation, as sent on the wire.
type Status string

// ManifestationStatus constants
const (
	StatusReceived    Status = "recebida"
	StatusUnderReview Status = "em_analise"
	StatusAnswered    Status = "respondida"
	StatusArchived    Status = "arquivada"
)

// ResponseWindow is the time the body has to answer a manifestation.
const ResponseWindow = 30 * 24 * time.Hour

// Fixed history notes.
const (
	NoteReceived  = "Manifestação recebida pelo sistema Participa DF"
	NoteForwarded = "Manifestação encaminhada para análise do órgão competente"
	NoteAnswered  = "Resposta registrada pelo órgão responsável"
	NoteArchived  = "Manifestação arquivada"
)

// Attachment kinds, as sent on the wire.
const (
	AttachmentAudio = "audio"
	AttachmentImage = "imagem"
	AttachmentVideo = "video"
)

// Attachment is the metadata kept for one media item of a manifestation.
// PreviewURL is either an inline data URL, a session-only "blob:" reference, or nil.
type Attachment struct {
	Type        string  `json:"type"`
	TypeLabel   string  `json:"typeLabel"`
	Name        string  `json:"name"`
	Size        int64   `json:"size"`
	Description string  `json:"description"`
	PreviewURL  *string `json:"previewUrl"`
}

// Ephemeral reports whether the preview only lives for the current session.
func (a Attachment) Ephemeral() bool {
	return a.PreviewURL != nil && strings.HasPrefix(*a.PreviewURL, ObjectURLScheme)
}

// HistoryEntry is one append-only event of a manifestation.
type HistoryEntry struct {
	Date        time.Time `json:"data"`
	Description string    `json:"descricao"`
}

// Response is the answer registered by the responsible department.
type Response struct {
	Text string    `json:"texto"`
	Date time.Time `json:"data"`
}

// Manifestation is a single citizen submission keyed by its protocol.
type Manifestation struct {
	Protocol    string         `json:"protocolo"`
	Type        string         `json:"tipo"`
	Department  string         `json:"orgao"`
	Subject     string         `json:"assunto,omitempty"`
	Description string         `json:"descricao,omitempty"`
	HasAudio    bool           `json:"temAudio"`
	HasImage    bool           `json:"temImagem"`
	HasVideo    bool           `json:"temVideo"`
	Attachments []Attachment   `json:"anexos"`
	Anonymous   bool           `json:"anonimo"`
	Name        *string        `json:"nome"`
	Email       *string        `json:"email"`
	Phone       *string        `json:"telefone"`
	TaxID       *string        `json:"cpf,omitempty"`
	Status      Status         `json:"status"`
	SubmittedAt time.Time      `json:"dataRegistro"`
	Deadline    time.Time      `json:"previsaoResposta"`
	History     []HistoryEntry `json:"historico"`
	Response    *Response      `json:"resposta,omitempty"`
	Urgency     Urgency        `json:"urgencia,omitempty"`
	Sensitive   bool           `json:"possuiDadosSensiveis,omitempty"`
}

// Durable returns a copy without session-only preview references.
func (m *Manifestation) Durable() *Manifestation {
	cp := m.Clone()
	for i := range cp.Attachments {
		if cp.Attachments[i].Ephemeral() {
			cp.Attachments[i].PreviewURL = nil
		}
	}
	return cp
}

// Clone returns a deep copy so callers cannot mutate stored records.
func (m *Manifestation) Clone() *Manifestation {
	if m == nil {
		return nil
	}
	cp := *m
	cp.Attachments = append([]Attachment(nil), m.Attachments...)
	for i := range cp.Attachments {
		if p := cp.Attachments[i].PreviewURL; p != nil {
			v := *p
			cp.Attachments[i].PreviewURL = &v
		}
	}
	cp.History = append([]HistoryEntry(nil), m.History...)
	cp.Name = cloneString(m.Name)
	cp.Email = cloneString(m.Email)
	cp.Phone = cloneString(m.Phone)
	cp.TaxID = cloneString(m.TaxID)
	if m.Response != nil {
		r := *m.Response
		cp.Response = &r
	}
	return &cp
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// AppendHistory records an event. History is never rewritten.
func (m *Manifestation) AppendHistory(at time.Time, note string) {
	m.History = append(m.History, HistoryEntry{Date: at, Description: note})
}

// Overdue reports whether the deadline passed without an answer.
func (m *Manifestation) Overdue(now time.Time) bool {
	if m.Status == StatusAnswered || m.Status == StatusArchived {
		return false
	}
	return now.After(m.Deadline)
}

var allowedTransitions = map[Status][]Status{
	StatusReceived:    {StatusUnderReview, StatusArchived},
	StatusUnderReview: {StatusAnswered, StatusArchived},
	StatusAnswered:    {StatusArchived},
}

// ValidateTransition checks whether the manifestation may move to status to.
func (m *Manifestation) ValidateTransition(to Status) error {
	for _, allowed := range allowedTransitions[m.Status] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.Status, to)
}

// Confirmation is returned to the citizen after a successful submission.
type Confirmation struct {
	Success  bool      `json:"success"`
	Protocol string    `json:"protocolo"`
	Message  string    `json:"message"`
	Deadline time.Time `json:"previsaoResposta"`
}
