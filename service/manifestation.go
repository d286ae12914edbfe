package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/model"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/pkg/logger"
)

// MsgRegistered is the confirmation message of a successful submission.
const MsgRegistered = "Manifestação registrada com sucesso"

// maxProtocolAttempts bounds regeneration after protocol collisions.
const maxProtocolAttempts = 5

// Default attachment labels.
const (
	RecordedAudioName = "Audio gravado"
	labelAudio        = "Áudio"
	labelImage        = "Imagem"
	labelVideo        = "Vídeo"
)

// ManifestationService registers manifestations and serves lookups.
type ManifestationService struct {
	store     *ManifestationStore
	protocols *ProtocolGenerator
	previews  *PreviewBuilder
	iza       *IZA
	validator *SubmissionValidator
	now       func() time.Time

	// fabricate enables synthetic records for unknown well-formed protocols.
	fabricate bool
}

// NewManifestationService wires the service. previews may be nil, in which
// case attachments carry no preview.
func NewManifestationService(store *ManifestationStore, protocols *ProtocolGenerator, previews *PreviewBuilder, iza *IZA) *ManifestationService {
	if previews == nil {
		previews = NewPreviewBuilder(nil).WithoutInline()
	}
	s := &ManifestationService{
		store:     store,
		protocols: protocols,
		previews:  previews,
		iza:       iza,
		validator: NewSubmissionValidator(),
		now:       time.Now,
	}
	// Evicted records live on in the durable tier without their previews.
	store.OnEvict(s.releaseAttachments)
	return s
}

// WithDemoFabrication toggles synthetic lookups for unknown protocols.
func (s *ManifestationService) WithDemoFabrication(enabled bool) *ManifestationService {
	s.fabricate = enabled
	return s
}

// Submit validates the draft, assigns a protocol and stores the record.
// Validation failures are returned as *model.ValidationError; anything else
// is a *model.SubmissionError and the draft may be resubmitted as is.
func (s *ManifestationService) Submit(ctx context.Context, sub *model.Submission) (*model.Confirmation, error) {
	sub = sub.WithoutContact()
	if err := s.validator.Validate(sub); err != nil {
		return nil, err
	}

	classification := sub.Classification
	if classification == nil && strings.TrimSpace(sub.Description) != "" {
		c := s.iza.Classify(sub.Description, sub.Type)
		classification = &c
	}

	now := s.now()
	m := &model.Manifestation{
		Type:        sub.Type.Label(),
		Department:  resolveDepartment(sub.Department, classification),
		Subject:     strings.TrimSpace(sub.Subject),
		Description: sub.Description,
		HasAudio:    sub.HasAudio(),
		HasImage:    len(sub.Images) > 0,
		HasVideo:    sub.Video != nil,
		Attachments: s.buildAttachments(sub),
		Anonymous:   sub.Anonymous,
		Status:      model.StatusReceived,
		SubmittedAt: now,
		Deadline:    now.Add(model.ResponseWindow),
		History:     []model.HistoryEntry{{Date: now, Description: model.NoteReceived}},
	}
	if !sub.Anonymous {
		m.Name = optional(sub.Name)
		m.Email = optional(sub.Email)
		m.Phone = optional(sub.Phone)
		m.TaxID = optional(sub.TaxID)
	}
	if classification != nil {
		m.Urgency = classification.Urgency
		m.Sensitive = classification.ContainsSensitive
	}

	if err := s.persist(ctx, m); err != nil {
		s.releaseAttachments(m)
		return nil, err
	}

	logger.Info(logger.WithProtocol(ctx, m.Protocol), "manifestation registered",
		"tipo", m.Type,
		"orgao", m.Department,
		"anonimo", m.Anonymous,
		"anexos", len(m.Attachments),
	)

	return &model.Confirmation{
		Success:  true,
		Protocol: m.Protocol,
		Message:  MsgRegistered,
		Deadline: m.Deadline,
	}, nil
}

func (s *ManifestationService) persist(ctx context.Context, m *model.Manifestation) error {
	for attempt := 1; attempt <= maxProtocolAttempts; attempt++ {
		m.Protocol = s.protocols.Generate()
		err := s.store.Create(ctx, m)
		if err == nil {
			return nil
		}
		if !errors.Is(err, model.ErrProtocolConflict) {
			return &model.SubmissionError{Retryable: true, Err: err}
		}
		logger.Warn(ctx, "protocol collision", "protocolo", m.Protocol, "attempt", attempt)
	}
	return &model.SubmissionError{
		Retryable: true,
		Err:       fmt.Errorf("no free protocol after %d attempts: %w", maxProtocolAttempts, model.ErrProtocolConflict),
	}
}

// resolveDepartment prefers the citizen's explicit choice, then the
// classifier suggestion, then the general ombudsman office.
func resolveDepartment(key string, c *model.Classification) string {
	if key != "" {
		return model.DepartmentName(key)
	}
	if c != nil && knownDepartmentName(c.SuggestedDepartment) {
		return c.SuggestedDepartment
	}
	return model.DefaultDepartment
}

func knownDepartmentName(name string) bool {
	for _, key := range model.Departments {
		if model.DepartmentName(key) == name {
			return true
		}
	}
	return false
}

// buildAttachments keeps the input order: recorded audio, uploaded audio,
// images, video.
func (s *ManifestationService) buildAttachments(sub *model.Submission) []model.Attachment {
	attachments := make([]model.Attachment, 0, len(sub.Images)+3)

	if f := sub.RecordedAudio; f != nil {
		attachments = append(attachments, s.attachment(model.AttachmentAudio, labelAudio, RecordedAudioName, f, sub.RecordedAudioDescription))
	}
	if f := sub.AudioFile; f != nil {
		attachments = append(attachments, s.attachment(model.AttachmentAudio, labelAudio, f.Name, f, sub.AudioDescription))
	}
	for i := range sub.Images {
		f := &sub.Images[i]
		name := f.Name
		if name == "" {
			name = fmt.Sprintf("Imagem %d", i+1)
		}
		description := ""
		if i < len(sub.ImageDescriptions) {
			description = sub.ImageDescriptions[i]
		}
		attachments = append(attachments, s.attachment(model.AttachmentImage, labelImage, name, f, description))
	}
	if f := sub.Video; f != nil {
		attachments = append(attachments, s.attachment(model.AttachmentVideo, labelVideo, f.Name, f, sub.VideoDescription))
	}
	return attachments
}

func (s *ManifestationService) attachment(kind, label, name string, f *model.MediaFile, description string) model.Attachment {
	size := f.Size
	if size == 0 {
		size = int64(len(f.Data))
	}
	return model.Attachment{
		Type:        kind,
		TypeLabel:   label,
		Name:        name,
		Size:        size,
		Description: description,
		PreviewURL:  s.previews.Build(f),
	}
}

func (s *ManifestationService) releaseAttachments(m *model.Manifestation) {
	for _, a := range m.Attachments {
		if a.Ephemeral() {
			s.previews.Release(a.PreviewURL)
		}
	}
}

// Lookup returns the record for protocol, or an error wrapping
// model.ErrNotFound.
func (s *ManifestationService) Lookup(ctx context.Context, protocol string) (*model.Manifestation, error) {
	protocol = strings.TrimSpace(protocol)
	m, err := s.store.Get(ctx, protocol)
	if err == nil {
		return m, nil
	}
	if errors.Is(err, model.ErrNotFound) && s.fabricate && ValidProtocol(protocol) {
		logger.Debug(ctx, "fabricating demo record", "protocolo", protocol)
		return s.fabricated(protocol), nil
	}
	return nil, err
}

// fabricated builds the demo record shown for unknown protocols. It is never
// stored.
func (s *ManifestationService) fabricated(protocol string) *model.Manifestation {
	registered := s.now().AddDate(0, 0, -rand.IntN(30))
	return &model.Manifestation{
		Protocol:    protocol,
		Type:        model.TypeComplaint.Label(),
		Department:  model.DepartmentName(model.DepartmentHealth),
		Subject:     "Atendimento em UPA",
		Attachments: []model.Attachment{},
		Status:      model.StatusUnderReview,
		SubmittedAt: registered,
		Deadline:    registered.Add(model.ResponseWindow),
		History: []model.HistoryEntry{
			{Date: registered, Description: model.NoteReceived},
			{Date: registered.Add(48 * time.Hour), Description: model.NoteForwarded},
		},
	}
}

// StatusUpdate is a staff change to an existing manifestation.
type StatusUpdate struct {
	Status   model.Status `json:"status,omitempty"`
	Note     string       `json:"note,omitempty"`
	Response string       `json:"response,omitempty"`
}

var statusNotes = map[model.Status]string{
	model.StatusUnderReview: model.NoteForwarded,
	model.StatusAnswered:    model.NoteAnswered,
	model.StatusArchived:    model.NoteArchived,
}

// Update applies a staff change. Protocol, submission time and deadline are
// never modified; every change appends one history entry.
func (s *ManifestationService) Update(ctx context.Context, protocol string, u StatusUpdate) (*model.Manifestation, error) {
	response := strings.TrimSpace(u.Response)
	note := strings.TrimSpace(u.Note)

	target := u.Status
	if response != "" {
		if target != "" && target != model.StatusAnswered {
			return nil, model.NewValidationError("status", "uma resposta exige o status respondida")
		}
		target = model.StatusAnswered
	}
	if target == "" && note == "" {
		return nil, model.NewValidationError("status", "informe status, nota ou resposta")
	}
	if target != "" && !target.Valid() {
		return nil, model.NewValidationError("status", "status desconhecido: "+string(target))
	}

	updated, err := s.store.Update(ctx, protocol, func(m *model.Manifestation) error {
		now := s.now()
		if target != "" && target != m.Status {
			if err := m.ValidateTransition(target); err != nil {
				return err
			}
			m.Status = target
			if note == "" {
				note = statusNotes[target]
			}
		}
		if response != "" {
			m.Response = &model.Response{Text: response, Date: now}
			if note == "" {
				note = model.NoteAnswered
			}
		}
		if note == "" {
			return model.NewValidationError("status", "nenhuma alteração")
		}
		m.AppendHistory(now, note)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(logger.WithProtocol(ctx, protocol), "manifestation updated",
		"status", updated.Status,
		"historico", len(updated.History),
	)
	return updated, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
