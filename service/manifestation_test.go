package service

import (
	"bytes"
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/model"
)

var fixedNow = time.Date(2026, 10, 19, 14, 30, 0, 0, time.Local)

func newTestService(t *testing.T, durable DurableStore) (*ManifestationService, *ObjectURLRegistry) {
	t.Helper()
	objects := NewObjectURLRegistry()
	clock := func() time.Time { return fixedNow }
	svc := NewManifestationService(
		NewManifestationStore(durable, 100),
		NewProtocolGeneratorWith(clock, rand.New(rand.NewPCG(7, 11))),
		NewPreviewBuilder(objects),
		NewIZA(""),
	)
	svc.now = clock
	return svc, objects
}

func TestSubmitAnonymousDescriptionOnly(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)

	conf, err := svc.Submit(ctx, &model.Submission{
		Type:        model.TypeComplaint,
		Description: "A rua está cheia de buracos",
		Anonymous:   true,
		Name:        "Fulano",
		Email:       "fulano@example.com",
		Phone:       "(61) 99999-0000",
		TaxID:       "123.456.789-00",
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !conf.Success || conf.Message != MsgRegistered {
		t.Errorf("Unexpected confirmation %+v", conf)
	}
	if !ValidProtocol(conf.Protocol) || !strings.HasPrefix(conf.Protocol, "20261019") {
		t.Errorf("Unexpected protocol %q", conf.Protocol)
	}

	m, err := svc.Lookup(ctx, conf.Protocol)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !m.Anonymous || m.Name != nil || m.Email != nil || m.Phone != nil || m.TaxID != nil {
		t.Errorf("Expected contact fields to be stripped, got %+v", m)
	}
	if len(m.History) != 1 || m.History[0].Description != model.NoteReceived {
		t.Errorf("Expected one received history entry, got %+v", m.History)
	}
	if m.Status != model.StatusReceived {
		t.Errorf("Expected recebida, got %s", m.Status)
	}
	if !m.Deadline.Equal(m.SubmittedAt.Add(30 * 24 * time.Hour)) {
		t.Errorf("Expected deadline 30 days after submission, got %v", m.Deadline)
	}
	if !conf.Deadline.Equal(m.Deadline) {
		t.Error("Expected confirmation deadline to match the record")
	}
	if m.Type != "Reclamação" {
		t.Errorf("Expected type label, got %q", m.Type)
	}
	// Classified from the description
	if m.Department != "Secretaria de Estado de Obras e Infraestrutura" {
		t.Errorf("Expected classifier department, got %q", m.Department)
	}
}

func TestSubmitAnonymousIgnoresInvalidContact(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)

	sub := &model.Submission{
		Type:        model.TypeComplaint,
		Description: "buraco na rua",
		Anonymous:   true,
		Email:       "maria@",
	}
	conf, err := svc.Submit(ctx, sub)
	if err != nil {
		t.Fatalf("Expected anonymous submission to ignore the e-mail, got %v", err)
	}
	if sub.Email != "maria@" {
		t.Error("Submit must not modify the caller's draft")
	}

	m, err := svc.Lookup(ctx, conf.Protocol)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if m.Email != nil {
		t.Errorf("Expected no e-mail on anonymous record, got %q", *m.Email)
	}

	// The same value is still checked when identified
	sub.Anonymous = false
	sub.Name = "Maria"
	var verr *model.ValidationError
	if _, err := svc.Submit(ctx, sub); !errors.As(err, &verr) || verr.Fields["email"] != MsgEmailInvalid {
		t.Errorf("Expected e-mail error when identified, got %v", err)
	}
}

func TestSubmitIdentifiedKeepsContact(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)

	conf, err := svc.Submit(ctx, &model.Submission{
		Type:        model.TypeCompliment,
		Department:  model.DepartmentEducation,
		Description: "O hospital me atendeu muito bem",
		Name:        "Maria",
		Email:       "maria@example.com",
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	m, _ := svc.Lookup(ctx, conf.Protocol)
	if m.Name == nil || *m.Name != "Maria" || m.Email == nil || *m.Email != "maria@example.com" {
		t.Errorf("Expected contact fields to be kept, got %+v", m)
	}
	if m.Phone != nil {
		t.Error("Expected empty phone to be absent")
	}
	// Explicit choice wins over the classifier suggestion (saúde)
	if m.Department != "Secretaria de Estado de Educação do DF" {
		t.Errorf("Expected explicit department, got %q", m.Department)
	}
}

func TestSubmitDepartmentResolution(t *testing.T) {
	suggestion := &model.Classification{SuggestedDepartment: "Secretaria de Estado de Segurança Pública"}
	bogus := &model.Classification{SuggestedDepartment: "Secretaria Inventada"}

	tests := []struct {
		name string
		key  string
		c    *model.Classification
		want string
	}{
		{"explicit", model.DepartmentTransport, suggestion, "Secretaria de Estado de Transporte e Mobilidade"},
		{"explicit other", model.DepartmentOther, suggestion, model.DefaultDepartment},
		{"suggestion", "", suggestion, "Secretaria de Estado de Segurança Pública"},
		{"unknown suggestion", "", bogus, model.DefaultDepartment},
		{"nothing", "", nil, model.DefaultDepartment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveDepartment(tt.key, tt.c); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSubmitRejectsMissingContent(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.Submit(context.Background(), &model.Submission{Type: model.TypeComplaint, Description: "   "})
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if verr.Fields["conteudo"] != MsgContentRequired {
		t.Errorf("Unexpected fields %v", verr.Fields)
	}
	if svc.store.Count() != 0 {
		t.Error("Expected nothing stored")
	}
}

func TestSubmitSchemaErrors(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.Submit(context.Background(), &model.Submission{
		Type:        "bogus",
		Department:  "nenhum",
		Subject:     strings.Repeat("a", 101),
		Description: "texto",
		Email:       "sem-arroba",
	})
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}

	want := map[string]string{
		"tipo":    MsgTypeRequired,
		"orgao":   MsgDepartment,
		"assunto": MsgSubjectTooLong,
		"email":   MsgEmailInvalid,
	}
	for field, msg := range want {
		if verr.Fields[field] != msg {
			t.Errorf("Expected %s: %q, got %q", field, msg, verr.Fields[field])
		}
	}
}

func TestSubmitAttachmentOrder(t *testing.T) {
	ctx := context.Background()
	svc, objects := newTestService(t, nil)

	large := bytes.Repeat([]byte{1}, MaxInlinePreviewBytes+1)
	conf, err := svc.Submit(ctx, &model.Submission{
		Type:                     model.TypeReport,
		RecordedAudio:            &model.MediaFile{ContentType: "audio/webm", Data: []byte("rec")},
		RecordedAudioDescription: "gravação",
		AudioFile:                &model.MediaFile{Name: "audio.mp3", ContentType: "audio/mpeg", Size: 42},
		AudioDescription:         "arquivo",
		Images: []model.MediaFile{
			{Name: "a.png", ContentType: "image/png", Data: []byte("png")},
			{ContentType: "image/jpeg", Data: []byte("jpg")},
		},
		ImageDescriptions: []string{"primeira"},
		Video:             &model.MediaFile{Name: "v.mp4", ContentType: "video/mp4", Data: large},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	m, _ := svc.Lookup(ctx, conf.Protocol)
	if !m.HasAudio || !m.HasImage || !m.HasVideo {
		t.Errorf("Expected media flags, got audio=%v image=%v video=%v", m.HasAudio, m.HasImage, m.HasVideo)
	}

	want := []struct{ kind, label, name, description string }{
		{model.AttachmentAudio, "Áudio", RecordedAudioName, "gravação"},
		{model.AttachmentAudio, "Áudio", "audio.mp3", "arquivo"},
		{model.AttachmentImage, "Imagem", "a.png", "primeira"},
		{model.AttachmentImage, "Imagem", "Imagem 2", ""},
		{model.AttachmentVideo, "Vídeo", "v.mp4", ""},
	}
	if len(m.Attachments) != len(want) {
		t.Fatalf("Expected %d attachments, got %d", len(want), len(m.Attachments))
	}
	for i, w := range want {
		a := m.Attachments[i]
		if a.Type != w.kind || a.TypeLabel != w.label || a.Name != w.name || a.Description != w.description {
			t.Errorf("Attachment %d: expected %+v, got %+v", i, w, a)
		}
	}

	if m.Attachments[0].PreviewURL == nil || !strings.HasPrefix(*m.Attachments[0].PreviewURL, "data:audio/webm") {
		t.Error("Expected inline preview for small recording")
	}
	if m.Attachments[1].PreviewURL != nil || m.Attachments[1].Size != 42 {
		t.Error("Expected metadata-only audio to have no preview and keep its size")
	}
	if !m.Attachments[4].Ephemeral() || objects.Len() != 1 {
		t.Error("Expected session reference for large video")
	}
}

// conflictDurable reports every protocol as taken.
type conflictDurable struct{ *memoryDurable }

func (d *conflictDurable) Get(_ context.Context, protocol string) (*model.Manifestation, error) {
	return &model.Manifestation{Protocol: protocol}, nil
}

func TestSubmitEvictionRevokesPreviews(t *testing.T) {
	ctx := context.Background()
	objects := NewObjectURLRegistry()
	svc := NewManifestationService(
		NewManifestationStore(newMemoryDurable(), 1),
		NewProtocolGeneratorWith(func() time.Time { return fixedNow }, rand.New(rand.NewPCG(3, 5))),
		NewPreviewBuilder(objects),
		NewIZA(""),
	)

	video := bytes.Repeat([]byte("v"), MaxInlinePreviewBytes+1)
	var protocols []string
	for i := 0; i < 3; i++ {
		conf, err := svc.Submit(ctx, &model.Submission{
			Type:  model.TypeComplaint,
			Video: &model.MediaFile{Name: "v.mp4", ContentType: "video/mp4", Size: int64(len(video)), Data: video},
		})
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		protocols = append(protocols, conf.Protocol)
	}

	if objects.Len() != 1 {
		t.Errorf("Expected only the cached record's preview alive, got %d", objects.Len())
	}

	m, err := svc.Lookup(ctx, protocols[0])
	if err != nil {
		t.Fatalf("Expected evicted record from the durable tier, got %v", err)
	}
	if m.Attachments[0].PreviewURL != nil {
		t.Errorf("Expected no preview on evicted record, got %q", *m.Attachments[0].PreviewURL)
	}
}

func TestSubmitProtocolExhaustion(t *testing.T) {
	svc, objects := newTestService(t, &conflictDurable{memoryDurable: newMemoryDurable()})

	_, err := svc.Submit(context.Background(), &model.Submission{
		Type:        model.TypeComplaint,
		Description: "texto",
		Video:       &model.MediaFile{ContentType: "video/mp4", Data: bytes.Repeat([]byte{1}, MaxInlinePreviewBytes+1)},
	})

	var serr *model.SubmissionError
	if !errors.As(err, &serr) || !serr.Retryable {
		t.Fatalf("Expected retryable SubmissionError, got %v", err)
	}
	if !errors.Is(err, model.ErrProtocolConflict) || !errors.Is(err, model.ErrSubmission) {
		t.Errorf("Expected conflict and submission errors in chain, got %v", err)
	}
	if objects.Len() != 0 {
		t.Error("Expected session references to be released after a failed submit")
	}
}

func TestSubmitDurableFailureStillSucceeds(t *testing.T) {
	durable := newMemoryDurable()
	svc, _ := newTestService(t, durable)
	durable.fail = true

	conf, err := svc.Submit(context.Background(), &model.Submission{Type: model.TypeSuggestion, Description: "Sugiro mais ônibus"})
	if err != nil {
		t.Fatalf("Expected success with failing durable tier, got %v", err)
	}
	if _, err := svc.Lookup(context.Background(), conf.Protocol); err != nil {
		t.Errorf("Expected record in the cache, got %v", err)
	}
}

func TestLookupNotFoundAndFabrication(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)

	if _, err := svc.Lookup(ctx, "2026101999999"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Expected ErrNotFound with fabrication off, got %v", err)
	}

	svc.WithDemoFabrication(true)
	m, err := svc.Lookup(ctx, "2026101999999")
	if err != nil {
		t.Fatalf("Expected fabricated record, got %v", err)
	}
	if m.Status != model.StatusUnderReview || m.Subject != "Atendimento em UPA" || len(m.History) != 2 {
		t.Errorf("Unexpected fabricated record %+v", m)
	}
	if m.History[1].Description != model.NoteForwarded || !m.History[1].Date.Equal(m.SubmittedAt.Add(48*time.Hour)) {
		t.Errorf("Unexpected second history entry %+v", m.History[1])
	}
	age := fixedNow.Sub(m.SubmittedAt)
	if age < 0 || age > 29*24*time.Hour+time.Hour {
		t.Errorf("Expected registration within the last 30 days, got %v", age)
	}
	if svc.store.Count() != 0 {
		t.Error("Expected fabricated record not to be stored")
	}

	if _, err := svc.Lookup(ctx, "abc"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Expected malformed protocol to stay not found, got %v", err)
	}
}

func TestUpdateLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)
	conf, _ := svc.Submit(ctx, &model.Submission{Type: model.TypeComplaint, Description: "texto"})

	m, err := svc.Update(ctx, conf.Protocol, StatusUpdate{Status: model.StatusUnderReview})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if m.Status != model.StatusUnderReview || m.History[1].Description != model.NoteForwarded {
		t.Errorf("Unexpected record %+v", m)
	}

	if _, err := svc.Update(ctx, conf.Protocol, StatusUpdate{Status: model.StatusReceived}); !errors.Is(err, model.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition, got %v", err)
	}

	m, err = svc.Update(ctx, conf.Protocol, StatusUpdate{Response: "Buraco tapado"})
	if err != nil {
		t.Fatalf("Response failed: %v", err)
	}
	if m.Status != model.StatusAnswered || m.Response == nil || m.Response.Text != "Buraco tapado" {
		t.Errorf("Expected answered record, got %+v", m)
	}
	if len(m.History) != 3 || m.History[2].Description != model.NoteAnswered {
		t.Errorf("Unexpected history %+v", m.History)
	}

	m, err = svc.Update(ctx, conf.Protocol, StatusUpdate{Note: "Cidadão contactado"})
	if err != nil {
		t.Fatalf("Note failed: %v", err)
	}
	if m.Status != model.StatusAnswered || m.History[3].Description != "Cidadão contactado" {
		t.Errorf("Unexpected record after note %+v", m)
	}

	if !m.SubmittedAt.Equal(fixedNow) || !m.Deadline.Equal(fixedNow.Add(model.ResponseWindow)) || m.Protocol != conf.Protocol {
		t.Error("Expected immutable fields to be unchanged")
	}
}

func TestUpdateValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)
	conf, _ := svc.Submit(ctx, &model.Submission{Type: model.TypeComplaint, Description: "texto"})

	tests := []struct {
		name   string
		update StatusUpdate
		want   error
	}{
		{"empty", StatusUpdate{}, model.ErrValidation},
		{"unknown status", StatusUpdate{Status: "perdida"}, model.ErrValidation},
		{"response with other status", StatusUpdate{Status: model.StatusArchived, Response: "x"}, model.ErrValidation},
		{"same status without note", StatusUpdate{Status: model.StatusReceived}, model.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Update(ctx, conf.Protocol, tt.update); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := svc.Update(ctx, "2026101900000", StatusUpdate{Note: "x"}); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
