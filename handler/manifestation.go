package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/form"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/middleware"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/model"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/service"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// Multipart parts kept in memory before spilling to temp files.
const multipartMemory = 32 << 20

const msgSubmitFailed = "Erro interno ao processar manifestação"

type ManifestationHandler struct {
	service    *service.ManifestationService
	maxFile    int64
	maxRequest int64
}

// NewManifestationHandler creates the citizen-facing handler. maxFile caps
// each attached file, 0 disables the caps.
func NewManifestationHandler(svc *service.ManifestationService, maxFile int64) *ManifestationHandler {
	return &ManifestationHandler{service: svc, maxFile: maxFile, maxRequest: requestCap(maxFile)}
}

// requestCap sizes a submission body for one video, MaxImages images and two
// audio tracks at their per-file limits, plus the text fields.
func requestCap(maxFile int64) int64 {
	if maxFile <= 0 {
		return 0
	}
	limit := func(k form.MediaKind) int64 { return min(k.MaxBytes(), maxFile) }
	return limit(form.MediaVideo) +
		form.MaxImages*limit(form.MediaImage) +
		2*limit(form.MediaAudio) +
		multipartOverhead
}

// Create registers a manifestation from a multipart form or a JSON body
func (h *ManifestationHandler) Create(c *gin.Context) {
	if h.maxRequest > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxRequest)
	}

	sub, err := h.bindSubmission(c)
	if err != nil {
		respondError(c, err, msgSubmitFailed)
		return
	}

	confirmation, err := h.service.Submit(c.Request.Context(), sub)
	if err != nil {
		respondError(c, err, msgSubmitFailed)
		return
	}

	c.JSON(http.StatusCreated, confirmation)
}

// Get returns the full record of a protocol
func (h *ManifestationHandler) Get(c *gin.Context) {
	m, err := h.service.Lookup(c.Request.Context(), c.Param("protocolo"))
	if errors.Is(err, model.ErrNotFound) {
		middleware.Fail(c, http.StatusNotFound, "Protocolo não encontrado")
		return
	}
	if err != nil {
		respondError(c, err, "Erro ao consultar protocolo")
		return
	}

	c.JSON(http.StatusOK, m)
}

func (h *ManifestationHandler) bindSubmission(c *gin.Context) (*model.Submission, error) {
	if c.ContentType() == binding.MIMEJSON {
		var sub model.Submission
		if err := c.ShouldBindJSON(&sub); err != nil {
			return nil, bindError(err)
		}
		return &sub, nil
	}

	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, bindError(err)
	}
	values := c.Request.PostForm

	sub := &model.Submission{
		Type:                     model.Type(values.Get("tipo")),
		Department:               values.Get("orgao"),
		Subject:                  values.Get("assunto"),
		Description:              values.Get("descricao"),
		RecordedAudioDescription: values.Get("descricaoAudioGravado"),
		AudioDescription:         values.Get("descricaoAudio"),
		ImageDescriptions:        values["descricaoImagem"],
		VideoDescription:         values.Get("descricaoVideo"),
		Anonymous:                values.Get("anonimo") == "true",
		Name:                     values.Get("nome"),
		Email:                    values.Get("email"),
		Phone:                    values.Get("telefone"),
		TaxID:                    values.Get("cpf"),
	}

	mf := c.Request.MultipartForm
	if mf == nil {
		return sub, nil
	}

	var err error
	if sub.RecordedAudio, err = h.readFirstPart(mf, "audioGravado"); err != nil {
		return nil, err
	}
	if sub.AudioFile, err = h.readFirstPart(mf, "audio"); err != nil {
		return nil, err
	}
	for _, fh := range mf.File["imagem"] {
		f, err := h.readPart(fh)
		if err != nil {
			return nil, err
		}
		sub.Images = append(sub.Images, *f)
	}
	if sub.Video, err = h.readFirstPart(mf, "video"); err != nil {
		return nil, err
	}

	return sub, nil
}

func (h *ManifestationHandler) readFirstPart(mf *multipart.Form, name string) (*model.MediaFile, error) {
	parts := mf.File[name]
	if len(parts) == 0 {
		return nil, nil
	}
	return h.readPart(parts[0])
}

func (h *ManifestationHandler) readPart(fh *multipart.FileHeader) (*model.MediaFile, error) {
	if h.maxFile > 0 && fh.Size > h.maxFile {
		return nil, fmt.Errorf("%s has %d bytes: %w", fh.Filename, fh.Size, model.ErrTooLarge)
	}

	file, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open part %s: %w", fh.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read part %s: %w", fh.Filename, err)
	}

	return &model.MediaFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Data:        data,
	}, nil
}

// bindError turns body parsing failures into the error taxonomy.
func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("limit %d bytes: %w", tooLarge.Limit, model.ErrTooLarge)
	}
	// multipart wraps the reader error as text only
	if strings.Contains(err.Error(), "request body too large") {
		return fmt.Errorf("%v: %w", err, model.ErrTooLarge)
	}
	return model.NewValidationError("requisicao", "Requisição inválida")
}
