package handler

import (
	"net/http"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/middleware"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/service"
	"github.com/gin-gonic/gin"
)

// Room for multipart headers around the file itself.
const multipartOverhead = 1 << 20

type UploadHandler struct {
	uploads *service.UploadService
}

func NewUploadHandler(uploads *service.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// Upload handles POST /api/upload with a single "file" part
func (h *UploadHandler) Upload(c *gin.Context) {
	if max := h.uploads.MaxBytes(); max > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max+multipartOverhead)
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		if err := bindError(err); statusFor(err) == http.StatusRequestEntityTooLarge {
			respondError(c, err, "")
			return
		}
		middleware.Fail(c, http.StatusBadRequest, "Arquivo é obrigatório")
		return
	}
	defer file.Close()

	f, err := h.uploads.Save(c.Request.Context(), header.Filename, header.Header.Get("Content-Type"), file, header.Size)
	if err != nil {
		respondError(c, err, "Erro ao armazenar arquivo")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"id":           f.ID,
		"url":          "/api/files/" + f.ID,
		"originalName": f.OriginalName,
		"mimeType":     f.MimeType,
		"size":         f.Size,
	})
}

// File redirects to the stored bytes, or returns the metadata when only
// metadata was kept.
func (h *UploadHandler) File(c *gin.Context) {
	id := c.Param("id")

	url, err := h.uploads.DownloadURL(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Erro ao gerar link do arquivo")
		return
	}
	if url != "" {
		c.Redirect(http.StatusFound, url)
		return
	}

	f, err := h.uploads.Get(id)
	if err != nil {
		respondError(c, err, "Erro ao consultar arquivo")
		return
	}
	c.JSON(http.StatusOK, f)
}
