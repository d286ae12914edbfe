// Package client talks to the Participa DF API on behalf of a citizen.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/model"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/service"
	"github.com/go-resty/resty/v2"
)

// Health is the body of GET /api/health.
type Health struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// APIError is a non-2xx answer of the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

type errorBody struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"campos"`
}

// Client implements the wizard's classifier and submitter ports over HTTP.
type Client struct {
	http *resty.Client
}

// New creates a client for baseURL, e.g. http://localhost:3001.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Client{http: c}
}

func (c *Client) Health(ctx context.Context) (*Health, error) {
	var health Health
	var failure errorBody

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&health).
		SetError(&failure).
		Get("/api/health")
	if err != nil {
		return nil, fmt.Errorf("health check: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp, &failure)
	}
	return &health, nil
}

// Analyze asks the API's classifier for a suggestion.
func (c *Client) Analyze(ctx context.Context, text string, explicit model.Type) (*model.Classification, error) {
	var result model.Classification
	var failure errorBody

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(service.AnalyzeRequest{Text: text, Type: explicit}).
		SetResult(&result).
		SetError(&failure).
		Post("/api/iza/analyze")
	if err != nil {
		return nil, fmt.Errorf("iza analyze: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp, &failure)
	}
	return &result, nil
}

// Submit sends the draft as multipart. Transport and server failures come
// back as a retryable *model.SubmissionError.
func (c *Client) Submit(ctx context.Context, sub *model.Submission) (*model.Confirmation, error) {
	var confirmation model.Confirmation
	var failure errorBody

	req := c.http.R().
		SetContext(ctx).
		SetFormDataFromValues(submissionValues(sub)).
		SetResult(&confirmation).
		SetError(&failure)

	addPart(req, "audioGravado", sub.RecordedAudio)
	addPart(req, "audio", sub.AudioFile)
	for i := range sub.Images {
		addPart(req, "imagem", &sub.Images[i])
	}
	addPart(req, "video", sub.Video)

	resp, err := req.Post("/api/manifestacoes")
	if err != nil {
		return nil, &model.SubmissionError{Retryable: true, Err: err}
	}
	if resp.IsError() {
		err := apiError(resp, &failure)
		if errors.Is(err, model.ErrValidation) {
			return nil, err
		}
		return nil, &model.SubmissionError{Retryable: resp.StatusCode() >= http.StatusInternalServerError, Err: err}
	}
	return &confirmation, nil
}

// Lookup fetches a record by protocol. Unknown protocols wrap
// model.ErrNotFound.
func (c *Client) Lookup(ctx context.Context, protocol string) (*model.Manifestation, error) {
	var m model.Manifestation
	var failure errorBody

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("protocolo", protocol).
		SetResult(&m).
		SetError(&failure).
		Get("/api/manifestacoes/{protocolo}")
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", protocol, err)
	}
	if resp.IsError() {
		return nil, apiError(resp, &failure)
	}
	return &m, nil
}

func submissionValues(sub *model.Submission) url.Values {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("tipo", string(sub.Type))
	set("orgao", sub.Department)
	set("assunto", sub.Subject)
	set("descricao", sub.Description)
	set("descricaoAudioGravado", sub.RecordedAudioDescription)
	set("descricaoAudio", sub.AudioDescription)
	set("descricaoVideo", sub.VideoDescription)
	for _, d := range sub.ImageDescriptions {
		v.Add("descricaoImagem", d)
	}
	v.Set("anonimo", strconv.FormatBool(sub.Anonymous))
	if !sub.Anonymous {
		set("nome", sub.Name)
		set("email", sub.Email)
		set("telefone", sub.Phone)
		set("cpf", sub.TaxID)
	}
	return v
}

func addPart(req *resty.Request, field string, f *model.MediaFile) {
	if f == nil {
		return
	}
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	name := f.Name
	if name == "" {
		name = field
	}
	req.SetMultipartField(field, name, contentType, bytes.NewReader(f.Data))
}

// apiError maps an error response onto the model taxonomy.
func apiError(resp *resty.Response, body *errorBody) error {
	msg := body.Error
	if msg == "" {
		msg = http.StatusText(resp.StatusCode())
	}
	apiErr := &APIError{Status: resp.StatusCode(), Message: msg}

	switch resp.StatusCode() {
	case http.StatusBadRequest:
		fields := body.Fields
		if len(fields) == 0 {
			fields = map[string]string{"requisicao": msg}
		}
		return &model.ValidationError{Fields: fields}
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", apiErr, model.ErrNotFound)
	case http.StatusRequestEntityTooLarge:
		return fmt.Errorf("%w: %w", apiErr, model.ErrTooLarge)
	default:
		return apiErr
	}
}
