package service

import (
	"context"
	"fmt"
	"time"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/config"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/model"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/pkg/logger"
	"github.com/go-resty/resty/v2"
)

// Classifier produces an advisory classification for a text.
type Classifier interface {
	Analyze(ctx context.Context, text string, explicit model.Type) (*model.Classification, error)
}

var (
	_ Classifier = (*IZA)(nil)
	_ Classifier = (*RemoteIZA)(nil)
)

// AnalyzeRequest is the body of POST /iza/analyze.
type AnalyzeRequest struct {
	Text string     `json:"text"`
	Type model.Type `json:"tipo,omitempty"`
}

type analyzeError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// RemoteIZA asks an external IZA endpoint and falls back to the local rule
// tables on any failure, so Analyze never fails.
type RemoteIZA struct {
	cfg    *config.IZAConfig
	client *resty.Client
	local  *IZA
}

// NewRemoteIZA creates a client for cfg.APIURL.
func NewRemoteIZA(cfg *config.IZAConfig, local *IZA) *RemoteIZA {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.APIURL).
		SetTimeout(timeout).
		SetRetryCount(1).
		SetRetryWaitTime(200 * time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &RemoteIZA{cfg: cfg, client: client, local: local}
}

// Analyze classifies text remotely, or locally when the remote call fails.
func (r *RemoteIZA) Analyze(ctx context.Context, text string, explicit model.Type) (*model.Classification, error) {
	result, err := r.remote(ctx, text, explicit)
	if err == nil {
		return result, nil
	}

	logger.Warn(ctx, "remote iza unavailable, using local rules", "api_url", r.cfg.APIURL, "error", err)
	return r.local.Analyze(ctx, text, explicit)
}

func (r *RemoteIZA) remote(ctx context.Context, text string, explicit model.Type) (*model.Classification, error) {
	var result model.Classification
	var failure analyzeError

	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(AnalyzeRequest{Text: text, Type: explicit}).
		SetResult(&result).
		SetError(&failure).
		Post("/iza/analyze")
	if err != nil {
		return nil, fmt.Errorf("call iza: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("iza returned %d: %s", resp.StatusCode(), failure.Error)
	}
	if result.SuggestedDepartment == "" || result.Category == "" {
		return nil, fmt.Errorf("iza returned an incomplete classification")
	}

	if result.ProcessedBy == "" {
		result.ProcessedBy = r.cfg.ProcessedBy
	}
	if result.Timestamp.IsZero() {
		result.Timestamp = time.Now().UTC()
	}
	logger.Info(ctx, "iza analysis",
		"classificacao", result.Category,
		"orgao", result.SuggestedDepartment,
		"confianca", result.Confidence,
		"remote", true,
	)
	return &result, nil
}
