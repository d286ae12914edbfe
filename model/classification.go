package model

import "time"

// Urgency of a manifestation as judged by IZA.
type Urgency string

const (
	UrgencyNormal Urgency = "normal"
	UrgencyHigh   Urgency = "alta"
)

// Classification is the advisory output of IZA. It is attached to a draft for
// display and never persisted on its own.
type Classification struct {
	Category            string    `json:"classificacao"`
	SuggestedDepartment string    `json:"orgaoSugerido"`
	Confidence          int       `json:"confianca"`
	Urgency             Urgency   `json:"urgencia"`
	ContainsSensitive   bool      `json:"possuiDadosSensiveis"`
	AdvisoryNote        *string   `json:"observacao"`
	ProcessedBy         string    `json:"processadoPor,omitempty"`
	Timestamp           time.Time `json:"timestamp"`
}
