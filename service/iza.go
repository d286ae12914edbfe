package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/model"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/pkg/logger"
)

// IZARulesVersion identifies the keyword tables below. Bump it whenever a
// table, its order or a confidence constant changes.
const IZARulesVersion = "IZA v2.0"

// DefaultProcessedBy labels results when no other label is configured.
const DefaultProcessedBy = IZARulesVersion + " - Inteligência Artificial da Ouvidoria-Geral do DF"

// DefaultConfidence is reported when no department rule matches.
const DefaultConfidence = 60

// SensitiveDataNote is shown when the text seems to carry personal documents.
const SensitiveDataNote = "Detectamos possíveis dados pessoais no texto. Eles serão tratados com sigilo conforme LGPD."

type departmentRule struct {
	Department string
	Confidence int
	Keywords   []string
}

type categoryRule struct {
	Category string
	Keywords []string
}

// Evaluated in order, first match wins.
var departmentRules = []departmentRule{
	{model.DepartmentHealth, 85, []string{"hospital", "upa", "médico", "saúde", "posto", "vacina"}},
	{model.DepartmentEducation, 82, []string{"escola", "professor", "matrícula", "educação", "creche"}},
	{model.DepartmentTransport, 88, []string{"ônibus", "metrô", "brt", "transporte", "trânsito"}},
	{model.DepartmentSafety, 80, []string{"polícia", "segurança", "delegacia", "crime", "assalto"}},
	{model.DepartmentInfrastructure, 78, []string{"buraco", "asfalto", "obra", "rua", "calçada"}},
}

var categoryRules = []categoryRule{
	{model.TypeCompliment.Label(), []string{"agradeço", "parabéns", "excelente", "ótimo"}},
	{model.TypeSuggestion.Label(), []string{"sugiro", "poderia", "seria bom", "melhoria"}},
	{model.TypeReport.Label(), []string{"denuncio", "irregularidade", "corrupção", "fraude"}},
	{model.TypeRequest.Label(), []string{"gostaria de saber", "informação", "como faço", "onde posso"}},
}

var urgencyKeywords = []string{"urgente", "emergência", "grave", "imediato"}

var (
	// \p{Zs} also accepts no-break spaces pasted from documents.
	cpfPattern = regexp.MustCompile(`\d{3}[.\s\p{Zs}]?\d{3}[.\s\p{Zs}]?\d{3}[-\s\p{Zs}]?\d{2}`)
	rgPattern  = regexp.MustCompile(`\d{2}[.\s\p{Zs}]?\d{3}[.\s\p{Zs}]?\d{3}[-/]?\d{1}`)

	documentKeywords = []string{"cpf", "rg "}
)

// IZA is the rule-based classifier. Classify is pure; Analyze stamps the
// result with the clock.
type IZA struct {
	processedBy string
	now         func() time.Time
}

// NewIZA creates a classifier that labels its results with processedBy.
func NewIZA(processedBy string) *IZA {
	if processedBy == "" {
		processedBy = DefaultProcessedBy
	}
	return &IZA{processedBy: processedBy, now: time.Now}
}

// Classify suggests a department, category and urgency for text. The
// explicit type, when given, is the fallback category.
func (z *IZA) Classify(text string, explicit model.Type) model.Classification {
	lower := strings.ToLower(text)

	result := model.Classification{
		Category:            model.TypeComplaint.Label(),
		SuggestedDepartment: model.DefaultDepartment,
		Confidence:          DefaultConfidence,
		Urgency:             model.UrgencyNormal,
		ProcessedBy:         z.processedBy,
	}
	if explicit != "" {
		result.Category = explicit.Label()
	}

	for _, rule := range departmentRules {
		if containsAny(lower, rule.Keywords) {
			result.SuggestedDepartment = model.DepartmentName(rule.Department)
			result.Confidence = rule.Confidence
			break
		}
	}

	for _, rule := range categoryRules {
		if containsAny(lower, rule.Keywords) {
			result.Category = rule.Category
			break
		}
	}

	if containsAny(lower, urgencyKeywords) {
		result.Urgency = model.UrgencyHigh
	}

	if HasSensitiveData(text) {
		note := SensitiveDataNote
		result.ContainsSensitive = true
		result.AdvisoryNote = &note
	}

	return result
}

// Analyze satisfies the form's classifier port. It never fails.
func (z *IZA) Analyze(ctx context.Context, text string, explicit model.Type) (*model.Classification, error) {
	result := z.Classify(text, explicit)
	result.Timestamp = z.now().UTC()
	logger.Info(ctx, "iza analysis",
		"classificacao", result.Category,
		"orgao", result.SuggestedDepartment,
		"confianca", result.Confidence,
		"urgencia", result.Urgency,
	)
	return &result, nil
}

// HasSensitiveData reports tax-ID or ID-document patterns in text.
func HasSensitiveData(text string) bool {
	if cpfPattern.MatchString(text) || rgPattern.MatchString(text) {
		return true
	}
	return containsAny(strings.ToLower(text), documentKeywords)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
