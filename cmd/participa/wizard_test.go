package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/form"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/model"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedSubmitter struct {
	failures int
	got      []*model.Submission
}

func (s *scriptedSubmitter) Submit(_ context.Context, sub *model.Submission) (*model.Confirmation, error) {
	s.got = append(s.got, sub)
	if s.failures > 0 {
		s.failures--
		return nil, &model.SubmissionError{Retryable: true, Err: errors.New("timeout")}
	}
	return &model.Confirmation{
		Success:  true,
		Protocol: "2026101900042",
		Message:  service.MsgRegistered,
		Deadline: time.Date(2026, 11, 18, 0, 0, 0, 0, time.UTC),
	}, nil
}

func runScript(t *testing.T, script string, sub *scriptedSubmitter) (*model.Confirmation, string, error) {
	t.Helper()
	var out bytes.Buffer
	w := form.NewController(service.NewIZA(""), sub)
	conf, err := newWizardUI(strings.NewReader(script), &out).run(context.Background(), w)
	return conf, out.String(), err
}

func TestWizardAnonymous(t *testing.T) {
	sub := &scriptedSubmitter{}
	script := strings.Join([]string{
		"1", "3", // reclamação, transporte
		"Ônibus atrasado", "A linha 110 atrasa todos os dias",
		"s", // anônimo
		"s", // termos
	}, "\n") + "\n"

	conf, out, err := runScript(t, script, sub)
	require.NoError(t, err)
	assert.Equal(t, "2026101900042", conf.Protocol)

	require.Len(t, sub.got, 1)
	got := sub.got[0]
	assert.Equal(t, model.TypeComplaint, got.Type)
	assert.Equal(t, model.DepartmentTransport, got.Department)
	assert.True(t, got.Anonymous)
	assert.Empty(t, got.Name)
	assert.Contains(t, out, "Identificação: anônima")
	assert.Contains(t, out, "IZA:")
}

func TestWizardIdentified(t *testing.T) {
	sub := &scriptedSubmitter{}
	script := strings.Join([]string{
		"elogio", "",
		"", "Atendimento excelente no posto de saúde",
		"n", "Maria Souza", "maria@example.com", "61999998888", "12345678901", "s",
		"s",
	}, "\n") + "\n"

	_, out, err := runScript(t, script, sub)
	require.NoError(t, err)

	got := sub.got[0]
	assert.Equal(t, model.TypeCompliment, got.Type)
	assert.Equal(t, "Maria Souza", got.Name)
	assert.Equal(t, "maria@example.com", got.Email)
	assert.Equal(t, "(61) 99999-8888", got.Phone)
	assert.Equal(t, "123.456.789-01", got.TaxID)
	assert.Contains(t, out, "Identificação: Maria Souza")
}

func TestWizardValidationAndBack(t *testing.T) {
	sub := &scriptedSubmitter{}
	script := strings.Join([]string{
		"", "", // no type
		"2", "",
		"<", // back to type
		"4", "",
		"", "", // no content
		"", "Servidor cobrando propina",
		"s",
		"n", // refuses terms
		"s",
	}, "\n") + "\n"

	_, out, err := runScript(t, script, sub)
	require.NoError(t, err)

	assert.Contains(t, out, service.MsgTypeRequired)
	assert.Contains(t, out, service.MsgContentRequired)
	assert.Contains(t, out, service.MsgTermsRequired)
	require.Len(t, sub.got, 1)
	assert.Equal(t, model.TypeReport, sub.got[0].Type)
}

func TestWizardRetryAfterFailure(t *testing.T) {
	sub := &scriptedSubmitter{failures: 1}
	script := strings.Join([]string{
		"5", "2",
		"Vaga em creche", "Solicito vaga para meu filho",
		"s",
		"s", // termos
		"s", // tentar novamente
		"s", // termos
	}, "\n") + "\n"

	conf, out, err := runScript(t, script, sub)
	require.NoError(t, err)
	require.NotNil(t, conf)
	assert.Contains(t, out, "Não foi possível enviar")
	require.Len(t, sub.got, 2)
	assert.Equal(t, sub.got[0].Description, sub.got[1].Description)
}

func TestWizardGiveUpAfterFailure(t *testing.T) {
	sub := &scriptedSubmitter{failures: 1}
	script := "1\n\n\nBuraco na via\ns\ns\nn\n"

	_, _, err := runScript(t, script, sub)
	assert.ErrorIs(t, err, model.ErrSubmission)
}

func TestWizardEndOfInput(t *testing.T) {
	_, _, err := runScript(t, "1\n", &scriptedSubmitter{})
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
