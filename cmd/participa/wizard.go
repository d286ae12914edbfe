package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/form"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/model"
)

// backCommand typed at any prompt returns to the previous step.
const backCommand = "<"

var errBack = errors.New("back")

type wizardUI struct {
	in  *bufio.Scanner
	out io.Writer
}

func newWizardUI(in io.Reader, out io.Writer) *wizardUI {
	return &wizardUI{in: bufio.NewScanner(in), out: out}
}

// run asks for every step until the manifestation is registered.
func (u *wizardUI) run(ctx context.Context, w *form.Controller) (*model.Confirmation, error) {
	u.printf("Nova manifestação. Digite %q para voltar uma etapa.\n", backCommand)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		step := w.Step()
		u.printf("\n[%d/%d] %s\n", int(step)+1, form.StepCount, step.Title())

		var err error
		switch step {
		case form.StepType:
			err = u.askType(w)
		case form.StepContent:
			err = u.askContent(w)
		case form.StepIdentification:
			err = u.askIdentification(w)
		case form.StepReview:
			var conf *model.Confirmation
			conf, err = u.review(ctx, w)
			if conf != nil {
				return conf, nil
			}
		}

		switch {
		case errors.Is(err, errBack):
			if berr := w.Back(); berr != nil {
				u.printf("Você já está na primeira etapa.\n")
			}
			continue
		case err != nil:
			return nil, err
		}

		if step == form.StepReview {
			continue
		}
		if err := w.Next(ctx); err != nil {
			if !u.showErrors(err) {
				return nil, err
			}
		}
	}
}

func (u *wizardUI) askType(w *form.Controller) error {
	for i, t := range model.Types {
		u.printf("  %d) %s\n", i+1, t.Label())
	}
	line, err := u.prompt("Tipo")
	if err != nil {
		return err
	}
	if n, convErr := strconv.Atoi(line); convErr == nil && n >= 1 && n <= len(model.Types) {
		w.SetType(model.Types[n-1])
	} else {
		w.SetType(model.Type(line))
	}

	for i, key := range model.Departments {
		u.printf("  %d) %s\n", i+1, model.DepartmentName(key))
	}
	line, err = u.prompt("Órgão (opcional)")
	if err != nil {
		return err
	}
	if n, convErr := strconv.Atoi(line); convErr == nil && n >= 1 && n <= len(model.Departments) {
		w.SetDepartment(model.Departments[n-1])
	} else {
		w.SetDepartment(line)
	}
	return nil
}

func (u *wizardUI) askContent(w *form.Controller) error {
	d := w.Draft()
	for _, f := range attachedFiles(d) {
		u.printf("  Anexo: %s (%s)\n", f.Name, form.HumanSize(f.Size))
	}

	subject, err := u.prompt("Assunto (opcional)")
	if err != nil {
		return err
	}
	w.SetSubject(subject)

	desc, err := u.prompt("Descrição")
	if err != nil {
		return err
	}
	w.SetDescription(desc)
	return nil
}

func (u *wizardUI) askIdentification(w *form.Controller) error {
	anon, err := u.confirm("Deseja permanecer anônimo?")
	if err != nil {
		return err
	}
	w.SetAnonymous(anon)
	if anon {
		return nil
	}

	fields := []struct {
		label string
		set   func(string)
	}{
		{"Nome", w.SetName},
		{"E-mail", w.SetEmail},
		{"Telefone", w.SetPhone},
		{"CPF (opcional)", w.SetTaxID},
	}
	for _, f := range fields {
		v, err := u.prompt(f.label)
		if err != nil {
			return err
		}
		f.set(v)
	}

	receive, err := u.confirm("Deseja receber resposta?")
	if err != nil {
		return err
	}
	w.SetReceiveResponse(receive)
	return nil
}

// review prints the summary and submits once the terms are accepted. A nil
// confirmation with a nil error means the step should be asked again.
func (u *wizardUI) review(ctx context.Context, w *form.Controller) (*model.Confirmation, error) {
	d := w.Draft()
	u.printf("  Tipo: %s\n", d.Type.Label())
	u.printf("  Órgão: %s\n", model.DepartmentName(d.Department))
	if d.Subject != "" {
		u.printf("  Assunto: %s\n", d.Subject)
	}
	if d.Description != "" {
		u.printf("  Descrição: %s\n", d.Description)
	}
	for _, f := range attachedFiles(d) {
		u.printf("  Anexo: %s (%s)\n", f.Name, form.HumanSize(f.Size))
	}
	if d.Anonymous {
		u.printf("  Identificação: anônima\n")
	} else {
		u.printf("  Identificação: %s\n", d.Name)
	}
	if c := w.Classification(); c != nil {
		u.printf("  IZA: %s, sugere %s (%d%% de confiança)\n", c.Category, c.SuggestedDepartment, c.Confidence)
		if c.AdvisoryNote != nil {
			u.printf("  Observação: %s\n", *c.AdvisoryNote)
		}
	}

	agree, err := u.confirm("Concorda com os termos de uso?")
	if err != nil {
		return nil, err
	}
	w.SetAgreeTerms(agree)

	conf, err := w.Submit(ctx)
	if err == nil {
		return conf, nil
	}
	if u.showErrors(err) {
		return nil, nil
	}

	var serr *model.SubmissionError
	if errors.As(err, &serr) && serr.Retryable {
		u.printf("Não foi possível enviar: %v\n", err)
		retry, cerr := u.confirm("Tentar novamente?")
		if cerr != nil {
			return nil, cerr
		}
		if retry {
			return nil, nil
		}
	}
	return nil, err
}

// showErrors prints field errors and reports whether err was a validation error.
func (u *wizardUI) showErrors(err error) bool {
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	keys := make([]string, 0, len(verr.Fields))
	for k := range verr.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		u.printf("  ! %s\n", verr.Fields[k])
	}
	return true
}

func (u *wizardUI) prompt(label string) (string, error) {
	u.printf("%s: ", label)
	if !u.in.Scan() {
		if err := u.in.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	line := strings.TrimSpace(u.in.Text())
	if line == backCommand {
		return "", errBack
	}
	return line, nil
}

func (u *wizardUI) confirm(label string) (bool, error) {
	for {
		line, err := u.prompt(label + " (s/n)")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(line) {
		case "s", "sim":
			return true, nil
		case "n", "nao", "não":
			return false, nil
		}
	}
}

func (u *wizardUI) printf(format string, args ...any) {
	fmt.Fprintf(u.out, format, args...)
}

func attachedFiles(d form.Draft) []model.MediaFile {
	var files []model.MediaFile
	for _, f := range []*model.MediaFile{d.RecordedAudio, d.AudioFile, d.Video} {
		if f != nil {
			files = append(files, *f)
		}
	}
	return append(files, d.Images...)
}
