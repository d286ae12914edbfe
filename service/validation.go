package service

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/model"
	"github.com/go-playground/validator/v10"
)

// EmailPattern is the address shape accepted for contact e-mails.
var EmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Field messages shown to the citizen.
const (
	MsgTypeRequired    = "Selecione o tipo de manifestação"
	MsgContentRequired = "Informe o conteúdo da manifestação (texto, áudio, imagem ou vídeo)"
	MsgNameRequired    = "Informe seu nome"
	MsgContactRequired = "Informe um e-mail ou telefone para receber resposta"
	MsgEmailInvalid    = "E-mail inválido"
	MsgTermsRequired   = "Você precisa concordar com os termos para enviar"
	MsgSubjectTooLong  = "O assunto deve ter no máximo 100 caracteres"
	MsgDescTooLong     = "A descrição deve ter no máximo 5000 caracteres"
	MsgDepartment      = "Órgão inválido"
	MsgTooManyImages   = "Envie no máximo 5 imagens"
)

// fieldMessages maps "<json field>.<tag>" to the message shown for it.
var fieldMessages = map[string]string{
	"tipo.required":           MsgTypeRequired,
	"tipo.manifestation_type": MsgTypeRequired,
	"orgao.department":        MsgDepartment,
	"assunto.max":             MsgSubjectTooLong,
	"descricao.max":           MsgDescTooLong,
	"email.email_address":     MsgEmailInvalid,
	"imagem.max":              MsgTooManyImages,
}

// SubmissionValidator checks a draft against its schema plus the content
// invariant.
type SubmissionValidator struct {
	v *validator.Validate
}

// NewSubmissionValidator registers the custom tags used by model.Submission.
func NewSubmissionValidator() *SubmissionValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			// Media fields are reported under their multipart part name.
			if f.Name == "Images" {
				return "imagem"
			}
			return f.Name
		}
		return name
	})

	// Registration only fails for empty tags or nil functions.
	_ = v.RegisterValidation("manifestation_type", func(fl validator.FieldLevel) bool {
		return model.Type(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("department", func(fl validator.FieldLevel) bool {
		return model.KnownDepartment(fl.Field().String())
	})
	_ = v.RegisterValidation("email_address", func(fl validator.FieldLevel) bool {
		return EmailPattern.MatchString(fl.Field().String())
	})

	return &SubmissionValidator{v: v}
}

// Validate returns a *model.ValidationError listing every failing field.
func (sv *SubmissionValidator) Validate(s *model.Submission) error {
	fields := make(map[string]string)

	if err := sv.v.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			name := fe.Field()
			if msg, ok := fieldMessages[name+"."+fe.Tag()]; ok {
				fields[name] = msg
			} else {
				fields[name] = fe.Error()
			}
		}
	}

	if !s.HasContent() {
		fields["conteudo"] = MsgContentRequired
	}

	if len(fields) > 0 {
		return &model.ValidationError{Fields: fields}
	}
	return nil
}
