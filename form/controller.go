package form

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/model"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/pkg/logger"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/service"
)

var (
	ErrLastStep         = errors.New("no step after review")
	ErrFirstStep        = errors.New("no step before type selection")
	ErrStepNotCompleted = errors.New("step not completed yet")
	ErrNotAtReview      = errors.New("submit is only allowed at review")
	ErrAlreadySubmitted = errors.New("manifestation already submitted")
)

// Field keys of step errors.
const (
	FieldType    = "tipo"
	FieldContent = "conteudo"
	FieldSubject = "assunto"
	FieldDesc    = "descricao"
	FieldName    = "nome"
	FieldEmail   = "email"
	FieldTerms   = "concordaTermos"
	FieldImages  = "imagem"
	FieldAudio   = "audio"
	FieldVideo   = "video"
)

// Classifier suggests a classification for the description.
type Classifier interface {
	Analyze(ctx context.Context, text string, explicit model.Type) (*model.Classification, error)
}

// Submitter registers a finished draft.
type Submitter interface {
	Submit(ctx context.Context, sub *model.Submission) (*model.Confirmation, error)
}

var (
	_ Submitter  = (*service.ManifestationService)(nil)
	_ Classifier = (*service.IZA)(nil)
)

// Controller drives one draft through the wizard. It is owned by a single
// session and is not safe for concurrent use.
type Controller struct {
	step           Step
	draft          Draft
	errors         map[string]string
	classification *model.Classification
	classifier     Classifier
	submitter      Submitter
	confirmation   *model.Confirmation
}

// NewController starts a wizard at type selection. classifier may be nil.
func NewController(classifier Classifier, submitter Submitter) *Controller {
	return &Controller{
		step:       StepType,
		draft:      NewDraft(),
		errors:     make(map[string]string),
		classifier: classifier,
		submitter:  submitter,
	}
}

func (c *Controller) Step() Step { return c.step }

// Draft returns a copy of the current draft.
func (c *Controller) Draft() Draft { return c.draft.clone() }

// Errors returns a copy of the field errors of the current step.
func (c *Controller) Errors() map[string]string {
	out := make(map[string]string, len(c.errors))
	for k, v := range c.errors {
		out[k] = v
	}
	return out
}

// Classification is the advisory result shown at review, if any.
func (c *Controller) Classification() *model.Classification { return c.classification }

// Confirmation is set once the draft was submitted.
func (c *Controller) Confirmation() *model.Confirmation { return c.confirmation }

func (c *Controller) Submitted() bool { return c.confirmation != nil }

// Completed reports whether s lies before the current step.
func (c *Controller) Completed(s Step) bool { return s < c.step }

// Next validates the current step and advances. Leaving the content step
// also asks the classifier; its failure never blocks.
func (c *Controller) Next(ctx context.Context) error {
	if c.Submitted() {
		return ErrAlreadySubmitted
	}
	if c.step == StepReview {
		return ErrLastStep
	}
	if err := c.validate(c.step); err != nil {
		return err
	}

	if c.step == StepContent {
		c.classify(ctx)
	}
	c.step++
	logger.Debug(ctx, "wizard step", "step", c.step.String())
	return nil
}

// Back moves one step back without validating.
func (c *Controller) Back() error {
	if c.Submitted() {
		return ErrAlreadySubmitted
	}
	if c.step == StepType {
		return ErrFirstStep
	}
	c.step--
	c.errors = make(map[string]string)
	return nil
}

// Jump goes directly to an already completed step.
func (c *Controller) Jump(to Step) error {
	if c.Submitted() {
		return ErrAlreadySubmitted
	}
	if !to.Valid() || to >= c.step {
		return ErrStepNotCompleted
	}
	c.step = to
	c.errors = make(map[string]string)
	return nil
}

// Submit re-checks the review step and hands the draft to the submitter. On
// failure the draft is kept intact for another attempt.
func (c *Controller) Submit(ctx context.Context) (*model.Confirmation, error) {
	if c.Submitted() {
		return nil, ErrAlreadySubmitted
	}
	if c.step != StepReview {
		return nil, ErrNotAtReview
	}
	if err := c.validate(StepReview); err != nil {
		return nil, err
	}

	confirmation, err := c.submitter.Submit(ctx, c.draft.Submission(c.classification))
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			for k, v := range verr.Fields {
				c.errors[k] = v
			}
			return nil, err
		}
		var serr *model.SubmissionError
		if !errors.As(err, &serr) {
			err = &model.SubmissionError{Retryable: true, Err: err}
		}
		logger.Warn(ctx, "submission failed, draft kept", "error", err)
		return nil, err
	}

	c.confirmation = confirmation
	return confirmation, nil
}

func (c *Controller) classify(ctx context.Context) {
	c.classification = nil
	if c.classifier == nil || strings.TrimSpace(c.draft.Description) == "" {
		return
	}
	// The chosen type is the fallback category when no keyword matches.
	result, err := c.classifier.Analyze(ctx, c.draft.Description, c.draft.Type)
	if err != nil {
		logger.Warn(ctx, "iza unavailable", "error", err)
		return
	}
	c.classification = result
}

// validate runs the rules of step and replaces the current errors.
func (c *Controller) validate(step Step) error {
	d := &c.draft
	errs := make(map[string]string)

	switch step {
	case StepType:
		if !d.Type.Valid() {
			errs[FieldType] = service.MsgTypeRequired
		}
	case StepContent:
		if !d.HasContent() {
			errs[FieldContent] = service.MsgContentRequired
		}
		if utf8.RuneCountInString(d.Subject) > 100 {
			errs[FieldSubject] = service.MsgSubjectTooLong
		}
		if utf8.RuneCountInString(d.Description) > 5000 {
			errs[FieldDesc] = service.MsgDescTooLong
		}
	case StepIdentification:
		if d.Anonymous {
			break
		}
		if strings.TrimSpace(d.Name) == "" {
			errs[FieldName] = service.MsgNameRequired
		}
		if d.ReceiveResponse && strings.TrimSpace(d.Email) == "" && strings.TrimSpace(d.Phone) == "" {
			errs[FieldEmail] = service.MsgContactRequired
		}
		if d.Email != "" && !service.EmailPattern.MatchString(d.Email) {
			errs[FieldEmail] = service.MsgEmailInvalid
		}
	case StepReview:
		if !d.AgreeTerms {
			errs[FieldTerms] = service.MsgTermsRequired
		}
	}

	c.errors = errs
	if len(errs) > 0 {
		return &model.ValidationError{Fields: c.Errors()}
	}
	return nil
}

func (c *Controller) clear(fields ...string) {
	for _, f := range fields {
		delete(c.errors, f)
	}
}
