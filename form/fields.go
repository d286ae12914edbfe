package form

import (
	"fmt"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/model"
)

// Field setters. Each one clears the error of the field it edits.

func (c *Controller) SetType(t model.Type) {
	c.draft.Type = t
	c.clear(FieldType)
}

func (c *Controller) SetDepartment(key string) {
	c.draft.Department = key
}

func (c *Controller) SetSubject(s string) {
	c.draft.Subject = s
	c.clear(FieldSubject)
}

func (c *Controller) SetDescription(s string) {
	c.draft.Description = s
	c.clear(FieldDesc, FieldContent)
}

// SetAnonymous toggles anonymity. Identification values stay in the draft.
func (c *Controller) SetAnonymous(on bool) {
	c.draft.Anonymous = on
	if on {
		c.clear(FieldName, FieldEmail)
	}
}

func (c *Controller) SetName(s string) {
	c.draft.Name = s
	c.clear(FieldName)
}

func (c *Controller) SetEmail(s string) {
	c.draft.Email = s
	c.clear(FieldEmail)
}

// SetPhone stores the masked phone.
func (c *Controller) SetPhone(raw string) {
	c.draft.Phone = FormatPhone(raw)
	c.clear(FieldEmail)
}

// SetTaxID stores the masked CPF.
func (c *Controller) SetTaxID(raw string) {
	c.draft.TaxID = FormatCPF(raw)
}

func (c *Controller) SetReceiveResponse(on bool) {
	c.draft.ReceiveResponse = on
	c.clear(FieldEmail)
}

func (c *Controller) SetAgreeTerms(on bool) {
	c.draft.AgreeTerms = on
	c.clear(FieldTerms)
}

// SetRecordedAudio attaches a finished recording; nil removes it.
func (c *Controller) SetRecordedAudio(f *model.MediaFile, description string) {
	c.draft.RecordedAudio = f
	c.draft.RecordedAudioDescription = description
	c.clear(FieldContent)
}

// AttachAudio attaches an uploaded audio file.
func (c *Controller) AttachAudio(f *model.MediaFile) error {
	if err := c.checkMedia(FieldAudio, MediaAudio, f); err != nil {
		return err
	}
	c.draft.AudioFile = f
	c.draft.AudioDescription = ""
	return nil
}

// AddImage appends an image, up to MaxImages.
func (c *Controller) AddImage(f *model.MediaFile) error {
	if len(c.draft.Images) >= MaxImages {
		msg := fmt.Sprintf("Você pode anexar até %d arquivos.", MaxImages)
		c.errors[FieldImages] = msg
		return model.NewValidationError(FieldImages, msg)
	}
	if err := c.checkMedia(FieldImages, MediaImage, f); err != nil {
		return err
	}
	c.draft.Images = append(c.draft.Images, *f)
	c.draft.ImageDescriptions = append(c.draft.ImageDescriptions, "")
	return nil
}

// RemoveImage drops the image at i together with its description.
func (c *Controller) RemoveImage(i int) {
	if i < 0 || i >= len(c.draft.Images) {
		return
	}
	c.draft.Images = append(c.draft.Images[:i:i], c.draft.Images[i+1:]...)
	if i < len(c.draft.ImageDescriptions) {
		c.draft.ImageDescriptions = append(c.draft.ImageDescriptions[:i:i], c.draft.ImageDescriptions[i+1:]...)
	}
	c.clear(FieldImages)
}

func (c *Controller) SetImageDescription(i int, s string) {
	if i >= 0 && i < len(c.draft.ImageDescriptions) {
		c.draft.ImageDescriptions[i] = s
	}
}

// AttachVideo attaches the single video.
func (c *Controller) AttachVideo(f *model.MediaFile) error {
	if err := c.checkMedia(FieldVideo, MediaVideo, f); err != nil {
		return err
	}
	c.draft.Video = f
	c.draft.VideoDescription = ""
	return nil
}

func (c *Controller) SetAudioDescription(s string) { c.draft.AudioDescription = s }
func (c *Controller) SetVideoDescription(s string) { c.draft.VideoDescription = s }

func (c *Controller) RemoveAudio() { c.draft.AudioFile, c.draft.AudioDescription = nil, "" }
func (c *Controller) RemoveVideo() { c.draft.Video, c.draft.VideoDescription = nil, "" }

func (c *Controller) checkMedia(field string, kind MediaKind, f *model.MediaFile) error {
	if msg := CheckMedia(kind, f); msg != "" {
		c.errors[field] = msg
		return model.NewValidationError(field, msg)
	}
	c.clear(field, FieldContent)
	return nil
}
