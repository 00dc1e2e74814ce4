package protocol

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/filedock/internal/models"
)

var (
	segmentRule = validation.By(func(v interface{}) error {
		s, _ := v.(string)
		if !models.ValidSegment(s) {
			return errors.New("must be a single path segment")
		}
		return nil
	})

	browseTargetRule = validation.By(func(v interface{}) error {
		s, _ := v.(string)
		if s != models.ParentMarker && !models.ValidSegment(s) {
			return errors.New("must be a path segment or \"..\"")
		}
		return nil
	})

	entryRule = validation.By(func(v interface{}) error {
		e, ok := v.(models.Entry)
		if !ok {
			return errors.New("must be an entry")
		}
		return validation.ValidateStruct(&e,
			validation.Field(&e.Name, validation.Required, browseTargetRule),
			validation.Field(&e.Type, validation.Required, validation.In(models.EntryFile, models.EntryFolder)),
		)
	})
)

// Validate validates the dialog mode.
func (m SetDialogType) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Mode, validation.Required, validation.In(models.ModeOpen, models.ModeSave)),
	)
}

// Validate validates every listed entry.
func (m ShowList) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Entries, validation.Each(entryRule)),
	)
}

// Validate validates the browse target.
func (m DialogBrowse) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Target, validation.Required, browseTargetRule),
	)
}

// Validate validates the chosen name.
func (m DialogOpen) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Name, validation.Required, segmentRule),
	)
}

// Validate validates the chosen name.
func (m DialogSave) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Name, validation.Required, segmentRule),
	)
}
