package models

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	// custom validation tags & texts
	timeOfDayTag  = "timeofday"
	timeOfDayText = "{0} must look like 14:00 or 2:00 PM"

	eventTypeTag  = "eventtype"
	eventTypeText = "{0} must be one of task, school, social, custom, class, club, study, personal"

	requiredTag  = "required"
	requiredText = "this field is required"
)

func init() {
	Validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// Use JSON tag names for errors instead of Go struct names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = Validate.RegisterValidation(timeOfDayTag, timeOfDayValidation)
	RegisterCustomTranslation(timeOfDayTag, timeOfDayText)

	_ = Validate.RegisterValidation(eventTypeTag, eventTypeValidation)
	RegisterCustomTranslation(eventTypeTag, eventTypeText)

	RegisterCustomTranslation(requiredTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = Validate.RegisterTranslation(
		tag, Translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// FieldErrors flattens validator errors into field -> message pairs.
// Errors that are not validation errors yield nil.
func FieldErrors(err error) []FieldError {
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return nil
	}
	flds := make([]FieldError, 0, len(vErrs))
	for _, fe := range vErrs {
		flds = append(flds, FieldError{Field: fe.Field(), Error: fe.Translate(Translator)})
	}
	return flds
}

func timeOfDayValidation(fl validator.FieldLevel) bool {
	_, _, err := ParseTimeOfDay(fl.Field().String())
	return err == nil
}

func eventTypeValidation(fl validator.FieldLevel) bool {
	val := EventType(fl.Field().String())
	for _, t := range EventTypes {
		if t == val {
			return true
		}
	}
	return false
}
