package core

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	// custom validation tags & texts
	usernameTag   = "username_"
	usernameText  = "only letters, digits, underscores, dots and dashes are allowed"
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

	phoneTag   = "phone_vn"
	phoneText  = "contact number must be 10 digits starting with 0"
	phoneRegex = regexp.MustCompile(`^0\d{9}$`)

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

func init() {
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	Translator, _ = uni.GetTranslator("en")

	Validate = validator.New()
	_ = entranslations.RegisterDefaultTranslations(Validate, Translator)

	// Use JSON tag names for errors instead of Go struct names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = Validate.RegisterValidation(usernameTag, usernameValidation)
	registerCustomTranslation(usernameTag, usernameText)

	_ = Validate.RegisterValidation(phoneTag, phoneValidation)
	registerCustomTranslation(phoneTag, phoneText)

	registerCustomTranslation(requiredTag, requiredText, true)
	registerCustomTranslation(requiredWithTag, requiredText, true)
}

func registerCustomTranslation(tag, text string, override ...bool) {
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

// TranslateError converts a validator error into a ValidationError carrying a
// translated FieldError per failed field. Non-validator errors pass through.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	flds := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		flds = append(flds, FieldError{Field: fe.Field(), Error: fe.Field() + ": " + fe.Translate(Translator)})
	}
	return NewValidationError(err, flds...)
}

// Custom Global Validators

func usernameValidation(fl validator.FieldLevel) bool {
	return usernameRegex.MatchString(fl.Field().String())
}

func phoneValidation(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(fl.Field().String())
}
