package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	apperrors "github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/internal/core/common/i18n"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

// Validator checks request DTOs and turns failures into localized AppErrors.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// New builds a validator with its own translator for the catalog's locale.
func New(catalog *i18n.Catalog) (*Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	english := en.New()
	uni := ut.New(english, english, zh.New())
	trans, found := uni.GetTranslator(catalog.Locale())
	if !found {
		return nil, fmt.Errorf("unsupported locale %q", catalog.Locale())
	}

	var err error
	switch catalog.Locale() {
	case i18n.LocaleChinese:
		err = zh_translations.RegisterDefaultTranslations(validate, trans)
	default:
		err = en_translations.RegisterDefaultTranslations(validate, trans)
	}
	if err != nil {
		return nil, fmt.Errorf("register validator translations: %w", err)
	}

	return &Validator{validate: validate, trans: trans}, nil
}

// Struct validates v. A failed "required" rule is reported as MISSING_FIELD,
// everything else as VALIDATION_FAILED.
func (v *Validator) Struct(s interface{}) *apperrors.AppError {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.NewValidationError(err.Error(), apperrors.ErrCodeValidationFailed)
	}

	details := apperrors.ValidationErrors{Errors: make([]apperrors.ValidationError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		details.Errors = append(details.Errors, apperrors.ValidationError{
			Field:   fe.Field(),
			Message: fe.Translate(v.trans),
			Code:    fe.Tag(),
		})
	}

	first := fieldErrs[0]
	code := apperrors.ErrCodeValidationFailed
	if first.Tag() == "required" {
		code = apperrors.ErrCodeMissingField
	}

	return apperrors.NewValidationError(details.Errors[0].Message, code).
		WithArgs(first.Field()).
		WithDetails(details)
}
