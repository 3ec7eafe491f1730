package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// =============================================================================
// VALIDATOR
// =============================================================================

type validatorSvc struct {
	validate   *validator.Validate
	translator ut.Translator
}

var (
	vOnce sync.Once
	vSvc  *validatorSvc
)

// getValidator returns the validator singleton. Messages use json tag names.
func getValidator() *validatorSvc {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)

		vSvc = &validatorSvc{validate: v, translator: trans}
	})
	return vSvc
}

// =============================================================================
// BINDING
// =============================================================================

// maxBodyBytes bounds request bodies. Rate tables are small.
const maxBodyBytes = 1 << 20

// BindError is a malformed or invalid request body.
type BindError struct {
	Field   string
	Message string
}

func (e *BindError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ParseJSON decodes the body into T and validates its struct tags.
// Unknown fields and trailing data are rejected.
func ParseJSON[T any](r *http.Request) (T, error) {
	var zero T
	defer r.Body.Close()

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	var dst T
	if err := dec.Decode(&dst); err != nil {
		if errors.Is(err, io.EOF) {
			return zero, &BindError{Message: "empty body"}
		}
		return zero, &BindError{Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if dec.More() {
		return zero, &BindError{Message: "unexpected trailing data"}
	}

	if err := getValidator().validate.Struct(dst); err != nil {
		field, msg := validationFieldAndMessage(err)
		return zero, &BindError{Field: field, Message: msg}
	}
	return dst, nil
}

// validationFieldAndMessage returns the first failing field and its
// translated message.
func validationFieldAndMessage(err error) (field, message string) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fe.Namespace(), fe.Translate(getValidator().translator)
	}
	return "", err.Error()
}
