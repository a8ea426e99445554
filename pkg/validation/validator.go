package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	validatorengine "github.com/go-playground/validator/v10"

	"github.com/khoahotran/devconnector/pkg/apperror"
)

// DateLayouts are the accepted wire formats for calendar dates.
var DateLayouts = []string{"2006-01-02", time.RFC3339}

// ParseDate parses s with the first matching layout of DateLayouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// StructValidator wraps validator/v10 and turns its errors into apperror field errors.
// Messages use the `label` struct tag, falling back to the json name.
type StructValidator struct {
	validator *validatorengine.Validate
}

func NewStructValidator() *StructValidator {
	v := validatorengine.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	// Empty strings are left to `required`.
	_ = v.RegisterValidation("date", func(fl validatorengine.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		_, err := ParseDate(s)
		return err == nil
	})
	return &StructValidator{validator: v}
}

// ValidateStruct returns nil or an *apperror.AppError carrying one FieldError per failed field.
func (sv *StructValidator) ValidateStruct(data any) error {
	err := sv.validator.Struct(data)
	if err == nil {
		return nil
	}

	var verrs validatorengine.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.NewInvalidInput("request body cannot be validated", err)
	}

	t := reflect.TypeOf(data)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	fields := make([]apperror.FieldError, 0, len(verrs))
	seen := make(map[string]bool)
	for _, fe := range verrs {
		if seen[fe.Field()] {
			continue
		}
		seen[fe.Field()] = true
		fields = append(fields, apperror.FieldError{
			Msg:      message(labelOf(t, fe), fe),
			Param:    fe.Field(),
			Value:    valueOf(fe),
			Location: "body",
		})
	}
	return apperror.NewValidation(fields)
}

func labelOf(t reflect.Type, fe validatorengine.FieldError) string {
	if t.Kind() == reflect.Struct {
		if f, ok := t.FieldByName(fe.StructField()); ok {
			if label := f.Tag.Get("label"); label != "" {
				return label
			}
		}
	}
	name := fe.Field()
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func message(label string, fe validatorengine.FieldError) string {
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "min":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.String {
			return label + " is required"
		}
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "date":
		return label + " must be a valid date"
	case "url":
		return label + " must be a valid URL"
	case "email":
		return "Please include a valid email"
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

func valueOf(fe validatorengine.FieldError) any {
	v := fe.Value()
	if s, ok := v.(string); ok && s == "" {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice && rv.Len() == 0 {
		return nil
	}
	return v
}
