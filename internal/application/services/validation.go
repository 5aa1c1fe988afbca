package services

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/taskmaster/taskflow/internal/domain/entities"
)

var projectColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Validator checks request structs and reports failures as *entities.ValidationError
// keyed by JSON field name.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator with the application's custom rules
func NewValidator() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("project_color", func(fl validator.FieldLevel) bool {
		return projectColorPattern.MatchString(fl.Field().String())
	})

	return &Validator{validate: v}
}

// Validate implements echo.Validator
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate request: %w", err)
	}

	verr := &entities.ValidationError{}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), fieldMessage(fe))
	}
	return verr
}

func fieldMessage(fe validator.FieldError) string {
	label := fieldLabel(fe.Field())

	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "min":
		if fe.Param() == "1" {
			return label + " is required"
		}
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "email":
		return "Invalid email address"
	case "project_color":
		return "Invalid color format"
	case "uuid":
		return "Invalid " + strings.ToLower(label)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return label + " is invalid"
	}
}

// fieldLabel turns "due_date" into "Due date".
func fieldLabel(field string) string {
	words := strings.ReplaceAll(field, "_", " ")
	if words == "" {
		return "Value"
	}
	return strings.ToUpper(words[:1]) + words[1:]
}

var dueDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseDueDate accepts RFC 3339, a zoneless datetime with or without
// seconds, or a plain date. Values without a zone are read as UTC.
func parseDueDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, entities.NewValidationError("due_date", "Invalid date")
}

// parseProjectID reads an optional project reference; empty means none.
func parseProjectID(raw *string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, entities.NewValidationError("project_id", "Invalid project id")
	}
	return &id, nil
}

// normalizeDescription maps an empty description to no description.
func normalizeDescription(desc *string) *string {
	if desc == nil {
		return nil
	}
	if strings.TrimSpace(*desc) == "" {
		return nil
	}
	return desc
}
