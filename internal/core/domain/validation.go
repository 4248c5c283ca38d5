package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var ErrValidation = errors.New("validation failed")

const (
	RuleRequired       = "required"
	RuleMaxLength      = "max_length"
	RuleRange          = "range"
	RuleOneOf          = "one_of"
	RuleFormat         = "format"
	RuleDurationMatch  = "duration_match"
	RuleFixedTaskCount = "fixed_task_count"
	RuleNonNegative    = "non_negative"
	RuleReference      = "reference"
)

const (
	MaxNameLen    = 100
	MaxDescLen    = 500
	MaxNotesLen   = 1000
	MinDuration   = 1
	MaxDuration   = 365
	MaxCaptionLen = 500
)

var scheduledTimeRegex = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):[0-5][0-9]$`)

// Violation is a single failed rule on a single field.
type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError collects every violation found on a record, so a client
// can display all problems at once.
type ValidationError struct {
	Entity     string      `json:"entity"`
	Violations []Violation `json:"violations"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}
	return fmt.Sprintf("invalid %s: %s", e.Entity, strings.Join(msgs, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Has reports whether a violation of rule on field was recorded.
func (e *ValidationError) Has(field, rule string) bool {
	for _, v := range e.Violations {
		if v.Field == field && v.Rule == rule {
			return true
		}
	}
	return false
}

type validator struct {
	entity     string
	violations []Violation
}

func newValidator(entity string) *validator {
	return &validator{entity: entity}
}

func (v *validator) add(field, rule, format string, args ...any) {
	v.violations = append(v.violations, Violation{
		Field:   field,
		Rule:    rule,
		Message: fmt.Sprintf(format, args...),
	})
}

func (v *validator) requiredText(field, value string, max int) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		v.add(field, RuleRequired, "%s cannot be empty", field)
		return
	}
	v.maxText(field, trimmed, max)
}

func (v *validator) maxText(field, value string, max int) {
	if utf8.RuneCountInString(value) > max {
		v.add(field, RuleMaxLength, "%s is too long (max %d chars)", field, max)
	}
}

func (v *validator) requiredID(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.add(field, RuleRequired, "%s is required", field)
	}
}

func (v *validator) err() error {
	if len(v.violations) == 0 {
		return nil
	}
	return &ValidationError{Entity: v.entity, Violations: v.violations}
}

// ValidationErrorOf extracts a *ValidationError from err, if any.
func ValidationErrorOf(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
