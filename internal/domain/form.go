package domain

import (
	"fmt"
	"slices"
	"strings"
)

// FormResponses maps a form field label to the participant's answer.
type FormResponses map[string]any

// ValidateResponses checks answers against the event's declared form.
// Unknown labels are rejected; JSON numbers arrive as float64.
func ValidateResponses(fields []FormField, responses FormResponses) error {
	byLabel := make(map[string]FormField, len(fields))
	for _, f := range fields {
		byLabel[f.Label] = f
	}

	for label := range responses {
		if _, ok := byLabel[label]; !ok {
			return Invalid(fmt.Sprintf("unknown form field %q", label))
		}
	}

	for _, f := range fields {
		value, present := responses[f.Label]
		if !present || isBlank(value) {
			if f.Required {
				return Invalid(fmt.Sprintf("field %q is required", f.Label))
			}
			continue
		}

		if err := checkValue(f, value); err != nil {
			return err
		}
	}

	return nil
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	}

	return false
}

func checkValue(f FormField, value any) error {
	wrongType := Invalid(fmt.Sprintf("field %q expects a %s value", f.Label, f.FieldType))

	switch f.FieldType {
	case FieldText, FieldFile:
		if _, ok := value.(string); !ok {
			return wrongType
		}
	case FieldNumber:
		switch value.(type) {
		case float64, float32, int, int64:
		default:
			return wrongType
		}
	case FieldDropdown:
		s, ok := value.(string)
		if !ok {
			return wrongType
		}
		if !slices.Contains(f.Options, s) {
			return Invalid(fmt.Sprintf("field %q: %q is not an allowed option", f.Label, s))
		}
	case FieldCheckbox:
		switch t := value.(type) {
		case bool:
		case []any:
			if len(f.Options) == 0 {
				return wrongType
			}
			for _, item := range t {
				s, ok := item.(string)
				if !ok || !slices.Contains(f.Options, s) {
					return Invalid(fmt.Sprintf("field %q: %v is not an allowed option", f.Label, item))
				}
			}
		default:
			return wrongType
		}
	}

	return nil
}
