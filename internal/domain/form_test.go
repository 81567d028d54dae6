package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateResponses(t *testing.T) {
	fields := []FormField{
		{Label: "Team", FieldType: FieldText, Required: true},
		{Label: "Size", FieldType: FieldNumber},
		{Label: "Track", FieldType: FieldDropdown, Options: []string{"web", "ml"}},
		{Label: "Diet", FieldType: FieldCheckbox, Options: []string{"veg", "vegan"}},
		{Label: "Agree", FieldType: FieldCheckbox, Required: true},
	}

	tests := []struct {
		name      string
		responses FormResponses
		reason    string
	}{
		{
			name:      "all valid",
			responses: FormResponses{"Team": "rockets", "Size": float64(3), "Track": "ml", "Diet": []any{"veg"}, "Agree": true},
		},
		{
			name:      "optional fields omitted",
			responses: FormResponses{"Team": "rockets", "Agree": true},
		},
		{
			name:      "required blank",
			responses: FormResponses{"Team": " ", "Agree": true},
			reason:    `field "Team" is required`,
		},
		{
			name:      "unknown label",
			responses: FormResponses{"Team": "x", "Agree": true, "Shoe": "42"},
			reason:    `unknown form field "Shoe"`,
		},
		{
			name:      "number as string",
			responses: FormResponses{"Team": "x", "Agree": true, "Size": "3"},
			reason:    `field "Size" expects a number value`,
		},
		{
			name:      "dropdown outside options",
			responses: FormResponses{"Team": "x", "Agree": true, "Track": "iot"},
			reason:    `field "Track": "iot" is not an allowed option`,
		},
		{
			name:      "checkbox list outside options",
			responses: FormResponses{"Team": "x", "Agree": true, "Diet": []any{"keto"}},
			reason:    `field "Diet": keto is not an allowed option`,
		},
		{
			name:      "checkbox wrong type",
			responses: FormResponses{"Team": "x", "Agree": "yes"},
			reason:    `field "Agree" expects a checkbox value`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateResponses(fields, tt.responses)
			if tt.reason == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, KindInvalidInput, KindOf(err))
			assert.Equal(t, tt.reason, ReasonOf(err))
		})
	}
}
