package middleware

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

type testPayload struct {
	Title    string  `json:"title" validate:"required"`
	Price    float64 `json:"price" validate:"gte=0"`
	MimeType string  `json:"mimeType" validate:"required,startswith=image/"`
}

func TestProperty_RequiredFieldValidationWorks(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("missing required fields are rejected", prop.ForAll(
		func(includeTitle bool, includeMimeType bool) bool {
			reqMap := map[string]interface{}{"price": 10}
			if includeTitle {
				reqMap["title"] = "Oak Table"
			}
			if includeMimeType {
				reqMap["mimeType"] = "image/png"
			}

			reqBody, _ := json.Marshal(reqMap)
			req := httptest.NewRequest("POST", "/test", bytes.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")

			var payload testPayload
			err := DecodeAndValidate(req, &payload)

			if includeTitle && includeMimeType {
				return err == nil
			}
			return err != nil
		},
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_ValidationErrorsAreFormatted(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("validation errors include field information", prop.ForAll(
		func() bool {
			reqMap := map[string]interface{}{
				"title":    "Oak Table",
				"price":    -5,
				"mimeType": "application/pdf",
			}

			reqBody, _ := json.Marshal(reqMap)
			req := httptest.NewRequest("POST", "/test", bytes.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")

			var payload testPayload
			err := DecodeAndValidate(req, &payload)
			if err == nil {
				return false
			}

			validationErrors := FormatValidationErrors(err)
			if len(validationErrors) != 2 {
				return false
			}

			for _, ve := range validationErrors {
				if ve.Field == "" || ve.Message == "" {
					return false
				}
			}

			return true
		},
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestDecodeAndValidate_MalformedJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/test", bytes.NewReader([]byte("{{{")))
	req.Header.Set("Content-Type", "application/json")

	var payload testPayload
	if err := DecodeAndValidate(req, &payload); err == nil {
		t.Fatal("malformed JSON should fail to decode")
	}
}

func TestFormatValidationErrors_NonValidatorError(t *testing.T) {
	req := httptest.NewRequest("POST", "/test", bytes.NewReader([]byte("not json")))

	var payload testPayload
	err := DecodeAndValidate(req, &payload)
	if err == nil {
		t.Fatal("expected a decode error")
	}

	// Decode errors are not field errors; callers fall back to a generic 400.
	if formatted := FormatValidationErrors(err); len(formatted) != 0 {
		t.Fatalf("expected no formatted errors for a decode failure, got %d", len(formatted))
	}
}
