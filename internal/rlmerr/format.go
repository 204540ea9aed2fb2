package rlmerr

import (
	"encoding/json"
	"fmt"
)

// FormatForCLI renders a single-line error with suggestion, per §7's
// "text format prints a single-line error with suggestion".
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}
	e, ok := err.(*Error)
	if !ok {
		return fmt.Sprintf("Error: %s", err.Error())
	}
	if e.Suggestion != "" {
		return fmt.Sprintf("Error: %s (%s)", e.Message, e.Suggestion)
	}
	return fmt.Sprintf("Error: %s", e.Message)
}

// Envelope is the JSON shape spec §6 names ErrorEnvelope.
type Envelope struct {
	Success bool          `json:"success"`
	Error   EnvelopeError `json:"error"`
}

// EnvelopeError is the nested `error` object of Envelope.
type EnvelopeError struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// ToEnvelope builds the ErrorEnvelope JSON shape for err.
func ToEnvelope(err error) Envelope {
	e, ok := err.(*Error)
	if !ok {
		return Envelope{Success: false, Error: EnvelopeError{Type: string(KindGeneric), Message: err.Error()}}
	}
	return Envelope{
		Success: false,
		Error: EnvelopeError{
			Type:       string(e.Kind),
			Message:    e.Message,
			Suggestion: e.Suggestion,
		},
	}
}

// FormatJSON marshals the ErrorEnvelope for err.
func FormatJSON(err error) ([]byte, error) {
	return json.Marshal(ToEnvelope(err))
}
