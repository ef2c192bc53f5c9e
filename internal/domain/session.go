package domain

import "time"

// Image is one generated payload, base64-encoded as delivered by the
// provider gateways.
type Image struct {
	B64      string `json:"b64"`
	MimeType string `json:"mime_type,omitempty"`
}

// GenerationOutcome is the terminal result recorded for a single prompt:
// either a run of images, or a failure description. Exactly one outcome
// exists per resolved prompt.
type GenerationOutcome struct {
	Prompt      string      `json:"prompt"`
	Images      []Image     `json:"images,omitempty"`
	Error       string      `json:"error,omitempty"`
	FailureKind FailureKind `json:"failure_kind,omitempty"`
}

func (o GenerationOutcome) Succeeded() bool {
	return o.Error == ""
}

// Session is one batch run's ordered outcome sequence. It grows in place
// while the run is live and is never mutated after the run ends or is
// cancelled.
type Session struct {
	ID        string              `json:"id"`
	CreatedAt time.Time           `json:"created_at"`
	Outcomes  []GenerationOutcome `json:"outcomes"`
}
