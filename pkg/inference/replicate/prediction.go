package replicate

import (
	"fmt"
	"strings"
)

// Prediction statuses.
const (
	StatusStarting   = "starting"
	StatusProcessing = "processing"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)

// Prediction mirrors the prediction resource.
type Prediction struct {
	ID      string         `json:"id"`
	Model   string         `json:"model,omitempty"`
	Version string         `json:"version,omitempty"`
	Status  string         `json:"status"`
	Output  any            `json:"output,omitempty"`
	Error   any            `json:"error,omitempty"`
	Logs    string         `json:"logs,omitempty"`
	URLs    PredictionURLs `json:"urls"`
}

// PredictionURLs are the follow-up endpoints of a prediction.
type PredictionURLs struct {
	Get    string `json:"get,omitempty"`
	Cancel string `json:"cancel,omitempty"`
	Stream string `json:"stream,omitempty"`
}

// Terminal reports whether the prediction will not change any more.
func (p Prediction) Terminal() bool {
	switch p.Status {
	case StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	default:
		return false
	}
}

func (p Prediction) errorMessage() string {
	switch value := p.Error.(type) {
	case nil:
		return ""
	case string:
		return value
	default:
		return fmt.Sprint(value)
	}
}

type createRequest struct {
	Version string         `json:"version,omitempty"`
	Input   map[string]any `json:"input"`
	Stream  bool           `json:"stream,omitempty"`
}

// modelRef is a parsed `owner/name[:version]` identifier.
type modelRef struct {
	Owner   string
	Name    string
	Version string
}

func parseModelRef(id string) (modelRef, error) {
	trimmed := strings.TrimSpace(id)
	base, version, _ := strings.Cut(trimmed, ":")
	owner, name, ok := strings.Cut(base, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return modelRef{}, fmt.Errorf("replicate: invalid model id %q, want owner/name[:version]", id)
	}
	return modelRef{Owner: owner, Name: name, Version: version}, nil
}
