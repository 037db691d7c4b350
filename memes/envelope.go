package memes

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/atul-1602/memecraft/httpclient"
)

// ErrMalformedResponse is returned when a body is not the expected JSON shape.
var ErrMalformedResponse = stderrors.New("memes: malformed upstream response")

// LogicalError is a well-formed upstream reply with success=false.
type LogicalError struct {
	Message string
}

func (e *LogicalError) Error() string {
	if e.Message == "" {
		return "memes: upstream reported failure"
	}
	return "memes: upstream reported failure: " + e.Message
}

// envelope is the imgflip get_memes response.
type envelope struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message"`
	Data         *struct {
		Memes []Template `json:"memes"`
	} `json:"data"`
}

// relayWrapper is the allorigins /get shape. The /raw endpoint returns the
// upstream body untouched, so both are accepted.
type relayWrapper struct {
	Contents *string `json:"contents"`
	Status   *struct {
		HTTPCode int `json:"http_code"`
	} `json:"status"`
}

// decodeEnvelope parses an upstream body into templates.
func decodeEnvelope(body []byte) ([]Template, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !env.Success {
		return nil, &LogicalError{Message: env.ErrorMessage}
	}
	if env.Data == nil {
		return nil, fmt.Errorf("%w: success without data", ErrMalformedResponse)
	}
	templates := env.Data.Memes
	if templates == nil {
		templates = []Template{}
	}
	return templates, nil
}

// unwrapRelay strips a relay wrapper if present and returns the upstream body.
// A body carrying neither "contents" nor "status" is passed through as the
// upstream body itself.
func unwrapRelay(body []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return body, nil
	}

	var w relayWrapper
	if err := json.Unmarshal(trimmed, &w); err != nil || (w.Contents == nil && w.Status == nil) {
		return body, nil
	}

	var contents []byte
	if w.Contents != nil {
		contents = []byte(*w.Contents)
	}
	if w.Status != nil && w.Status.HTTPCode != 0 {
		if classErr := httpclient.CheckStatus(w.Status.HTTPCode, contents); classErr != nil {
			return nil, classErr
		}
	}
	if w.Contents == nil {
		return nil, fmt.Errorf("%w: relay wrapper without contents", ErrMalformedResponse)
	}
	return contents, nil
}
