// internal/domain/homework/response.go
package homework

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Response is a validated homework API answer.
type Response struct {
	// Homeworks holds the raw entries; each one is checked by ParseSubmission.
	Homeworks []any
	// CurrentDate is the server watermark; HasCurrentDate is false when the field was absent.
	CurrentDate    int64
	HasCurrentDate bool
}

// DecodeResponse checks the shape of a raw API body.
// The body must be a JSON object holding a "homeworks" array. An empty array is valid.
func DecodeResponse(body []byte) (*Response, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: response is not valid JSON: %v", ErrShape, err)
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: API response is not an object", ErrShape)
	}

	homeworksRaw, ok := obj["homeworks"]
	if !ok {
		return nil, fmt.Errorf("%w: \"homeworks\"", ErrMissingField)
	}
	homeworks, ok := homeworksRaw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: \"homeworks\" is not a list", ErrShape)
	}

	resp := &Response{Homeworks: homeworks}

	if dateRaw, ok := obj["current_date"]; ok && dateRaw != nil {
		num, ok := dateRaw.(json.Number)
		if !ok {
			return nil, fmt.Errorf("%w: \"current_date\" is not a number", ErrShape)
		}
		date, err := num.Int64()
		if err != nil {
			return nil, fmt.Errorf("%w: \"current_date\" is not an integer: %v", ErrShape, err)
		}
		resp.CurrentDate = date
		resp.HasCurrentDate = true
	}

	return resp, nil
}

// ParseSubmission extracts the name and status of one homework entry and
// resolves its verdict.
func ParseSubmission(item any) (Submission, string, error) {
	obj, ok := item.(map[string]any)
	if !ok {
		return Submission{}, "", fmt.Errorf("%w: homework entry is not an object", ErrShape)
	}

	name, err := stringField(obj, "homework_name")
	if err != nil {
		return Submission{}, "", err
	}
	code, err := stringField(obj, "status")
	if err != nil {
		return Submission{}, "", err
	}

	sub := Submission{Name: name, Status: Status(code)}
	verdict, err := Verdict(sub.Status)
	if err != nil {
		return sub, "", fmt.Errorf("homework %q: %w", name, err)
	}
	return sub, verdict, nil
}

func stringField(obj map[string]any, key string) (string, error) {
	raw, ok := obj[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrMissingField, key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q is not a string", ErrShape, key)
	}
	return s, nil
}
