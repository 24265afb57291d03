package events

import (
	"encoding/json"
	"strings"
)

// Detail is the event payload that links the fetch stage to the process stage.
type Detail struct {
	FileKey string `json:"file_key"`
}

// EncodeDetail returns the JSON representation of a detail payload.
func EncodeDetail(d Detail) ([]byte, error) {
	return json.Marshal(d)
}

// DecodeDetail parses a JSON payload into a Detail.
func DecodeDetail(payload []byte) (Detail, error) {
	var d Detail
	if err := json.Unmarshal(payload, &d); err != nil {
		return Detail{}, err
	}
	return d, nil
}

// ErrEmptyDetail indicates an empty event payload.
type ErrEmptyDetail struct{}

func (ErrEmptyDetail) Error() string { return "empty event detail" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Err error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode event detail"
	}
	return "decode event detail: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

// ErrMissingFileKey indicates a detail without a file key.
type ErrMissingFileKey struct{}

func (ErrMissingFileKey) Error() string { return "missing file key" }

// ParseDetail validates and decodes an event detail payload.
func ParseDetail(body []byte) (Detail, error) {
	if strings.TrimSpace(string(body)) == "" {
		return Detail{}, ErrEmptyDetail{}
	}
	d, err := DecodeDetail(body)
	if err != nil {
		return Detail{}, ErrDecode{Err: err}
	}
	if strings.TrimSpace(d.FileKey) == "" {
		return d, ErrMissingFileKey{}
	}
	return d, nil
}
