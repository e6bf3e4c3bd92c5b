// Package httpx provides HTTP response utilities following RFC7807 problem details.
package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	maxBodyBytes = 1 << 20

	contentTypeJSON    = "application/json"
	contentTypeProblem = "application/problem+json"

	// problemTypeDefault is the RFC7807 type for problems with no extra semantics.
	problemTypeDefault = "about:blank"
)

// ProblemDetail represents RFC7807 problem details.
type ProblemDetail struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, contentTypeJSON, status, data)
}

// Created sends a 201 with a Location header pointing at the new resource.
func Created(w http.ResponseWriter, location string, data any) {
	if location != "" {
		w.Header().Set("Location", location)
	}
	write(w, contentTypeJSON, http.StatusCreated, data)
}

// Problem sends an RFC7807 problem details response.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	write(w, contentTypeProblem, status, ProblemDetail{
		Type:   problemTypeDefault,
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// ProblemFor is Problem with the request path recorded as the instance.
func ProblemFor(w http.ResponseWriter, r *http.Request, status int, title, detail string) {
	p := ProblemDetail{Type: problemTypeDefault, Title: title, Status: status, Detail: detail}
	if r != nil && r.URL != nil {
		p.Instance = r.URL.Path
	}
	write(w, contentTypeProblem, status, p)
}

func write(w http.ResponseWriter, contentType string, status int, body any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if body == nil || status == http.StatusNoContent {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

// DecodeJSON decodes a bounded JSON request body into target. Malformed
// bodies are reported as ErrValidation.
func DecodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", ErrValidation, err)
	}
	return nil
}
