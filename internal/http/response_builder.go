// Package http serves the web UI and its JSON twin.
//
// This file implements the builder used by every handler to assemble a
// response before anything reaches the client, so a failing template never
// leaves a half-written page behind.
package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
)

// ResponseBuilder collects status, headers and body and writes them in one
// go.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       []byte
	err        error
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the response body as bytes.
func (b *ResponseBuilder) Body(content []byte) *ResponseBuilder {
	b.body = content
	return b
}

// JSON encodes v as the body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	data, err := json.Marshal(v)
	if err != nil {
		b.err = fmt.Errorf("encode json: %w", err)
		return b
	}
	b.headers["Content-Type"] = "application/json"
	b.body = append(data, '\n')
	return b
}

// HTML renders the named template of t into the body.
func (b *ResponseBuilder) HTML(t *template.Template, name string, data any) *ResponseBuilder {
	if t == nil {
		b.err = errors.New("templates not loaded")
		return b
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		b.err = fmt.Errorf("render %s: %w", name, err)
		return b
	}
	b.headers["Content-Type"] = "text/html; charset=utf-8"
	b.body = buf.Bytes()
	return b
}

// Redirect turns the response into a 302 to location.
func (b *ResponseBuilder) Redirect(location string) *ResponseBuilder {
	b.statusCode = http.StatusFound
	b.headers["Location"] = location
	return b
}

// Err reports a failure recorded while building the body.
func (b *ResponseBuilder) Err() error {
	return b.err
}

// Write sends the response. When building failed it sends a bare 500
// instead and returns the build error.
func (b *ResponseBuilder) Write(w http.ResponseWriter) error {
	if b.err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return b.err
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
	return nil
}

// ErrorResponse creates a plain HTML error fragment. The message is
// escaped.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().
		Status(statusCode).
		Header("Content-Type", "text/html; charset=utf-8").
		Body([]byte(`<div class="error">` + template.HTMLEscapeString(message) + `</div>`))
}

// JSONError creates {"error": message}.
func JSONError(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(map[string]string{"error": message})
}

func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}
