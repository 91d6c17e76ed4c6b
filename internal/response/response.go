// Package response formats the fixed 200 OK responses the core produces and
// provides the sink handlers write them through.
package response

import (
	"fmt"
	"io"
	"sync"
)

const (
	// StatusLine is the only status line ever produced.
	StatusLine = "HTTP/1.1 200 OK"
	// ServerToken is sent in the Server header.
	ServerToken = "FredWork/0.1.0"

	ContentTypeHTML = "text/html"
	ContentTypeJSON = "application/json"
)

// FormatHTML wraps body in a text/html response.
func FormatHTML(body string) []byte {
	return format(ContentTypeHTML, body)
}

// FormatJSON wraps body in an application/json response.
func FormatJSON(body string) []byte {
	return format(ContentTypeJSON, body)
}

func format(contentType, body string) []byte {
	return []byte(fmt.Sprintf(
		"%s\r\nServer: %s\r\nContent-Type: %s\r\nContent-Length: %d\r\n\r\n%s",
		StatusLine, ServerToken, contentType, len(body), body,
	))
}

// Sink is the response side of one connection. Only the first response
// written through it reaches the underlying writer.
type Sink struct {
	w           io.Writer
	mu          sync.Mutex
	written     bool
	bytes       int
	contentType string
	err         error
}

// NewSink creates a sink writing to w.
func NewSink(w io.Writer) *Sink {
	return &Sink{w: w}
}

// HTML writes body as a text/html response.
func (s *Sink) HTML(body string) error {
	return s.write(ContentTypeHTML, FormatHTML(body))
}

// JSON writes body as an application/json response.
func (s *Sink) JSON(body string) error {
	return s.write(ContentTypeJSON, FormatJSON(body))
}

func (s *Sink) write(contentType string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.written {
		return fmt.Errorf("response already written")
	}
	s.written = true
	s.contentType = contentType

	n, err := s.w.Write(data)
	s.bytes = n
	if err != nil {
		s.err = fmt.Errorf("failed to write response: %w", err)
		return s.err
	}
	return nil
}

// Written reports whether a response was sent.
func (s *Sink) Written() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}

// Bytes returns how many bytes reached the writer.
func (s *Sink) Bytes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytes
}

// ContentType returns the content type of the written response, if any.
func (s *Sink) ContentType() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contentType
}

// Err returns the write error, if any.
func (s *Sink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
