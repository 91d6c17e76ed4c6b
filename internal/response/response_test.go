package response

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestFormatHTML(t *testing.T) {
	got := string(FormatHTML("<h1>hi</h1>"))
	want := "HTTP/1.1 200 OK\r\n" +
		"Server: FredWork/0.1.0\r\n" +
		"Content-Type: text/html\r\n" +
		"Content-Length: 11\r\n" +
		"\r\n" +
		"<h1>hi</h1>"
	if got != want {
		t.Errorf("FormatHTML() =\n%q\nwant\n%q", got, want)
	}
}

func TestFormatJSON(t *testing.T) {
	got := string(FormatJSON(`{"ok":true}`))
	if !strings.HasPrefix(got, "HTTP/1.1 200 OK\r\n") {
		t.Errorf("missing status line: %q", got)
	}
	if !strings.Contains(got, "Content-Type: application/json\r\n") {
		t.Errorf("missing JSON content type: %q", got)
	}
	if !strings.HasSuffix(got, "\r\n\r\n{\"ok\":true}") {
		t.Errorf("body not at end: %q", got)
	}
}

func TestFormat_ContentLengthCountsBytes(t *testing.T) {
	body := "héllo" // é is two bytes
	got := string(FormatHTML(body))
	if !strings.Contains(got, "Content-Length: 6\r\n") {
		t.Errorf("Content-Length should be byte length, got %q", got)
	}
}

func TestSink(t *testing.T) {
	t.Run("first write wins", func(t *testing.T) {
		var buf bytes.Buffer
		s := NewSink(&buf)

		if s.Written() {
			t.Fatal("new sink should not be written")
		}
		if err := s.HTML("one"); err != nil {
			t.Fatalf("HTML() error = %v", err)
		}
		if err := s.JSON("two"); err == nil {
			t.Error("second write should fail")
		}
		if !strings.HasSuffix(buf.String(), "one") {
			t.Errorf("output = %q", buf.String())
		}
		if s.ContentType() != ContentTypeHTML {
			t.Errorf("ContentType() = %q", s.ContentType())
		}
		if s.Bytes() != buf.Len() {
			t.Errorf("Bytes() = %d, want %d", s.Bytes(), buf.Len())
		}
	})

	t.Run("write error kept", func(t *testing.T) {
		s := NewSink(failingWriter{})
		if err := s.JSON("{}"); err == nil {
			t.Fatal("expected write error")
		}
		if s.Err() == nil {
			t.Error("Err() should report the write failure")
		}
		if !s.Written() {
			t.Error("a failed write still counts as the response")
		}
	})
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }
