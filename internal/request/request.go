// Package request parses raw HTTP/1.1 request streams into structured
// requests: request line, query parameters, headers and multipart form
// bodies. The parser is deliberately permissive; only an empty stream, an
// unusable request line or an unknown method are failures.
package request

import (
	"encoding/json"
	"sort"
	"strings"

	fwerrors "fredwork/internal/errors"
)

// Method is one of the four request methods the core accepts.
type Method string

const (
	GET    Method = "GET"
	POST   Method = "POST"
	PUT    Method = "PUT"
	DELETE Method = "DELETE"
)

// Methods lists the accepted methods in table order.
var Methods = []Method{GET, POST, PUT, DELETE}

// ParseMethod validates a request-line method token. Matching is exact:
// "get" is not GET.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case GET, POST, PUT, DELETE:
		return Method(s), nil
	}
	return "", fwerrors.New(fwerrors.UnsupportedMethod, "unknown request", nil).
		WithDetails(map[string]string{"method": s})
}

// Query maps parameter names to optional values. A nil value means the
// parameter appeared without '='.
type Query map[string]*string

// Has reports whether the parameter was present at all.
func (q Query) Has(name string) bool {
	_, ok := q[name]
	return ok
}

// Value returns the parameter value. ok is false when the parameter is
// missing or was given without a value.
func (q Query) Value(name string) (value string, ok bool) {
	v, present := q[name]
	if !present || v == nil {
		return "", false
	}
	return *v, true
}

// MarshalJSON renders absent values as null.
func (q Query) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(q))
	for k, v := range q {
		if v == nil {
			out[k] = nil
			continue
		}
		out[k] = *v
	}
	return json.Marshal(out)
}

// Headers maps header names, exactly as received minus the trailing colon,
// to their values. Lookups are case-sensitive.
type Headers map[string]string

// Get returns the value for the exact header name.
func (h Headers) Get(name string) (string, bool) {
	v, ok := h[name]
	return v, ok
}

// Names returns the header names in sorted order.
func (h Headers) Names() []string {
	names := make([]string, 0, len(h))
	for k := range h {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Form holds multipart body fields.
type Form map[string]string

// Request is a parsed inbound request. It is built once per connection and
// not modified afterwards.
type Request struct {
	Method  Method  `json:"method"`
	Target  string  `json:"target"`
	Path    string  `json:"path"`
	Version string  `json:"version,omitempty"`
	Query   Query   `json:"query"`
	Headers Headers `json:"headers"`
	Form    Form    `json:"form,omitempty"`
	Body    string  `json:"body,omitempty"`
}

// ParseTarget splits a request target into its path and query parameters.
// Only the first '?' separates the two; each '&' piece is split on its first
// '='. Later duplicates overwrite earlier ones. No percent-decoding is done.
func ParseTarget(target string) (string, Query) {
	query := Query{}
	path, rawQuery, found := strings.Cut(target, "?")
	if !found {
		return path, query
	}
	for _, piece := range strings.Split(rawQuery, "&") {
		if piece == "" {
			continue
		}
		key, value, hasValue := strings.Cut(piece, "=")
		if !hasValue {
			query[key] = nil
			continue
		}
		v := value
		query[key] = &v
	}
	return path, query
}

// ParseHeaderLine splits a header line on whitespace. The first token, with
// its trailing colon removed, is the name and the remaining tokens joined by
// single spaces are the value. Lines with fewer than two tokens are not
// headers.
func ParseHeaderLine(line string) (name, value string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", "", false
	}
	return strings.TrimSuffix(fields[0], ":"), strings.Join(fields[1:], " "), true
}

// ParseMultipart extracts form fields from a multipart body. For every line
// containing Content-Disposition the third whitespace token names the field
// and the line two positions later holds its value. Anything that does not
// fit this shape is skipped.
func ParseMultipart(body string) Form {
	form := Form{}
	lines := strings.Split(body, "\r\n")
	for i := 0; i < len(lines); i++ {
		if !strings.Contains(lines[i], "Content-Disposition") {
			continue
		}
		fields := strings.Fields(lines[i])
		if len(fields) < 3 {
			continue
		}
		name := fieldName(fields[2])
		if i+2 < len(lines) {
			form[name] = lines[i+2]
		}
		i += 2
	}
	return form
}

// fieldName strips the name="..." wrapper from a disposition token.
func fieldName(token string) string {
	token = strings.TrimSuffix(token, ";")
	token = strings.TrimPrefix(token, "name=")
	return strings.Trim(token, `"`)
}
