package request

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"

	fwerrors "fredwork/internal/errors"
)

const (
	// MaxHeadBytes bounds the request line and headers together, not
	// counting line terminators.
	MaxHeadBytes = 1 << 20

	// MaxBodyBytes bounds how much of a declared body is read.
	MaxBodyBytes = 10 << 20
)

var errHeadTooLarge = errors.New("request head too large")

// Parse reads one request from r. Lines are consumed up to the first empty
// line (or end of stream); the first is the request line and the rest are
// headers. When a Content-Length header is present the body is read from
// the same buffered stream and decoded as a multipart form.
//
// The body read is Content-Length minus one bytes. Existing clients depend on
// this, so it is kept as is.
func Parse(r io.Reader) (*Request, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}

	lines, err := readHead(br)
	if errors.Is(err, errHeadTooLarge) {
		return nil, fwerrors.New(fwerrors.MalformedRequest, "request head exceeds size limit", err).
			WithDetails(map[string]int{"limit": MaxHeadBytes})
	}
	if err != nil {
		return nil, fwerrors.New(fwerrors.MalformedRequest, "failed to read request", err)
	}
	if len(lines) == 0 {
		return nil, fwerrors.New(fwerrors.MalformedRequest, "no request found", nil)
	}

	req, err := parseRequestLine(lines[0])
	if err != nil {
		return nil, err
	}

	req.Headers = Headers{}
	for _, line := range lines[1:] {
		name, value, ok := ParseHeaderLine(line)
		if !ok {
			continue
		}
		req.Headers[name] = value
	}

	if n, ok := bodyLength(req.Headers); ok {
		body := readBody(br, n)
		req.Body = body
		req.Form = ParseMultipart(body)
	}

	return req, nil
}

func parseRequestLine(line string) (*Request, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return nil, fwerrors.New(fwerrors.MalformedRequest, "invalid request line", nil).
			WithDetails(map[string]string{"line": line})
	}

	method, err := ParseMethod(fields[0])
	if err != nil {
		return nil, err
	}

	target := fields[1]
	if !strings.HasPrefix(target, "/") {
		return nil, fwerrors.New(fwerrors.MalformedRequest, "request target must start with '/'", nil).
			WithDetails(map[string]string{"target": target})
	}

	path, query := ParseTarget(target)
	req := &Request{
		Method: method,
		Target: target,
		Path:   path,
		Query:  query,
	}
	if len(fields) > 2 {
		req.Version = fields[2]
	}
	return req, nil
}

// readHead collects lines until the first empty one. End of stream also
// terminates the head; only a read failure before anything arrived is an
// error. A head longer than MaxHeadBytes fails with errHeadTooLarge.
func readHead(br *bufio.Reader) ([]string, error) {
	var lines []string
	budget := MaxHeadBytes
	for {
		line, err := readLine(br, budget)
		if err == errHeadTooLarge {
			return nil, err
		}
		if err != nil {
			if err == io.EOF {
				return lines, nil
			}
			if len(lines) > 0 {
				return lines, nil
			}
			return nil, err
		}
		if line == "" {
			return lines, nil
		}
		budget -= len(line)
		lines = append(lines, line)
	}
}

// similar to readLineSlice() in net/textproto/reader.go, with a length
// limit
func readLine(br *bufio.Reader, limit int) (string, error) {
	var line []byte
	for {
		l, more, err := br.ReadLine()
		if err != nil {
			if len(line) > 0 {
				return string(line), nil
			}
			return "", err
		}
		if len(line)+len(l) > limit {
			return "", errHeadTooLarge
		}
		if line == nil && !more {
			return string(l), nil
		}
		line = append(line, l...)
		if !more {
			break
		}
	}
	return string(line), nil
}

// bodyLength returns how many body bytes to read, or false when there is no
// usable Content-Length header.
func bodyLength(h Headers) (int, bool) {
	raw, ok := h.Get("Content-Length")
	if !ok {
		return 0, false
	}
	cl, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	n := cl - 1
	if n < 0 {
		n = 0
	}
	if n > MaxBodyBytes {
		n = MaxBodyBytes
	}
	return n, true
}

// readBody reads up to n bytes. A short stream yields what arrived.
func readBody(br *bufio.Reader, n int) string {
	if n == 0 {
		return ""
	}
	buf := make([]byte, n)
	read, _ := io.ReadFull(br, buf)
	return strings.ToValidUTF8(string(buf[:read]), "�")
}
