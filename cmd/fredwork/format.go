package main

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"fredwork/internal/journal"
	"fredwork/internal/request"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// RoutesResponseCLI lists a site's routes for CLI output
type RoutesResponseCLI struct {
	Manifest string     `json:"manifest"`
	Routes   []RouteCLI `json:"routes"`
	Static   []string   `json:"static"`
}

type RouteCLI struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *request.Request:
		return formatRequestHuman(v), nil
	case *RoutesResponseCLI:
		return formatRoutesHuman(v), nil
	case *journal.ListResponse:
		return formatJournalHuman(v), nil
	default:
		return formatJSON(resp)
	}
}

func formatRequestHuman(req *request.Request) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s %s", req.Method, req.Path))
	if req.Version != "" {
		b.WriteString(" " + req.Version)
	}
	b.WriteString("\n")

	if len(req.Query) > 0 {
		b.WriteString("\nQuery:\n")
		for _, name := range slices.Sorted(maps.Keys(req.Query)) {
			if v, ok := req.Query.Value(name); ok {
				b.WriteString(fmt.Sprintf("  %s = %s\n", name, v))
			} else {
				b.WriteString(fmt.Sprintf("  %s\n", name))
			}
		}
	}

	if len(req.Headers) > 0 {
		b.WriteString("\nHeaders:\n")
		for _, name := range req.Headers.Names() {
			b.WriteString(fmt.Sprintf("  %s: %s\n", name, req.Headers[name]))
		}
	}

	if len(req.Form) > 0 {
		b.WriteString("\nForm:\n")
		for _, name := range slices.Sorted(maps.Keys(req.Form)) {
			b.WriteString(fmt.Sprintf("  %s = %s\n", name, req.Form[name]))
		}
	}

	if req.Body != "" {
		b.WriteString(fmt.Sprintf("\nBody: %d bytes\n", len(req.Body)))
	}

	return strings.TrimRight(b.String(), "\n")
}

func formatRoutesHuman(resp *RoutesResponseCLI) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Routes (%s)\n", resp.Manifest))
	b.WriteString(strings.Repeat("=", 60) + "\n")
	if len(resp.Routes) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, r := range resp.Routes {
		b.WriteString(fmt.Sprintf("  %-7s %s\n", r.Method, r.Path))
	}

	if len(resp.Static) > 0 {
		b.WriteString("\nStatic roots:\n")
		for i, root := range resp.Static {
			b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, root))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func formatJournalHuman(resp *journal.ListResponse) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Journal: %d of %d entries\n", len(resp.Entries), resp.TotalCount))
	b.WriteString(strings.Repeat("=", 60) + "\n")
	for _, e := range resp.Entries {
		target := "-"
		if e.Method != "" {
			target = e.Method + " " + e.Path
		}
		outcome := e.Outcome
		if e.Code != "" {
			outcome += " (" + e.Code + ")"
		}
		b.WriteString(fmt.Sprintf("  %s  %-24s %-28s %6dB %4dms  %s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			target, outcome, e.Bytes, e.DurationMs, e.Remote))
	}

	return strings.TrimRight(b.String(), "\n")
}
