package site

import (
	"fmt"
	"log/slog"
	"os"

	fwerrors "fredwork/internal/errors"
	"fredwork/internal/render"
	"fredwork/internal/request"
	"fredwork/internal/router"
)

// Build loads every page and binding named by the manifest and returns the
// resulting router. Pages are read once; a page with an unterminated tag
// fails the build.
func (m *Manifest) Build(engine *render.Engine, lookup router.Lookup, logger *slog.Logger) (*router.Router, error) {
	b := router.NewBuilder(lookup)

	for _, root := range m.Static {
		b.Static(m.Resolve(root))
	}

	for i, rs := range m.Routes {
		page, err := m.loadPage(engine, rs, logger)
		if err != nil {
			return nil, fmt.Errorf("route %d (%s %s): %w", i, rs.Method, rs.Path, err)
		}
		method, _ := request.ParseMethod(rs.Method)
		b.Handle(method, rs.Path, page)
		logger.Debug("Registered route",
			"method", rs.Method,
			"path", rs.Path,
			"page", rs.Page,
			"bindings", len(page.Bindings),
		)
	}

	return b.Build(), nil
}

func (m *Manifest) loadPage(engine *render.Engine, rs RouteSpec, logger *slog.Logger) (*Page, error) {
	text, err := os.ReadFile(m.Resolve(rs.Page))
	if err != nil {
		return nil, fwerrors.New(fwerrors.ManifestInvalid, "failed to read page", err).
			WithDetails(map[string]string{"page": rs.Page})
	}

	bindings := make([]render.Binding, 0, len(rs.Bindings))
	for _, bs := range rs.Bindings {
		value := bs.Value
		if bs.File != "" {
			value, err = LoadData(m.Resolve(bs.File))
			if err != nil {
				return nil, fwerrors.New(fwerrors.ManifestInvalid, "failed to load binding "+bs.Name, err)
			}
		}
		bindings = append(bindings, render.Binding{Name: bs.Name, Value: value})
	}

	return NewPage(engine, rs.Page, string(text), rs.Format, bindings, logger)
}
