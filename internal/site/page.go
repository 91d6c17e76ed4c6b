package site

import (
	"log/slog"

	fwerrors "fredwork/internal/errors"
	"fredwork/internal/render"
	"fredwork/internal/request"
	"fredwork/internal/response"
	"fredwork/internal/router"
)

// RequestBinding is the name the inbound request is bound under.
const RequestBinding = "request"

// Page renders a template with the request and fixed bindings.
type Page struct {
	Name     string
	Text     string
	Format   string
	Bindings []render.Binding

	engine *render.Engine
	logger *slog.Logger
}

var _ router.Handler = (*Page)(nil)

// NewPage creates a page handler. text is checked for unterminated tags and
// the fixed bindings are prepared once for every later render.
func NewPage(engine *render.Engine, name, text, format string, bindings []render.Binding, logger *slog.Logger) (*Page, error) {
	if err := engine.Check(text); err != nil {
		return nil, err
	}
	bindings, err := engine.Prepare(bindings)
	if err != nil {
		return nil, fwerrors.New(fwerrors.ManifestInvalid, "failed to prepare bindings", err).
			WithDetails(map[string]string{"page": name})
	}
	return &Page{
		Name:     name,
		Text:     text,
		Format:   format,
		Bindings: bindings,
		engine:   engine,
		logger:   logger,
	}, nil
}

// Serve renders the page. When rendering fails nothing is written and the
// connection closes without a response.
func (p *Page) Serve(w *response.Sink, req *request.Request) {
	bindings := make([]render.Binding, 0, len(p.Bindings)+1)
	bindings = append(bindings, render.Binding{Name: RequestBinding, Value: req})
	bindings = append(bindings, p.Bindings...)

	out, err := p.engine.Render(p.Text, bindings)
	if err != nil {
		p.logger.Warn("Failed to render page",
			"page", p.Name,
			"code", fwerrors.CodeOf(err),
			"error", err.Error(),
		)
		return
	}

	if p.Format == FormatJSON {
		err = w.JSON(out)
	} else {
		err = w.HTML(out)
	}
	if err != nil {
		p.logger.Debug("Failed to write response", "page", p.Name, "error", err.Error())
	}
}
