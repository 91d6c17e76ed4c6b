// Package site assembles a router from a site manifest: static roots, page
// routes and the data bound into each page.
package site

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	fwerrors "fredwork/internal/errors"
	"fredwork/internal/request"
	"fredwork/internal/router"
)

// DefaultManifest is the manifest filename looked up when none is given.
const DefaultManifest = "site.toml"

// Page formats
const (
	FormatHTML = "html"
	FormatJSON = "json"
)

// Manifest is the decoded site.toml.
type Manifest struct {
	// Static lists static roots in lookup order
	Static []string `toml:"static"`

	// Routes are the page routes
	Routes []RouteSpec `toml:"route"`

	dir string
}

// RouteSpec declares one page route.
type RouteSpec struct {
	Method   string        `toml:"method"`
	Path     string        `toml:"path"`
	Page     string        `toml:"page"`
	Format   string        `toml:"format"`
	Bindings []BindingSpec `toml:"binding"`
}

// BindingSpec names a value made visible to a page, either inline or loaded
// from a data file.
type BindingSpec struct {
	Name  string      `toml:"name"`
	File  string      `toml:"file"`
	Value interface{} `toml:"value"`
}

// Load decodes and validates the manifest at path. Unknown keys are
// rejected so typos do not silently drop routes.
func Load(path string) (*Manifest, error) {
	var m Manifest
	meta, err := toml.DecodeFile(path, &m)
	if err != nil {
		return nil, fwerrors.New(fwerrors.ManifestInvalid, "failed to parse manifest", err).
			WithDetails(map[string]string{"path": path})
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fwerrors.New(fwerrors.ManifestInvalid, "unknown manifest keys: "+strings.Join(keys, ", "), nil).
			WithDetails(map[string]string{"path": path})
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	m.dir = filepath.Dir(abs)

	if err := m.normalize(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Dir returns the directory relative paths resolve against.
func (m *Manifest) Dir() string {
	return m.dir
}

// Resolve makes p absolute relative to the manifest directory.
func (m *Manifest) Resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.dir, p)
}

// normalize applies defaults and checks each route.
func (m *Manifest) normalize() error {
	for i := range m.Routes {
		r := &m.Routes[i]
		if r.Method == "" {
			r.Method = string(request.GET)
		}
		if r.Format == "" {
			r.Format = FormatHTML
		}

		if _, err := request.ParseMethod(r.Method); err != nil {
			return invalidRoute(i, "unsupported method "+r.Method)
		}
		if r.Path != router.WildcardPath && !strings.HasPrefix(r.Path, "/") {
			return invalidRoute(i, "path must start with '/' or be '*'")
		}
		if r.Page == "" {
			return invalidRoute(i, "page is required")
		}
		if r.Format != FormatHTML && r.Format != FormatJSON {
			return invalidRoute(i, "format must be html or json")
		}

		for _, b := range r.Bindings {
			if b.Name == "" {
				return invalidRoute(i, "binding name is required")
			}
			if b.Name == RequestBinding {
				return invalidRoute(i, "binding name "+RequestBinding+" is reserved")
			}
			if (b.File == "") == (b.Value == nil) {
				return invalidRoute(i, fmt.Sprintf("binding %q needs exactly one of file or value", b.Name))
			}
		}
	}
	return nil
}

func invalidRoute(index int, message string) error {
	return fwerrors.New(fwerrors.ManifestInvalid, message, nil).
		WithDetails(map[string]int{"route": index})
}
