package render

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/flosch/pongo2/v6"

	"github.com/spec-kit/support-portal/internal/domain"
	apperrors "github.com/spec-kit/support-portal/pkg/util"
)

// Engine renders template format strings against flat data maps. It is
// stateless and safe for concurrent use.
type Engine struct{}

// NewEngine constructs a renderer.
func NewEngine() *Engine {
	return &Engine{}
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)`)

// Render executes the template against data. Every placeholder referenced by
// the template must be present in data; missing tokens fail before execution
// so a partially substituted body is never produced.
func (e *Engine) Render(tmpl *domain.MessageTemplate, data map[string]any) (string, error) {
	if tmpl == nil {
		return "", apperrors.NewRenderError("", fmt.Errorf("nil template"))
	}
	if missing := missingTokens(tmpl.Format, data); len(missing) > 0 {
		return "", apperrors.NewRenderError(string(tmpl.Kind),
			fmt.Errorf("missing token data: %s", strings.Join(missing, ", ")))
	}

	compiled, err := pongo2.FromString(tmpl.Format)
	if err != nil {
		return "", apperrors.NewRenderError(string(tmpl.Kind), err)
	}
	out, err := compiled.Execute(pongo2.Context(data))
	if err != nil {
		return "", apperrors.NewRenderError(string(tmpl.Kind), err)
	}
	return out, nil
}

func missingTokens(format string, data map[string]any) []string {
	seen := map[string]struct{}{}
	var missing []string
	for _, match := range placeholderPattern.FindAllStringSubmatch(format, -1) {
		name := match[1]
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if _, ok := data[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}
