package localization

import (
	"context"
	"fmt"
	"html/template"
)

// HTMLResult is a LookupResult rendered as markup.
type HTMLResult struct {
	LookupResult
	HTML template.HTML
}

// HTMLLocalizer renders localized strings for html/template.
// Templates are trusted markup; arguments and keys that fell back are escaped.
type HTMLLocalizer struct {
	localizer *Localizer
}

func NewHTMLLocalizer(l *Localizer) *HTMLLocalizer {
	return &HTMLLocalizer{localizer: l}
}

func (h *HTMLLocalizer) Lookup(ctx context.Context, key string) HTMLResult {
	return toHTML(h.localizer.Lookup(ctx, key))
}

func (h *HTMLLocalizer) LookupIn(ctx context.Context, culture, key string) HTMLResult {
	return toHTML(h.localizer.LookupIn(ctx, culture, key))
}

// LookupFormatted escapes string-like arguments before substituting them.
// Numbers are passed through so numeric format specifiers still apply, and template.HTML
// arguments are inserted as they are.
func (h *HTMLLocalizer) LookupFormatted(ctx context.Context, key string, args ...any) (HTMLResult, error) {
	res, err := h.localizer.formatted(ctx, FromContext(ctx), key, escapeArgs(args), true)
	return HTMLResult{LookupResult: res, HTML: template.HTML(res.Value)}, err //nolint:gosec // arguments are escaped
}

func (h *HTMLLocalizer) LookupFormattedIn(ctx context.Context, culture, key string, args ...any) (HTMLResult, error) {
	res, err := h.localizer.formatted(ctx, []string{culture}, key, escapeArgs(args), true)
	return HTMLResult{LookupResult: res, HTML: template.HTML(res.Value)}, err //nolint:gosec // arguments are escaped
}

func toHTML(res LookupResult) HTMLResult {
	if res.ResourceNotFound {
		return HTMLResult{LookupResult: res, HTML: template.HTML(template.HTMLEscapeString(res.Value))} //nolint:gosec // escaped
	}
	return HTMLResult{LookupResult: res, HTML: template.HTML(res.Value)} //nolint:gosec // templates are trusted
}

func escapeArgs(args []any) []any {
	out := make([]any, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case nil:
			out[i] = nil
		case template.HTML:
			out[i] = string(v)
		default:
			if _, ok := asFloat(arg); ok {
				out[i] = arg
				continue
			}
			out[i] = template.HTMLEscapeString(fmt.Sprint(arg))
		}
	}
	return out
}
