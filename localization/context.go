package localization

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"
	"google.golang.org/grpc/metadata"
)

type contextKey string

func (c contextKey) String() string {
	return "jsonlocale/localization/" + string(c)
}

const (
	ctxKeyLanguage = contextKey("languageKey")

	langMapKey          = "lang"
	acceptLanguageKey   = "Accept-Language"
	grpcAcceptLanguage  = "accept-language"
	languageListDivider = ","
)

// ToContext adds the requested cultures, most preferred first, to ctx.
func ToContext(ctx context.Context, lang []string) context.Context {
	return context.WithValue(ctx, ctxKeyLanguage, lang)
}

// FromContext extracts the requested cultures from ctx if any exist.
func FromContext(ctx context.Context) []string {
	languages, ok := ctx.Value(ctxKeyLanguage).([]string)
	if !ok {
		return nil
	}

	return languages
}

// ToMap stores lang in m under "lang", for propagation through message metadata.
func ToMap(m map[string]string, lang []string) map[string]string {
	m[langMapKey] = strings.Join(lang, languageListDivider)
	return m
}

// FromMap reads what ToMap stored.
func FromMap(m map[string]string) []string {
	lang, ok := m[langMapKey]
	if !ok {
		return nil
	}
	return strings.Split(lang, languageListDivider)
}

// ExtractLanguageFromHTTPRequest returns the "lang" form value, if set, followed by the Accept-Language cultures.
func ExtractLanguageFromHTTPRequest(req *http.Request) []string {
	lang := req.FormValue(langMapKey)

	acceptedLang := ExtractLanguageFromHTTPHeader(req.Header)

	var languages []string
	if lang != "" {
		languages = append(languages, lang)
	}

	return append(languages, acceptedLang...)
}

// ExtractLanguageFromHTTPHeader parses Accept-Language, ordered by quality.
func ExtractLanguageFromHTTPHeader(header http.Header) []string {
	return ParseAcceptLanguage(header.Get(acceptLanguageKey))
}

// ExtractLanguageFromGrpcRequest parses the accept-language entry of the incoming metadata.
func ExtractLanguageFromGrpcRequest(ctx context.Context) []string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return []string{}
	}

	header, ok := md[grpcAcceptLanguage]
	if !ok || len(header) == 0 {
		return []string{}
	}

	return ParseAcceptLanguage(header[0])
}

// ParseAcceptLanguage turns an Accept-Language value into culture names ordered by quality.
// Wildcards are dropped. A value that cannot be parsed is split on commas instead.
func ParseAcceptLanguage(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return []string{}
	}

	tags, _, err := language.ParseAcceptLanguage(value)
	if err != nil {
		var cultures []string
		for _, part := range strings.Split(value, languageListDivider) {
			name, _, _ := strings.Cut(part, ";")
			name = strings.TrimSpace(name)
			if name != "" && name != "*" {
				cultures = append(cultures, name)
			}
		}
		return cultures
	}

	cultures := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag == language.Und {
			continue
		}
		cultures = append(cultures, tag.String())
	}
	return cultures
}
