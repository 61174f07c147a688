package connect

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/pitabwire/jsonlocale/localization"
)

// LanguageInterceptor implements connect.Interceptor, putting the Accept-Language cultures
// of handled requests into the context.
type LanguageInterceptor struct{}

func NewLanguageInterceptor() *LanguageInterceptor {
	return &LanguageInterceptor{}
}

func (l *LanguageInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if req.Spec().IsClient {
			return next(ctx, req)
		}

		return next(withCultures(ctx, req.Header().Values("Accept-Language")), req)
	}
}

// WrapStreamingClient passes client streams through.
func (l *LanguageInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (l *LanguageInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		return next(withCultures(ctx, conn.RequestHeader().Values("Accept-Language")), conn)
	}
}

func withCultures(ctx context.Context, headers []string) context.Context {
	cultures := localization.ParseAcceptLanguage(strings.Join(headers, ","))
	if len(cultures) == 0 {
		return ctx
	}
	return localization.ToContext(ctx, cultures)
}
