package grpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/pitabwire/jsonlocale/localization"
)

// LanguageUnaryInterceptor moves the accept-language metadata entry into the context.
func LanguageUnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any,
		_ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		cultures := localization.ExtractLanguageFromGrpcRequest(ctx)
		if len(cultures) > 0 {
			ctx = localization.ToContext(ctx, cultures)
		}

		return handler(ctx, req)
	}
}

// LanguageStreamInterceptor is LanguageUnaryInterceptor for streams.
func LanguageStreamInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, _ *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx := ss.Context()
		cultures := localization.ExtractLanguageFromGrpcRequest(ctx)
		if len(cultures) == 0 {
			return handler(srv, ss)
		}

		return handler(srv, &serverStreamWrapper{ctx: localization.ToContext(ctx, cultures), ServerStream: ss})
	}
}

// serverStreamWrapper replaces the stream context with one carrying the cultures.
type serverStreamWrapper struct {
	ctx context.Context
	grpc.ServerStream
}

func (s *serverStreamWrapper) Context() context.Context {
	return s.ctx
}
