package middleware

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/MikhailRaia/menu-scraper/internal/auth"
)

// GRPCAuthMiddleware checks bearer tokens on the listed gRPC methods.
type GRPCAuthMiddleware struct {
	jwtService *auth.JWTService
	protected  map[string]struct{}
}

// NewGRPCAuthMiddleware protects the given full method names, e.g.
// "/menuscraper.MenuScraperService/SaveBatch".
func NewGRPCAuthMiddleware(jwtService *auth.JWTService, methods ...string) *GRPCAuthMiddleware {
	protected := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		protected[m] = struct{}{}
	}
	return &GRPCAuthMiddleware{
		jwtService: jwtService,
		protected:  protected,
	}
}

func (m *GRPCAuthMiddleware) UnaryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if _, ok := m.protected[info.FullMethod]; !ok {
		return handler(ctx, req)
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "metadata is missing")
	}

	values := md.Get("authorization")
	if len(values) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing bearer token")
	}

	token, ok := BearerToken(values[0])
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing bearer token")
	}

	claims, err := m.jwtService.ValidateToken(token)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, err.Error())
	}

	ctx = context.WithValue(ctx, ClientKey, claims.Client)
	return handler(ctx, req)
}
