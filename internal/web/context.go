package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/recfind/internal/core"
)

// WithRequestMetadata adds IP and User-Agent to context for the search audit.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ip := r.RemoteAddr // Already resolved by TrustedRealIP
	ua := r.Header.Get("User-Agent")
	ctx = core.ContextWithIPAddress(ctx, ip)
	ctx = core.ContextWithUserAgent(ctx, ua)
	return ctx
}
