package cors

import (
	"net/http"
	"slices"
	"strings"

	corsutil "github.com/NYCU-SDC/summer/pkg/cors"
	"go.uber.org/zap"
)

type Middleware struct {
	logger       *zap.Logger
	allowOrigins []string
}

// NewMiddleware builds the CORS layer. The front URL is always allowed since
// the form editor and the public fill pages are served from it.
func NewMiddleware(logger *zap.Logger, frontURL string, allowOrigins []string) Middleware {
	origins := slices.Clone(allowOrigins)
	frontURL = strings.TrimSuffix(frontURL, "/")
	if frontURL != "" && !slices.Contains(origins, frontURL) {
		origins = append([]string{frontURL}, origins...)
	}

	logger.Info("CORS middleware initialized", zap.Strings("allow_origins", origins))
	return Middleware{
		logger:       logger,
		allowOrigins: origins,
	}
}

func (m Middleware) HandlerFunc(next http.HandlerFunc) http.HandlerFunc {
	return corsutil.CORSMiddleware(next, m.logger, m.allowOrigins)
}
