// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/Orsso/DocuLens/internal/config"
	"github.com/Orsso/DocuLens/internal/extract"
	"github.com/Orsso/DocuLens/internal/home"
	"github.com/Orsso/DocuLens/internal/providers"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Logger        *slog.Logger
	Home          *home.Dir
	ConfigManager *config.Manager
	Extractor     *extract.Extractor
	// Captioner is nil when no AI captioning provider is configured.
	Captioner providers.CaptionProvider
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// ConfigManagerFrom extracts the config manager from context.
func ConfigManagerFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.ConfigManager
	}
	return nil
}

// ExtractorFrom extracts the pipeline extractor from context.
func ExtractorFrom(ctx context.Context) *extract.Extractor {
	if s := ServicesFrom(ctx); s != nil {
		return s.Extractor
	}
	return nil
}

// CaptionerFrom extracts the caption provider from context.
// Returns nil when captioning is not configured.
func CaptionerFrom(ctx context.Context) providers.CaptionProvider {
	if s := ServicesFrom(ctx); s != nil {
		return s.Captioner
	}
	return nil
}
