package server

import (
	"io"
	"log/slog"
	"testing"

	"github.com/Orsso/DocuLens/internal/config"
	"github.com/Orsso/DocuLens/internal/home"
	"github.com/Orsso/DocuLens/internal/providers"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew(t *testing.T) {
	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	mgr, err := config.NewManager("")
	if err != nil {
		t.Fatal(err)
	}

	t.Run("requires home directory", func(t *testing.T) {
		if _, err := New(Config{ConfigManager: mgr, Logger: testLogger()}); err == nil {
			t.Fatal("New() = nil error, want failure")
		}
	})

	t.Run("requires config manager", func(t *testing.T) {
		if _, err := New(Config{Home: h, Logger: testLogger()}); err == nil {
			t.Fatal("New() = nil error, want failure")
		}
	})

	t.Run("defaults fill in host and port", func(t *testing.T) {
		s, err := New(Config{Home: h, ConfigManager: mgr, Logger: testLogger()})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if s.Addr() != "127.0.0.1:8080" {
			t.Errorf("Addr() = %q", s.Addr())
		}
		if s.IsRunning() {
			t.Error("new server reports running")
		}
		if s.Handler() == nil {
			t.Error("Handler() = nil")
		}
	})
}

func TestBuildCaptioner(t *testing.T) {
	t.Run("empty provider disables captioning", func(t *testing.T) {
		captioner, err := BuildCaptioner(config.CaptionsCfg{}, testLogger())
		if err != nil {
			t.Fatalf("BuildCaptioner() error = %v", err)
		}
		if captioner != nil {
			t.Fatal("captioner should be nil when disabled")
		}
	})

	t.Run("mistral", func(t *testing.T) {
		captioner, err := BuildCaptioner(config.CaptionsCfg{
			Provider:  providers.MistralName,
			APIKey:    "key",
			RateLimit: 1.5,
		}, testLogger())
		if err != nil {
			t.Fatalf("BuildCaptioner() error = %v", err)
		}
		if captioner.Name() != providers.MistralName {
			t.Errorf("Name() = %q", captioner.Name())
		}
		if captioner.RequestsPerSecond() != 1.5 {
			t.Errorf("RequestsPerSecond() = %v", captioner.RequestsPerSecond())
		}
	})

	t.Run("openai", func(t *testing.T) {
		captioner, err := BuildCaptioner(config.CaptionsCfg{
			Provider: providers.OpenAIName,
			APIKey:   "key",
		}, testLogger())
		if err != nil {
			t.Fatalf("BuildCaptioner() error = %v", err)
		}
		if captioner.Name() != providers.OpenAIName {
			t.Errorf("Name() = %q", captioner.Name())
		}
	})

	t.Run("unknown provider fails", func(t *testing.T) {
		if _, err := BuildCaptioner(config.CaptionsCfg{Provider: "llama-at-home"}, testLogger()); err == nil {
			t.Fatal("BuildCaptioner() = nil error, want failure")
		}
	})
}
