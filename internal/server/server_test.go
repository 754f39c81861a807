package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/collatehq/collate/internal/config"
	"github.com/collatehq/collate/internal/sidecar"
	"github.com/collatehq/collate/internal/source"
)

func testConfig(t *testing.T, yaml string) *config.Manager {
	t.Helper()
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configFile, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	mgr, err := config.NewManager(configFile)
	if err != nil {
		t.Fatal(err)
	}
	return mgr
}

func TestBuildSources(t *testing.T) {
	sc := sidecar.NewClient("http://localhost:8001")

	t.Run("default toggles", func(t *testing.T) {
		reg, err := buildSources(config.DefaultConfig(), sc)
		if err != nil {
			t.Fatal(err)
		}
		names := reg.Names()
		want := map[string]bool{"native": true, "tesseract": true, "tables": true, "shapes": true}
		if len(names) != len(want) {
			t.Fatalf("sources = %v, want %v", names, want)
		}
		for _, n := range names {
			if !want[n] {
				t.Errorf("unexpected source %q", n)
			}
		}
	})

	t.Run("native runs before ocr", func(t *testing.T) {
		reg, err := buildSources(config.DefaultConfig(), sc)
		if err != nil {
			t.Fatal(err)
		}
		all := reg.All()
		if all[0].Role() != source.RoleNative {
			t.Errorf("first source role = %s, want native", all[0].Role())
		}
	})

	t.Run("ocr order is honored", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Sources.Vision = true
		cfg.Vision.APIKey = "literal-key"
		cfg.Pipeline.OCROrder = []string{"vision", "tesseract"}

		reg, err := buildSources(cfg, sc)
		if err != nil {
			t.Fatal(err)
		}
		names := reg.Names()
		// native first by role, then OCR engines in configured order.
		want := []string{"native", "vision", "tesseract", "tables", "shapes"}
		for i := range want {
			if names[i] != want[i] {
				t.Fatalf("Names = %v, want %v", names, want)
			}
		}
	})

	t.Run("unknown ocr engine is an error", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Pipeline.OCROrder = []string{"easyocr"}
		if _, err := buildSources(cfg, sc); err == nil {
			t.Error("expected error for unknown engine name")
		}
	})

	t.Run("vision requires api key", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Sources.Vision = true
		cfg.Vision.APIKey = ""
		if _, err := buildSources(cfg, sc); err == nil {
			t.Error("expected error for vision without API key")
		}
	})

	t.Run("all disabled is an error", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Sources = config.SourcesCfg{}
		if _, err := buildSources(cfg, sc); err == nil {
			t.Error("expected error when no sources enabled")
		}
	})
}

func TestNew(t *testing.T) {
	t.Run("requires config manager", func(t *testing.T) {
		if _, err := New(Config{}); err == nil {
			t.Error("expected error without config manager")
		}
	})

	t.Run("builds from config", func(t *testing.T) {
		mgr := testConfig(t, "server:\n  host: 127.0.0.1\n  port: 8123\n")
		s, err := New(Config{ConfigManager: mgr})
		if err != nil {
			t.Fatal(err)
		}
		if s.Addr() != "127.0.0.1:8123" {
			t.Errorf("Addr = %s, want 127.0.0.1:8123", s.Addr())
		}
	})
}

func TestWithServices_RecoversPanics(t *testing.T) {
	mgr := testConfig(t, "server:\n  port: 8125\n")
	s, err := New(Config{ConfigManager: mgr})
	if err != nil {
		t.Fatal(err)
	}

	handler := s.withServices(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if got := rec.Body.String(); got != `{"detail":"internal server error"}` {
		t.Errorf("body = %s", got)
	}
}

func TestRequireInit(t *testing.T) {
	mgr := testConfig(t, "server:\n  port: 8124\n")
	s, err := New(Config{ConfigManager: mgr})
	if err != nil {
		t.Fatal(err)
	}

	called := false
	handler := s.requireInit(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest("POST", "/extract", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 before init", rec.Code)
	}
	if called {
		t.Error("handler should not run before init")
	}

	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest("POST", "/extract", nil))
	if rec.Code != http.StatusOK || !called {
		t.Errorf("handler not invoked after init: status=%d called=%v", rec.Code, called)
	}
}
