package enginefactory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"google.golang.org/api/option"

	"mercator-hq/quotegate/pkg/config"
	"mercator-hq/quotegate/pkg/engine"
	"mercator-hq/quotegate/pkg/engine/memory"
	"mercator-hq/quotegate/pkg/engine/sheets"
	"mercator-hq/quotegate/pkg/engine/sqlite"
)

func TestNew_Backends(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	cfg := config.DefaultConfig().Engine
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "nested", "engine.db")
	cfg.Sheets.SpreadsheetID = "sheet-1"
	cfg.Sheets.TokenCell = "Indata!B20"

	tests := []struct {
		backend string
		check   func(engine.Engine) bool
	}{
		{"memory", func(e engine.Engine) bool { _, ok := e.(*memory.Engine); return ok }},
		{"sqlite", func(e engine.Engine) bool { _, ok := e.(*sqlite.Engine); return ok }},
		{"sheets", func(e engine.Engine) bool { _, ok := e.(*sheets.Engine); return ok }},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			c := cfg
			c.Backend = tt.backend
			e, err := New(context.Background(), c, option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication())
			if err != nil {
				t.Fatalf("failed to create %s engine: %v", tt.backend, err)
			}
			defer engine.Close(e)
			if !tt.check(e) {
				t.Errorf("unexpected engine type %T", e)
			}
		})
	}
}

func TestNew_UnsupportedBackend(t *testing.T) {
	cfg := config.DefaultConfig().Engine
	cfg.Backend = "excel"
	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatal("expected error for unsupported backend")
	}
}
