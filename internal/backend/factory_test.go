package backend

import (
	"context"
	"path/filepath"
	"testing"

	"alkansya/internal/config"
	"alkansya/internal/session"
	"alkansya/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.Config
		want    BackendType
		wantErr bool
	}{
		{"nil config", nil, "", true},
		{"memory", &config.Config{SessionBackend: "memory"}, MemoryBackend, false},
		{"file", &config.Config{SessionBackend: "file", SessionFile: "s.json"}, FileBackend, false},
		{"sqlite", &config.Config{SessionBackend: "sqlite", SQLiteDBPath: "x.db"}, SQLiteBackend, false},
		{"unknown", &config.Config{SessionBackend: "redis"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAppConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromAppConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got.Type != tt.want {
				t.Errorf("Type = %s, want %s", got.Type, tt.want)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"file without path", Config{Type: FileBackend}, true},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"invalid", Config{Type: "nope"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFactory_CreateBackend(t *testing.T) {
	dir := t.TempDir()
	factory := NewFactory(nil)

	tests := []struct {
		name string
		cfg  Config
		want any
	}{
		{"memory", Config{Type: MemoryBackend}, &session.MemoryStore{}},
		{"file", Config{Type: FileBackend, SessionFile: filepath.Join(dir, "s.json"), SessionPassphrase: "pw"}, &session.FileStore{}},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "s.db")}, &storage.SessionRepository{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := factory.CreateBackend(context.Background(), tt.cfg)
			if err != nil {
				t.Fatalf("CreateBackend: %v", err)
			}
			defer res.Close()

			switch tt.want.(type) {
			case *session.MemoryStore:
				if _, ok := res.Store.(*session.MemoryStore); !ok {
					t.Errorf("store = %T", res.Store)
				}
			case *session.FileStore:
				if _, ok := res.Store.(*session.FileStore); !ok {
					t.Errorf("store = %T", res.Store)
				}
			case *storage.SessionRepository:
				if _, ok := res.Store.(*storage.SessionRepository); !ok {
					t.Errorf("store = %T", res.Store)
				}
				if res.Cleanup == nil {
					t.Error("sqlite backend must provide cleanup")
				}
			}
		})
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := GetBackendTypeStrings()
	if len(got) != 3 || got[0] != "memory" || got[1] != "file" || got[2] != "sqlite" {
		t.Errorf("GetBackendTypeStrings() = %v", got)
	}
}
