package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"

	ports "alkansya/internal/sheets"
)

func TestNewFromOptions_MissingSpreadsheetID(t *testing.T) {
	_, err := NewFromOptions(context.Background(), Options{CredentialsJSON: "{}"}, nil)
	if err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadCredentials(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sa.json")
	if err := os.WriteFile(path, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		opts    Options
		want    string
		wantErr string
	}{
		{"inline wins", Options{CredentialsJSON: ` {"a":1} `, CredentialsFile: path}, `{"a":1}`, ""},
		{"file", Options{CredentialsFile: path}, `{"type":"service_account"}`, ""},
		{"missing file", Options{CredentialsFile: filepath.Join(dir, "nope.json")}, "", "read service account file"},
		{"none", Options{}, "", "missing service account credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := loadCredentials(tt.opts)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTabName(t *testing.T) {
	tests := []struct {
		prefix, name, want string
	}{
		{"2025-03", "Budgets", "2025-03 Budgets"},
		{"2025-03", "2025-03 Budgets", "2025-03 Budgets"},
		{"", "Budgets", "Budgets"},
		{" 2025-03 ", " Incomes ", "2025-03 Incomes"},
	}
	for _, tt := range tests {
		if got := tabName(tt.prefix, tt.name); got != tt.want {
			t.Errorf("tabName(%q, %q) = %q, want %q", tt.prefix, tt.name, got, tt.want)
		}
	}
}

func TestToValues(t *testing.T) {
	vals := toValues(ports.Table{Header: []string{"a", "b"}, Rows: [][]string{{"1", "2"}}})
	if len(vals) != 2 || vals[0][0] != "a" || vals[1][1] != "2" {
		t.Errorf("toValues = %v", vals)
	}
	if got := toValues(ports.Table{Rows: [][]string{{"x"}}}); len(got) != 1 {
		t.Errorf("header-less table = %v", got)
	}
}

func TestClient_WriteTablesNotInitialized(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	if _, err := c.WriteTables(context.Background(), "2025-03", []ports.Table{{Name: "x"}}); err == nil {
		t.Fatal("expected error with nil service")
	}
}

// fakeSheets answers the handful of Sheets endpoints WriteTables uses
type fakeSheets struct {
	mu      sync.Mutex
	titles  []string
	added   []string
	cleared int
	updated map[string][][]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/v4/spreadsheets/sid"):
		var sheets []map[string]any
		for _, t := range f.titles {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"title": t}})
		}
		json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sid", "sheets": sheets})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		var req struct {
			Requests []struct {
				AddSheet struct {
					Properties struct {
						Title string `json:"title"`
					} `json:"properties"`
				} `json:"addSheet"`
			} `json:"requests"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		for _, rq := range req.Requests {
			f.added = append(f.added, rq.AddSheet.Properties.Title)
		}
		json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sid"})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		f.cleared++
		json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sid"})
	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		rng := path[strings.Index(path, "/values/")+len("/values/"):]
		var vr struct {
			Values [][]any `json:"values"`
		}
		json.NewDecoder(r.Body).Decode(&vr)
		f.updated[rng] = vr.Values
		json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sid", "updatedRange": rng})
	default:
		http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
	}
}

func TestClient_WriteTables(t *testing.T) {
	fake := &fakeSheets{titles: []string{"2025-03 Budgets"}, updated: map[string][][]any{}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	ctx := context.Background()
	c, err := New(ctx, "sid", nil,
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tables := []ports.Table{
		{Name: "Budgets", Header: []string{"Category", "Budget"}, Rows: [][]string{{"Food", "100.00"}}},
		{Name: "Incomes", Header: []string{"Source", "Amount"}},
	}
	refs, err := c.WriteTables(ctx, "2025-03", tables)
	if err != nil {
		t.Fatalf("WriteTables: %v", err)
	}

	if len(refs) != 2 {
		t.Fatalf("refs = %v", refs)
	}
	if len(fake.added) != 1 || fake.added[0] != "2025-03 Incomes" {
		t.Errorf("added = %v, want only the missing tab", fake.added)
	}
	if fake.cleared != 2 {
		t.Errorf("cleared = %d, want 2", fake.cleared)
	}
	got := fake.updated["'2025-03 Budgets'!A1"]
	if len(got) != 2 || got[1][0] != "Food" || got[1][1] != "100.00" {
		t.Errorf("budgets values = %v (all: %v)", got, fake.updated)
	}
}

func TestClient_WriteTablesPropagatesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"denied"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	ctx := context.Background()
	c, err := New(ctx, "sid", nil,
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.WriteTables(ctx, "2025-03", []ports.Table{{Name: "Budgets"}}); err == nil {
		t.Fatal("expected error from a forbidden spreadsheet")
	}
}
