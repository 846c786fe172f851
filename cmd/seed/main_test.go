package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"expensetracker/internal/db"
	"expensetracker/internal/repository"
)

const seedJSON = `[
  {"title": "Groceries", "category": "Food", "amount": 1250.50, "date": "2025-10-02"},
  {"title": "Metro card", "category": "Transport", "amount": "300", "date": "2025-10-05"},
  {"title": "", "category": "Food", "amount": 10, "date": "2025-10-06"},
  {"title": "Bad date", "category": "Misc", "amount": 5, "date": "06/10/2025"}
]`

func countExpenses(t *testing.T, dbPath string) int {
	t.Helper()
	gormDB, err := db.NewSQLite(dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close(gormDB) }()

	expenses, err := repository.NewExpenseRepository(gormDB).List(context.Background())
	require.NoError(t, err)
	return len(expenses)
}

func TestRun_File(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "seed.db")
	seedPath := filepath.Join(tmpDir, "expenses.json")
	require.NoError(t, os.WriteFile(seedPath, []byte(seedJSON), 0o600))

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	err := run(context.Background(), []string{"-file", seedPath, "-sqlite", dbPath}, stdout, stderr)
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "Seeded 2 expenses (2 skipped)")
	assert.Equal(t, 2, countExpenses(t, dbPath))
}

func TestRun_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(seedJSON))
	}))
	defer srv.Close()

	dbPath := filepath.Join(t.TempDir(), "seed.db")
	stdout := new(bytes.Buffer)
	err := run(context.Background(), []string{"-url", srv.URL, "-sqlite", dbPath}, stdout, new(bytes.Buffer))
	require.NoError(t, err)
	assert.Equal(t, 2, countExpenses(t, dbPath))
}

func TestRun_URLBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dbPath := filepath.Join(t.TempDir(), "seed.db")
	err := run(context.Background(), []string{"-url", srv.URL, "-sqlite", dbPath}, new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status code: 404")
}

func TestRun_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	seedPath := filepath.Join(tmpDir, "broken.json")
	require.NoError(t, os.WriteFile(seedPath, []byte(`{"title": "not an array"}`), 0o600))

	err := run(context.Background(), []string{"-file", seedPath, "-sqlite", filepath.Join(tmpDir, "seed.db")}, new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse seed JSON")
}

func TestRun_SourceFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "neither", args: nil},
		{name: "both", args: []string{"-file", "a.json", "-url", "http://example.invalid"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout := new(bytes.Buffer)
			err := run(context.Background(), tt.args, stdout, new(bytes.Buffer))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "exactly one of -file or -url")
			assert.Contains(t, stdout.String(), "Usage:")
		})
	}
}

func TestToModels(t *testing.T) {
	items, err := decode(bytes.NewBufferString(seedJSON))
	require.NoError(t, err)

	expenses, skipped := toModels(items, zap.NewNop())
	assert.Equal(t, 2, skipped)
	require.Len(t, expenses, 2)
	assert.Equal(t, "1250.5", expenses[0].Amount.String())
	assert.Equal(t, time.October, expenses[1].Date.Month())
}
