package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"expensetracker/internal/db"
	"expensetracker/internal/repository"
)

func TestRun_Success(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "users.db")
	stdout := new(bytes.Buffer)

	args := []string{"-user", "alice", "-password", "secret", "-sqlite", dbPath}
	err := run(context.Background(), args, new(bytes.Buffer), stdout, new(bytes.Buffer))
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "User alice created successfully")

	gormDB, err := db.NewSQLite(dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close(gormDB) }()

	user, err := repository.NewUserRepository(gormDB).FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret")))
}

func TestRun_DuplicateUser(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "users.db")
	args := []string{"-user", "alice", "-password", "secret", "-sqlite", dbPath}

	require.NoError(t, run(context.Background(), args, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer)))

	err := run(context.Background(), args, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestRun_MissingUserFlag(t *testing.T) {
	stdout := new(bytes.Buffer)

	err := run(context.Background(), []string{"-password", "secret"}, new(bytes.Buffer), stdout, new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required flags: user")
	assert.Contains(t, stdout.String(), "Usage:")
}

func TestRun_InteractivePassword(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "users.db")
	stdout := new(bytes.Buffer)
	stdin := bytes.NewBufferString("typed_secret\n")

	err := run(context.Background(), []string{"-user", "bob", "-sqlite", dbPath}, stdin, stdout, new(bytes.Buffer))
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Password: ")
	assert.Contains(t, stdout.String(), "User bob created successfully")
}

func TestRun_EmptyPassword(t *testing.T) {
	stdin := bytes.NewBufferString("\n")

	err := run(context.Background(), []string{"-user", "carol"}, stdin, new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password cannot be empty")
}

func TestRun_SQLitePathFromEnv(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "env.db")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", dbPath)

	err := run(context.Background(), []string{"-user", "dave", "-password", "secret"}, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer))
	require.NoError(t, err)
	assert.FileExists(t, dbPath)
}

func TestRun_InvalidFlag(t *testing.T) {
	err := run(context.Background(), []string{"-invalid"}, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flag provided but not defined")
}
