package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/sinapp/auth"
	"github.com/hazyhaar/sinapp/dbopen"
)

func writeConfig(t *testing.T) (cfgPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "data", "sinapp.db")
	cfgPath = filepath.Join(dir, "sinapp.yaml")
	yml := `auth:
  jwt_secret: "0123456789abcdef0123456789abcdef"
database:
  path: "` + dbPath + `"
log:
  level: error
  format: text
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(yml), 0o600))
	return cfgPath, dbPath
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGraph(t *testing.T) {
	out, err := execute(t, "", "graph")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "digraph"), out)
	assert.Contains(t, out, "review")
}

func TestUserAdd(t *testing.T) {
	cfgPath, dbPath := writeConfig(t)

	out, err := execute(t, "s3cret-pass\n", "user", "add", "-c", cfgPath, "--email", "Staff@Example.org", "--name", "Sam")
	require.NoError(t, err)
	assert.Contains(t, out, "created staff@example.org")

	db, err := dbopen.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()
	claims, err := auth.NewUsers(db).Authenticate(context.Background(), "staff@example.org", "s3cret-pass")
	require.NoError(t, err)
	assert.True(t, claims.HasRole(auth.RoleStaff))
}

func TestUserAdd_RequiresPassword(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	_, err := execute(t, "", "user", "add", "-c", cfgPath, "--email", "a@example.org")
	assert.ErrorContains(t, err, "password expected")
}

func TestMigrateAndEvents(t *testing.T) {
	cfgPath, dbPath := writeConfig(t)

	_, err := execute(t, "", "migrate", "-c", cfgPath)
	require.NoError(t, err)
	assert.FileExists(t, dbPath)

	out, err := execute(t, "", "events", "-c", cfgPath, "--type", "auth.login")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("auth:\n  jwt_secret: short\n"), 0o600))

	_, err := execute(t, "", "migrate", "-c", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.jwt_secret")
}
