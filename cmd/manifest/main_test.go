package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/config"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/pipeline"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/policy"
)

var fixturePath = filepath.Join("..", "..", "internal", "pipeline", "testdata", "clean_eats_orders.csv")

// execute runs the root command with fresh flag values.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	verbose, configPath = false, filepath.Join(t.TempDir(), "absent.yaml")
	groupKey, coldPickup, templatePath, outDir, overwrite, showReport = "", false, "", "", false, false
	watchGroup, watchInbox = "", ""
	forceInit = false
	for _, k := range []string{"MANIFEST_OUTPUT_DIR", "MANIFEST_CX_TEMPLATE", "MANIFEST_INBOX_DIR", "MANIFEST_LOG_LEVEL", "MANIFEST_DEBUG"} {
		t.Setenv(k, "")
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")

	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Groups, 3)

	_, err = execute(t, "config", "init", path)
	assert.ErrorContains(t, err, "already exists")

	_, err = execute(t, "config", "init", path, "--force")
	assert.NoError(t, err)
}

func TestGroups(t *testing.T) {
	out, err := execute(t, "groups")
	require.NoError(t, err)
	for _, want := range []string{"clean-eats", "made-active", "elite-meals", "CleanEats_Manifests.zip", "expand"} {
		assert.Contains(t, out, want)
	}
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "generate", fixturePath, "--group", "clean-eats", "--out", dir, "--report")
	require.NoError(t, err)

	path := filepath.Join(dir, "CleanEats_Manifests.zip")
	_, err = os.Stat(path)
	require.NoError(t, err)
	assert.Contains(t, out, "CM_Manifest.xlsx")
	assert.Contains(t, out, "wrote "+path)
	assert.Contains(t, out, "Buckets")
}

func TestGenerate_NothingGeneratedExplainsWhy(t *testing.T) {
	input := filepath.Join(t.TempDir(), "orphans.csv")
	require.NoError(t, os.WriteFile(input, []byte("Name,Lineitem name,Lineitem quantity\n,Beef Lasagna,2\n"), 0644))

	out, err := execute(t, "generate", input, "--group", "clean-eats", "--out", t.TempDir())
	assert.ErrorIs(t, err, pipeline.ErrNothingGenerated)
	assert.Contains(t, out, "no archive written")
	assert.Contains(t, out, "without an order id")
}

func TestGenerate_UnknownGroup(t *testing.T) {
	_, err := execute(t, "generate", fixturePath, "--group", "nope", "--out", t.TempDir())
	assert.ErrorIs(t, err, policy.ErrUnknownGroup)
}

func TestGenerate_GroupRequiredWithoutTerminal(t *testing.T) {
	prev := interactive
	interactive = func() bool { return false }
	defer func() { interactive = prev }()

	_, err := execute(t, "generate", fixturePath, "--out", t.TempDir())
	assert.ErrorContains(t, err, "--group is required")
}

func TestGenerate_MissingFile(t *testing.T) {
	_, err := execute(t, "generate", filepath.Join(t.TempDir(), "nope.csv"), "--group", "clean-eats")
	assert.Error(t, err)
}

func TestInboxHandler(t *testing.T) {
	_, err := execute(t, "groups")
	require.NoError(t, err)
	cfg.Output.Dir = t.TempDir()

	inboxDir := t.TempDir()
	data, err := os.ReadFile(fixturePath)
	require.NoError(t, err)
	src := filepath.Join(inboxDir, "export.csv")
	require.NoError(t, os.WriteFile(src, data, 0644))

	require.NoError(t, inboxHandler(policy.EliteMeals())(context.Background(), src))
	_, err = os.Stat(filepath.Join(cfg.Output.Dir, "EliteMeals_Manifest.zip"))
	assert.NoError(t, err)
}
