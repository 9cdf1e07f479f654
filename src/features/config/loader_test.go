package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_AppliesDefaultsAndNormalizesExtensions(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
ocr:
  base_url: http://localhost:8081
  engine: umi
watchers:
  - name: scans
    kind: ocr
    watch_path: `+filepath.Join(dir, "in")+`
    output_path: `+filepath.Join(dir, "out")+`
    move_processed: true
    extensions: [JPG, ".Png"]
`)

	manager, err := Load(path)
	require.NoError(t, err)

	w, ok := manager.Get().Watcher("scans")
	require.True(t, ok)
	assert.Equal(t, []string{".jpg", ".png"}, w.Extensions)
	assert.Equal(t, 2*time.Second, w.Stability.Interval)
	assert.Equal(t, 5, w.Stability.Checks)
	assert.Equal(t, 10, w.Stability.AttemptMultiplier)
	assert.Equal(t, 300*time.Second, w.Timeout)
	assert.Equal(t, 1, w.Workers)

	assert.DirExists(t, filepath.Join(dir, "in"))
	assert.DirExists(t, filepath.Join(dir, "out"))
	assert.DirExists(t, filepath.Join(dir, "in", "processed"))
}

func TestLoad_ParsesDurations(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
watchers:
  - name: hook
    kind: script
    watch_path: `+dir+`
    script: `+writeConfig(t, "#!/bin/sh\n")+`
    extensions: [.txt]
    timeout: 90s
    stability:
      interval: 500ms
      checks: 3
`)

	manager, err := Load(path)
	require.NoError(t, err)
	w := manager.Get().Watchers[0]
	assert.Equal(t, 90*time.Second, w.Timeout)
	assert.Equal(t, 500*time.Millisecond, w.Stability.Interval)
	assert.Equal(t, 3, w.Stability.Checks)
}

func TestLoad_MissingCredentialsIsFatal(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	dir := t.TempDir()
	path := writeConfig(t, `
llm:
  model: gpt-4o-mini
watchers:
  - name: notes
    kind: classify
    watch_path: `+dir+`
    output_path: `+dir+`/sorted
    categories: [Work]
    extensions: [.md]
`)

	_, err := Load(path)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_APIKeyFromEnvironment(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	dir := t.TempDir()
	path := writeConfig(t, `
llm:
  model: gpt-4o-mini
watchers:
  - name: notes
    kind: classify
    watch_path: `+dir+`
    output_path: `+dir+`/sorted
    categories: [Work]
    extensions: [.md]
`)

	manager, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", manager.Get().LLM.APIKey)
	assert.NotContains(t, manager.GetJSON(), "sk-test")
	assert.NotContains(t, manager.GetYAML(), "sk-test")
}

func TestLoad_RejectsInvalidWatchers(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"unknown kind": `
watchers:
  - name: x
    kind: translate
    watch_path: ` + dir + `
    extensions: [.md]
`,
		"duplicate names": `
ocr:
  base_url: http://localhost:8081
  engine: umi
watchers:
  - {name: x, kind: ocr, watch_path: ` + dir + `, output_path: ` + dir + `, extensions: [.png]}
  - {name: x, kind: ocr, watch_path: ` + dir + `, output_path: ` + dir + `, extensions: [.png]}
`,
		"no extensions": `
watchers:
  - {name: x, kind: ocr, watch_path: ` + dir + `, output_path: ` + dir + `}
`,
		"no watchers": `
logger:
  level: info
`,
		"missing script": `
watchers:
  - {name: x, kind: script, watch_path: ` + dir + `, script: ` + filepath.Join(dir, "nope.sh") + `, extensions: [.png]}
`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_CreatesDefaultConfigWhenMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-test")

	manager, err := Load("config.yaml")
	require.NoError(t, err)
	assert.FileExists(t, "config.yaml")
	assert.Len(t, manager.Get().Watchers, 2)
	assert.DirExists(t, "inbox/notes")
	assert.DirExists(t, "inbox/ocr/processed")

	require.Error(t, WriteDefault("config.yaml"))
}

func TestDefaultConfig_WebhookKeepsFileNamesOutOfTheCommand(t *testing.T) {
	command := createDefaultConfig().Notify.Webhook.Command
	assert.NotContains(t, command, "{{.File}}")
	assert.Contains(t, command, "$DROPZONE_FILE")
}
