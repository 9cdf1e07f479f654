package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_ExitCodes(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run(context.Background(), []string{"version"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "dropzone version")

	stderr.Reset()
	missing := filepath.Join(t.TempDir(), "nope", "bad.yaml")
	assert.Equal(t, 1, run(context.Background(), []string{"--config", missing, "config", "show"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Error:")
}
