package prompt

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/pkg/errors"
)

func TestRegistry_DefaultsCoverAllNames(t *testing.T) {
	r, err := NewRegistry("", nil)
	require.NoError(t, err)
	for _, name := range []string{SMILESExtraction, BindingExtraction, ChatSystem, ADMETExplanation, AffinityExplanation, ChatSummary} {
		assert.Contains(t, r.Names(), name)
	}
}

func TestRegistry_Render(t *testing.T) {
	r, err := NewRegistry("", nil)
	require.NoError(t, err)

	out, err := r.Render(SMILESExtraction, map[string]string{"Message": "check CCO please"})
	require.NoError(t, err)
	assert.Contains(t, out, "User message: check CCO please")
	assert.Contains(t, out, `{"smiles": []}`)
}

func TestRegistry_RenderMissingKeyFails(t *testing.T) {
	r, err := NewRegistry("", nil)
	require.NoError(t, err)

	_, err = r.Render(SMILESExtraction, map[string]string{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodePromptRenderFailed))
}

func TestRegistry_UnknownTemplate(t *testing.T) {
	r, err := NewRegistry("", nil)
	require.NoError(t, err)

	_, err = r.Render("nope", nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodePromptNotFound))
}

func TestRegistry_OverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("prompts:\n  chat_system: \"Be brief.\"\n"), 0o644))

	r, err := NewRegistry(path, nil)
	require.NoError(t, err)

	out, err := r.Render(ChatSystem, nil)
	require.NoError(t, err)
	assert.Equal(t, "Be brief.", out)

	out, err = r.Render(SMILESExtraction, map[string]string{"Message": "x"})
	require.NoError(t, err)
	assert.Contains(t, out, "SMILES")
}

func TestRegistry_MissingOverrideFallsBack(t *testing.T) {
	r, err := NewRegistry(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, r.Names())
}

func TestRegistry_BadOverrideKeepsPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("prompts:\n  chat_system: \"v1\"\n"), 0o644))
	r, err := NewRegistry(path, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("prompts:\n  chat_system: \"{{.Broken\"\n"), 0o644))
	assert.Error(t, r.Reload())

	out, err := r.Render(ChatSystem, nil)
	require.NoError(t, err)
	assert.Equal(t, "v1", out)
}

func TestRegistry_WatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("prompts:\n  chat_system: \"v1\"\n"), 0o644))
	r, err := NewRegistry(path, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, r.Watch(ctx))

	require.NoError(t, os.WriteFile(path, []byte("prompts:\n  chat_system: \"v2\"\n"), 0o644))
	assert.Eventually(t, func() bool {
		out, err := r.Render(ChatSystem, nil)
		return err == nil && out == "v2"
	}, 3*time.Second, 20*time.Millisecond)
}

//Personal.AI order the ending
