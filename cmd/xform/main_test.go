package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a.jar", "b.jar"}, splitList(" a.jar, ,b.jar "))
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}
	write("transforms.yml", "transforms: [{name: same, implementation: identity}]\n")
	cfg := write("xform.yml", "manifest: transforms.yml\nworkspace_root: ws\nparallelism: 1\n")
	in := write("a.txt", "x")

	require.NoError(t, run(cfg, "", nil, true, nil))
	require.NoError(t, run(cfg, "same", nil, false, []string{in}))
	assert.ErrorContains(t, run(cfg, "", nil, false, []string{in}), "-transform is required")
	assert.ErrorContains(t, run(cfg, "same", nil, false, nil), "no inputs")
	assert.ErrorContains(t, run(cfg, "other", nil, false, []string{in}), "no transform named")
}
