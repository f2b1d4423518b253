package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xform/internal/manifest"
)

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "transforms.yml", `schema_version: v1
transforms:
  - name: upper
    implementation: remote
    from: {artifactType: txt}
    to: {artifactType: upper-txt}
    config:
      address: localhost:50052
      timeout: 5s
  - name: backup
    implementation: copy
    config: {suffix: .bak}
    params: ["-v2", 3]
`)

	f, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, manifest.SchemaVersion, f.SchemaVersion)
	require.Len(t, f.Transforms, 2)

	up, ok := f.Find("upper")
	require.True(t, ok)
	assert.Equal(t, "remote", up.Implementation)
	assert.Equal(t, map[string]string{"artifactType": "txt"}, up.From)
	assert.Equal(t, "5s", up.Config["timeout"])

	bk, ok := f.Find("backup")
	require.True(t, ok)
	assert.Equal(t, []any{"-v2", 3}, bk.Params)

	_, ok = f.Find("nope")
	assert.False(t, ok)
}

func TestLoadManifest_DefaultsSchema(t *testing.T) {
	path := writeFile(t, t.TempDir(), "m.yml", "transforms: [{name: a, implementation: identity}]\n")
	f, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, manifest.SchemaVersion, f.SchemaVersion)
}

func TestLoadManifest_Invalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"schema":        "schema_version: v999\ntransforms: [{name: a, implementation: identity}]\n",
		"empty":         "transforms: []\n",
		"duplicate":     "transforms: [{name: a, implementation: identity}, {name: a, implementation: copy}]\n",
		"no impl":       "transforms: [{name: a}]\n",
		"unknown field": "transforms: [{name: a, implementation: identity, retries: 3}]\n",
		"not yaml":      "transforms: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadManifest(writeFile(t, dir, name+".yml", body))
			assert.Error(t, err)
		})
	}

	_, err := LoadManifest(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)
}
