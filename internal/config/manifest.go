package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"xform/internal/manifest"
)

// LoadManifest parses a registrations manifest, checks schema_version and
// validates it.
func LoadManifest(path string) (manifest.File, error) {
	var f manifest.File
	raw, err := os.ReadFile(path)
	if err != nil {
		return f, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return f, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if f.SchemaVersion == "" {
		f.SchemaVersion = manifest.SchemaVersion
	}
	if f.SchemaVersion != manifest.SchemaVersion {
		return f, fmt.Errorf("manifest schema_version %q not supported (want %q)", f.SchemaVersion, manifest.SchemaVersion)
	}
	if err := Validate(&f); err != nil {
		return f, err
	}
	return f, nil
}
