// Package manifest describes the registrations file: the transforms an
// engine registers at startup.
package manifest

// SchemaVersion is the only manifest schema understood.
const SchemaVersion = "v1"

// TransformSpec declares one registration.
type TransformSpec struct {
	// Name is how the transform is invoked.
	Name string `yaml:"name" validate:"required"`
	// Implementation is a catalog alias.
	Implementation string            `yaml:"implementation" validate:"required"`
	From           map[string]string `yaml:"from"`
	To             map[string]string `yaml:"to"`
	// Config is decoded into the implementation's parameter type.
	Config map[string]any `yaml:"config"`
	// Params are handed to the implementation's Configure method.
	Params []any `yaml:"params"`
}

type File struct {
	SchemaVersion string          `yaml:"schema_version"`
	Transforms    []TransformSpec `yaml:"transforms" validate:"required,min=1,unique=Name,dive"`
}

// Find returns the transform declared under name.
func (f *File) Find(name string) (TransformSpec, bool) {
	for _, t := range f.Transforms {
		if t.Name == name {
			return t, true
		}
	}
	return TransformSpec{}, false
}
