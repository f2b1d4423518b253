package pipeline

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/go-viper/mapstructure/v2"

	"xform/internal/attribute"
	"xform/internal/config"
	"xform/internal/hashing"
	"xform/internal/logging"
	"xform/internal/manifest"
	"xform/internal/transform"
)

// Compiled is one registration built from the manifest.
type Compiled struct {
	Name         string
	Alias        string
	Registration *transform.Registration
}

// Registrations are the compiled transforms of one manifest, by name.
type Registrations struct {
	byName map[string]Compiled
}

func (r *Registrations) Get(name string) (Compiled, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Names returns the transform names in sorted order.
func (r *Registrations) Names() []string {
	out := make([]string, 0, len(r.byName))
	for n := range r.byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (r *Registrations) Len() int { return len(r.byName) }

// Compile loads the manifest at path and registers every transform it
// declares.
func Compile(path string, cat *transform.Catalog, env hashing.EnvironmentHasher) (*Registrations, error) {
	f, err := config.LoadManifest(path)
	if err != nil {
		return nil, err
	}
	return CompileFile(f, cat, env)
}

func CompileFile(f manifest.File, cat *transform.Catalog, env hashing.EnvironmentHasher) (*Registrations, error) {
	out := &Registrations{byName: make(map[string]Compiled, len(f.Transforms))}
	for _, ts := range f.Transforms {
		if _, dup := out.byName[ts.Name]; dup {
			return nil, fmt.Errorf("transform %q declared twice", ts.Name)
		}
		reg, err := compileOne(ts, cat, env)
		if err != nil {
			return nil, fmt.Errorf("transform %s: %w", ts.Name, err)
		}
		out.byName[ts.Name] = Compiled{Name: ts.Name, Alias: ts.Implementation, Registration: reg}
		logging.L().Info("transform registered",
			"name", ts.Name,
			"implementation", ts.Implementation,
			"fingerprint", reg.Transformer().Fingerprint().String(),
		)
	}
	return out, nil
}

func compileOne(ts manifest.TransformSpec, cat *transform.Catalog, env hashing.EnvironmentHasher) (*transform.Registration, error) {
	impl, err := cat.Lookup(ts.Implementation)
	if err != nil {
		return nil, err
	}
	factory, err := transform.DefaultScheme.ForType(impl)
	if err != nil {
		return nil, err
	}
	params, err := decodeConfig(ts.Config, factory.ParametersType())
	if err != nil {
		return nil, err
	}
	return transform.CreateRegistration(
		attribute.Of(ts.From),
		attribute.Of(ts.To),
		impl,
		params,
		ts.Params,
		transform.FingerprintInputs{Environment: env},
	)
}

// decodeConfig turns the manifest's config block into a value of the type
// the implementation declares for its parameters.
func decodeConfig(raw map[string]any, typ reflect.Type) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if typ == nil {
		return nil, fmt.Errorf("implementation takes no config")
	}
	if typ.Kind() == reflect.Interface {
		return raw, nil
	}

	target := typ
	if typ.Kind() == reflect.Ptr {
		target = typ.Elem()
	}
	ptr := reflect.New(target)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		ErrorUnused: true,
		Result:      ptr.Interface(),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if target.Kind() == reflect.Struct {
		if err := config.Validate(ptr.Interface()); err != nil {
			return nil, err
		}
	}
	if typ.Kind() == reflect.Ptr {
		return ptr.Interface(), nil
	}
	return ptr.Elem().Interface(), nil
}
