package transform

import (
	"fmt"

	"xform/internal/attribute"
	"xform/internal/hashing"
	"xform/internal/isolation"
	"xform/internal/logging"
)

// Registration binds a transformer to the attribute sets it converts between.
type Registration struct {
	from        attribute.Set
	to          attribute.Set
	transformer *Transformer
}

func (r *Registration) From() attribute.Set { return r.from }

func (r *Registration) To() attribute.Set { return r.to }

func (r *Registration) Transformer() *Transformer { return r.transformer }

// FingerprintInputs are the collaborators CreateRegistration draws on.
type FingerprintInputs struct {
	// Environment identifies the code an implementation is loaded from.
	// Defaults to a build info hasher.
	Environment hashing.EnvironmentHasher
	// Scheme defaults to DefaultScheme.
	Scheme *Scheme
}

var defaultEnvironment = hashing.NewBuildInfoHasher()

// CreateRegistration isolates config and params, fingerprints them together
// with the implementation and builds the registration. Every error it returns
// is a *ConfigurationError.
func CreateRegistration(from, to attribute.Set, impl Implementation, config any, params []any, in FingerprintInputs) (*Registration, error) {
	if impl.IsZero() {
		return nil, &ConfigurationError{Msg: "transform implementation is not set"}
	}
	env := in.Environment
	if env == nil {
		env = defaultEnvironment
	}
	scheme := in.Scheme
	if scheme == nil {
		scheme = DefaultScheme
	}
	if params == nil {
		params = []any{}
	}

	h := hashing.NewHasher()
	h.PutString(impl.Name())
	h.PutHash(env.EnvironmentHash(impl.PkgPath()))

	paramsSnap, err := isolation.Isolate(params)
	if err == nil {
		var configSnap isolation.Snapshot
		if configSnap, err = isolation.Isolate(config); err == nil {
			return register(from, to, impl, h, paramsSnap, configSnap, scheme)
		}
	}
	return nil, &ConfigurationError{
		Implementation: impl.DisplayName(),
		Msg:            fmt.Sprintf("could not snapshot parameters values for transform %s: %v", impl.DisplayName(), params),
		Err:            err,
	}
}

func register(from, to attribute.Set, impl Implementation, h *hashing.Hasher, params, config isolation.Snapshot, scheme *Scheme) (*Registration, error) {
	params.AppendToHasher(h)
	config.AppendToHasher(h)

	factory, err := scheme.ForType(impl)
	if err != nil {
		return nil, &ConfigurationError{
			Implementation: impl.DisplayName(),
			Msg:            fmt.Sprintf("invalid transform implementation %s", impl.DisplayName()),
			Err:            err,
		}
	}

	t := &Transformer{
		impl:                 impl,
		from:                 from,
		params:               params,
		config:               config,
		fingerprint:          h.Hash(),
		factory:              factory,
		requiresDependencies: factory.TriggeredBy(KindPrimaryInputDependencies),
	}
	logging.L().Debug("transform registered",
		"implementation", impl.Name(),
		"from", from.String(),
		"to", to.String(),
		"fingerprint", t.fingerprint.String(),
	)
	return &Registration{from: from, to: to, transformer: t}, nil
}
