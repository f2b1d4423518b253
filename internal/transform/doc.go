// Package transform is the invocation core for artifact transforms.
//
// A transform implementation is a struct type implementing Action. It asks
// for capabilities by tagging fields:
//
//	type Minify struct {
//		transform.Base
//		Input  string         `transform:"primary-input"`
//		Deps   []string       `transform:"primary-input-dependencies"`
//		Config *MinifyConfig  `transform:"parameters"`
//	}
//
// CreateRegistration runs once per declared transform. It snapshots the
// configuration, computes the fingerprint and inspects the implementation's
// injection points. Transformer.Transform then runs once per (input, output
// directory) pair: it builds an invocation-scoped Services lookup, constructs
// the action with only the capabilities it declared, sets the output
// directory, calls it and validates the returned files.
package transform
