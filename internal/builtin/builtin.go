// Package builtin holds the transform implementations shipped with xform.
package builtin

import (
	"xform/internal/transform"
)

// Aliases under which Register binds the built-in implementations.
const (
	AliasIdentity           = "identity"
	AliasCopy               = "copy"
	AliasDependencyManifest = "dependency-manifest"
	AliasRemote             = "remote"
)

// Register adds every built-in implementation to c.
func Register(c *transform.Catalog) error {
	for alias, impl := range map[string]transform.Implementation{
		AliasIdentity:           transform.ImplementationOf[Identity](),
		AliasCopy:               transform.ImplementationOf[Copy](),
		AliasDependencyManifest: transform.ImplementationOf[DependencyManifest](),
		AliasRemote:             transform.ImplementationOf[Remote](),
	} {
		if err := c.Register(alias, impl); err != nil {
			return err
		}
	}
	return nil
}
