// Package cli wires the elucify commands.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand returns the elucify command tree.
func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "elucify",
		Short: "Generate database bindings from annotated Go models",
		Long: `elucify reads Go structs annotated with //elucify:model and generates
type-safe query functions, relation accessors and SQL schemas for them.

Typical usage from a model file:

  //go:generate go run github.com/mickamy/elucify gen --destination ../query`,
		SilenceUsage: true,
	}
	root.AddCommand(newGenCommand())
	root.AddCommand(newSchemaCommand())
	root.AddCommand(newVersionCommand(version))
	return root
}
