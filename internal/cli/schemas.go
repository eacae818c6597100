package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/tensorjit/internal/schema"
)

// NewSchemasCommand creates the "schemas" command group.
func NewSchemasCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schemas",
		Short: "Operator registry tooling",
	}
	cmd.AddCommand(newSchemasValidateCommand(opts))
	cmd.AddCommand(newSchemasListCommand(opts))
	return cmd
}

func newSchemasValidateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <registry.yaml>",
		Short: "Parse a registry file and report errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := schema.NewRegistry()
			if err := r.LoadFile(args[0]); err != nil {
				return fmt.Errorf("validating %s: %w", args[0], err)
			}
			slog.Debug("registry loaded", "file", args[0], "schemas", r.Len())
			if opts.Format == "json" {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"file":    args[0],
					"schemas": r.Len(),
					"valid":   true,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d schemas OK\n", args[0], r.Len())
			return nil
		},
	}
}

func newSchemasListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <registry.yaml>",
		Short: "List declared operators",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := schema.NewRegistry()
			if err := r.LoadFile(args[0]); err != nil {
				return err
			}
			if opts.Format == "json" {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(r.Names())
			}
			for _, name := range r.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
