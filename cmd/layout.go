package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/promptfan/api/schemas"
	"github.com/xkilldash9x/promptfan/internal/layout"
)

// newLayoutCmd creates the `layout` command: print the split-screen panel
// geometry a front-end should use for the given providers.
func newLayoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layout <provider>[,<provider>...]",
		Short: "Compute split-screen panel geometry for a set of providers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ids []schemas.ProviderID
			for _, name := range strings.Split(args[0], ",") {
				id := schemas.ProviderID(strings.ToLower(strings.TrimSpace(name)))
				if !id.Valid() {
					return schemas.NewNotFoundError("provider %q not found", name)
				}
				ids = append(ids, id)
			}

			cfg, err := layout.Calculate(ids)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
