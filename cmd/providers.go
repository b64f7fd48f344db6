package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/promptfan/api/schemas"
	"github.com/xkilldash9x/promptfan/internal/observability"
	"github.com/xkilldash9x/promptfan/internal/registry"
	"github.com/xkilldash9x/promptfan/internal/service"
)

// newProvidersCmd creates the `providers` command group.
func newProvidersCmd() *cobra.Command {
	providersCmd := &cobra.Command{
		Use:   "providers",
		Short: "List the supported providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := registry.New(observability.GetLogger())
			printProviders(cmd, reg.List())
			return nil
		},
	}

	providersCmd.AddCommand(newProvidersAuthCmd())
	return providersCmd
}

// newProvidersAuthCmd builds `providers auth`: it opens each provider's
// surface and probes its "still needs login" markers.
func newProvidersAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Check which providers have a live login session",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()

			components, err := service.Build(appCfg, logger)
			if err != nil {
				return err
			}
			defer components.Shutdown()

			for _, p := range components.Registry.List() {
				authenticated, err := components.Executor.CheckAuth(cmd.Context(), p.ID)
				if err != nil {
					logger.Warn("Auth check failed",
						zap.String("provider", string(p.ID)), zap.Error(err))
					fmt.Fprintf(cmd.OutOrStdout(), "%-8s error: %v\n", p.ID, err)
					continue
				}
				if _, err := components.Registry.SetAuthenticated(p.ID, authenticated); err != nil {
					return err
				}
				state := "needs login"
				if authenticated {
					state = "authenticated"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", p.ID, state)
			}
			return nil
		},
	}
}

func printProviders(cmd *cobra.Command, providers []schemas.Provider) {
	for _, p := range providers {
		marker := " "
		if p.IsSelected {
			marker = "*"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %-8s %-8s %s\n", marker, p.ID, p.Name, p.URL)
	}
}
