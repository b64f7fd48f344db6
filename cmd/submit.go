package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/promptfan/api/schemas"
	"github.com/xkilldash9x/promptfan/internal/observability"
	"github.com/xkilldash9x/promptfan/internal/service"
)

// newSubmitCmd creates the `submit` command: fan the prompt out, then poll
// submission status until every delivery reaches a terminal state.
func newSubmitCmd() *cobra.Command {
	var providerList []string
	var noRetry bool

	submitCmd := &cobra.Command{
		Use:   "submit <prompt>",
		Short: "Deliver a prompt to every selected provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			prompt := args[0]

			components, err := service.Build(appCfg, logger)
			if err != nil {
				return err
			}
			defer components.Shutdown()

			if len(providerList) > 0 {
				if err := applySelection(components, providerList); err != nil {
					return err
				}
			}

			submissions, err := components.Dispatcher.Submit(ctx, prompt)
			if err != nil {
				return err
			}
			logger.Info("Prompt dispatched", zap.Int("submissions", len(submissions)))

			ids := make([]string, len(submissions))
			for i, sub := range submissions {
				ids[i] = sub.ID
			}
			submissions, err = components.Dispatcher.Await(ctx, ids, !noRetry)
			if err != nil {
				return err
			}

			printSubmissions(cmd, submissions)
			for _, sub := range submissions {
				if sub.Status != schemas.StatusSuccess {
					return fmt.Errorf("delivery to %s failed: %s", sub.ProviderID, sub.ErrorMessage)
				}
			}
			return nil
		},
	}

	submitCmd.Flags().StringSliceVarP(&providerList, "providers", "p", nil,
		"providers to deliver to (default: all selected)")
	submitCmd.Flags().BoolVar(&noRetry, "no-retry", false,
		"do not re-run deliveries parked in the retrying state")
	return submitCmd
}

// applySelection reconciles the registry's selection flags with the
// providers named on the command line.
func applySelection(components *service.Components, names []string) error {
	want := make(map[schemas.ProviderID]bool, len(names))
	for _, name := range names {
		id := schemas.ProviderID(strings.ToLower(strings.TrimSpace(name)))
		if !id.Valid() {
			return schemas.NewNotFoundError("provider %q not found", name)
		}
		want[id] = true
	}

	// Select first so the "last selected provider" invariant never trips
	// while reconciling.
	for _, p := range components.Registry.List() {
		if want[p.ID] && !p.IsSelected {
			if _, err := components.Registry.SetSelected(p.ID, true); err != nil {
				return err
			}
		}
	}
	for _, p := range components.Registry.List() {
		if !want[p.ID] && p.IsSelected {
			if _, err := components.Registry.SetSelected(p.ID, false); err != nil {
				return err
			}
		}
	}
	return nil
}

func printSubmissions(cmd *cobra.Command, submissions []schemas.Submission) {
	for _, sub := range submissions {
		line := fmt.Sprintf("%-8s %-11s attempts=%d", sub.ProviderID, sub.Status, sub.AttemptCount)
		if sub.ErrorKind != "" {
			line += fmt.Sprintf(" error=%s (%s)", sub.ErrorKind, sub.ErrorMessage)
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
}
