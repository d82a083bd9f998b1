package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/easelhq/easel/internal/genai"
)

// ProvidersResult is the JSON payload of the providers command.
type ProvidersResult struct {
	Providers []genai.ProviderInfo `json:"providers"`
	Models    []string             `json:"models,omitempty"`
}

// NewProvidersCommand creates the providers command.
func NewProvidersCommand(rootOpts *RootOptions) *cobra.Command {
	var listModels bool
	var providerName string

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List registered generation providers",
		Long: `List the registered generation providers, their availability, and
optionally the model catalog of one provider.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProviders(rootOpts, providerName, listModels, cmd)
		},
	}

	cmd.Flags().BoolVar(&listModels, "models", false, "also list the selected provider's models")
	cmd.Flags().StringVar(&providerName, "provider", "", "provider to query models for (first registered when empty)")

	return cmd
}

func runProviders(opts *RootOptions, providerName string, listModels bool, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	orch, err := newOrchestrator(formatter)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot configure providers", err)
	}
	if providerName != "" {
		if err := orch.UseProvider(providerName); err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "cannot select provider", err)
		}
	}

	result := ProvidersResult{Providers: orch.ListProviders(cmd.Context())}
	if listModels {
		models, err := orch.ListModels(cmd.Context())
		if err != nil {
			_ = formatter.Error(generationErrorCode(err), err.Error(), nil)
			return WrapExitError(ExitFailure, "cannot list models", err)
		}
		result.Models = models
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}

	for _, p := range result.Providers {
		marker := " "
		if p.Current {
			marker = "*"
		}
		avail := "available"
		if !p.Available {
			avail = "unavailable (missing credentials)"
		}
		fmt.Fprintf(formatter.Writer, "%s %s (%s): %s\n", marker, p.Name, p.Kind, avail)
	}
	if listModels {
		fmt.Fprintln(formatter.Writer, "\nModels:")
		for _, m := range result.Models {
			fmt.Fprintf(formatter.Writer, "  %s\n", m)
		}
	}
	return nil
}
