package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/easelhq/easel/internal/genai"
)

// GenerateResult is the JSON payload of the generate command.
type GenerateResult struct {
	Output   string `json:"output"`
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
	Seed     int64  `json:"seed"`
	Attempt  int    `json:"attempt"`
	Bytes    int    `json:"bytes"`
	MIME     string `json:"mime"`
}

type generateOptions struct {
	negative string
	width    int
	height   int
	seed     int64
	steps    int
	model    string
	provider string
	output   string
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	genOpts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Generate an image from a text prompt",
		Long: `Generate an image using the configured provider, with retry and
backoff on transient failures.

The free provider needs no credentials. The paid provider requires an
API key via the EASEL_DEZGO_KEY environment variable.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(rootOpts, genOpts, strings.Join(args, " "), cmd)
		},
	}

	cmd.Flags().StringVar(&genOpts.negative, "negative", "", "negative prompt")
	cmd.Flags().IntVar(&genOpts.width, "width", 1024, "image width in pixels")
	cmd.Flags().IntVar(&genOpts.height, "height", 1024, "image height in pixels")
	cmd.Flags().Int64Var(&genOpts.seed, "seed", 0, "generation seed (0 = random)")
	cmd.Flags().IntVar(&genOpts.steps, "steps", 0, "inference steps (provider default when 0)")
	cmd.Flags().StringVar(&genOpts.model, "model", "", "model name (provider default when empty)")
	cmd.Flags().StringVar(&genOpts.provider, "provider", "", "provider name (first registered when empty)")
	cmd.Flags().StringVarP(&genOpts.output, "out", "o", "generated.png", "output file path")

	return cmd
}

func runGenerate(opts *RootOptions, genOpts *generateOptions, prompt string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	orch, err := newOrchestrator(formatter)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot configure providers", err)
	}
	if genOpts.provider != "" {
		if err := orch.UseProvider(genOpts.provider); err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "cannot select provider", err)
		}
	}

	params := genai.Params{
		Prompt:         prompt,
		NegativePrompt: genOpts.negative,
		Width:          genOpts.width,
		Height:         genOpts.height,
		Seed:           genOpts.seed,
		Steps:          genOpts.steps,
		Model:          genOpts.model,
	}

	res, err := orch.GenerateImage(cmd.Context(), params)
	if err != nil {
		_ = formatter.Error(generationErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitFailure, "generation failed", err)
	}

	if err := os.WriteFile(genOpts.output, res.Data, 0o644); err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot write output", err)
	}

	result := GenerateResult{
		Output:   genOpts.output,
		Provider: res.Meta.Provider,
		Model:    res.Meta.Model,
		Seed:     res.Meta.Seed,
		Attempt:  res.Meta.Attempt,
		Bytes:    len(res.Data),
		MIME:     res.MIME,
	}
	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Generated %s (%d bytes, attempt %d via %s)\n",
		result.Output, result.Bytes, result.Attempt, result.Provider)
	return nil
}

// newOrchestrator builds the provider registry shared by generation
// commands. The free provider is always registered; the paid provider
// only when its key is present in the environment.
func newOrchestrator(formatter *OutputFormatter) (*genai.Orchestrator, error) {
	logger := slog.Default()
	providers := []genai.Provider{
		genai.NewPollinations(logger),
	}
	if key := os.Getenv("EASEL_DEZGO_KEY"); key != "" {
		providers = append(providers, genai.NewDezgo(key, logger))
	}

	return genai.NewOrchestrator(providers,
		genai.WithProgress(func(attempt, maxAttempts int) {
			if attempt > 1 {
				formatter.VerboseLog("retrying generation (attempt %d/%d)", attempt, maxAttempts)
			}
		}),
	)
}

func generationErrorCode(err error) string {
	var gerr *genai.GenerationError
	if errors.As(err, &gerr) {
		return string(gerr.Kind)
	}
	return ErrCodeGeneric
}
