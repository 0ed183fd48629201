// cmd/specgen/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"drone-configurator/internal/common/config"
	"drone-configurator/internal/common/logger"
	"drone-configurator/internal/models"
	"drone-configurator/internal/specgen"
)

var (
	configPath string
	modelFlag  string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "specgen",
	Short:         "Generate drone build specifications from a description",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var generateCmd = &cobra.Command{
	Use:   "generate <prompt>",
	Short: "Run the specification pipeline once and print the outcome JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGenerate,
}

var promptCmd = &cobra.Command{
	Use:   "prompt <prompt>",
	Short: "Print the composed provider prompt without calling any provider",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPrompt,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a config file (defaults to configs/config.yaml discovery)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline decisions to stderr")
	generateCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "preferred provider: openai or anthropic")

	rootCmd.AddCommand(generateCmd, promptCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

func newLogger() logger.Logger {
	if !verbose {
		return logger.NewNoOpLogger()
	}
	return logger.NewZapAdapter(logger.New("debug", "console", "stderr"))
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pipeline, err := specgen.NewFromConfig(cfg, nil, newLogger())
	if err != nil {
		return err
	}

	outcome := pipeline.Generate(context.Background(), models.BuildRequest{
		Prompt: strings.Join(args, " "),
		Model:  models.ModelPreference(modelFlag),
	})

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(outcome); err != nil {
		return err
	}
	if !outcome.Success {
		return fmt.Errorf("%s", outcome.Error)
	}
	return nil
}

func runPrompt(cmd *cobra.Command, args []string) error {
	composer := specgen.NewComposer("")
	fmt.Fprintln(cmd.OutOrStdout(), composer.Compose(strings.Join(args, " ")))
	return nil
}
