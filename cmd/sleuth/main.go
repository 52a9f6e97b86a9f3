package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// flag values; zero values leave the config file setting alone
var (
	configPath    string
	apiBaseURL    string
	apiKey        string
	model         string
	temperature   float32
	maxIterations int
	toolChoice    string
	toolTimeout   string
	profile       string
	workDir       string
	captureDir    string
	verbose       bool
	noColor       bool
	jsonOutput    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "sleuth",
		Short:         "Tool-calling investigation agent",
		Long:          "sleuth answers questions about a codebase by letting a model call read, glob, grep, bash and MCP tools.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: search ./sleuth.yaml, ./configs, ~/.config/sleuth, /etc/sleuth)")
	rootCmd.PersistentFlags().StringVar(&workDir, "dir", "", "Working directory the tools operate in")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose output (debug mode)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	runCmd := &cobra.Command{
		Use:   "run [task]",
		Short: "Run the agent on a task",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runTask,
	}
	runCmd.Flags().StringVar(&apiBaseURL, "api-base-url", os.Getenv("OPENAI_API_BASE_URL"), "OpenAI-compatible API base URL")
	runCmd.Flags().StringVar(&apiKey, "api-key", "", "API key (default: config or OPENAI_API_KEY)")
	runCmd.Flags().StringVar(&model, "model", "", "Model to use")
	runCmd.Flags().Float32Var(&temperature, "temperature", -1, "Sampling temperature")
	runCmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "Maximum tool-calling iterations")
	runCmd.Flags().StringVar(&toolChoice, "tool-choice", "", "auto, none, required or a tool name")
	runCmd.Flags().StringVar(&toolTimeout, "tool-timeout", "", "Per-tool timeout, e.g. 30s (0 disables)")
	runCmd.Flags().StringVar(&profile, "profile", "", "Agent profile: general or explore")
	runCmd.Flags().StringVar(&captureDir, "capture-dir", "", "Write raw requests and responses under this directory")
	runCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the full execution result as JSON")

	toolsCmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools available to the agent",
		Args:  cobra.NoArgs,
		RunE:  listTools,
	}

	rootCmd.AddCommand(runCmd, toolsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
