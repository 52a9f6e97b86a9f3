package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sleuth/internal/agent"
	"sleuth/internal/capture"
	"sleuth/internal/config"
	"sleuth/internal/hook"
	"sleuth/internal/hook/handlers"
	"sleuth/internal/llm"
	"sleuth/internal/llm/openai"
	"sleuth/internal/logger"
	"sleuth/internal/mcp"
	"sleuth/internal/tool"
	"sleuth/internal/tool/builtin"
)

func runTask(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Provider.APIKey == "" {
		return fmt.Errorf("API key required (set provider.api_key, OPENAI_API_KEY or --api-key)")
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	registry, mcpManager := buildRegistry(ctx, cfg, log)
	defer mcpManager.Close()

	p, err := agent.ParseProfile(cfg.Agent.Profile)
	if err != nil {
		return err
	}

	client := openai.NewClient(openai.Config{
		APIKey:  cfg.Provider.APIKey,
		BaseURL: cfg.Provider.BaseURL,
		Model:   cfg.Provider.Model,
		Timeout: cfg.Provider.Timeout,
	})
	log.Debug("Using %s model %s", client.Provider(), client.Model())

	invoker := llm.NewInvoker(client)
	invoker.SetLogger(log)
	if cfg.Debug.CaptureDir != "" {
		sink, err := capture.NewFileSink(cfg.Debug.CaptureDir)
		if err != nil {
			log.Warn("Debug capture disabled: %v", err)
		} else {
			invoker.SetCapture(sink)
			log.Info("Capturing requests to %s", sink.Dir())
		}
	}

	agentCfg := &agent.Config{
		Model:         cfg.Provider.Model,
		Temperature:   *cfg.Provider.Temperature,
		MaxTokens:     cfg.Provider.MaxOutputTokens,
		MaxIterations: cfg.Agent.MaxIterations,
		ToolChoice:    llm.ParseToolChoice(cfg.Agent.ToolChoice),
		ToolTimeout:   cfg.Agent.ToolTimeout,
	}
	if cfg.Agent.KeepMessages > 0 {
		agentCfg.Reduce = llm.DropOldestTurns(cfg.Agent.KeepMessages)
	}

	executor, err := agent.NewProfileExecutor(p, invoker, registry, agentCfg)
	if err != nil {
		return err
	}
	executor.SetLogger(log)
	executor.SetHookManager(buildHooks(cfg))

	task := strings.Join(args, " ")
	result, err := executor.Run(ctx, p.Messages(executor.Registry(), task))
	if err != nil {
		log.Error("Agent execution failed: %v", err)
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.FinalMessage)
	return nil
}

func listTools(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	registry, mcpManager := buildRegistry(cmd.Context(), cfg, log)
	defer mcpManager.Close()

	out := cmd.OutOrStdout()
	for _, t := range registry.GetAll() {
		desc, _, _ := strings.Cut(t.Description(), "\n")
		fmt.Fprintf(out, "%-24s %s\n", t.Name(), desc)
	}
	return nil
}

// loadConfig reads the config file and applies command line overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, _, err = config.LoadWithDefaults()
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if apiBaseURL != "" {
		cfg.Provider.BaseURL = apiBaseURL
	}
	if apiKey != "" {
		cfg.Provider.APIKey = apiKey
	}
	if model != "" {
		cfg.Provider.Model = model
	}
	if flags.Changed("temperature") {
		t := temperature
		cfg.Provider.Temperature = &t
	}
	if maxIterations > 0 {
		cfg.Agent.MaxIterations = maxIterations
	}
	if toolChoice != "" {
		cfg.Agent.ToolChoice = toolChoice
	}
	if toolTimeout != "" {
		d, err := time.ParseDuration(toolTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid --tool-timeout: %w", err)
		}
		cfg.Agent.ToolTimeout = d
	}
	if profile != "" {
		cfg.Agent.Profile = profile
	}
	if workDir != "" {
		cfg.Agent.WorkingDir = workDir
	}
	if captureDir != "" {
		cfg.Debug.CaptureDir = captureDir
	}
	if verbose {
		cfg.Debug.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	level, err := logger.ParseLevel(cfg.Debug.LogLevel)
	if err != nil {
		return nil, err
	}
	// stdout carries the answer; progress goes to stderr
	log := logger.NewLogger(os.Stderr, level)
	if noColor {
		log.SetColorMode(false)
	}
	return log, nil
}

func buildRegistry(ctx context.Context, cfg *config.Config, log *logger.Logger) (*tool.Registry, *mcp.Manager) {
	registry := tool.NewRegistry(&tool.Env{
		WorkingDir: cfg.Agent.WorkingDir,
		Logger:     log,
	})
	if err := registry.RegisterAll(builtin.All()...); err != nil {
		// built-in names are fixed, so this only fires on a programming error
		panic(err)
	}

	manager := mcp.NewManager(registry, log)
	if err := manager.Initialize(ctx, cfg.MCP); err != nil {
		log.Warn("MCP unavailable: %v", err)
	}

	log.Info("Registered %d tools", registry.Count())
	return registry, manager
}

func buildHooks(cfg *config.Config) *hook.Manager {
	if len(cfg.Hooks.ToolConfirm) == 0 {
		return nil
	}
	manager := hook.NewManager()
	manager.Register(handlers.NewToolConfirmHandler(cfg.Hooks.ToolConfirm...))
	return manager
}
