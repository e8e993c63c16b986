package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"book_creator/config"
	"book_creator/delivery"
	"book_creator/document"
	"book_creator/generator"
	"book_creator/session"
)

var rootCmd = &cobra.Command{
	Use:   "book-creator",
	Short: "Generate book outlines and edit PDFs with a language model",
	Long: `book-creator turns a theme, introduction, page count and genre into a book
outline PDF, and rewrites the text of an uploaded PDF following an edit
instruction. Run "serve" for the web form, or "generate" / "edit" from the
command line.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./book-creator.yaml or ~/.config/book-creator/book-creator.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app is everything the commands share.
type app struct {
	cfg     config.Config
	logger  *logrus.Logger
	outputs *delivery.Store
	runner  *session.Runner
}

func loadApp(cmd *cobra.Command) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(config.New(cfgFile))
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	llm, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}
	agent, err := generator.NewAgent(llm)
	if err != nil {
		return nil, err
	}
	outputs, err := delivery.New(cfg.Output.Dir, logger)
	if err != nil {
		return nil, err
	}
	renderer := document.NewRenderer(document.WithStrictEncoding(cfg.Render.StrictEncoding))
	runner, err := session.NewRunner(agent, document.NewExtractor(), renderer, outputs, logger)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, outputs: outputs, runner: runner}, nil
}

func newLogger(cfg config.LogConfig) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}

func buildLLM(cfg config.Config) (generator.LLMClient, error) {
	settings := &generator.LLMSettings{
		Provider:          cfg.LLM.Provider,
		Model:             cfg.LLM.Model,
		APIKey:            cfg.LLM.APIKey,
		BaseURL:           cfg.LLM.BaseURL,
		Temperature:       cfg.LLM.Temperature,
		RequestsPerMinute: cfg.LLM.RequestsPerMinute,
	}
	switch strings.ToLower(cfg.LLM.Provider) {
	case "openai":
		return generator.NewOpenAILLMFromConfig(settings)
	case "deepseek":
		// DeepSeek 提供 OpenAI 兼容接口，需填写 base_url。
		if cfg.LLM.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return generator.NewOpenAILLMFromConfig(settings)
	case "mock":
		return generator.MockLLM{}, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.LLM.Provider)
	}
}
