package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/apoorv/socratic/internal/config"
	"github.com/apoorv/socratic/internal/llm"
	"github.com/apoorv/socratic/internal/logger"
	"github.com/apoorv/socratic/internal/mastery"
	"github.com/apoorv/socratic/internal/ontology"
	"github.com/apoorv/socratic/internal/question"
	"github.com/apoorv/socratic/internal/quiz"
	"github.com/apoorv/socratic/internal/server"
	"github.com/apoorv/socratic/internal/store"
	"github.com/apoorv/socratic/internal/teach"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		log, err := logger.New(cfg.Log.Mode)
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := store.Open(store.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN}, log)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		lcfg := llmConfig(cfg)
		if err := lcfg.Validate(); err != nil {
			return err
		}
		provider, err := llm.NewProvider(ctx, lcfg, log)
		if err != nil {
			return fmt.Errorf("init LLM provider: %w", err)
		}

		ledger := mastery.NewLedger(st.Mastery(), log)

		provCfg := question.DefaultConfig()
		provCfg.Timeout = cfg.LLM.QuestionTimeout
		provisioner := question.NewProvisioner(provider, provCfg, log)

		cache := ontology.NewTreeCache(st.Topics(), cfg.Quiz.TreeCacheTTL)
		genCfg := ontology.DefaultConfig()
		genCfg.Timeout = cfg.LLM.OntologyTimeout
		generator := ontology.NewGenerator(provider, st, cache, genCfg, log)

		teacher := teach.NewService(provider, teach.DefaultConfig(), log)

		quizCfg := quiz.DefaultConfig()
		quizCfg.IdleTimeout = cfg.Quiz.SessionIdleTimeout
		svc := quiz.NewService(st, ledger, provisioner, generator, cache, teacher, quizCfg, log)

		srv := server.New(svc, server.Config{
			Addr:            cfg.Server.Addr,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
		}, log)

		return srv.Run(ctx)
	},
}

// llmConfig maps service configuration onto the provider package.
func llmConfig(cfg *config.Config) llm.Config {
	out := llm.DefaultConfig()
	out.Provider = cfg.LLM.Provider
	if cfg.LLM.AnthropicAPIKey != "" {
		out.Anthropic.APIKey = cfg.LLM.AnthropicAPIKey
	}
	if cfg.LLM.AnthropicModel != "" {
		out.Anthropic.Model = cfg.LLM.AnthropicModel
	}
	if cfg.LLM.OpenAIAPIKey != "" {
		out.OpenAI.APIKey = cfg.LLM.OpenAIAPIKey
	}
	if cfg.LLM.OpenAIModel != "" {
		out.OpenAI.Model = cfg.LLM.OpenAIModel
	}
	if cfg.LLM.OpenAIBaseURL != "" {
		out.OpenAI.BaseURL = cfg.LLM.OpenAIBaseURL
	}
	if cfg.LLM.GeminiAPIKey != "" {
		out.Gemini.APIKey = cfg.LLM.GeminiAPIKey
	}
	if cfg.LLM.GeminiModel != "" {
		out.Gemini.Model = cfg.LLM.GeminiModel
	}
	return out
}
