package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lumenworks/sage/internal/artifact"
	"github.com/lumenworks/sage/internal/config"
	"github.com/lumenworks/sage/internal/convo"
	"github.com/lumenworks/sage/internal/genai"
	"github.com/lumenworks/sage/internal/job"
	"github.com/lumenworks/sage/internal/observability"
	"github.com/lumenworks/sage/internal/persona"
	"github.com/lumenworks/sage/internal/router"
	"github.com/lumenworks/sage/internal/session"
)

var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "sage",
	Short: "Converse with AI personas that can illustrate their answers with generated video",
	RunE:  runChat,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sage %s\n", Version)
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	RunE:  runChat,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask one question and print the reply (routes to the best persona unless --persona is set)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List the available personas",
	Run: func(cmd *cobra.Command, args []string) {
		for _, p := range persona.All() {
			fmt.Printf("%-18s %-9s %s\n", p.ID, p.Name, p.Summary)
		}
	},
}

var (
	flagPersona     string
	flagRouterModel string
	flagNoVideo     bool
)

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(personasCmd)

	chatCmd.Flags().StringVarP(&flagPersona, "persona", "p", "", "Skip selection and chat with this persona ID")
	askCmd.Flags().StringVarP(&flagPersona, "persona", "p", "", "Ask this persona ID instead of routing")
	askCmd.Flags().BoolVar(&flagNoVideo, "no-video", false, "Skip video generation even when the reply requests one")
	chatCmd.Flags().StringVarP(&flagRouterModel, "router-model", "m", "", "Routing model: gemini-flash, gemini-pro, haiku, sonnet, nova-lite")
	askCmd.Flags().StringVarP(&flagRouterModel, "router-model", "m", "", "Routing model: gemini-flash, gemini-pro, haiku, sonnet, nova-lite")
}

func Execute() error {
	return rootCmd.Execute()
}

// wire builds the orchestrator stack shared by chat and ask. baseCtx
// bounds every video polling goroutine the orchestrator spawns. The
// artifact store is returned alongside so surfaces can release files
// they no longer display.
func wire(baseCtx context.Context, logger *slog.Logger) (*convo.Orchestrator, *artifact.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if flagRouterModel != "" {
		cfg.RouterModel = flagRouterModel
	}

	gemini, err := genai.NewGeminiClient(cfg.GeminiAPIKey, cfg.TextModel, cfg.VideoModel)
	if err != nil {
		return nil, nil, err
	}

	routeGen, err := routerGenerator(baseCtx, cfg, gemini)
	if err != nil {
		return nil, nil, err
	}

	store, err := artifact.NewStore(cfg.VideosDir, gemini)
	if err != nil {
		return nil, nil, err
	}

	sess := session.New(session.GeminiProvider{Client: gemini}, logger)
	rtr := router.New(routeGen, logger)
	newJob := func(jobID string) convo.JobRunner {
		return job.New(jobID, gemini, store, logger)
	}

	return convo.New(baseCtx, sess, rtr, newJob, persona.All(), logger), store, nil
}

// routerGenerator picks the one-shot text generator used for routing.
// Gemini is the default; Claude and Nova are for setups that already
// hold those credentials.
func routerGenerator(ctx context.Context, cfg config.Config, gemini *genai.GeminiClient) (genai.TextGenerator, error) {
	switch cfg.RouterModel {
	case "haiku", "sonnet":
		return genai.NewClaudeGenerator(cfg.RouterModel), nil
	case "nova-lite":
		return genai.NewNovaGenerator(ctx, cfg.RouterModel)
	default:
		return gemini, nil
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	logger := observability.NewLogger()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	orc, store, err := wire(ctx, logger)
	if err != nil {
		return err
	}
	defer orc.Close()

	var initial *persona.Persona
	if flagPersona != "" {
		p, ok := persona.ByID(flagPersona)
		if !ok {
			return fmt.Errorf("unknown persona %q (try 'sage personas')", flagPersona)
		}
		initial = &p
	}

	return runChatUI(ctx, orc, store, initial)
}
