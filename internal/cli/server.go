package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/FoadGhasemi/CodeSpark/internal/app"
	"github.com/FoadGhasemi/CodeSpark/internal/config"
	"github.com/FoadGhasemi/CodeSpark/internal/infra/memory"
	"github.com/FoadGhasemi/CodeSpark/internal/logging"
	"github.com/FoadGhasemi/CodeSpark/internal/metrics"
	transport "github.com/FoadGhasemi/CodeSpark/internal/transport/http"
	"github.com/FoadGhasemi/CodeSpark/internal/transport/telegram"
)

// NewStartCmd builds the CLI subcommand that runs the bot and its HTTP server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the bot and the webhook server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
	cmd.Flags().StringVar(port, "port", os.Getenv("PORT"), "port to listen on (overrides server.port)")
	return cmd
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if portFlag != "" {
		cfg.Server.Port = portFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(cfg.App.Name, cfg.App.Env)
	ctx = logging.IntoContext(ctx, logger)
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	names := documentNames(cfg)
	store := memory.NewCachedStore(backend, config.TTLDuration(cfg.Storage.MessagesTTL, time.Minute), names.Messages)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	client, err := telegram.NewClient(cfg.Bot.Token, cfg.Bot.Debug, logger)
	if err != nil {
		return err
	}
	service := app.NewBotService(store, client, app.ServiceOptions{
		AdminID:     cfg.Bot.AdminID,
		SupportURL:  cfg.Bot.SupportURL,
		SendTimeout: config.TTLDuration(cfg.Bot.SendTimeout, 10*time.Second),
		Documents:   names,
		Logger:      logger,
		Metrics:     metrics.New(registry),
	})
	bot := telegram.NewBot(client, service, cfg.Bot.Workers, logger)

	routes := transport.Routes{
		Payments: transport.NewPaymentHandler(service, logger),
		Gatherer: registry,
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Bot.WebhookURL != "" {
		updates := make(chan tgbotapi.Update, 100)
		routes.TelegramPath = "/" + cfg.Bot.Token
		routes.Telegram = telegram.WebhookHandler(updates, logger)
		if err := client.SetWebhook(strings.TrimRight(cfg.Bot.WebhookURL, "/") + routes.TelegramPath); err != nil {
			return err
		}
		g.Go(func() error { return bot.RunWebhook(gctx, updates) })
	} else {
		if err := client.DeleteWebhook(); err != nil {
			logger.Warn().Err(err).Msg("could not clear webhook before polling")
		}
		g.Go(func() error { return bot.Run(gctx) })
	}

	server := transport.NewServer(":"+cfg.Server.Port, routes)
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
