package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"donorbot-backend/internal/bot"
	"donorbot-backend/internal/tmpfiles"
	"donorbot-backend/lib/configutil"
	"donorbot-backend/lib/scrapers/forum"
	"donorbot-backend/lib/telemetry"
	"donorbot-backend/services/donations"
	"donorbot-backend/services/reports"

	"github.com/spf13/cobra"
	tgbotapi "gopkg.in/telegram-bot-api.v4"
)

var configPath string
var verbose bool

var rootCmd = &cobra.Command{
	Use:   "donorbot",
	Short: "donorbot scrapes the donation report thread and serves xlsx reports over telegram.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "donorbot.json5", "path to the config file")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// lives until Ctrl+C is pressed
func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()

	return ctx
}

func fatal(message string, err error) {
	slog.Error(message, "err", err.Error())
	os.Exit(1)
}

func run(ctx context.Context) error {
	telemetry.InitSlog(verbose)

	tel, err := telemetry.SetupFromEnv(ctx, "donorbot")
	if err != nil && !os.IsNotExist(err) {
		fatal("setup telemetry", err)
	}
	if err == nil {
		defer tel.Shutdown(context.Background())
	}

	config, err := configutil.ReadConfig[Config](configPath)
	if err != nil {
		fatal("read config", err)
	}
	if config.Telegram.Token == "" {
		fatal("read config", fmt.Errorf("telegram.token is required"))
	}
	if config.Scrape.ForumUrl == "" {
		fatal("read config", fmt.Errorf("scrape.forum_url is required"))
	}

	client, err := forum.NewClient(forum.ClientOptions{
		BaseUrl:      config.Scrape.ForumUrl,
		Timeout:      config.Scrape.fetchTimeout(),
		MaxRetries:   config.Scrape.MaxRetries,
		RetryBackoff: config.Scrape.retryBackoff(),
		RequestDelay: config.Scrape.requestDelay(),
		OffsetParam:  config.Scrape.OffsetParam,
		PageSize:     config.Scrape.PageSize,
	})
	if err != nil {
		fatal("create forum client", err)
	}

	donationsSvc := donations.NewService(client, donations.Options{
		CacheTTL:      config.Scrape.cacheTtl(),
		MaxPages:      config.Scrape.MaxPages,
		ParallelFetch: config.Scrape.ParallelFetch,
	})
	reportsSvc := reports.NewService(ctx, donationsSvc)

	tmpPath := config.Reports.TmpDir
	if tmpPath == "" {
		tmpPath = filepath.Join(os.TempDir(), "donorbot")
	}
	tmp, err := tmpfiles.New(tmpPath)
	if err != nil {
		fatal("create report dir", err)
	}
	janitor, err := tmp.ScheduleCleanup(
		config.Reports.cleanupSpec(),
		config.Reports.cleanupMaxAge(),
	)
	if err != nil {
		fatal("schedule report cleanup", err)
	}
	defer janitor.Stop()

	api, err := tgbotapi.NewBotAPI(config.Telegram.Token)
	if err != nil {
		fatal("connect to telegram", err)
	}

	return bot.New(api, reportsSvc, tmp).Run(ctx)
}

func main() {
	if err := rootCmd.ExecuteContext(signalContext()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
