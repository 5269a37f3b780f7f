package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/warroom/warroom-bot/internal/config"
	"github.com/warroom/warroom-bot/internal/models"
	"github.com/warroom/warroom-bot/internal/monitoring"
	"github.com/warroom/warroom-bot/internal/rotation"
	"github.com/warroom/warroom-bot/internal/sources"
)

var (
	activationID string
	feedRows     int
	pageInterval time.Duration
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "public-dashboard",
	Short: "Show the rotating public War Room dashboard in the terminal",
	Long: "public-dashboard rotates between the overview, feed and threat pages of an\n" +
		"activation, refreshing the data every minute. Type n (next), p (previous),\n" +
		"space (pause/resume) or q (quit) followed by Enter.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, using system environment variables")
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		// keep log lines from tearing the screen
		logrus.SetOutput(os.Stderr)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fetch, err := newFetcher(ctx, cfg)
		if err != nil {
			return err
		}

		rotationCfg := rotation.DefaultConfig()
		rotationCfg.PageInterval = pageInterval
		rotationCfg.RefreshInterval = cfg.RefreshInterval
		// one terminal line per second
		rotationCfg.ScrollStep = float64(rotationCfg.Tick) / float64(time.Second)

		feedPanel := &rotation.Scroller{ViewportHeight: float64(feedRows)}
		screen := newScreen(os.Stdout, feedRows)
		controller := rotation.NewController(rotationCfg, fetch, func(snap rotation.Snapshot) {
			if snap.Summary != nil {
				feedPanel.ContentHeight = float64(len(snap.Summary.TopRiskItems))
			}
			screen.Render(snap)
		}, feedPanel)

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go readCommands(os.Stdin, controller, cancel)

		err = controller.Run(ctx, clockwork.NewRealClock())
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.Flags().StringVarP(&activationID, "activation", "a", "", "Activation ID, read from the database instead of the public dashboard API")
	rootCmd.Flags().IntVar(&feedRows, "rows", 8, "Number of feed rows visible at once")
	rootCmd.Flags().DurationVar(&pageInterval, "page-interval", 15*time.Second, "Time spent on each page")
}

// newFetcher reads from the public dashboard API when a token is configured,
// otherwise it assembles the summary locally from the database
func newFetcher(ctx context.Context, cfg *config.Config) (rotation.FetchFunc, error) {
	api := sources.NewAPIClient(cfg.APIBaseURL, cfg.APIToken)
	if activationID == "" && api.IsEnabled() && cfg.PublicDashboardToken != "" {
		if cfg.PublicDashboardPassword != "" {
			if err := api.VerifyPublicDashboard(ctx, cfg.PublicDashboardToken, cfg.PublicDashboardPassword); err != nil {
				return nil, fmt.Errorf("public dashboard access denied: %w", err)
			}
		}
		return func(ctx context.Context) (*models.DashboardSummary, error) {
			return api.PublicDashboardData(ctx, cfg.PublicDashboardToken)
		}, nil
	}

	id := activationID
	if id == "" && len(cfg.ActivationIDs) > 0 {
		id = cfg.ActivationIDs[0]
	}
	if id == "" {
		return nil, fmt.Errorf("set --activation, ACTIVATION_IDS or PUBLIC_DASHBOARD_TOKEN")
	}

	feed := sources.NewSupabaseClient(cfg.SupabaseURL, cfg.SupabaseKey)
	service := monitoring.NewService(cfg, feed, nil, nil)
	return func(ctx context.Context) (*models.DashboardSummary, error) {
		return service.BuildSummary(ctx, id)
	}, nil
}

func readCommands(in *os.File, controller *rotation.Controller, quit context.CancelFunc) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "n":
			controller.Next()
		case "p":
			controller.Prev()
		case "", " ":
			controller.TogglePause()
		case "q":
			quit()
			return
		}
	}
}
