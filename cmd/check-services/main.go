package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/warroom/warroom-bot/internal/config"
	"github.com/warroom/warroom-bot/internal/sources"
	"github.com/warroom/warroom-bot/internal/storage"
)

var (
	timeout time.Duration
	cfg     *config.Config
	api     *sources.APIClient
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "check-services",
	Short:        "Probe the database and companion API the War Room depends on",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, using system environment variables")
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		api = sources.NewAPIClient(cfg.APIBaseURL, cfg.APIToken)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		fmt.Println("🔍 War Room - Service Connectivity Check")
		fmt.Println("========================================")
		fmt.Println(strings.Repeat("-", 40))

		failed := 0
		if !checkDatabase(ctx) {
			failed++
		}
		if !checkAPI(ctx) {
			failed++
		}
		if !checkPublicDashboard(ctx) {
			failed++
		}

		if failed > 0 {
			return fmt.Errorf("%d checks failed", failed)
		}
		fmt.Println("\n✅ All checks passed!")
		return nil
	},
}

var controlCmd = &cobra.Command{
	Use:   "control <service> <start|stop|restart>",
	Short: "Start, stop or restart a backend service through the companion API",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		if err := api.ControlService(ctx, args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("✅ %s: %s requested\n", args[0], args[1])
		return nil
	},
}

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List the monitored channels registered in the companion API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		channels, err := api.ListChannels(ctx)
		if err != nil {
			return err
		}
		for _, ch := range channels {
			state := "inativo"
			if ch.Active {
				state = "ativo"
			}
			fmt.Printf("%-36s %-12s %-8s %s\n", ch.ID, ch.Platform, state, ch.Name)
		}
		return nil
	},
}

var analysisCmd = &cobra.Command{
	Use:   "analysis <activation-id>",
	Short: "Request an AI analysis of an activation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		analysis, err := api.GenerateAIAnalysis(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Println(analysis.Summary)
		printList("Destaques", analysis.Highlights)
		printList("Riscos", analysis.Risks)
		printList("Recomendações", analysis.Recommendations)
		return nil
	},
}

var keywordsCmd = &cobra.Command{
	Use:   "keywords <activation-id> <keyword,keyword,...>",
	Short: "Replace the monitored keywords of an activation",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		client := sources.NewSupabaseClient(cfg.SupabaseURL, cfg.SupabaseKey)
		activation, err := client.GetActivation(ctx, args[0])
		if err != nil {
			return err
		}

		activation.Keywords = nil
		for _, keyword := range strings.Split(args[1], ",") {
			if keyword = strings.TrimSpace(keyword); keyword != "" {
				activation.Keywords = append(activation.Keywords, keyword)
			}
		}

		saved, err := client.SaveActivation(ctx, *activation)
		if err != nil {
			return err
		}
		fmt.Printf("✅ %s: %s\n", saved.Name, strings.Join(saved.Keywords, ", "))
		return nil
	},
}

var (
	showReport  string
	keepReports int
)

var reportsCmd = &cobra.Command{
	Use:   "reports <activation-id>",
	Short: "List, print or prune the archived CSV reports of an activation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		store, err := storage.Open(ctx, cfg)
		if err != nil {
			return err
		}
		if store == nil {
			return fmt.Errorf("report archive disabled (STORAGE_BACKEND=%s)", cfg.StorageBackend)
		}

		if showReport != "" {
			data, err := store.Retrieve(ctx, storage.ReportPath(args[0], showReport))
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		}

		if keepReports > 0 {
			deleted, err := storage.PruneReports(ctx, store, args[0], keepReports)
			for _, name := range deleted {
				fmt.Printf("🗑️  %s\n", name)
			}
			if err != nil {
				return err
			}
		}

		names, err := storage.ListReports(ctx, store, args[0])
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Printf("No archived reports for activation %s\n", args[0])
			return nil
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Timeout for each command")
	reportsCmd.Flags().StringVar(&showReport, "show", "", "Print the archived report with this filename")
	reportsCmd.Flags().IntVar(&keepReports, "keep", 0, "Delete all but the newest N reports")
	rootCmd.AddCommand(controlCmd, channelsCmd, analysisCmd, keywordsCmd, reportsCmd)
}

func checkDatabase(ctx context.Context) bool {
	fmt.Printf("🔸 Checking database (%s)... ", cfg.SupabaseURL)

	client := sources.NewSupabaseClient(cfg.SupabaseURL, cfg.SupabaseKey)
	activations, err := client.ListActivations(ctx)
	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return false
	}
	fmt.Printf("✅ SUCCESS (%d active activations)\n", len(activations))

	for _, id := range cfg.ActivationIDs {
		if _, err := client.GetActivation(ctx, id); err != nil {
			fmt.Printf("   ⚠️  activation %s: %v\n", id, err)
		}
	}
	return true
}

func checkAPI(ctx context.Context) bool {
	fmt.Printf("🔸 Checking companion API... ")
	if !api.IsEnabled() {
		fmt.Printf("⚠️  DISABLED (API_BASE_URL not set)\n")
		return true
	}

	statuses, err := api.ServiceStatuses(ctx)
	if err != nil {
		var apiErr *sources.APIError
		if errors.As(err, &apiErr) {
			fmt.Printf("❌ ERROR: HTTP %d on %s: %s\n", apiErr.StatusCode, apiErr.Endpoint, apiErr.Message)
		} else {
			fmt.Printf("❌ ERROR: %v\n", err)
		}
		return false
	}
	fmt.Printf("✅ SUCCESS (%d services)\n", len(statuses))

	healthy := true
	for _, st := range statuses {
		icon := "🟢"
		if !st.Healthy {
			icon = "🔴"
			healthy = false
		}
		fmt.Printf("   %s %-20s %s %s\n", icon, st.Name, st.Status, st.Message)
	}
	return healthy
}

func checkPublicDashboard(ctx context.Context) bool {
	if cfg.PublicDashboardToken == "" || !api.IsEnabled() {
		return true
	}

	fmt.Printf("🔸 Checking public dashboard... ")
	if cfg.PublicDashboardPassword != "" {
		if err := api.VerifyPublicDashboard(ctx, cfg.PublicDashboardToken, cfg.PublicDashboardPassword); err != nil {
			fmt.Printf("❌ ERROR: %v\n", err)
			return false
		}
	}

	summary, err := api.PublicDashboardData(ctx, cfg.PublicDashboardToken)
	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return false
	}
	fmt.Printf("✅ SUCCESS (%s, %d mentions)\n", summary.ActivationName, summary.KPIs.TotalMentions)
	return true
}

func printList(title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", title)
	for _, item := range items {
		fmt.Printf("  • %s\n", item)
	}
}
