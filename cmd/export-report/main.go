package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/warroom/warroom-bot/internal/config"
	"github.com/warroom/warroom-bot/internal/models"
	"github.com/warroom/warroom-bot/internal/monitoring"
	"github.com/warroom/warroom-bot/internal/notifications"
	"github.com/warroom/warroom-bot/internal/sources"
	"github.com/warroom/warroom-bot/internal/storage"
)

var (
	activationID string
	outputDir    string
	toStdout     bool
	archive      bool
	send         bool
	timeout      time.Duration
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "export-report",
	Short: "Export one activation's War Room report as CSV",
	Long: "export-report builds a fresh dashboard summary for one activation and writes it\n" +
		"as a CSV report. Optionally archives it in the configured storage and delivers it\n" +
		"through the configured notification channels.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, using system environment variables")
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if cfg.Debug {
			logrus.SetLevel(logrus.DebugLevel)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		feed := sources.NewSupabaseClient(cfg.SupabaseURL, cfg.SupabaseKey)
		service := monitoring.NewService(cfg, feed, nil, nil)

		report, err := service.ExportReport(ctx, activationID)
		if err != nil {
			return err
		}

		if toStdout {
			_, err := os.Stdout.Write(report.CSV)
			return err
		}

		fmt.Println("📊 War Room - Report Export")
		fmt.Println("===========================")
		printSummary(report.Summary)

		path := filepath.Join(outputDir, report.Filename)
		if err := os.WriteFile(path, report.CSV, 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Printf("\n💾 Report saved to: %s\n", path)

		if archive {
			if err := archiveReport(ctx, cfg, report); err != nil {
				return err
			}
			fmt.Printf("🗄️  Archived as: %s\n", report.ArchivePath)
		}

		if send {
			if !cfg.HasNotifications() {
				return fmt.Errorf("--send requires TEAMS_WEBHOOK_URL or NOTIFICATION_EMAIL")
			}
			if err := notifications.NewService(cfg).SendReport(ctx, report); err != nil {
				return err
			}
			fmt.Println("📨 Report delivered")
		}

		return nil
	},
}

func init() {
	rootCmd.Flags().StringVarP(&activationID, "activation", "a", "", "Activation ID to export (required)")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Directory the CSV file is written to")
	rootCmd.Flags().BoolVar(&toStdout, "stdout", false, "Write the CSV to standard output instead of a file")
	rootCmd.Flags().BoolVar(&archive, "archive", false, "Also store the report in the configured storage backend")
	rootCmd.Flags().BoolVar(&send, "send", false, "Also deliver the report through the configured notification channels")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Overall timeout")
	_ = rootCmd.MarkFlagRequired("activation")
}

func archiveReport(ctx context.Context, cfg *config.Config, report *models.Report) error {
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("--archive requires STORAGE_BACKEND to be 'azure' or 'local'")
	}

	path := storage.ReportPath(report.Summary.ActivationID, report.Filename)
	if err := store.Store(ctx, path, report.CSV); err != nil {
		return err
	}
	report.ArchivePath = path
	return nil
}

func printSummary(summary *models.DashboardSummary) {
	kpis := summary.KPIs
	fmt.Printf("\n🗳️  %s (%s)\n", summary.ActivationName, summary.ActivationID)
	fmt.Printf("   Menções: %d  (+%d / -%d / =%d)\n",
		kpis.TotalMentions, kpis.Sentiment.Positive, kpis.Sentiment.Negative, kpis.Sentiment.Neutral)
	fmt.Printf("   Razão negativa: %s  Risco médio: %d  Alto risco: %d\n",
		kpis.NegativeRatio, kpis.AverageRisk, kpis.HighRiskMentions)
	fmt.Printf("   Crises ativas: %d  Perfis de ameaça: %d  Nível: %s\n",
		kpis.ActiveCrises, kpis.ThreatProfiles, kpis.GlobalThreatLevel)

	for i, kc := range summary.TopKeywords {
		if i == 5 {
			break
		}
		fmt.Printf("   🔑 %s (%d, %s)\n", kc.Keyword, kc.Count, kc.Sentiment)
	}
}
