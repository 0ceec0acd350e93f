package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"go-paper-orders/internal/bootstrap"
	"go-paper-orders/internal/config"
	"go-paper-orders/internal/pricing"
	"go-paper-orders/internal/service"
	"go-paper-orders/pkg/jwt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg    *config.Config
	logger *zap.Logger

	requestDate string
	requestID   string
	reportDate  string

	tokenSubject string
	tokenName    string
	tokenScopes  []string
	tokenTTL     time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "paperctl",
	Short: "Operate the paper order engine from the command line",
	Long: `paperctl runs customer requests and reports against the same ledger
database the API server uses. Configuration comes from .env and the
environment, exactly as for the server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, _ = config.Load()
		if err := cfg.Validate(); err != nil {
			return err
		}
		var err error
		logger, err = config.NewLogger(cfg)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the catalog and stock an empty ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(app *bootstrap.App) error {
			res, err := app.Seed(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if res.Skipped {
				fmt.Println("inventory already seeded, nothing to do")
				return nil
			}
			fmt.Printf("stocked %d items, cash after seeding $%s\n", len(res.Items), res.CashAfter.StringFixed(2))
			return nil
		})
	},
}

var processCmd = &cobra.Command{
	Use:     "process [request]",
	Short:   "Run one customer request through the order workflow",
	Example: `  paperctl process "I need 500 sheets of A4 paper and 200 cardstock by April 15" --date 2025-04-01`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(app *bootstrap.App) error {
			res, err := app.Workflow.HandleRequest(cmd.Context(), service.CustomerRequest{
				RequestID: requestID,
				Text:      strings.Join(args, " "),
				Date:      requestDate,
			})
			if err != nil {
				return err
			}
			fmt.Println(res.Response)
			fmt.Printf("\n[%s] cash $%s, inventory $%s\n",
				res.Action, res.Financials.CashBalance.StringFixed(2), res.Financials.InventoryValue.StringFixed(2))
			for _, w := range res.Warnings {
				fmt.Fprintln(os.Stderr, "warning:", w)
			}
			return nil
		})
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the financial report as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		if reportDate == "" {
			reportDate = pricing.FormatDate(pricing.Today())
		}
		return withApp(cmd.Context(), func(app *bootstrap.App) error {
			report, err := app.Reports.FinancialReport(cmd.Context(), reportDate)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		})
	},
}

var tokenCmd = &cobra.Command{
	Use:     "token",
	Short:   "Issue an operator token for the API",
	Example: `  paperctl token --subject ops-1 --scope requests:create --scope ledger:write --ttl 8h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenSubject == "" {
			return fmt.Errorf("--subject is required")
		}
		token, err := jwt.GenerateToken([]byte(cfg.JWTSecret), tokenSubject, tokenName, tokenScopes, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

// withApp builds the service graph, seeds an empty ledger and runs fn.
func withApp(ctx context.Context, fn func(*bootstrap.App) error) error {
	app, err := bootstrap.New(ctx, cfg, nil, logger)
	if err != nil {
		return err
	}
	defer app.Close()
	if _, err := app.Seed(ctx, cfg); err != nil {
		return err
	}
	return fn(app)
}

func init() {
	processCmd.Flags().StringVar(&requestDate, "date", "", "request date (YYYY-MM-DD), defaults to today")
	processCmd.Flags().StringVar(&requestID, "id", "", "request id used for duplicate detection")
	reportCmd.Flags().StringVar(&reportDate, "date", "", "report date (YYYY-MM-DD), defaults to today")

	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "operator id")
	tokenCmd.Flags().StringVar(&tokenName, "name", "", "operator display name")
	tokenCmd.Flags().StringSliceVar(&tokenScopes, "scope", nil, "granted scope, repeatable (* for all)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")

	rootCmd.AddCommand(seedCmd, processCmd, reportCmd, tokenCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
