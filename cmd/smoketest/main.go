// Command smoketest exercises a running menu-scraper API end to end.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/MikhailRaia/menu-scraper/internal/auth"
	"github.com/MikhailRaia/menu-scraper/internal/smoke"
)

const defaultBaseURL = "http://localhost:8080"

func newRootCmd() *cobra.Command {
	var (
		baseURL string
		token   string
		secret  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:           "smoketest",
		Short:         "Run an end-to-end smoke test against the menu scraper API",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: `  smoketest
  smoketest --base-url http://menu.internal:8080 --token "$TOKEN"
  MENU_SCRAPER_BASE_URL=http://localhost:9090 smoketest --secret "$AUTH_SECRET"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if token == "" && secret != "" {
				issued, err := auth.NewJWTService(secret, time.Hour).GenerateToken("smoketest")
				if err != nil {
					return fmt.Errorf("issue token: %w", err)
				}
				token = issued
			}

			color := false
			if f, ok := cmd.OutOrStdout().(*os.File); ok {
				color = term.IsTerminal(int(f.Fd()))
			}

			runner := smoke.NewRunner(smoke.NewClient(baseURL, token, timeout), cmd.OutOrStdout(), color)
			_, err := runner.Run(cmd.Context())
			return err
		},
	}

	fallback := defaultBaseURL
	if v, ok := os.LookupEnv("MENU_SCRAPER_BASE_URL"); ok && v != "" {
		fallback = v
	}

	cmd.Flags().StringVar(&baseURL, "base-url", fallback, "API base URL (env MENU_SCRAPER_BASE_URL)")
	cmd.Flags().StringVar(&token, "token", "", "Bearer token for batch ingestion")
	cmd.Flags().StringVar(&secret, "secret", "", "Issue a token with this AUTH_SECRET when --token is empty")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Per-request timeout")

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, smoke.ErrFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(1)
	}
}
