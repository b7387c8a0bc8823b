package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/tradelens/backend/internal/external/gemini"
	"github.com/wonny/tradelens/backend/internal/intent"
	"github.com/wonny/tradelens/backend/pkg/logger"
)

// parseCmd runs only the intent parser
var parseCmd = &cobra.Command{
	Use:   "parse [text]",
	Short: "매매 의도 파싱만 실행",
	Long: `정규식 파서를 먼저 시도하고, 실패하면 AI 파서로 넘어갑니다.
GEMINI_API_KEY가 없으면 정규식 파서만 사용합니다.

Example:
  go run ./cmd/tradelens parse "Buy 20 AAPL at market price"
  go run ./cmd/tradelens parse "short 5 shares of TSLA @ 250.50"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	log := logger.New(cfg)
	ctx := context.Background()

	gen, err := gemini.New(ctx, cfg.Gemini, log)
	if err != nil {
		return err
	}

	parsed, err := intent.NewParser(gen, log).Parse(ctx, strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}
	printJSON(parsed)
	return nil
}
