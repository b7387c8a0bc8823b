package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	envFlag string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tradelens",
	Short: "TradeLens - 트레이딩 저널 의사결정 엔진",
	Long: `TradeLens Unified CLI

자연어 매매 의도를 파싱하고 5개 팩터로 점수화한 뒤
리스크 한도를 점검해 추천을 반환합니다.

Usage:
  go run ./cmd/tradelens [command]

Examples:
  go run ./cmd/tradelens api
  go run ./cmd/tradelens evaluate --user demo "Buy 20 AAPL at market price"
  go run ./cmd/tradelens parse "Sell 5 TSLA at $250"
  go run ./cmd/tradelens test-db`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFlag, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
}
