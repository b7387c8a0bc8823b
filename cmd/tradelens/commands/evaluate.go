package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/tradelens/backend/pkg/apperr"
)

// evaluateCmd runs the full decision pipeline from the command line
var evaluateCmd = &cobra.Command{
	Use:   "evaluate [text]",
	Short: "매매 의도 평가 (JSON 출력)",
	Long: `API와 동일한 파이프라인으로 매매 의도를 평가합니다.

파싱 → 시세/기업정보 → 5개 팩터 → 집계 → 리스크 → 요약

Example:
  go run ./cmd/tradelens evaluate --user demo "Buy 20 AAPL at market price"
  go run ./cmd/tradelens evaluate --user demo "sell 10 MSFT limit 420"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEvaluate,
}

var (
	evaluateUser    string
	evaluateTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVar(&evaluateUser, "user", "", "포트폴리오를 조회할 사용자 ID")
	evaluateCmd.Flags().DurationVar(&evaluateTimeout, "timeout", time.Minute, "전체 평가 제한 시간")
	evaluateCmd.MarkFlagRequired("user")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), evaluateTimeout)
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	eval, err := a.orchestrator.Evaluate(ctx, evaluateUser, strings.Join(args, " "))
	if err != nil {
		// 429는 파싱 결과를 함께 출력
		if eval != nil {
			printJSON(eval)
		}
		if appErr, ok := apperr.As(err); ok {
			return fmt.Errorf("%s (%s)", appErr.Message, appErr.Kind)
		}
		return err
	}
	printJSON(eval)
	return nil
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
