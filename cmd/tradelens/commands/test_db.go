package commands

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/internal/store"
	"github.com/wonny/tradelens/backend/pkg/config"
	"github.com/wonny/tradelens/backend/pkg/logger"
)

// testDBCmd represents the test-db command
var testDBCmd = &cobra.Command{
	Use:   "test-db",
	Short: "보유내역 저장소 연결 테스트",
	Long: `STORE_DRIVER로 선택된 저장소(mongo|postgres|memory)에 연결하고
Ping 및 사용자 보유내역 조회를 테스트합니다.

Example:
  go run ./cmd/tradelens test-db
  go run ./cmd/tradelens test-db --user demo`,
	RunE: runTestDB,
}

var testDBUser string

func init() {
	rootCmd.AddCommand(testDBCmd)

	testDBCmd.Flags().StringVar(&testDBUser, "user", "", "보유내역을 조회할 사용자 ID (선택)")
}

func runTestDB(cmd *cobra.Command, args []string) error {
	fmt.Println("=== TradeLens Store Connection Test ===")

	cfg, err := loadConfig(true)
	if err != nil {
		return fmt.Errorf("❌ Failed to load config: %w", err)
	}
	fmt.Printf("✅ Config loaded (ENV: %s, STORE: %s)\n", cfg.Env, cfg.Store.Driver)
	if u := storeURL(cfg); u != "" {
		fmt.Printf("   URL: %s\n\n", u)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	fmt.Println("Connecting...")
	repo, err := store.Open(ctx, cfg, logger.New(cfg))
	if err != nil {
		return fmt.Errorf("❌ Failed to open store: %w", err)
	}
	defer repo.Shutdown(context.Background())
	fmt.Println("✅ Store opened")

	start := time.Now()
	if err := repo.Ping(ctx); err != nil {
		return fmt.Errorf("❌ Failed to ping store: %w", err)
	}
	fmt.Printf("✅ Ping successful (%v)\n", time.Since(start))

	if testDBUser != "" {
		holdings, err := repo.FindByUser(ctx, testDBUser)
		if err != nil {
			return fmt.Errorf("❌ Failed to read holdings: %w", err)
		}
		active := 0
		for _, h := range holdings {
			if h.Status == contracts.StatusActive {
				active++
			}
		}
		fmt.Printf("📊 Holdings for %s: %d total, %d active\n", testDBUser, len(holdings), active)
	}

	fmt.Println("\n✅ All tests passed!")
	return nil
}

// storeURL returns the configured connection URL with the password masked
func storeURL(cfg *config.Config) string {
	raw := ""
	switch cfg.Store.Driver {
	case config.StoreMongo:
		raw = cfg.Mongo.URL
	case config.StorePostgres:
		raw = cfg.Database.URL
	}
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}
