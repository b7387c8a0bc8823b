package contracts

import (
	"context"
	"time"
)

// MarketDataGateway reads quotes and company overviews
// ⭐ SSOT: 시세/기업정보 조회 인터페이스
// (nil, nil) means the symbol is unknown; ErrRateLimited means the provider refused
type MarketDataGateway interface {
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
	GetOverview(ctx context.Context, symbol string) (*Overview, error)
}

// GenerateOptions tunes a single text-generation call
type GenerateOptions struct {
	Temperature     float32
	MaxOutputTokens int32
	JSON            bool
}

// TextGenerator is the AI provider used by intent fallback and sentiment
// ⭐ SSOT: LLM 호출 인터페이스
type TextGenerator interface {
	// Available reports whether a provider is configured
	Available() bool

	// Generate returns the raw model text for prompt
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// HoldingRepository persists journal entries
// ⭐ SSOT: 보유내역 저장소 인터페이스
type HoldingRepository interface {
	FindByUser(ctx context.Context, userID string) (Portfolio, error)
	FindActiveByUser(ctx context.Context, userID string) (Portfolio, error)
	FindClosedByUser(ctx context.Context, userID string) (Portfolio, error)
	FindByID(ctx context.Context, userID, id string) (*Holding, error)
	Insert(ctx context.Context, h *Holding) error
	MarkClosed(ctx context.Context, userID, id string, exitPrice, pnl float64, exitDate time.Time) error
	Ping(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
