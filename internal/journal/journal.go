package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/internal/pricing"
	"github.com/wonny/tradelens/backend/pkg/apperr"
	"github.com/wonny/tradelens/backend/pkg/logger"
	"github.com/wonny/tradelens/backend/pkg/mathutil"
)

// DefaultExchange is used when an open request names none
const DefaultExchange = "NASDAQ"

// Invalidator drops a user's cached portfolio
type Invalidator interface {
	Invalidate(ctx context.Context, userID string)
}

// OpenRequest opens a new position
type OpenRequest struct {
	Symbol     string  `json:"symbol" validate:"required"`
	Type       string  `json:"type" validate:"oneof=LONG SHORT"`
	EntryPrice float64 `json:"entryPrice" validate:"gt=0"`
	Quantity   int     `json:"quantity" validate:"gt=0"`
	Exchange   string  `json:"exchange"`
	Reason     string  `json:"reason"`
}

var fieldMessages = map[string]string{
	"Symbol":     "symbol is required",
	"Type":       "type must be LONG or SHORT",
	"EntryPrice": "entryPrice must be a positive number",
	"Quantity":   "quantity must be a positive integer",
}

// Service is the write side of the journal
// ⭐ SSOT: 보유내역 쓰기는 여기서만 (쓰기 후 포트폴리오 캐시 무효화)
type Service struct {
	repo     contracts.HoldingRepository
	prices   *pricing.Service
	cache    Invalidator
	validate *validator.Validate
	now      func() time.Time
	logger   *logger.Logger
}

// NewService creates a journal service
func NewService(repo contracts.HoldingRepository, prices *pricing.Service, cache Invalidator, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		prices:   prices,
		cache:    cache,
		validate: validator.New(),
		now:      time.Now,
		logger:   log.WithField("component", "journal"),
	}
}

// Open validates req and stores a new ACTIVE position
func (s *Service) Open(ctx context.Context, userID string, req OpenRequest) (*contracts.Holding, error) {
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	req.Type = strings.ToUpper(strings.TrimSpace(req.Type))

	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	exchange := strings.TrimSpace(req.Exchange)
	if exchange == "" {
		exchange = DefaultExchange
	}

	now := s.now().UTC()
	h := &contracts.Holding{
		UserID:     userID,
		Symbol:     req.Symbol,
		Type:       contracts.HoldingType(req.Type),
		Status:     contracts.StatusActive,
		EntryPrice: req.EntryPrice,
		Quantity:   float64(req.Quantity),
		Exchange:   exchange,
		Reason:     req.Reason,
		Date:       now,
		EntryDate:  &now,
		CreatedAt:  now,
	}

	if err := s.repo.Insert(ctx, h); err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "Failed to create trade", err)
	}
	s.cache.Invalidate(ctx, userID)

	s.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"symbol":  h.Symbol,
		"type":    h.Type,
	}).Info("Opened position")
	return h, nil
}

// Close exits an ACTIVE position at exitPrice, or the current price when exitPrice is nil or not positive
func (s *Service) Close(ctx context.Context, userID, id string, exitPrice *float64) (*contracts.Holding, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.Input("tradeId is required")
	}

	h, err := s.repo.FindByID(ctx, userID, id)
	switch {
	case errors.Is(err, contracts.ErrInvalidHoldingID):
		return nil, apperr.Wrap(apperr.KindInput, "Invalid tradeId format", err)
	case errors.Is(err, contracts.ErrHoldingNotFound):
		return nil, notActive(err)
	case err != nil:
		return nil, apperr.Wrap(apperr.KindPersistence, "Failed to close trade", err)
	}
	if h.Status != contracts.StatusActive {
		return nil, notActive(contracts.ErrHoldingNotActive)
	}

	price := 0.0
	if exitPrice != nil && *exitPrice > 0 {
		price = *exitPrice
	} else {
		p, err := s.prices.CurrentPrice(ctx, h.Symbol, h.EntryPrice)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "Failed to close trade", err)
		}
		price = p.Price
	}

	pnl := pricing.UnrealizedPnL(h.Type, h.EntryPrice, price, h.Quantity)
	exitDate := s.now().UTC()

	err = s.repo.MarkClosed(ctx, userID, id, price, pnl, exitDate)
	switch {
	case errors.Is(err, contracts.ErrHoldingNotActive), errors.Is(err, contracts.ErrHoldingNotFound):
		return nil, notActive(err)
	case err != nil:
		return nil, apperr.Wrap(apperr.KindPersistence, "Failed to close trade", err)
	}
	s.cache.Invalidate(ctx, userID)

	h.Status = contracts.StatusClosed
	h.ExitPrice = price
	h.ExitDate = &exitDate
	h.ProfitAndLoss = pnl
	h.Date = exitDate

	s.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"symbol":  h.Symbol,
		"pnl":     pnl,
	}).Info("Closed position")
	return h, nil
}

// Position is an open holding valued at the current price
type Position struct {
	ID             string                `json:"_id"`
	Symbol         string                `json:"symbol"`
	Type           contracts.HoldingType `json:"type"`
	EntryPrice     float64               `json:"entryPrice"`
	Quantity       float64               `json:"quantity"`
	Exchange       string                `json:"exchange"`
	Reason         string                `json:"reason"`
	EntryDate      *time.Time            `json:"entryDate"`
	CurrentPrice   float64               `json:"currentPrice"`
	PriceChange    float64               `json:"priceChange"`
	PriceChangePct float64               `json:"priceChangePct"`
	PriceSource    string                `json:"priceSource"`
	UnrealizedPnL  float64               `json:"unrealizedPnL"`
	MarketValue    float64               `json:"marketValue"`
}

// ActiveTotals sums the open positions
type ActiveTotals struct {
	UnrealizedPnL float64 `json:"unrealizedPnL"`
	TotalValue    float64 `json:"totalValue"`
	PositionCount int     `json:"positionCount"`
}

// ActiveSummary is the live view of open positions
type ActiveSummary struct {
	Positions []Position   `json:"positions"`
	Totals    ActiveTotals `json:"totals"`
}

// ActivePositions values every open position at its current price
func (s *Service) ActivePositions(ctx context.Context, userID string) (ActiveSummary, error) {
	holdings, err := s.repo.FindActiveByUser(ctx, userID)
	if err != nil {
		return ActiveSummary{}, apperr.Wrap(apperr.KindPersistence, "Failed to fetch active positions", err)
	}

	out := ActiveSummary{Positions: make([]Position, 0, len(holdings))}
	if len(holdings) == 0 {
		return out, nil
	}

	items := make([]pricing.Item, len(holdings))
	for i, h := range holdings {
		items[i] = pricing.Item{Symbol: h.Symbol, EntryPrice: h.EntryPrice}
	}
	prices := s.prices.BatchPrices(ctx, items)

	var totalPnL, totalValue float64
	for _, h := range holdings {
		p, ok := prices[strings.ToUpper(h.Symbol)]
		if !ok {
			p = pricing.Price{Price: h.EntryPrice, Source: "fallback"}
		}
		pnl := pricing.UnrealizedPnL(h.Type, h.EntryPrice, p.Price, h.Quantity)
		value := p.Price * h.Quantity
		totalPnL += pnl
		totalValue += value

		out.Positions = append(out.Positions, Position{
			ID:             h.ID,
			Symbol:         h.Symbol,
			Type:           h.Type,
			EntryPrice:     h.EntryPrice,
			Quantity:       h.Quantity,
			Exchange:       h.Exchange,
			Reason:         h.Reason,
			EntryDate:      h.EntryDate,
			CurrentPrice:   p.Price,
			PriceChange:    p.Change,
			PriceChangePct: p.ChangePct,
			PriceSource:    p.Source,
			UnrealizedPnL:  pnl,
			MarketValue:    mathutil.Round2(value),
		})
	}

	out.Totals = ActiveTotals{
		UnrealizedPnL: mathutil.Round2(totalPnL),
		TotalValue:    mathutil.Round2(totalValue),
		PositionCount: len(out.Positions),
	}
	return out, nil
}

// ClosedTrade is a realized position
type ClosedTrade struct {
	ID              string                `json:"_id"`
	Symbol          string                `json:"symbol"`
	Type            contracts.HoldingType `json:"type"`
	EntryPrice      float64               `json:"entryPrice"`
	ExitPrice       float64               `json:"exitPrice"`
	Quantity        float64               `json:"quantity"`
	Exchange        string                `json:"exchange"`
	Reason          string                `json:"reason"`
	EntryDate       *time.Time            `json:"entryDate"`
	ExitDate        *time.Time            `json:"exitDate"`
	RealizedPnL     float64               `json:"realizedPnL"`
	HoldingDuration string                `json:"holdingDuration"`
	HoldingDays     int                   `json:"holdingDays"`
}

// ClosedTotals sums the realized positions
type ClosedTotals struct {
	RealizedPnL float64 `json:"realizedPnL"`
	TotalTrades int     `json:"totalTrades"`
	WinRate     float64 `json:"winRate"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
}

// ClosedSummary is the realized side of the journal
type ClosedSummary struct {
	Trades []ClosedTrade `json:"trades"`
	Totals ClosedTotals  `json:"totals"`
}

// ClosedTrades lists realized positions, most recent exit first
func (s *Service) ClosedTrades(ctx context.Context, userID string) (ClosedSummary, error) {
	holdings, err := s.repo.FindClosedByUser(ctx, userID)
	if err != nil {
		return ClosedSummary{}, apperr.Wrap(apperr.KindPersistence, "Failed to fetch closed trades", err)
	}

	out := ClosedSummary{Trades: make([]ClosedTrade, 0, len(holdings))}
	var total float64
	wins := 0
	for _, h := range holdings {
		total += h.ProfitAndLoss
		if h.ProfitAndLoss > 0 {
			wins++
		}
		duration, days := HoldingDuration(h.EntryDate, h.ExitDate)
		out.Trades = append(out.Trades, ClosedTrade{
			ID:              h.ID,
			Symbol:          h.Symbol,
			Type:            h.Type,
			EntryPrice:      h.EntryPrice,
			ExitPrice:       h.ExitPrice,
			Quantity:        h.Quantity,
			Exchange:        h.Exchange,
			Reason:          h.Reason,
			EntryDate:       h.EntryDate,
			ExitDate:        h.ExitDate,
			RealizedPnL:     h.ProfitAndLoss,
			HoldingDuration: duration,
			HoldingDays:     days,
		})
	}

	n := len(out.Trades)
	out.Totals = ClosedTotals{
		RealizedPnL: mathutil.Round2(total),
		TotalTrades: n,
		Wins:        wins,
		Losses:      n - wins,
	}
	if n > 0 {
		out.Totals.WinRate = mathutil.Round(float64(wins)/float64(n)*100, 1)
	}
	return out, nil
}

// HoldingDuration renders "3d 4h" (or "5h" under a day) and the whole days held
func HoldingDuration(entry, exit *time.Time) (string, int) {
	if entry == nil || exit == nil {
		return "0h", 0
	}
	d := exit.Sub(*entry)
	if d < 0 {
		d = 0
	}
	days := int(d / (24 * time.Hour))
	hours := int((d % (24 * time.Hour)) / time.Hour)
	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours), days
	}
	return fmt.Sprintf("%dh", hours), 0
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Wrap(apperr.KindInput, "Validation failed", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()]
		if !ok {
			msg = fe.Error()
		}
		msgs = append(msgs, msg)
	}
	return apperr.Input("Validation failed").WithDetails(strings.Join(msgs, "; "))
}

func notActive(cause error) error {
	return apperr.Wrap(apperr.KindNotFound, "Active trade not found or does not belong to you", cause)
}
