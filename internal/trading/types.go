package trading

import (
	"time"

	"github.com/ducminhle1904/quant-risk-core/internal/config"
	"github.com/ducminhle1904/quant-risk-core/internal/portfolio"
	"github.com/ducminhle1904/quant-risk-core/internal/regime"
	"github.com/ducminhle1904/quant-risk-core/internal/risk"
	"github.com/ducminhle1904/quant-risk-core/pkg/types"
)

// EnhancedTradeRecord captures everything known about a trade at the
// moment it was accepted: the signal, the sizing outcome, the exit
// levels and the risk snapshot the acceptance was judged against.
type EnhancedTradeRecord struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Symbol    string          `json:"symbol"`
	Sector    string          `json:"sector"`
	Strategy  string          `json:"strategy"`
	Direction types.Direction `json:"direction"`

	EntryPrice float64 `json:"entry_price"`
	Quantity   float64 `json:"quantity"`
	Notional   float64 `json:"notional"`
	Fraction   float64 `json:"fraction"`

	SizingMethod config.SizingMethod `json:"sizing_method"`
	FellBack     bool                `json:"fell_back"`

	StopLoss    float64                    `json:"stop_loss"`
	TakeProfits []portfolio.TakeProfitTier `json:"take_profits"`

	Regime  regime.Type `json:"regime"`
	Profile string      `json:"profile"`

	// Snapshot is the pre-trade assessment that included this candidate.
	Snapshot  *risk.Snapshot `json:"-"`
	RiskScore float64        `json:"risk_score"`
}
