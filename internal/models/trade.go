// Package models defines the core data types of the trading journal.
package models

import "time"

// Direction represents which side of the market a trade is on.
type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

// Sign returns +1 for long trades and -1 for short trades.
func (d Direction) Sign() float64 {
	if d == Short {
		return -1
	}
	return 1
}

// TradeStatus represents the lifecycle state of a trade.
type TradeStatus string

const (
	StatusOpen   TradeStatus = "open"
	StatusClosed TradeStatus = "closed"
)

// InstrumentType represents the kind of instrument traded.
type InstrumentType string

const (
	InstrumentStock   InstrumentType = "stock"
	InstrumentFutures InstrumentType = "futures"
	InstrumentForex   InstrumentType = "forex"
	InstrumentCrypto  InstrumentType = "crypto"
	InstrumentOptions InstrumentType = "options"
)

// ContractDetails holds futures contract parameters used to convert
// price distance into currency.
type ContractDetails struct {
	TickSize  float64 `json:"tickSize"`
	TickValue float64 `json:"tickValue"`
}

// PartialExit represents a fill that closes part of a position.
type PartialExit struct {
	ID       string    `json:"id"`
	Date     time.Time `json:"date"`
	Price    float64   `json:"price"`
	Quantity float64   `json:"quantity"`
	Fees     float64   `json:"fees,omitempty"`
}

// Trade is the authoritative trade record. Optional fields are pointers;
// nil means the value was never recorded, which is distinct from zero.
//
// Invariant: a closed trade either has ExitPrice set or its partial-exit
// quantities sum to Quantity.
type Trade struct {
	ID              string           `json:"id"`
	Symbol          string           `json:"symbol"`
	Direction       Direction        `json:"direction"`
	Instrument      InstrumentType   `json:"instrument"`
	Quantity        float64          `json:"quantity"`
	EntryPrice      float64          `json:"entryPrice"`
	EntryDate       time.Time        `json:"entryDate"`
	ExitPrice       *float64         `json:"exitPrice,omitempty"`
	ExitDate        *time.Time       `json:"exitDate,omitempty"`
	InitialStopLoss *float64         `json:"initialStopLoss,omitempty"`
	StopLoss        *float64         `json:"stopLoss,omitempty"`
	TakeProfit      *float64         `json:"takeProfit,omitempty"`
	Fees            float64          `json:"fees"`
	PartialExits    []PartialExit    `json:"partialExits,omitempty"`
	Contract        *ContractDetails `json:"contractDetails,omitempty"`

	// Price excursions recorded during the trade's life.
	MaxFavorablePrice *float64 `json:"maxFavorablePrice,omitempty"`
	MaxAdversePrice   *float64 `json:"maxAdversePrice,omitempty"`

	// LastPrice is the most recent known market price, used for
	// unrealized figures on open trades.
	LastPrice *float64 `json:"lastPrice,omitempty"`

	Status   TradeStatus `json:"status"`
	Strategy string      `json:"strategy,omitempty"`
	Notes    string      `json:"notes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsClosed reports whether the trade is closed.
func (t *Trade) IsClosed() bool {
	return t.Status == StatusClosed
}

// ExitedQuantity returns the quantity closed via partial exits.
func (t *Trade) ExitedQuantity() float64 {
	var q float64
	for _, pe := range t.PartialExits {
		q += pe.Quantity
	}
	return q
}

// TotalFees returns trade-level fees plus all partial-exit fees.
func (t *Trade) TotalFees() float64 {
	fees := t.Fees
	for _, pe := range t.PartialExits {
		fees += pe.Fees
	}
	return fees
}

// PointValue returns the currency value of a one-point move per unit.
// Defaults to 1; futures use the contract tick value / tick size ratio.
func (t *Trade) PointValue() float64 {
	if t.Instrument != InstrumentFutures || t.Contract == nil {
		return 1
	}
	if t.Contract.TickValue <= 0 {
		return 1
	}
	if t.Contract.TickSize > 0 {
		return t.Contract.TickValue / t.Contract.TickSize
	}
	return t.Contract.TickValue
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 { return &v }

// Time returns a pointer to t.
func Time(t time.Time) *time.Time { return &t }
