package store

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"trading-journal/internal/models"
)

func TestTradeRoundTripProperties(t *testing.T) {
	st, err := NewSQLiteStore(filepath.Join(t.TempDir(), "prop.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	ctx := context.Background()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	seq := 0
	properties.Property("saved trades read back with identical numeric fields", prop.ForAll(
		func(entry, qty, stop, fees float64, isShort bool) bool {
			seq++
			trade := models.Trade{
				ID:              fmt.Sprintf("prop-%d", seq),
				Symbol:          "PROP",
				Direction:       models.Long,
				Instrument:      models.InstrumentStock,
				Quantity:        qty,
				EntryPrice:      entry,
				EntryDate:       time.Date(2026, 8, 3, 9, 30, 0, 0, time.UTC),
				InitialStopLoss: models.Float64(stop),
				Fees:            fees,
				Status:          models.StatusOpen,
				CreatedAt:       time.Now().UTC(),
				UpdatedAt:       time.Now().UTC(),
			}
			if isShort {
				trade.Direction = models.Short
			}

			if err := st.SaveTrade(ctx, &trade); err != nil {
				return false
			}
			got, err := st.GetTrade(ctx, trade.ID)
			if err != nil || got == nil {
				return false
			}
			if got.InitialStopLoss == nil {
				return false
			}
			return got.Direction == trade.Direction &&
				math.Abs(got.EntryPrice-entry) < 1e-9 &&
				math.Abs(got.Quantity-qty) < 1e-9 &&
				math.Abs(*got.InitialStopLoss-stop) < 1e-9 &&
				math.Abs(got.Fees-fees) < 1e-9
		},
		gen.Float64Range(0.01, 100000),
		gen.Float64Range(0.01, 10000),
		gen.Float64Range(0.01, 100000),
		gen.Float64Range(0, 500),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
