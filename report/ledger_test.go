package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderdesk/models"
	"orderdesk/utils"
)

func n(v int64) utils.Number { return utils.NewNumber(dec(v)) }

func sampleSales() []models.RawSale {
	return []models.RawSale{
		{SalesID: "SL-1", SalesDate: "2024/05/03", Customer: "Alpha", ProductID: "P1", ProductName: "Pen", Quantity: n(2), UnitPrice: n(50), Cost: n(60)},
		{SalesID: "SL-2", SalesDate: "2024-05-20", Customer: "Beta", ItemNo: "P2", Quantity: n(1), UnitPrice: n(30), Subtotal: n(25), Profit: n(5)},
		{SalesID: "SL-3", SalesDate: "soon", Customer: "", ProductID: "P1", Quantity: n(3), UnitPrice: n(50), Year: n(2024), Month: n(4)},
		{SalesID: "SL-4", Customer: "Alpha", ProductID: "P1", Quantity: n(1), UnitPrice: n(50)},
	}
}

func TestLedgerLines(t *testing.T) {
	lines := LedgerLines(sampleSales())
	require.Len(t, lines, 4)

	assert.Equal(t, "2024-05-03", lines[0].Date)
	assert.Equal(t, "2024-05", lines[0].Month)
	assert.True(t, lines[0].Subtotal.Equal(dec(100)))
	assert.True(t, lines[0].Profit.Equal(dec(40)))

	// recorded subtotal and profit win
	assert.Equal(t, "P2", lines[1].ProductID)
	assert.Equal(t, "P2", lines[1].ProductName)
	assert.True(t, lines[1].Subtotal.Equal(dec(25)))
	assert.True(t, lines[1].Profit.Equal(dec(5)))

	// year and month columns win over an unparseable date
	assert.Equal(t, "2024-04", lines[2].Month)
	assert.Equal(t, UnknownCustomer, lines[2].Customer)
	assert.True(t, lines[2].Profit.IsZero())

	assert.Equal(t, "", lines[3].Month)
}

func TestFilterLedger(t *testing.T) {
	lines := LedgerLines(sampleSales())

	inMay := FilterLedger(lines, "2024-05-01", "2024/05/31", "")
	require.Len(t, inMay, 2)
	assert.Equal(t, "SL-1", inMay[0].SalesID)

	assert.Len(t, FilterLedger(lines, "2024-05-01", "", ""), 4)
	assert.Len(t, FilterLedger(lines, "", "", "alpha"), 2)
	assert.Len(t, FilterLedger(lines, "", "", "sl-2"), 1)
	assert.NotNil(t, FilterLedger(lines, "", "", "nobody"))
}

func TestLedgerByMonth(t *testing.T) {
	months := LedgerByMonth(LedgerLines(sampleSales()))
	require.Len(t, months, 2)

	assert.Equal(t, "2024-04", months[0].Month)
	assert.Equal(t, 3, months[0].Quantity)
	assert.True(t, months[0].Revenue.Equal(dec(150)))

	assert.Equal(t, "2024-05", months[1].Month)
	assert.Equal(t, 3, months[1].Quantity)
	assert.True(t, months[1].Revenue.Equal(dec(125)))
	assert.True(t, months[1].Cost.Equal(dec(60)))
	assert.True(t, months[1].Profit.Equal(dec(45)))
}
