// internal/ingestion/lineparser_test.go
package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLinesSimplePrice(t *testing.T) {
	rows := ParseLines("iPhone 13 128GB - $450 like new")
	require.Len(t, rows, 1)
	assert.Equal(t, 450.0, rows[0].Price)
	assert.Equal(t, "USD", rows[0].Currency)
	assert.NotNil(t, rows[0].Condition)
	assert.Equal(t, "like new", *rows[0].Condition)
}

func TestParseLinesWithSenderPrefix(t *testing.T) {
	text := "[1/2/26, 9:00:00 AM] Jane Vendor: Galaxy S22 x3 qty 3 €300 used"
	rows := ParseLines(text)
	require.Len(t, rows, 1)
	assert.Equal(t, "Jane Vendor", rows[0].VendorHint)
	assert.Equal(t, "EUR", rows[0].Currency)
	require.NotNil(t, rows[0].Quantity)
}

func TestParseLinesSkipsSystemNoticesAndEmoji(t *testing.T) {
	text := "image omitted\n👍👍\nMessages and calls are end-to-end encrypted."
	rows := ParseLines(text)
	assert.Empty(t, rows)
}

func TestParseLinesSkipsPriceOnlyLines(t *testing.T) {
	rows := ParseLines("450.00")
	assert.Empty(t, rows, "a line with no describing word is not a candidate offer")
}

func TestParseLinesMultiplePricesOneLine(t *testing.T) {
	rows := ParseLines("Pixel 7 $300 or ₹25000 depending on condition")
	require.Len(t, rows, 2)
	currencies := map[string]bool{rows[0].Currency: true, rows[1].Currency: true}
	assert.True(t, currencies["USD"])
	assert.True(t, currencies["INR"])
}

func TestExtractQuantity(t *testing.T) {
	q := extractQuantity("MacBook Pro x2 $900")
	require.NotNil(t, q)
	assert.Equal(t, 2, *q)

	assert.Nil(t, extractQuantity("no quantity mentioned here"))
}

func TestExtractCondition(t *testing.T) {
	c := extractCondition("iPad refurbished great condition")
	require.NotNil(t, c)
	assert.Equal(t, "refurbished", *c)

	assert.Nil(t, extractCondition("no condition word present"))
}
