// internal/ingestion/headertokens_test.go
package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchHeaderCell(t *testing.T) {
	assert.Equal(t, HeaderPrice, matchHeaderCell("  Unit Price  "))
	assert.Equal(t, HeaderUPC, matchHeaderCell("GTIN"))
	assert.Equal(t, HeaderField(""), matchHeaderCell("shipping weight"), "unrecognized tokens map to no field")
	assert.Equal(t, HeaderField(""), matchHeaderCell(""))
}

func TestDetectHeaderRow(t *testing.T) {
	mapping, ok := detectHeaderRow([]string{"Item Description", "Unit Cost", "Qty"})
	assert.True(t, ok)
	assert.Equal(t, HeaderDescription, mapping[0])
	assert.Equal(t, HeaderPrice, mapping[1])
	assert.Equal(t, HeaderQuantity, mapping[2])

	_, ok = detectHeaderRow([]string{"Random Column"})
	assert.False(t, ok, "fewer than two recognized tokens is not a header row")

	_, ok = detectHeaderRow([]string{"Acme Corp Price List", "", ""})
	assert.False(t, ok)
}

// Every token in the vocabulary resolves back to the field that declares it,
// guarding against a copy-paste typo silently orphaning a token.
func TestHeaderTokensRoundTrip(t *testing.T) {
	for field, tokens := range HeaderTokens {
		for _, token := range tokens {
			assert.Equal(t, field, matchHeaderCell(token), "token %q should resolve to %s", token, field)
		}
	}
}
