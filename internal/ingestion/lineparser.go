// internal/ingestion/lineparser.go
package ingestion

import (
	"regexp"
	"strconv"
	"strings"
)

// priceTokenPattern matches a decimal number optionally prefixed by a
// currency symbol or followed by a currency code, per spec §4.4.
var priceTokenPattern = regexp.MustCompile(
	`(?i)([$€£₹]\s?\d[\d,]*(?:\.\d+)?)|(\d[\d,]*(?:\.\d+)?\s?(?:USD|EUR|GBP|INR|KES|NGN))|(\b\d[\d,]*\.\d{2}\b)`,
)

var quantityPattern = regexp.MustCompile(`(?i)\bx\s?(\d+)\b|\b(\d+)\s?(?:pcs|units|pieces)\b|\bqty\s?(\d+)\b`)

// conditionVocabulary is the closed vocabulary from spec §4.4, ordered so
// multi-word entries are tried before their single-letter substrings.
var conditionVocabulary = []string{"like new", "refurbished", "new", "used", "a-", "a", "b"}

// senderLinePattern matches WhatsApp export lines of the form
// "[12/31/24, 10:03:00 PM] Sender Name: message text".
var senderLinePattern = regexp.MustCompile(`^\[?(\d{1,2}/\d{1,2}/\d{2,4},?\s+\d{1,2}:\d{2}(?::\d{2})?\s?(?:[AP]M)?)\]?\s*[-–]?\s*([^:]+):\s*(.*)$`)

var systemNoticePattern = regexp.MustCompile(`(?i)(image omitted|video omitted|audio omitted|sticker omitted|missed voice call|missed video call|joined using this group|left$|changed the subject|changed this group|security code changed|created group|added you|messages and calls are end-to-end encrypted)`)

var pureEmojiPattern = regexp.MustCompile(`^[\s\p{So}\p{Sk}\x{1F000}-\x{1FFFF}\x{2600}-\x{27BF}]+$`)

// ParseLines parses free-form text (a WhatsApp transcript or OCR/PDF
// extracted text) into RawOffer rows, per spec §4.4. When the text carries
// WhatsApp "[timestamp] Sender:" prefixes, consecutive lines are grouped
// under the last observed sender, and that sender becomes VendorHint.
func ParseLines(text string) []RawOffer {
	var rows []RawOffer
	currentSender := ""

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}

		if m := senderLinePattern.FindStringSubmatch(line); m != nil {
			currentSender = strings.TrimSpace(m[2])
			line = strings.TrimSpace(m[3])
			if line == "" {
				continue
			}
		}

		if isSkippableLine(line) {
			continue
		}

		rows = append(rows, parseCandidateLine(line, currentSender)...)
	}

	return rows
}

func isSkippableLine(line string) bool {
	if pureEmojiPattern.MatchString(line) {
		return true
	}
	if systemNoticePattern.MatchString(line) {
		return true
	}
	return false
}

// parseCandidateLine emits one RawOffer per price token found in line, with
// description = the line minus every price token, trimmed (spec §4.4).
func parseCandidateLine(line, senderHint string) []RawOffer {
	priceMatches := priceTokenPattern.FindAllString(line, -1)
	if len(priceMatches) == 0 {
		return nil
	}

	description := line
	for _, m := range priceMatches {
		description = strings.Replace(description, m, " ", 1)
	}
	description = collapseSpaces(stripQuantityAndCondition(description))

	if !hasNonPriceWord(description) {
		return nil
	}

	quantity := extractQuantity(line)
	condition := extractCondition(line)

	var rows []RawOffer
	for _, m := range priceMatches {
		price, currency, ok := parsePriceToken(m)
		if !ok {
			continue
		}
		rows = append(rows, RawOffer{
			Description: description,
			Price:       price,
			Currency:    currency,
			Quantity:    quantity,
			Condition:   condition,
			VendorHint:  senderHint,
			RawRow:      map[string]interface{}{"line": line},
		})
	}
	return rows
}

func hasNonPriceWord(s string) bool {
	for _, word := range strings.Fields(s) {
		hasLetter := false
		for _, r := range word {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				hasLetter = true
				break
			}
		}
		if hasLetter {
			return true
		}
	}
	return false
}

func parsePriceToken(token string) (float64, string, bool) {
	currency := ""
	switch {
	case strings.Contains(token, "$"):
		currency = "USD"
	case strings.Contains(token, "€"):
		currency = "EUR"
	case strings.Contains(token, "£"):
		currency = "GBP"
	case strings.Contains(token, "₹"):
		currency = "INR"
	}
	upper := strings.ToUpper(token)
	for _, code := range []string{"USD", "EUR", "GBP", "INR", "KES", "NGN"} {
		if strings.Contains(upper, code) {
			currency = code
		}
	}

	digits := stripCurrencySymbols(token)
	price, err := strconv.ParseFloat(digits, 64)
	if err != nil || price <= 0 {
		return 0, "", false
	}
	return price, currency, true
}

func stripCurrencySymbols(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func extractQuantity(line string) *int {
	m := quantityPattern.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	for _, g := range m[1:] {
		if g == "" {
			continue
		}
		if n, err := strconv.Atoi(g); err == nil {
			return &n
		}
	}
	return nil
}

func extractCondition(line string) *string {
	lower := strings.ToLower(line)
	for _, token := range conditionVocabulary {
		if matchesWholeWord(lower, token) {
			c := token
			return &c
		}
	}
	return nil
}

func matchesWholeWord(haystack, word string) bool {
	re := regexp.MustCompile(`(?i)(?:^|\W)` + regexp.QuoteMeta(word) + `(?:\W|$)`)
	return re.MatchString(haystack)
}

func stripQuantityAndCondition(s string) string {
	s = quantityPattern.ReplaceAllString(s, " ")
	return s
}

func collapseSpaces(s string) string {
	return strings.TrimSpace(regexp.MustCompile(`\s+`).ReplaceAllString(s, " "))
}
