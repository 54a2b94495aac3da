// Package risk scores invoices for underwriting.
package risk

import (
	"crypto/md5"
	"strings"
	"time"

	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/metadata"
)

const (
	MinScore  = 0
	MaxScore  = 100
	baseScore = 50
)

var (
	riskKeywords = []string{"urgent", "cash flow", "immediate", "crisis", "emergency"}
	calmKeywords = []string{"stable", "reliable", "established", "premium", "quality"}
)

// Score computes the risk score of an invoice evaluated at now. The result is
// always within [MinScore, MaxScore].
func Score(amount float64, buyer, dueDate, description string, now time.Time) int {
	score := baseScore
	score += AmountFactor(amount)
	score += MaturityFactor(dueDate, now)
	score += BuyerFactor(buyer)
	score += DescriptionFactor(description)
	score += MarketFactor(now)
	return clamp(score)
}

// AmountFactor weighs the invoice size.
func AmountFactor(amount float64) int {
	switch {
	case amount < 1:
		return 5
	case amount < 10:
		return 0
	case amount < 50:
		return 10
	default:
		return 20
	}
}

// MaturityFactor weighs the whole days left until dueDate, read as a naive
// UTC time. An unparseable or zone qualified date costs a flat 10.
func MaturityFactor(dueDate string, now time.Time) int {
	due, ok := metadata.ParseNaiveISO(dueDate)
	if !ok {
		return 10
	}
	switch days := DaysUntil(due, now); {
	case days < 7:
		return 25
	case days < 30:
		return 15
	case days < 90:
		return 5
	default:
		return -5
	}
}

// DaysUntil returns the whole days from now to due, rounded toward negative
// infinity.
func DaysUntil(due, now time.Time) int64 {
	const day = 24 * time.Hour
	d := due.Sub(now)
	days := int64(d / day)
	if d%day < 0 {
		days--
	}
	return days
}

// BuyerFactor is a deterministic pseudo credit signal in [-11, 10] taken from
// the first byte of the MD5 of the lower-cased buyer.
func BuyerFactor(buyer string) int {
	sum := md5.Sum([]byte(strings.ToLower(buyer)))
	return floorDiv(int(sum[0])-128, 12)
}

// DescriptionFactor adds 5 per risk keyword and subtracts 2 per calm keyword
// found in the description. Each keyword counts at most once.
func DescriptionFactor(description string) int {
	desc := strings.ToLower(description)
	factor := 0
	for _, kw := range riskKeywords {
		if strings.Contains(desc, kw) {
			factor += 5
		}
	}
	for _, kw := range calmKeywords {
		if strings.Contains(desc, kw) {
			factor -= 2
		}
	}
	return factor
}

// MarketFactor is a simulated market condition in [-5, 4] cycling with the
// day of the year.
func MarketFactor(now time.Time) int {
	return floorDiv(now.UTC().YearDay()%20-10, 2)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func clamp(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
