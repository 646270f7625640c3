package matching

import (
	"math"
	"time"

	"github.com/billswap/backend/internal/models"
)

// Progressive amount-tolerance bands for the simple 1:1 matcher: the search
// widens band by band and stops at the first band with at least one hit, so a
// wider band can never return fewer candidates than a narrower one.
var toleranceBands = []float64{0.05, 0.10, 0.15}

// dueDateWindowDays is the symmetric due-date filter applied when both bills
// carry a due date; a bill without a due date is always timeline-compatible.
const dueDateWindowDays = 14

// FilterByTolerance returns candidates from the first tolerance band that
// yields a result, filtered by the due-date window.
func FilterByTolerance(source models.Bill, pool []models.Bill) []models.Bill {
	for _, band := range toleranceBands {
		var hits []models.Bill
		for _, b := range pool {
			if b.UserID == source.UserID || b.Status != models.BillStatusActive {
				continue
			}
			if !withinAmountBand(source.AmountMinor, b.AmountMinor, band) {
				continue
			}
			if !timelineCompatible(source, b) {
				continue
			}
			hits = append(hits, b)
		}
		if len(hits) > 0 {
			return hits
		}
	}
	return nil
}

func withinAmountBand(a, b int64, band float64) bool {
	if a == 0 && b == 0 {
		return true
	}
	max := math.Max(float64(a), float64(b))
	return math.Abs(float64(a-b))/max <= band
}

func timelineCompatible(a, b models.Bill) bool {
	if a.DueDate == nil || b.DueDate == nil {
		return true
	}
	diff := a.DueDate.Sub(*b.DueDate)
	if diff < 0 {
		diff = -diff
	}
	return diff <= dueDateWindowDays*24*time.Hour
}
