package matching

import (
	"testing"
	"time"

	"github.com/billswap/backend/internal/models"
	"github.com/google/uuid"
)

func TestFilterByToleranceStopsAtFirstBand(t *testing.T) {
	now := time.Now()
	source := activeBill(uuid.New(), 10_000, models.BillCategoryElectric, nil, now)

	tight := activeBill(uuid.New(), 10_200, models.BillCategoryWater, nil, now) // ~2%
	loose := activeBill(uuid.New(), 11_300, models.BillCategoryWater, nil, now) // ~11.5%

	hits := FilterByTolerance(source, []models.Bill{tight, loose})
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit from the 5%% band, got %d", len(hits))
	}
	if hits[0].ID != tight.ID {
		t.Errorf("expected the tight candidate from the first band")
	}
}

func TestFilterByToleranceWidensProgressively(t *testing.T) {
	now := time.Now()
	source := activeBill(uuid.New(), 10_000, models.BillCategoryElectric, nil, now)
	loose := activeBill(uuid.New(), 11_300, models.BillCategoryWater, nil, now) // ~11.5%, needs 15% band

	hits := FilterByTolerance(source, []models.Bill{loose})
	if len(hits) != 1 {
		t.Fatalf("expected the wider band to pick up the candidate, got %d hits", len(hits))
	}
}

func TestFilterByToleranceMonotonicAcrossBands(t *testing.T) {
	// A pool that matches at a narrow band must never shrink when only
	// wider-band candidates are added.
	now := time.Now()
	source := activeBill(uuid.New(), 10_000, models.BillCategoryElectric, nil, now)
	narrow := activeBill(uuid.New(), 10_100, models.BillCategoryWater, nil, now)
	wide := activeBill(uuid.New(), 11_400, models.BillCategoryWater, nil, now)

	base := FilterByTolerance(source, []models.Bill{narrow})
	grown := FilterByTolerance(source, []models.Bill{narrow, wide})
	if len(grown) < len(base) {
		t.Errorf("wider pool returned fewer candidates: %d < %d", len(grown), len(base))
	}
}

func TestFilterByToleranceNoMatch(t *testing.T) {
	now := time.Now()
	source := activeBill(uuid.New(), 10_000, models.BillCategoryElectric, nil, now)
	far := activeBill(uuid.New(), 20_000, models.BillCategoryWater, nil, now)

	if hits := FilterByTolerance(source, []models.Bill{far}); hits != nil {
		t.Errorf("expected no hits, got %d", len(hits))
	}
}

func TestFilterByToleranceDueDateWindow(t *testing.T) {
	now := time.Now()
	source := activeBill(uuid.New(), 10_000, models.BillCategoryElectric, daysFromNow(now, 2), now)

	inWindow := activeBill(uuid.New(), 10_000, models.BillCategoryWater, daysFromNow(now, 10), now)
	outOfWindow := activeBill(uuid.New(), 10_000, models.BillCategoryWater, daysFromNow(now, 20), now)
	noDueDate := activeBill(uuid.New(), 10_000, models.BillCategoryWater, nil, now)

	hits := FilterByTolerance(source, []models.Bill{inWindow, outOfWindow, noDueDate})
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	for _, h := range hits {
		if h.ID == outOfWindow.ID {
			t.Errorf("candidate outside the due-date window should be filtered")
		}
	}
}

func TestFilterByToleranceSkipsOwnAndInactive(t *testing.T) {
	now := time.Now()
	owner := uuid.New()
	source := activeBill(owner, 10_000, models.BillCategoryElectric, nil, now)

	own := activeBill(owner, 10_000, models.BillCategoryWater, nil, now)
	lockedBill := activeBill(uuid.New(), 10_000, models.BillCategoryWater, nil, now)
	lockedBill.Status = models.BillStatusLockedInSwap

	if hits := FilterByTolerance(source, []models.Bill{own, lockedBill}); hits != nil {
		t.Errorf("expected no hits, got %d", len(hits))
	}
}
