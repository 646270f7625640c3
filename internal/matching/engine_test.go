package matching

import (
	"testing"
	"time"

	"github.com/billswap/backend/internal/models"
	"github.com/google/uuid"
)

func activeBill(owner uuid.UUID, amount int64, category string, due *time.Time, created time.Time) models.Bill {
	return models.Bill{
		ID:          uuid.New(),
		UserID:      owner,
		AmountMinor: amount,
		Category:    category,
		DueDate:     due,
		Status:      models.BillStatusActive,
		CreatedAt:   created,
	}
}

func daysFromNow(now time.Time, d int) *time.Time {
	t := now.Add(time.Duration(d) * 24 * time.Hour)
	return &t
}

func TestRankElectricBillScenario(t *testing.T) {
	// $50 electric due in 5 days against $52 electric due in 3 days must
	// score at least 80: amount, category and due-date bonuses all trigger.
	now := time.Now()
	source := activeBill(uuid.New(), 5000, models.BillCategoryElectric, daysFromNow(now, 5), now)
	cand := activeBill(uuid.New(), 5200, models.BillCategoryElectric, daysFromNow(now, 3), now)

	matches := Rank(source, []Candidate{{Bill: cand}}, now)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].Score < 80 {
		t.Errorf("score = %d, want >= 80 (reasons: %v)", matches[0].Score, matches[0].Reasons)
	}
}

func TestRankExactAmountBeatsNear(t *testing.T) {
	now := time.Now()
	source := activeBill(uuid.New(), 5000, models.BillCategoryWater, nil, now)
	exact := activeBill(uuid.New(), 5000, models.BillCategoryWater, nil, now)
	near := activeBill(uuid.New(), 5300, models.BillCategoryWater, nil, now)

	matches := Rank(source, []Candidate{{Bill: near}, {Bill: exact}}, now)
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Bill.ID != exact.ID {
		t.Errorf("exact amount match should rank first")
	}
	if matches[0].Score <= matches[1].Score {
		t.Errorf("exact score %d should exceed near score %d", matches[0].Score, matches[1].Score)
	}
}

func TestRankFiltersFloorOwnAndInactiveBills(t *testing.T) {
	now := time.Now()
	owner := uuid.New()
	source := activeBill(owner, 5000, models.BillCategoryElectric, nil, now)

	own := activeBill(owner, 5000, models.BillCategoryElectric, nil, now)
	locked := activeBill(uuid.New(), 5000, models.BillCategoryElectric, nil, now)
	locked.Status = models.BillStatusLockedInSwap
	weak := activeBill(uuid.New(), 50_000, models.BillCategoryRent, nil, now)

	matches := Rank(source, []Candidate{{Bill: own}, {Bill: locked}, {Bill: weak}}, now)
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %d", len(matches))
	}
}

func TestRankDeterministicUnderReordering(t *testing.T) {
	now := time.Now()
	source := activeBill(uuid.New(), 5000, models.BillCategoryElectric, daysFromNow(now, 5), now)

	var cands []Candidate
	for i := 0; i < 8; i++ {
		b := activeBill(uuid.New(), 4800+int64(i)*100, models.BillCategoryElectric,
			daysFromNow(now, i), now.Add(-time.Duration(i)*time.Hour))
		cands = append(cands, Candidate{Bill: b})
	}

	first := Rank(source, cands, now)

	reversed := make([]Candidate, len(cands))
	for i, c := range cands {
		reversed[len(cands)-1-i] = c
	}
	second := Rank(source, reversed, now)

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Bill.ID != second[i].Bill.ID || first[i].Score != second[i].Score {
			t.Errorf("position %d differs under reordering", i)
		}
	}
}

func TestRankTieBrokenByNewestCandidate(t *testing.T) {
	now := time.Now()
	source := activeBill(uuid.New(), 5000, models.BillCategoryElectric, nil, now)

	older := activeBill(uuid.New(), 5000, models.BillCategoryElectric, nil, now.Add(-2*time.Hour))
	newer := activeBill(uuid.New(), 5000, models.BillCategoryElectric, nil, now.Add(-1*time.Hour))

	matches := Rank(source, []Candidate{{Bill: older}, {Bill: newer}}, now)
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Score != matches[1].Score {
		t.Fatalf("expected a tie, got %d vs %d", matches[0].Score, matches[1].Score)
	}
	if matches[0].Bill.ID != newer.ID {
		t.Errorf("newer candidate should win the tie")
	}
}

func TestRankTrustAndReliabilityBonuses(t *testing.T) {
	now := time.Now()
	source := activeBill(uuid.New(), 5000, models.BillCategoryElectric, nil, now)
	cand := activeBill(uuid.New(), 5000, models.BillCategoryElectric, nil, now)

	plain := Rank(source, []Candidate{{Bill: cand}}, now)
	trusted := Rank(source, []Candidate{{
		Bill:    cand,
		Profile: &models.TrustProfile{Tier: 4, CompletedSwaps: 20, FailedSwaps: 1},
	}}, now)

	if len(plain) != 1 || len(trusted) != 1 {
		t.Fatal("expected single matches")
	}
	want := plain[0].Score + 20 // high-trust + reliability
	if want > MaxScore {
		want = MaxScore
	}
	if trusted[0].Score != want {
		t.Errorf("trusted score = %d, want %d", trusted[0].Score, want)
	}
}

func TestRankCapsAtMaxScore(t *testing.T) {
	now := time.Now()
	source := activeBill(uuid.New(), 5000, models.BillCategoryElectric, daysFromNow(now, 2), now)
	cand := activeBill(uuid.New(), 5000, models.BillCategoryElectric, daysFromNow(now, 2), now)

	matches := Rank(source, []Candidate{{
		Bill:    cand,
		Profile: &models.TrustProfile{Tier: 5, CompletedSwaps: 30},
	}}, now)
	if len(matches) != 1 {
		t.Fatal("expected one match")
	}
	if matches[0].Score > MaxScore {
		t.Errorf("score %d exceeds cap", matches[0].Score)
	}
	if matches[0].Score != MaxScore {
		t.Errorf("score = %d, want exactly %d for a perfect match", matches[0].Score, MaxScore)
	}
}

func TestRankBulkDeduplicatesKeepingHighest(t *testing.T) {
	now := time.Now()
	me := uuid.New()
	srcClose := activeBill(me, 5000, models.BillCategoryElectric, nil, now)
	srcFar := activeBill(me, 6000, models.BillCategoryElectric, nil, now)
	cand := activeBill(uuid.New(), 5000, models.BillCategoryElectric, nil, now)

	bulk := RankBulk([]models.Bill{srcClose, srcFar}, []Candidate{{Bill: cand}}, now)
	if len(bulk) != 1 {
		t.Fatalf("expected deduplicated single match, got %d", len(bulk))
	}

	single := Rank(srcClose, []Candidate{{Bill: cand}}, now)
	if bulk[0].Score != single[0].Score {
		t.Errorf("bulk kept score %d, want highest %d", bulk[0].Score, single[0].Score)
	}
}

func TestRankTopN(t *testing.T) {
	now := time.Now()
	source := activeBill(uuid.New(), 5000, models.BillCategoryElectric, nil, now)
	var cands []Candidate
	for i := 0; i < TopN+5; i++ {
		cands = append(cands, Candidate{Bill: activeBill(uuid.New(), 5000, models.BillCategoryElectric, nil, now)})
	}
	matches := Rank(source, cands, now)
	if len(matches) != TopN {
		t.Errorf("expected %d matches, got %d", TopN, len(matches))
	}
}
