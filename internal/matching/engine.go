// Package matching ranks candidate bills against a source bill. The engine is
// pure: it reads bills and trust profiles and produces scored matches, leaving
// all persistence and lifecycle decisions to the services layer.
package matching

import (
	"fmt"
	"sort"
	"time"

	"github.com/billswap/backend/internal/models"
	"github.com/google/uuid"
)

// Scoring weights. Additive, capped at MaxScore; candidates below ScoreFloor
// are dropped.
const (
	MaxScore   = 100
	ScoreFloor = 30
	TopN       = 10

	amountExactBonus    = 35
	amountNearBonus     = 30 // within amountNearPct
	amountPartialWeight = 20
	amountNearPct       = 0.15

	dueWithin3Bonus  = 30
	dueWithin7Bonus  = 20
	dueWithin14Bonus = 10

	categoryBonus = 20

	tierHighBonus        = 10 // counterparty tier >= tierHighThreshold
	tierEstablishedBonus = 5  // counterparty tier >= tierEstablishedThreshold
	tierHighThreshold    = 4
	tierEstablishedThreshold = 2

	reliabilityBonus       = 10
	reliabilityMinRate     = 0.9
	reliabilityMinComplete = 5

	urgencyBonus   = 10 // source bill due within urgencyDays
	urgencyDays    = 3
)

// Candidate pairs a bill with its owner's trust profile.
type Candidate struct {
	Bill    models.Bill
	Profile *models.TrustProfile // nil when the owner has no profile yet
}

// Match is one scored candidate with human-readable scoring reasons.
type Match struct {
	Bill    models.Bill `json:"bill"`
	Score   int         `json:"score"`
	Reasons []string    `json:"reasons"`
}

// Rank scores every candidate against the source bill and returns the top
// matches, descending by score, ties broken by most recent candidate
// creation. The output is deterministic under input reordering.
func Rank(source models.Bill, candidates []Candidate, now time.Time) []Match {
	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		if c.Bill.UserID == source.UserID {
			continue
		}
		if c.Bill.Status != models.BillStatusActive {
			continue
		}
		m := score(source, c, now)
		if m.Score >= ScoreFloor {
			matches = append(matches, m)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if !matches[i].Bill.CreatedAt.Equal(matches[j].Bill.CreatedAt) {
			return matches[i].Bill.CreatedAt.After(matches[j].Bill.CreatedAt)
		}
		// Final tie-break on ID for full determinism.
		return matches[i].Bill.ID.String() < matches[j].Bill.ID.String()
	})

	if len(matches) > TopN {
		matches = matches[:TopN]
	}
	return matches
}

// RankBulk runs Rank for every source bill and deduplicates by candidate
// bill, keeping the highest score seen.
func RankBulk(sources []models.Bill, candidates []Candidate, now time.Time) []Match {
	best := map[uuid.UUID]Match{}
	for _, src := range sources {
		for _, m := range Rank(src, candidates, now) {
			if prev, ok := best[m.Bill.ID]; !ok || m.Score > prev.Score {
				best[m.Bill.ID] = m
			}
		}
	}

	out := make([]Match, 0, len(best))
	for _, m := range best {
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if !out[i].Bill.CreatedAt.Equal(out[j].Bill.CreatedAt) {
			return out[i].Bill.CreatedAt.After(out[j].Bill.CreatedAt)
		}
		return out[i].Bill.ID.String() < out[j].Bill.ID.String()
	})
	return out
}

func score(source models.Bill, c Candidate, now time.Time) Match {
	total := 0
	var reasons []string
	add := func(pts int, reason string) {
		if pts <= 0 {
			return
		}
		total += pts
		reasons = append(reasons, reason)
	}

	// Amount similarity.
	srcAmt, candAmt := source.AmountMinor, c.Bill.AmountMinor
	diff := srcAmt - candAmt
	if diff < 0 {
		diff = -diff
	}
	maxAmt := srcAmt
	if candAmt > maxAmt {
		maxAmt = candAmt
	}
	switch {
	case diff == 0:
		add(amountExactBonus, "amounts match exactly")
	case maxAmt > 0 && float64(diff)/float64(maxAmt) <= amountNearPct:
		add(amountNearBonus, "amounts within 15%")
	case maxAmt > 0:
		partial := int((1 - float64(diff)/float64(maxAmt)) * amountPartialWeight)
		add(partial, "amounts loosely comparable")
	}

	// Due-date alignment.
	if source.DueDate != nil && c.Bill.DueDate != nil {
		days := int(source.DueDate.Sub(*c.Bill.DueDate).Hours() / 24)
		if days < 0 {
			days = -days
		}
		switch {
		case days <= 3:
			add(dueWithin3Bonus, "due dates within 3 days")
		case days <= 7:
			add(dueWithin7Bonus, "due dates within a week")
		case days <= 14:
			add(dueWithin14Bonus, "due dates within two weeks")
		}
	}

	// Category.
	if source.Category == c.Bill.Category {
		add(categoryBonus, fmt.Sprintf("same category (%s)", source.Category))
	}

	// Counterparty trust.
	if c.Profile != nil {
		switch {
		case c.Profile.Tier >= tierHighThreshold:
			add(tierHighBonus, "high-trust counterparty")
		case c.Profile.Tier >= tierEstablishedThreshold:
			add(tierEstablishedBonus, "established counterparty")
		}
		if c.Profile.SuccessRate() >= reliabilityMinRate && c.Profile.CompletedSwaps >= reliabilityMinComplete {
			add(reliabilityBonus, "reliable swap history")
		}
	}

	// Source urgency.
	if days, ok := source.DaysUntilDue(now); ok && days <= urgencyDays {
		add(urgencyBonus, "your bill is due soon")
	}

	if total > MaxScore {
		total = MaxScore
	}
	return Match{Bill: c.Bill, Score: total, Reasons: reasons}
}
