// Package metrics derives per-customer RFV aggregates and the individual
// purchase-cycle model from paid-order history. The calculator is a pure
// function of order history plus "now": running it twice over the same ledger
// produces identical snapshots.
package metrics

import (
	"math"
	"sort"
	"time"

	"rfv_copilot_backend/internal/rfv/domain"
	"rfv_copilot_backend/internal/rfv/policy"

	"github.com/google/uuid"
)

const hoursPerDay = 24

// Calculator computes customer snapshots under a given policy table.
type Calculator struct {
	policy policy.Policy
}

// NewCalculator creates a calculator with the given policy.
func NewCalculator(p policy.Policy) *Calculator {
	return &Calculator{policy: p}
}

// Compute builds one fresh snapshot per customer with at least one paid
// order. Customers with zero orders are simply absent from the result; that
// is input shape, not an error.
func (c *Calculator) Compute(ordersByCustomer map[uuid.UUID][]domain.Order, now time.Time) []domain.Snapshot {
	snapshots := make([]domain.Snapshot, 0, len(ordersByCustomer))

	for customerID, orders := range ordersByCustomer {
		if len(orders) == 0 {
			continue
		}
		snapshots = append(snapshots, c.computeOne(customerID, orders, now))
	}

	c.assignScores(snapshots)

	// Map iteration order is random; keep output deterministic for callers.
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].CustomerID.String() < snapshots[j].CustomerID.String()
	})

	return snapshots
}

// computeOne fills every field of a snapshot except the R/F/V scores and
// segment, which need the whole customer base.
func (c *Calculator) computeOne(customerID uuid.UUID, orders []domain.Order, now time.Time) domain.Snapshot {
	sorted := append([]domain.Order(nil), orders...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PaidAt.Before(sorted[j].PaidAt) })

	var monetary int64
	var liveCents, siteCents int64
	for _, o := range sorted {
		monetary += o.TotalCents
		switch o.Channel {
		case domain.ChannelLive:
			liveCents += o.TotalCents
		case domain.ChannelSite:
			siteCents += o.TotalCents
		}
	}

	frequency := len(sorted)
	lastPaid := sorted[frequency-1].PaidAt
	recencyDays := int(now.Sub(lastPaid).Hours() / hoursPerDay)
	if recencyDays < 0 {
		recencyDays = 0
	}

	snap := domain.Snapshot{
		CustomerID:         customerID,
		RecencyDays:        recencyDays,
		Frequency:          frequency,
		MonetaryValueCents: monetary,
		AvgTicketCents:     monetary / int64(frequency),
		PreferredChannel:   preferredChannel(liveCents, siteCents),
		CalculatedAt:       now,
	}

	if gaps := gapsInDays(sorted); len(gaps) > 0 {
		avg := mean(gaps)
		std := stdDev(gaps, avg)
		snap.CycleAvgDays = &avg
		snap.CycleStdDevDays = &std

		if avg > 0 {
			deviation := float64(recencyDays) / avg * 100
			snap.CycleDeviationPercent = &deviation
		}
	}

	snap.ChurnRisk = c.policy.ChurnRiskFor(snap.CycleDeviationPercent, recencyDays)
	snap.RepurchaseProbability = repurchaseProbability(snap.CycleDeviationPercent, frequency, recencyDays)

	return snap
}

// assignScores bins recency, frequency, and monetary value into ordinal
// scores across the whole customer base and assigns segments from the policy
// rule table.
func (c *Calculator) assignScores(snapshots []domain.Snapshot) {
	if len(snapshots) == 0 {
		return
	}

	bins := c.policy.ScoreBins
	recency := make([]float64, len(snapshots))
	frequency := make([]float64, len(snapshots))
	monetary := make([]float64, len(snapshots))
	for i, s := range snapshots {
		recency[i] = float64(s.RecencyDays)
		frequency[i] = float64(s.Frequency)
		monetary[i] = float64(s.MonetaryValueCents)
	}

	rEdges := quantileEdges(recency, bins)
	fEdges := quantileEdges(frequency, bins)
	vEdges := quantileEdges(monetary, bins)

	for i := range snapshots {
		s := &snapshots[i]
		s.RScore = scoreLowerIsBetter(float64(s.RecencyDays), rEdges)
		s.FScore = scoreHigherIsBetter(float64(s.Frequency), fEdges)
		s.VScore = scoreHigherIsBetter(float64(s.MonetaryValueCents), vEdges)
		s.Segment = c.policy.SegmentFor(s.RScore, s.FScore, s.VScore, s.Frequency)
	}
}

// gapsInDays returns the gaps between consecutive paid orders, in fractional
// days. Orders must be sorted ascending by PaidAt.
func gapsInDays(sorted []domain.Order) []float64 {
	if len(sorted) < 2 {
		return nil
	}
	gaps := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gaps = append(gaps, sorted[i].PaidAt.Sub(sorted[i-1].PaidAt).Hours()/hoursPerDay)
	}
	return gaps
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the population standard deviation. With a single gap it is zero,
// which correctly reads as "no observed variation" rather than "undefined".
func stdDev(values []float64, avg float64) float64 {
	var sum float64
	for _, v := range values {
		d := v - avg
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// preferredChannel picks the channel with the larger monetary share.
// Shares within 10% of the total of each other collapse to hybrid; customers
// with no revenue on either channel get the general context.
func preferredChannel(liveCents, siteCents int64) domain.ChannelContext {
	total := liveCents + siteCents
	if total == 0 {
		return domain.ChannelContextGeneral
	}

	diff := liveCents - siteCents
	if diff < 0 {
		diff = -diff
	}
	if float64(diff)/float64(total) <= 0.10 {
		return domain.ChannelContextHybrid
	}
	if liveCents > siteCents {
		return domain.ChannelContextLive
	}
	return domain.ChannelContextSite
}

// repurchaseProbability is a deterministic heuristic score in [0,100]. For
// customers with a cycle it peaks as the customer approaches 100% of their
// individual cycle and decays past it; established frequency raises the
// score. Customers without a cycle score on recency alone.
func repurchaseProbability(deviation *float64, frequency, recencyDays int) int {
	if deviation == nil {
		if recencyDays <= 30 {
			return 25
		}
		return 10
	}

	base := 100 - math.Abs(100-*deviation)
	if base < 0 {
		base = 0
	}

	boost := frequency * 2
	if boost > 20 {
		boost = 20
	}

	score := int(math.Round(base*0.8)) + boost
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// quantileEdges computes bins-1 edges over values. Ties collapse naturally:
// a degenerate distribution puts everyone in the same bin.
func quantileEdges(values []float64, bins int) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	edges := make([]float64, 0, bins-1)
	n := len(sorted)
	for i := 1; i < bins; i++ {
		idx := (i*n+bins-1)/bins - 1 // ceil(i*n/bins) - 1
		if idx < 0 {
			idx = 0
		}
		if idx >= n {
			idx = n - 1
		}
		edges = append(edges, sorted[idx])
	}
	return edges
}

// scoreHigherIsBetter bins a value where larger values earn higher scores
// (frequency, monetary value).
func scoreHigherIsBetter(v float64, edges []float64) int {
	score := 1
	for _, e := range edges {
		if v > e {
			score++
		}
	}
	return score
}

// scoreLowerIsBetter bins a value where smaller values earn higher scores
// (recency).
func scoreLowerIsBetter(v float64, edges []float64) int {
	score := len(edges) + 1
	for _, e := range edges {
		if v > e {
			score--
		}
	}
	return score
}
