// Paddock - Offline-Tolerant Farm Operations Data Layer
// Copyright 2026 Paddock Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/paddockhq/paddock

package report

import (
	"sort"
	"time"

	"github.com/paddockhq/paddock/internal/models"
)

// DefaultTrendWindow caps a trend series at the most recent buckets.
const DefaultTrendWindow = 14

// DefaultTopN caps rankings.
const DefaultTopN = 5

// KPIs are the headline aggregates of a report run. Base and adjusted
// figures are always both present: the optional cost components change
// the adjusted column, never hide the base one.
type KPIs struct {
	BatchCount    int
	BirdCount     float64
	Revenue       float64
	BaseCost      float64
	AdjustedCost  float64
	VaccineCost   float64
	LaborCost     float64
	ProfitBase    float64
	ProfitAdjusted float64

	FeedKg           float64
	FeedCost         float64
	HarvestWeightKg  float64
	MortalityCount   float64
	MortalityRate    float64
	FCR              float64
	AvgDailyGainKg   float64
}

// TrendBucket is one calendar day of a trend series.
type TrendBucket struct {
	Day   time.Time
	Value float64
}

// Ranked is one entry of a top-N ranking.
type Ranked struct {
	Label string
	Value float64
}

// sourceSets groups the scoped subsets the reductions consume.
type sourceSets struct {
	batches       []models.RecordRow
	dailyLogs     []models.RecordRow
	feedLogs      []models.RecordRow
	healthRecords []models.RecordRow
	harvests      []models.RecordRow
}

func sumField(rows []models.RecordRow, field string) float64 {
	var total float64
	for _, row := range rows {
		if v, ok := row.Float(field); ok {
			total += v
		}
	}
	return total
}

// computeKPIs reduces the scoped subsets. Costs break down as:
// base = batch acquisition (quantity x unit cost) + feed cost;
// adjusted = base plus whichever of vaccine and labor cost the filter
// state folds in.
func computeKPIs(s sourceSets, fs FilterState) KPIs {
	k := KPIs{BatchCount: len(s.batches)}

	for _, b := range s.batches {
		qty, _ := b.Float("quantity")
		k.BirdCount += qty
		if unit, ok := b.Float("unit_cost"); ok {
			k.BaseCost += qty * unit
		}
	}

	k.FeedKg = sumField(s.feedLogs, "feed_kg")
	k.FeedCost = sumField(s.feedLogs, "feed_cost")
	k.BaseCost += k.FeedCost

	k.Revenue = sumField(s.harvests, "revenue")
	k.HarvestWeightKg = sumField(s.harvests, "weight_kg")
	k.MortalityCount = sumField(s.dailyLogs, "mortality_count")
	k.VaccineCost = sumField(s.healthRecords, "vaccine_cost")
	k.LaborCost = sumField(s.dailyLogs, "labor_cost")

	k.AdjustedCost = k.BaseCost
	if fs.IncludeVaccineCost {
		k.AdjustedCost += k.VaccineCost
	}
	if fs.IncludeLaborCost {
		k.AdjustedCost += k.LaborCost
	}

	k.ProfitBase = k.Revenue - k.BaseCost
	k.ProfitAdjusted = k.Revenue - k.AdjustedCost

	if k.BirdCount > 0 {
		k.MortalityRate = k.MortalityCount / k.BirdCount
	}
	if k.HarvestWeightKg > 0 {
		k.FCR = k.FeedKg / k.HarvestWeightKg
	}
	k.AvgDailyGainKg = avgDailyGain(s.dailyLogs)

	return k
}

// avgDailyGain derives average daily gain from the first and last
// average-weight samples in the daily logs, divided by the day span
// between them. Logs without a date or a sample are skipped.
func avgDailyGain(dailyLogs []models.RecordRow) float64 {
	type sample struct {
		day time.Time
		kg  float64
	}
	var samples []sample
	for _, row := range dailyLogs {
		t, ok := rowDate(row)
		if !ok {
			continue
		}
		kg, ok := row.Float("avg_weight_kg")
		if !ok {
			continue
		}
		samples = append(samples, sample{day: t, kg: kg})
	}
	if len(samples) < 2 {
		return 0
	}

	sort.Slice(samples, func(i, j int) bool { return samples[i].day.Before(samples[j].day) })
	first, last := samples[0], samples[len(samples)-1]
	days := last.day.Sub(first.day).Hours() / 24
	if days <= 0 {
		return 0
	}
	return (last.kg - first.kg) / days
}

// Trend groups date-bearing rows by calendar day, sums valueField per day,
// and returns the buckets sorted descending by date, capped at window.
// Rows without a parseable date carry no day to bucket under and are
// excluded from the series (they still count in the KPI totals).
func Trend(rows []models.RecordRow, valueField string, window int) []TrendBucket {
	if window <= 0 {
		window = DefaultTrendWindow
	}

	byDay := make(map[time.Time]float64)
	for _, row := range rows {
		t, ok := rowDate(row)
		if !ok {
			continue
		}
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		if v, ok := row.Float(valueField); ok {
			byDay[day] += v
		}
	}

	buckets := make([]TrendBucket, 0, len(byDay))
	for day, v := range byDay {
		buckets = append(buckets, TrendBucket{Day: day, Value: v})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Day.After(buckets[j].Day) })

	if len(buckets) > window {
		buckets = buckets[:window]
	}
	return buckets
}

// TopCauses ranks mortality causes by total count, capped at n.
func TopCauses(dailyLogs []models.RecordRow, n int) []Ranked {
	if n <= 0 {
		n = DefaultTopN
	}

	totals := make(map[string]float64)
	for _, row := range dailyLogs {
		cause := row.String("mortality_cause")
		if cause == "" {
			continue
		}
		if v, ok := row.Float("mortality_count"); ok && v > 0 {
			totals[cause] += v
		}
	}
	return rank(totals, n)
}

// TopBatchProfit ranks batches by revenue minus base cost, capped at n.
// Per-batch cost uses the same base components as the KPI totals.
func TopBatchProfit(s sourceSets, n int) []Ranked {
	if n <= 0 {
		n = DefaultTopN
	}

	labels := make(map[string]string, len(s.batches))
	profit := make(map[string]float64, len(s.batches))
	for _, b := range s.batches {
		id := b.String("id")
		if id == "" {
			continue
		}
		label := b.String("batch_name")
		if label == "" {
			label = "batch " + id
		}
		labels[id] = label

		qty, _ := b.Float("quantity")
		unit, _ := b.Float("unit_cost")
		profit[id] = -(qty * unit)
	}

	for _, f := range s.feedLogs {
		if id := f.String("batch_id"); profitHas(profit, id) {
			if v, ok := f.Float("feed_cost"); ok {
				profit[id] -= v
			}
		}
	}
	for _, h := range s.harvests {
		if id := h.String("batch_id"); profitHas(profit, id) {
			if v, ok := h.Float("revenue"); ok {
				profit[id] += v
			}
		}
	}

	byLabel := make(map[string]float64, len(profit))
	for id, v := range profit {
		byLabel[labels[id]] = v
	}
	return rank(byLabel, n)
}

func profitHas(m map[string]float64, id string) bool {
	_, ok := m[id]
	return ok
}

func rank(totals map[string]float64, n int) []Ranked {
	out := make([]Ranked, 0, len(totals))
	for label, v := range totals {
		out = append(out, Ranked{Label: label, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Label < out[j].Label
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
