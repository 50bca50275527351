// Pacing math (C4): how many views/clicks a flight still needs this
// interval, and the lottery weight that need translates into. Grounded on
// the teacher's Redis daily-counter pattern (internal/logic/pacing.go) for
// the caching/TTL idiom; the arithmetic itself is re-derived from spec.md
// §4.4, which generalizes the teacher's per-day model to arbitrary pacing
// intervals.
package logic

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/adserve/core/internal/db"
	"github.com/adserve/core/internal/models"
)

// ErrNilRedisStore is returned when pacing state is requested without a
// live Redis connection.
var ErrNilRedisStore = errors.New("redis store is nil")

// nowFn is the pacing clock; tests replace it to simulate arbitrary
// points in a flight's lifetime.
var nowFn = time.Now

// CTRCapMode controls whether the publisher and flight CTR boosts compound
// multiplicatively (the default, matching the teacher/original behavior)
// or share a single combined cap. See DESIGN.md's Open Question entry.
type CTRCapMode string

const (
	CTRCapModeCompound CTRCapMode = "compound"
	CTRCapModeTotal    CTRCapMode = "total"
)

// PacingNeed is the result of the pacing computation for one flight.
type PacingNeed struct {
	ClicksNeeded         int
	ViewsNeeded          int
	WeightedClicksNeeded float64
}

// dailyCounters is the short-lived, per-process view of today's delivery
// for a flight, backed by Redis with a 24h TTL.
type dailyCounters struct {
	ViewsToday  int64
	ClicksToday int64
}

func todayKeyViews(flightID int, day string) string  { return fmt.Sprintf("pacing:views:%d:%s", flightID, day) }
func todayKeyClicks(flightID int, day string) string { return fmt.Sprintf("pacing:clicks:%d:%s", flightID, day) }

func readDailyCounters(store *db.RedisStore, flightID int) dailyCounters {
	if store == nil || store.Client == nil {
		return dailyCounters{}
	}
	day := nowFn().Format("2006-01-02")
	views, _ := store.Client.Get(store.Ctx, todayKeyViews(flightID, day)).Int64()
	clicks, _ := store.Client.Get(store.Ctx, todayKeyClicks(flightID, day)).Int64()
	return dailyCounters{ViewsToday: views, ClicksToday: clicks}
}

// IncrementFlightViewsToday bumps the flight's today-view counter,
// creating it with a 24h TTL on first use.
func IncrementFlightViewsToday(store *db.RedisStore, flightID int) error {
	return incrTodayCounter(store, todayKeyViews(flightID, nowFn().Format("2006-01-02")))
}

// IncrementFlightClicksToday bumps the flight's today-click counter,
// creating it with a 24h TTL on first use.
func IncrementFlightClicksToday(store *db.RedisStore, flightID int) error {
	return incrTodayCounter(store, todayKeyClicks(flightID, nowFn().Format("2006-01-02")))
}

func incrTodayCounter(store *db.RedisStore, key string) error {
	if store == nil || store.Client == nil {
		return ErrNilRedisStore
	}
	newVal, err := store.Client.Incr(store.Ctx, key).Result()
	if err != nil {
		return err
	}
	if newVal == 1 {
		store.Client.Expire(store.Ctx, key, 24*time.Hour)
	}
	return nil
}

// intervalAccounting holds the interval-arithmetic intermediates from
// spec.md §4.4, useful to expose for pacing tests (S6).
type intervalAccounting struct {
	SoldIntervals      int
	ElapsedIntervals   int
	IntervalsRemaining int
	TargetViews        int
	TargetClicks       int
}

func computeIntervalAccounting(f *models.Flight, t time.Time) intervalAccounting {
	interval := f.PacingIntervalDuration()
	intervalDays := interval.Hours() / 24

	totalDays := f.EndDate.Sub(f.StartDate).Hours()/24 + 1
	soldIntervals := int(math.Ceil(totalDays / intervalDays))
	if soldIntervals < 1 {
		soldIntervals = 1
	}

	elapsed := t.Sub(f.StartDate)
	elapsedIntervals := int(elapsed / interval)
	if elapsedIntervals < 0 {
		elapsedIntervals = 0
	}

	intervalsRemaining := soldIntervals - elapsedIntervals
	if intervalsRemaining < 1 {
		intervalsRemaining = 1
	}

	targetViews := f.SoldImpressions - int(math.Floor(float64(f.SoldImpressions)*float64(intervalsRemaining-1)/float64(soldIntervals)))
	targetClicks := f.SoldClicks - int(math.Floor(float64(f.SoldClicks)*float64(intervalsRemaining-1)/float64(soldIntervals)))

	return intervalAccounting{
		SoldIntervals:      soldIntervals,
		ElapsedIntervals:   elapsedIntervals,
		IntervalsRemaining: intervalsRemaining,
		TargetViews:        targetViews,
		TargetClicks:       targetClicks,
	}
}

// ComputeNeed returns clicks/views needed this interval and nil pacing
// weight inputs; callers combine it with WeightedClicksNeeded.
func ComputeNeed(f *models.Flight, store *db.RedisStore) PacingNeed {
	t := nowFn()

	if t.Before(f.StartDate) || !f.Live {
		return PacingNeed{}
	}

	counters := readDailyCounters(store, f.ID)

	if t.After(f.EndDate) {
		clicksNeeded := f.SoldClicks - f.TotalClicks
		viewsNeeded := f.SoldImpressions - f.TotalViews
		if clicksNeeded < 0 {
			clicksNeeded = 0
		}
		if viewsNeeded < 0 {
			viewsNeeded = 0
		}
		return PacingNeed{ClicksNeeded: clicksNeeded, ViewsNeeded: viewsNeeded}
	}

	acc := computeIntervalAccounting(f, t)

	clicksNeeded := acc.TargetClicks - f.TotalClicks - int(counters.ClicksToday)
	if clicksNeeded < 0 {
		clicksNeeded = 0
	}
	viewsNeeded := acc.TargetViews - f.TotalViews - int(counters.ViewsToday)
	if viewsNeeded < 0 {
		viewsNeeded = 0
	}

	return PacingNeed{ClicksNeeded: clicksNeeded, ViewsNeeded: viewsNeeded}
}

// DailyCapExceeded reports whether one more click/view at the flight's
// CPC/CPM would push today's spend past its daily monetary cap.
func DailyCapExceeded(f *models.Flight, store *db.RedisStore) bool {
	if f.DailyCap <= 0 {
		return false
	}
	counters := readDailyCounters(store, f.ID)
	spend := 0.0
	if f.CPC > 0 {
		spend = float64(counters.ClicksToday+1) * f.CPC
	} else if f.CPM > 0 {
		spend = float64(counters.ViewsToday+1) / 1000 * f.CPM
	}
	return spend > f.DailyCap
}

// PublisherDailyCapExceeded mirrors DailyCapExceeded at the publisher
// level, summed across today's delivery on that publisher (tracked by
// the caller via a separate Redis counter keyed by publisher+date).
func PublisherDailyCapExceeded(p *models.Publisher, todaySpend float64, additional float64) bool {
	if p == nil || p.DailyEarningCap <= 0 {
		return false
	}
	return todaySpend+additional > p.DailyEarningCap
}

// WeightedClicksNeeded computes the flight's lottery weight per spec.md
// §4.4's multiplicative-boost formula.
func WeightedClicksNeeded(f *models.Flight, need PacingNeed, flightCTR float64, publisherSampledCTR float64, mode CTRCapMode) float64 {
	base := math.Ceil(float64(need.ViewsNeeded)/1000) + float64(need.ClicksNeeded)
	w := base * float64(f.PriorityMultiplier)

	if f.CPM > 0 {
		w *= math.Min(f.CPM, 10)
	}

	switch mode {
	case CTRCapModeTotal:
		combined := 1.0
		if f.PrioritizeByCTR && flightCTR > 0.001 {
			combined *= math.Min(10*f.CPC*flightCTR, 10)
		}
		if publisherSampledCTR > 0 && f.CPC > 0 {
			combined *= math.Min(10*f.CPC*publisherSampledCTR, 10)
		}
		if combined > 10 {
			combined = 10
		}
		if combined > 0 {
			w *= combined
		}
	default: // CTRCapModeCompound
		if f.PrioritizeByCTR && flightCTR > 0.001 {
			w *= math.Min(10*f.CPC*flightCTR, 10)
		}
		if publisherSampledCTR > 0 && f.CPC > 0 {
			w *= math.Min(10*f.CPC*publisherSampledCTR, 10)
		}
	}

	now := nowFn()
	if now.After(f.EndDate) {
		daysOverdue := now.Sub(f.EndDate).Hours() / 24
		if daysOverdue > 0 {
			w *= math.Trunc(math.Pow(daysOverdue, 1.5))
		}
	}

	return w
}
