package batch

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/noknok06/stock-dialy-sub000/internal/shared/telemetry"
)

// JST is the batch's reference timezone; EDINET publishes lists per JST day.
var JST = time.FixedZone("JST", 9*60*60)

// Auto date modes.
const (
	AutoModeTimeBased     = "time_based"
	AutoModeYesterdayOnly = "yesterday_only"
	AutoModeTodayOnly     = "today_only"
)

const staleDateWarnDays = 30

// DateOptions selects the target date for one batch run.
type DateOptions struct {
	Explicit       string // YYYY-MM-DD, wins over everything else
	Today          bool
	Yesterday      bool
	AutoMode       string // time_based, yesterday_only, today_only
	NightBatchTime string // HH:MM threshold for time_based
	Now            func() time.Time
}

// ResolveTargetDate returns the JST calendar date the batch should ingest.
func ResolveTargetDate(opts DateOptions) (time.Time, error) {
	nowFn := opts.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	now := nowFn().In(JST)
	today := midnight(now)

	if strings.TrimSpace(opts.Explicit) != "" {
		target, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(opts.Explicit), JST)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q: %w", opts.Explicit, err)
		}
		if target.After(today) {
			return time.Time{}, fmt.Errorf("date %s is in the future", target.Format("2006-01-02"))
		}
		if age := today.Sub(target); age > staleDateWarnDays*24*time.Hour {
			telemetry.Warn("batch.date.stale", map[string]any{
				"date":     target.Format("2006-01-02"),
				"age_days": int(age.Hours() / 24),
			})
		}
		return target, nil
	}

	if opts.Today {
		return today, nil
	}
	if opts.Yesterday {
		return today.AddDate(0, 0, -1), nil
	}

	switch opts.AutoMode {
	case AutoModeTodayOnly:
		return today, nil
	case AutoModeYesterdayOnly, "":
		return today.AddDate(0, 0, -1), nil
	case AutoModeTimeBased:
		return timeBasedTarget(now, opts.NightBatchTime), nil
	default:
		return time.Time{}, fmt.Errorf("unknown auto date mode %q", opts.AutoMode)
	}
}

// timeBasedTarget picks yesterday once the night batch window opens (threshold
// to 06:00 next morning); a daytime catch-up run targets the day before
// yesterday because yesterday's night batch already covered the gap.
func timeBasedTarget(now time.Time, nightBatchTime string) time.Time {
	today := midnight(now)
	threshold := parseClock(nightBatchTime, 22*60)
	minutes := now.Hour()*60 + now.Minute()

	switch {
	case minutes >= threshold || minutes < 6*60:
		return today.AddDate(0, 0, -1)
	case minutes >= 6*60 && minutes < threshold:
		return today.AddDate(0, 0, -2)
	default:
		return today.AddDate(0, 0, -1)
	}
}

// parseClock converts "HH:MM" to minutes after midnight.
func parseClock(raw string, def int) int {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return def
	}
	hh, err1 := strconv.Atoi(parts[0])
	mm, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return def
	}
	return hh*60 + mm
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, JST)
}
