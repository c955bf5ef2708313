package availability

import (
	"sort"
	"time"

	"helmsman/internal/calendar"
	"helmsman/internal/models"
)

// MonthContext carries everything the computer needs for one captain, one
// offering and one month. Reservations must cover every non-terminal booking
// of the captain overlapping the month, fleet-wide: remaining capacity is
// computed against the whole fleet, not a single vessel.
type MonthContext struct {
	Captain      *models.Captain
	Offering     *models.TripOffering
	Vessels      []*models.Vessel
	Windows      []*models.AvailabilityWindow
	Blackouts    []*models.BlackoutDate
	Reservations []*models.Reservation
	Month        calendar.YearMonth
	Now          time.Time
}

// Compute builds the date -> slots map for a month. The result is advisory:
// every write path re-checks capacity inside a store transaction, so a stale
// map can mislead a guest but never oversell a vessel.
//
// Days in the past, beyond the captain's horizon, blacked out, or without an
// availability window produce no entry at all.
func Compute(mc MonthContext) models.DateSlotMap {
	result := make(models.DateSlotMap)
	if mc.Offering == nil || !mc.Offering.IsActive || len(mc.Vessels) == 0 {
		return result
	}

	loc := mc.Captain.Location()
	duration := mc.Offering.Duration()
	if duration <= 0 {
		return result
	}

	aggregate := models.AggregateCapacity(mc.Vessels)
	largest := models.LargestCapacity(mc.Vessels)

	today := calendar.DateKey(mc.Now, loc)
	horizonEnd := calendar.DateKey(mc.Now.AddDate(0, 0, mc.Captain.Horizon()), loc)
	earliestStart := mc.Now.Add(mc.Captain.MinNotice())

	blackouts := make(map[string]bool, len(mc.Blackouts))
	for _, b := range mc.Blackouts {
		blackouts[b.Date] = true
	}

	for day := 1; day <= mc.Month.Days(); day++ {
		date := time.Date(mc.Month.Year, mc.Month.Month, day, 0, 0, 0, 0, loc)
		key := calendar.DateKey(date, loc)

		if key < today || key > horizonEnd || blackouts[key] {
			continue
		}

		var slots []models.Slot
		for _, w := range mc.Windows {
			if w.DayOfWeek != calendar.DayOfWeek(date, loc) || !w.IsActive {
				continue
			}
			winStart, winEnd, ok := w.Bounds()
			if !ok {
				continue
			}
			for _, departure := range departures(mc.Offering, winStart, winEnd, duration) {
				start := calendar.At(mc.Month.Year, mc.Month.Month, day, departure, loc)
				end := start.Add(duration)

				booked := 0
				for _, r := range mc.Reservations {
					if r.CountsAgainstCapacity() && calendar.Overlaps(start, end, r.ScheduledStart, r.ScheduledEnd) {
						booked += r.PartySize
					}
				}
				remaining := aggregate - booked
				if remaining < 0 {
					remaining = 0
				}
				// Остаток не рекламируем выше вместимости самого большого судна
				if remaining > largest {
					remaining = largest
				}

				slots = append(slots, models.Slot{
					Start:             start,
					End:               end,
					TotalCapacity:     largest,
					RemainingCapacity: remaining,
					Available:         remaining > 0 && !start.Before(earliestStart),
				})
			}
		}

		if len(slots) == 0 {
			continue
		}
		sort.Slice(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
		result[key] = slots
	}

	return result
}

// departures expands the offering's departure rule within one window. A trip
// must fit entirely inside the window, start and end inclusive.
func departures(o *models.TripOffering, winStart, winEnd calendar.ClockTime, duration time.Duration) []calendar.ClockTime {
	var out []calendar.ClockTime
	switch rule := o.Rule().(type) {
	case models.FixedDepartures:
		for _, t := range rule.Times {
			if calendar.WithinWindow(t, t.Add(duration), winStart, winEnd) {
				out = append(out, t)
			}
		}
	case models.Continuous:
		stride := time.Duration(rule.StrideMinutes) * time.Minute
		if stride <= 0 {
			return nil
		}
		for t := winStart; calendar.WithinWindow(t, t.Add(duration), winStart, winEnd); t = t.Add(stride) {
			out = append(out, t)
		}
	}
	return out
}
