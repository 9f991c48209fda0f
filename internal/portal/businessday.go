package portal

import "time"

// BusinessDayIndex считает рабочие дни (пн-пт) после base до today включительно
// и прибавляет offset. Если today раньше base, результат отрицательный.
func BusinessDayIndex(base, today time.Time, offset int) int {
	base = truncateDay(base)
	today = truncateDay(today)

	sign := 1
	from, to := base, today
	if today.Before(base) {
		sign = -1
		from, to = today, base
	}

	count := 0
	for d := from.AddDate(0, 0, 1); !d.After(to); d = d.AddDate(0, 0, 1) {
		if isBusinessDay(d) {
			count++
		}
	}

	return sign*count + offset
}

func isBusinessDay(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
