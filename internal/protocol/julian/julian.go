// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

// Package julian converts between civil dates and Julian Day Numbers, the
// basis of HANA's DAYDATE/SECONDDATE/LONGDATE wire encodings.
package julian

import "time"

// TimeToDay returns the Julian Day Number of t's UTC calendar date
// (Fliegel & Van Flandern algorithm).
func TimeToDay(t time.Time) int {
	t = t.UTC()
	y, m, d := int(t.Year()), int(t.Month()), t.Day()
	a := (14 - m) / 12
	y2 := y + 4800 - a
	m2 := m + 12*a - 3
	return d + (153*m2+2)/5 + 365*y2 + y2/4 - y2/100 + y2/400 - 32045
}

// DayToTime returns the UTC midnight time.Time of Julian Day Number jd.
func DayToTime(jd int) time.Time {
	a := jd + 32044
	b := (4*a + 3) / 146097
	c := a - (146097*b)/4
	d := (4*c + 3) / 1461
	e := c - (1461*d)/4
	m := (5*e + 2) / 153

	day := e - (153*m+2)/5 + 1
	month := m + 3 - 12*(m/10)
	year := 100*b + d - 4800 + m/10

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
