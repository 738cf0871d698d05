// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"time"

	"github.com/hdbwire/hdbwire/internal/protocol/julian"
)

// julianHdb is the Julian Day Number of 0001-01-01 minus one; HANA's
// DAYDATE counts days from that epoch.
const julianHdb = 1721423

// null sentinels for the four temporal wire types (spec 4.7).
const (
	longdateNull   int64 = 3155380704000000001
	seconddateNull int64 = 315538070401
	daydateNull    int32 = 3652062
	secondtimeNull int32 = 86401
)

var zeroTime = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)

func timeToDaydate(t time.Time) int64 {
	return int64(julian.TimeToDay(t.UTC()) - julianHdb)
}

func daydateToTime(daydate int64) time.Time {
	return julian.DayToTime(int(daydate) + julianHdb)
}

func timeToSecondtime(t time.Time) int32 {
	t = t.UTC()
	return int32((t.Hour()*60+t.Minute())*60+t.Second()) + 1
}

func secondtimeToTime(secondtime int32) time.Time {
	return zeroTime.Add(time.Duration(int64(secondtime-1)) * time.Second)
}

func timeToSeconddate(t time.Time) int64 {
	t = t.UTC()
	return (((int64(timeToDaydate(t))-1)*24+int64(t.Hour()))*60+int64(t.Minute()))*60 + int64(t.Second()) + 1
}

func seconddateToTime(seconddate int64) time.Time {
	const dayFactor = 24 * 60 * 60
	seconddate--
	d := (seconddate % dayFactor) * int64(time.Second)
	t := daydateToTime(seconddate/dayFactor + 1)
	return t.Add(time.Duration(d))
}

// timeToLongdate encodes t at longdate's 100ns (HANA's 7-digit sub-second)
// resolution.
func timeToLongdate(t time.Time) int64 {
	t = t.UTC()
	secs := ((int64(timeToDaydate(t))-1)*24+int64(t.Hour()))*60+int64(t.Minute())
	secs = secs*60 + int64(t.Second())
	return secs*10000000 + int64(t.Nanosecond()/100) + 1
}

func longdateToTime(longdate int64) time.Time {
	const dayFactor = 10000000 * 24 * 60 * 60
	longdate--
	d := (longdate % dayFactor) * 100
	t := daydateToTime(longdate/dayFactor + 1)
	return t.Add(time.Duration(d))
}
