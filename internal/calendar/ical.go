// Package calendar generates the iCalendar (RFC 5545) feed of recurring
// plant-care events.
//
// Each plant contributes exactly two recurring VEVENTs (one watering, one
// fertilizing) carrying an RRULE with the plant's interval. The writer
// produces CRLF line endings, folds lines at 75 octets, and escapes TEXT
// values, so the output is valid for any number of plants including zero.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/ThomasConrad/PlantTracker/internal/model"
)

const (
	prodID   = "-//PlantTracker//Plant Care Schedule//EN"
	calName  = "Plant Care Schedule"
	calDesc  = "Watering and fertilizing schedule for your plants"
	timeUTC  = "20060102T150405Z"
	foldAt   = 75
	eventLen = time.Hour
)

// Generate renders the calendar document for the given plants. now anchors
// DTSTAMP and the next-occurrence computation; pass time.Now().UTC() outside
// of tests.
func Generate(plants []model.Plant, now time.Time) string {
	var b strings.Builder

	writeLine(&b, "BEGIN:VCALENDAR")
	writeLine(&b, "VERSION:2.0")
	writeLine(&b, "PRODID:"+prodID)
	writeLine(&b, "CALSCALE:GREGORIAN")
	writeLine(&b, "METHOD:PUBLISH")
	writeLine(&b, "X-WR-CALNAME:"+escapeText(calName))
	writeLine(&b, "X-WR-CALDESC:"+escapeText(calDesc))
	writeLine(&b, "X-WR-TIMEZONE:UTC")

	for i := range plants {
		p := &plants[i]
		writeEvent(&b, p, careEvent{
			uid:      "water-" + p.ID,
			summary:  "💧 Water " + p.Name,
			action:   "Water",
			interval: p.WateringIntervalDays,
			last:     p.LastWatered,
			category: "Plant Care,Watering",
			priority: 5,
		}, now)
		writeEvent(&b, p, careEvent{
			uid:      "fertilize-" + p.ID,
			summary:  "🌱 Fertilize " + p.Name,
			action:   "Fertilize",
			interval: p.FertilizingIntervalDays,
			last:     p.LastFertilized,
			category: "Plant Care,Fertilizing",
			priority: 4,
		}, now)
	}

	writeLine(&b, "END:VCALENDAR")
	return b.String()
}

type careEvent struct {
	uid      string
	summary  string
	action   string
	interval int
	last     *time.Time
	category string
	priority int
}

func writeEvent(b *strings.Builder, p *model.Plant, ev careEvent, now time.Time) {
	start := nextOccurrence(ev.last, ev.interval, now)

	description := fmt.Sprintf("Time to %s your %s (%s).\n%s every %d days.",
		strings.ToLower(ev.action), p.Name, p.Genus, ev.action, ev.interval)

	writeLine(b, "BEGIN:VEVENT")
	writeLine(b, "UID:"+ev.uid)
	writeLine(b, "DTSTAMP:"+now.UTC().Format(timeUTC))
	writeLine(b, "DTSTART:"+start.UTC().Format(timeUTC))
	writeLine(b, "DTEND:"+start.Add(eventLen).UTC().Format(timeUTC))
	writeLine(b, fmt.Sprintf("RRULE:FREQ=DAILY;INTERVAL=%d", ev.interval))
	writeLine(b, "SUMMARY:"+escapeText(ev.summary))
	writeLine(b, "DESCRIPTION:"+escapeText(description))
	writeLine(b, "LOCATION:"+escapeText(fmt.Sprintf("Plant: %s (%s)", p.Name, p.Genus)))
	writeLine(b, "CATEGORIES:"+escapeText(ev.category))
	writeLine(b, fmt.Sprintf("PRIORITY:%d", ev.priority))
	writeLine(b, "END:VEVENT")
}

// nextOccurrence returns the first care occurrence strictly after now:
// the last care timestamp plus the interval, rolled forward until it is in
// the future. A plant with no last care timestamp is treated as cared-for
// at feed-generation time, so its first reminder lands one full interval
// out rather than immediately.
func nextOccurrence(last *time.Time, intervalDays int, now time.Time) time.Time {
	if intervalDays < 1 {
		intervalDays = 1
	}
	interval := time.Duration(intervalDays) * 24 * time.Hour

	base := now.Add(-interval)
	if last != nil {
		base = *last
	}

	next := base.Add(interval)
	for !next.After(now) {
		next = next.Add(interval)
	}
	return next
}

// escapeText escapes a value of type TEXT per RFC 5545 §3.3.11: backslash,
// semicolon, comma, and newline.
func escapeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case ';':
			b.WriteString(`\;`)
		case ',':
			b.WriteString(`\,`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			// bare CR never appears in our inputs; drop it
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// writeLine emits a content line with CRLF termination, folding at 75
// octets. Folds happen on rune boundaries so multi-byte characters (emoji
// in plant names) are never split mid-sequence.
func writeLine(b *strings.Builder, line string) {
	budget := foldAt
	count := 0
	for _, r := range line {
		rl := len(string(r))
		if count+rl > budget {
			b.WriteString("\r\n ")
			count = 0
			budget = foldAt - 1 // continuation lines lose one octet to the leading space
		}
		b.WriteRune(r)
		count += rl
	}
	b.WriteString("\r\n")
}
