package generic

import "strconv"

// Short month names as rendered by the fr-FR locale.
var frenchMonths = [...]string{
	"janv.", "févr.", "mars", "avr.", "mai", "juin",
	"juil.", "août", "sept.", "oct.", "nov.", "déc.",
}

// FormatDate renders d as "2 juin".
func FormatDate(d Date) string {
	return strconv.Itoa(d.Day()) + " " + frenchMonths[d.Month()-1]
}

// FormatRange renders "2 juin" for a single day and "2 juin - 6 juin" otherwise.
func FormatRange(start, end Date) string {
	if start.Equal(end) {
		return FormatDate(start)
	}
	return FormatDate(start) + " - " + FormatDate(end)
}
