package calendarfeed

// Style подпись и цвет статуса в календаре.
type Style struct {
	Label string
	Color string
}

var palette = map[string]Style{
	"pending":     {"Pending", "#f97316"},
	"accepted":    {"Confirmed", "#22c55e"},
	"in_progress": {"In Progress", "#3b82f6"},
	"completed":   {"Completed", "#94a3b8"},
	"cancelled":   {"Cancelled", "#ef4444"},
	"declined":    {"Declined", "#f87171"},
	"paid":        {"Paid", "#059669"},

	"open":   {"Open Job", "#a855f7"},
	"filled": {"Filled", "#6366f1"},

	"manual":       {"Blocked", "#475569"},
	"unavailable":  {"Unavailable", "#fca5a5"},
	"hold":         {"Hold", "#fbbf24"},
	"booking":      {"Booked", "#22c55e"},
	"availability": {"Available", "#14b8a6"},

	"applied":  {"Applied", "#06b6d4"},
	"selected": {"Selected", "#22c55e"},
}

// StyleFor возвращает оформление статуса. Неизвестные статусы рисуются как pending.
func StyleFor(status string) Style {
	if s, ok := palette[status]; ok {
		return s
	}
	return palette["pending"]
}
