package performance

import (
	"sort"

	"github.com/aristath/fintrack/internal/domain"
)

// annotateEvents attaches trade and dividend events to the timeline points
// whose date they fall on. Only events inside the closed interval
// [first point, last point] are considered. Returns the flat, date-ordered
// event list for the response body.
func annotateEvents(points []TimelinePoint, trades []domain.Trade, dividends []domain.Dividend) []Event {
	if len(points) == 0 {
		return []Event{}
	}

	first := points[0].Date
	last := points[len(points)-1].Date

	byDate := make(map[string][]Event)
	add := func(event Event) {
		if event.Date < first || event.Date > last {
			return
		}
		byDate[event.Date] = append(byDate[event.Date], event)
	}

	for _, trade := range trades {
		shares := trade.Shares
		price := trade.Price
		add(Event{
			Date:   dateKey(trade.ExecutedAt),
			Type:   EventType(trade.Side),
			Symbol: trade.Symbol,
			Shares: &shares,
			Price:  &price,
		})
	}

	for _, dividend := range dividends {
		amount := dividend.NetAmount
		add(Event{
			Date:   dateKey(dividend.ExDate),
			Type:   EventDividend,
			Symbol: dividend.Symbol,
			Amount: &amount,
		})
	}

	all := make([]Event, 0)
	for i := range points {
		if events, ok := byDate[points[i].Date]; ok {
			points[i].Events = events
			all = append(all, events...)
		}
	}

	// Events between two admissible dates have no point to attach to but are
	// still part of the rendered window.
	attached := make(map[string]bool, len(points))
	for _, point := range points {
		attached[point.Date] = true
	}
	for date, events := range byDate {
		if !attached[date] {
			all = append(all, events...)
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Date < all[j].Date
	})

	return all
}
