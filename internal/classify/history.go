package classify

// Advance returns the history to supply with the next evaluation after res.
// The watchlist day count grows by one per new trading day and restarts when
// the result removes the instrument from the watchlist. Re-evaluating the same
// day does not age the entry.
func (h HistoryContext) Advance(res WatchEvaluationResult, newDay bool) HistoryContext {
	next := HistoryContext{
		PrevStatus:          res.Status,
		LastInvalidatedDate: res.LastInvalidatedDate,
		DaysInWatchlist:     h.DaysInWatchlist,
	}
	switch {
	case res.Status.IsTerminal():
		next.DaysInWatchlist = 0
	case newDay:
		next.DaysInWatchlist++
	}
	return next
}
