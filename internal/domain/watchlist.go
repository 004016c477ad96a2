package domain

var DefaultWatchlist = []string{"MSFT", "NVDA", "BP.L", "ULVR.L", "III.L", "INRG.L", "EMIM.L"}

// State is the persisted client state document.
type State struct {
	Watchlist []string `json:"watchlist"`
}

// Add appends sym if missing and reports whether the list changed.
func (s *State) Add(sym string) bool {
	for _, w := range s.Watchlist {
		if w == sym {
			return false
		}
	}
	s.Watchlist = append(s.Watchlist, sym)
	return true
}

// Remove drops sym and reports whether the list changed.
func (s *State) Remove(sym string) bool {
	for i, w := range s.Watchlist {
		if w == sym {
			s.Watchlist = append(s.Watchlist[:i:i], s.Watchlist[i+1:]...)
			return true
		}
	}
	return false
}

func DefaultState() State {
	return State{Watchlist: append([]string(nil), DefaultWatchlist...)}
}
