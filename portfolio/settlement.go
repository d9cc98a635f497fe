package portfolio

// SettlementConfig flags the symbols that settle same-day (T+0). Every other
// symbol defaults to T+1: lots bought on a bar cannot be sold until the next
// bar. The config is immutable for the duration of a run.
type SettlementConfig struct {
	sameDay map[string]struct{}
}

// NewSettlementConfig builds a config from the T+0 symbol set.
func NewSettlementConfig(t0 ...string) SettlementConfig {
	c := SettlementConfig{sameDay: make(map[string]struct{}, len(t0))}
	for _, sym := range t0 {
		c.sameDay[sym] = struct{}{}
	}
	return c
}

// SameDay reports whether symbol is tradable T+0.
func (c SettlementConfig) SameDay(symbol string) bool {
	_, ok := c.sameDay[symbol]
	return ok
}
