package engine

// Strategy is the unit of trading logic the runner drives. OnBar is the
// only required hook: it is called once per bar with a fresh Context and
// must return before the bar completes — there is no cross-bar suspension.
// Strategies interact with the engine exclusively through the Context.
type Strategy interface {
	Name() string
	OnBar(ctx *Context) error
}

// Starter is implemented by strategies that want a hook before the first
// bar. The store it receives is the same per-run store every Context
// exposes.
type Starter interface {
	OnStart(store *Store) error
}

// TradeListener is implemented by strategies that want to observe every
// execution — fills and rejections both, so rejected intents are never
// silently lost.
type TradeListener interface {
	OnTrade(ex Execution)
}

// Stopper is implemented by strategies that want a hook after the last
// bar.
type Stopper interface {
	OnStop(store *Store) error
}
