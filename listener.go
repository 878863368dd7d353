package qsub

// Listener observes every message the engine receives, regardless of the
// filtering or processing outcome. The internal poll trigger is never
// delivered to listeners.
//
// Notification is fire-and-forget in registration order. The engine does not
// recover listener panics: a listener performing fallible work must isolate
// its own failures so it cannot abort the dispatch that notified it.
type Listener interface {
	OnMessage(Envelope)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(Envelope)

// OnMessage calls fn(env)
func (fn ListenerFunc) OnMessage(env Envelope) {
	fn(env)
}

// broadcast notifies every listener, in registration order.
func broadcast(listeners []Listener, env Envelope) {
	for _, l := range listeners {
		l.OnMessage(env)
	}
}
