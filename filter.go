package qsub

// Filter maps an envelope to a possibly transformed envelope, or drops it.
// Return ok=false to drop: the message is neither processed nor deleted and
// becomes visible again after the service's visibility timeout.
//
// Filters must be deterministic for a given input and must not mutate shared
// engine state. A filter may carry its own closed-over state (a decryption
// key, a compiled matcher) as long as applying it is safe from concurrent
// dispatches.
type Filter func(Envelope) (Envelope, bool)

// Chain is an ordered filter list. Application is a left fold with
// short-circuit: the first filter to drop ends evaluation.
type Chain []Filter

// Apply runs the chain over env. It returns the final transformed envelope
// and true, or the zero envelope and false if any filter dropped it.
func (c Chain) Apply(env Envelope) (Envelope, bool) {
	for _, f := range c {
		next, ok := f(env)
		if !ok {
			return Envelope{}, false
		}
		env = next
	}
	return env, true
}

// MetadataFilter drops every envelope whose metadata does not carry the
// given key/value pair.
func MetadataFilter(key, value string) Filter {
	return func(env Envelope) (Envelope, bool) {
		if env.Metadata[key] != value {
			return Envelope{}, false
		}
		return env, true
	}
}

// BodyRewrite transforms the body, preserving the receipt handle and all
// other envelope fields.
func BodyRewrite(fn func(string) string) Filter {
	return func(env Envelope) (Envelope, bool) {
		env.Body = fn(env.Body)
		return env, true
	}
}
