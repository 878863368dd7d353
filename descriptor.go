package qsub

// ErrorQueueSuffix is appended to a queue name to derive its error queue.
const ErrorQueueSuffix = "-error"

// QueueDescriptor is the immutable identity of a logical queue: a primary
// name and the derived error queue name. Descriptors are created once at
// configuration time and compared by name.
type QueueDescriptor struct {
	name string
}

// NewDescriptor creates a descriptor for the named queue.
func NewDescriptor(name string) QueueDescriptor {
	return QueueDescriptor{name: name}
}

// Name returns the primary queue name.
func (d QueueDescriptor) Name() string {
	return d.name
}

// ErrorName returns the derived error queue name.
func (d QueueDescriptor) ErrorName() string {
	return d.name + ErrorQueueSuffix
}

func (d QueueDescriptor) String() string {
	return d.name
}
