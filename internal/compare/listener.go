package compare

import "fmt"

// Indeterminate is the percentage reported for per-object events.
const Indeterminate = -1

// Listener receives progress events while a compare runs. It is called
// synchronously and must not call back into the compare.
type Listener interface {
	Progress(message string, percent int)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(message string, percent int)

func (f ListenerFunc) Progress(message string, percent int) {
	f(message, percent)
}

func notify(l Listener, percent int, format string, args ...any) {
	if l == nil {
		return
	}
	l.Progress(fmt.Sprintf(format, args...), percent)
}
