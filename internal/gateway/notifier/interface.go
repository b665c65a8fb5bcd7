package notifier

// TextNotifier defines a minimal text notification interface.
// Components depend on it instead of a concrete implementation, and a Nop
// value keeps call sites free of nil checks when notifications are disabled.
type TextNotifier interface {
	SendText(text string) error
}

type Nop struct{}

func (Nop) SendText(string) error { return nil }
