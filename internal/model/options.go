package model

// Options configures the behaviour of the Builder. Options are constructed by
// the public adapter in pkg/model and passed into New.
type Options struct {
	Labeler   func(string) string
	Sanitizer func(string) string
	// NodePrefix is prepended to the display name to form the node name.
	NodePrefix string
}

// DefaultNodePrefix matches the category the editor groups remote nodes under.
const DefaultNodePrefix = "Replicate"

func defaultOptions() Options {
	return Options{
		Labeler:    DefaultLabeler,
		Sanitizer:  SanitizeDescription,
		NodePrefix: DefaultNodePrefix,
	}
}
