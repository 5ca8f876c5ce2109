package interrupt

// Source identifies which external cause owns the active interruption.
// At most one source is active at a time; it determines the timeout length
// and which recovery signal is honored.
type Source int

const (
	// SourceNone indicates no interruption is active.
	SourceNone Source = iota
	// SourcePhoneCall indicates an incoming/active phone call owns the interruption.
	SourcePhoneCall
	// SourceNetwork indicates connectivity loss owns the interruption.
	SourceNetwork
)

// String returns the string representation of the source.
func (s Source) String() string {
	switch s {
	case SourceNone:
		return "none"
	case SourcePhoneCall:
		return "phone_call"
	case SourceNetwork:
		return "network"
	default:
		return "unknown"
	}
}
