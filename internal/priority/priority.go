// Package priority defines the three-level priority enum shared by the
// scheduler, the task controller/signal, and the yield continuation.
package priority

import "fmt"

// Priority is one of UserBlocking, UserVisible or Background, ordered by
// rank rather than by raw integer comparison so call sites stay explicit
// about intent.
type Priority int

const (
	// UserBlocking tasks run before every other priority.
	UserBlocking Priority = iota
	// UserVisible is the default priority.
	UserVisible
	// Background tasks run only when nothing else is runnable.
	Background
)

// All lists the valid priorities in dispatch-dominance order.
var All = [...]Priority{UserBlocking, UserVisible, Background}

// Default is the priority assumed when none is supplied.
const Default = UserVisible

// Valid reports whether p is one of the closed enum's members.
func (p Priority) Valid() bool {
	switch p {
	case UserBlocking, UserVisible, Background:
		return true
	default:
		return false
	}
}

// Rank returns p's dispatch-dominance rank; lower ranks run first.
func (p Priority) Rank() int {
	return int(p)
}

func (p Priority) String() string {
	switch p {
	case UserBlocking:
		return "user-blocking"
	case UserVisible:
		return "user-visible"
	case Background:
		return "background"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// Parse converts the wire/CLI spelling into a Priority.
func Parse(s string) (Priority, error) {
	switch s {
	case "user-blocking":
		return UserBlocking, nil
	case "user-visible":
		return UserVisible, nil
	case "background":
		return Background, nil
	default:
		return 0, fmt.Errorf("priority: invalid value %q", s)
	}
}
