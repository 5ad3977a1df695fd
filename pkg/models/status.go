package models

// Status is the delivery state of an outgoing message. Transitions only
// move forward: sending -> sent -> delivered -> read.
type Status string

const (
	StatusSending   Status = "sending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
)

var statusRank = map[Status]int{
	StatusSending:   0,
	StatusSent:      1,
	StatusDelivered: 2,
	StatusRead:      3,
}

// Valid reports whether s is one of the known delivery states.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanAdvance reports whether moving from s to next is a forward transition.
// Equal states are not an advance; unknown states never advance.
func (s Status) CanAdvance(next Status) bool {
	a, ok := statusRank[s]
	if !ok {
		return false
	}
	b, ok := statusRank[next]
	if !ok {
		return false
	}
	return b > a
}
