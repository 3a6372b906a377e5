package enums

import "fmt"

// ContactStatus tracks a support message through triage.
type ContactStatus string

const (
	ContactStatusOpen     ContactStatus = "open"
	ContactStatusResolved ContactStatus = "resolved"
)

var validContactStatuses = []ContactStatus{
	ContactStatusOpen,
	ContactStatusResolved,
}

// String implements fmt.Stringer.
func (c ContactStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ContactStatus.
func (c ContactStatus) IsValid() bool {
	for _, candidate := range validContactStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseContactStatus converts raw input into a ContactStatus.
func ParseContactStatus(value string) (ContactStatus, error) {
	for _, candidate := range validContactStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid contact status %q", value)
}
