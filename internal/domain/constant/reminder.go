package constant

// ReminderType identifies the window a reminder was sent for.
type ReminderType string

const (
	ReminderSevenDay ReminderType = "7_day"
	ReminderThreeDay ReminderType = "3_day"
	ReminderOneDay   ReminderType = "1_day"
	ReminderSameDay  ReminderType = "same_day"
	// ReminderOverdue is only used for classification; nothing is sent for it yet.
	ReminderOverdue ReminderType = "overdue"
)

func (t ReminderType) String() string {
	return string(t)
}

// Valid reports whether t is one of the known reminder types.
func (t ReminderType) Valid() bool {
	switch t {
	case ReminderSevenDay, ReminderThreeDay, ReminderOneDay, ReminderSameDay, ReminderOverdue:
		return true
	}
	return false
}

// DeliveryStatus is the recorded outcome of one notification attempt.
type DeliveryStatus string

const (
	StatusSent    DeliveryStatus = "sent"
	StatusFailed  DeliveryStatus = "failed"
	StatusBounced DeliveryStatus = "bounced"
)

func (s DeliveryStatus) String() string {
	return string(s)
}

// Valid reports whether s is one of the known delivery outcomes.
func (s DeliveryStatus) Valid() bool {
	switch s {
	case StatusSent, StatusFailed, StatusBounced:
		return true
	}
	return false
}
