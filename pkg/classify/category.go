// Package classify maps firmware log text to error categories.
//
// Two classifiers live here: an ordered keyword table that works on whole
// lines, and a regex rule engine that works on message bodies and can be
// extended with externally loaded rule sources.
package classify

// Category is a classification label for a log line's error type.
// The base set is closed; regex rules may introduce custom labels.
type Category string

// Base categories.
const (
	SensorError        Category = "sensor_error"
	VoltageWarning     Category = "voltage_warning"
	CommunicationError Category = "communication_error"
	FirmwareIssue      Category = "firmware_issue"
	CollisionError     Category = "collision_error"
	GenericError       Category = "generic_error"
	Info               Category = "info"
)

var baseCategories = []Category{
	SensorError,
	VoltageWarning,
	CommunicationError,
	FirmwareIssue,
	CollisionError,
	GenericError,
	Info,
}

// BaseCategories returns the closed base set in canonical order.
func BaseCategories() []Category {
	out := make([]Category, len(baseCategories))
	copy(out, baseCategories)
	return out
}

// IsBase reports whether c belongs to the base set.
func (c Category) IsBase() bool {
	for _, b := range baseCategories {
		if c == b {
			return true
		}
	}
	return false
}

// IsError reports whether c denotes an error event (anything but info).
func (c Category) IsError() bool {
	return c != Info && c != ""
}

func (c Category) String() string {
	return string(c)
}
