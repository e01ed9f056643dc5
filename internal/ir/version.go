package ir

// Version constants for the plan document and the tool.
const (
	// PlanVersion is the plan document schema version.
	PlanVersion = "1"

	// Version is the graphlint release version.
	Version = "0.1.0"
)
