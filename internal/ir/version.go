package ir

// Version constants for the tool and its bootstrap schema.
const (
	// SchemaVersion is the PRAGMA user_version written by the store bootstrap.
	SchemaVersion = 1

	// ToolVersion is the tabledesk release version.
	ToolVersion = "0.1.0"
)
