package domain

// DefaultDateFormat is used whenever no preference record is present.
// The format string is opaque to the gateway; the UI interprets it.
const DefaultDateFormat = "DD/MM/YYYY"

// Preferences holds user-specific display configuration fetched from the
// upstream settings endpoint after sign-in.
type Preferences struct {
	ID         string `json:"id"`
	Key        string `json:"key"`
	DateFormat string `json:"date_format"`
}
