package logger

// Exports for white-box testing of the error formatter.
var (
	CollectErrorEntries = collectErrorEntries
	FormatErrorEntries  = formatErrorEntries
)
