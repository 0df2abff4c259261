package main

// Exit codes.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (invalid file, missing credentials)
	ExitDataError   = 3 // Storage could not be opened
	ExitAPIError    = 4 // External API unavailable (Slack auth, search)
)
