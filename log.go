package quizimages

import "log"

var verboseMode bool

// SetVerbose toggles per-candidate and per-query logging
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// Verbose reports whether verbose logging is on
func Verbose() bool {
	return verboseMode
}

// VerboseLog logs only when verbose mode is enabled
func VerboseLog(format string, v ...any) {
	if verboseMode {
		log.Printf(format, v...)
	}
}
