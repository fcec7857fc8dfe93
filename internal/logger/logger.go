package logger

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

// Init initializes the default logger on stderr
func Init(verbose, noColor bool) {
	InitWriter(os.Stderr, verbose, noColor)
}

// InitWriter initializes the default logger on w
func InitWriter(w io.Writer, verbose, noColor bool) {
	log.SetDefault(log.NewWithOptions(w,
		log.Options{
			ReportCaller:    verbose,
			ReportTimestamp: verbose,
			TimeFormat:      time.RFC3339,
			Prefix:          "TCTASKS",
		}))

	log.SetLevel(log.InfoLevel)
	if verbose {
		log.SetLevel(log.DebugLevel)
	}

	log.SetColorProfile(termenv.ANSI256)
	if noColor {
		log.SetColorProfile(termenv.Ascii)
	}
}
