package color

import (
	"os"

	"github.com/muesli/termenv"
)

// ANSI palette indices.
const (
	Red   = "1"
	Green = "2"
	Cyan  = "6"
	Gray  = "8"
)

var profile = termenv.ANSI256

func init() {
	if os.Getenv("NO_COLOR") != "" || !isTerminal() {
		profile = termenv.Ascii
	}
}

func isTerminal() bool {
	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}

func EnableColor(enable bool) {
	if enable {
		profile = termenv.ANSI256
		return
	}
	profile = termenv.Ascii
}

func IsColorEnabled() bool {
	return profile != termenv.Ascii
}

func Colorize(color, text string) string {
	return profile.String(text).Foreground(profile.Color(color)).String()
}

func Bold(text string) string {
	return profile.String(text).Bold().String()
}

func RedText(text string) string {
	return Colorize(Red, text)
}

func GreenText(text string) string {
	return Colorize(Green, text)
}

func CyanText(text string) string {
	return Colorize(Cyan, text)
}

func GrayText(text string) string {
	return Colorize(Gray, text)
}

// Status renders a pass/fail marker.
func Status(ok bool) string {
	if ok {
		return Bold(GreenText("PASS"))
	}
	return Bold(RedText("FAIL"))
}

// Skipped renders the marker of a stage that did not run.
func Skipped() string {
	return GrayText("SKIP")
}

func Path(p string) string {
	return CyanText(p)
}

func Success(message string) string {
	if !IsColorEnabled() {
		return message
	}
	return GreenText("Success: ") + message
}
