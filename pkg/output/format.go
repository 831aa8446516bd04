package output

import (
	"os"
	"strings"

	"github.com/arthur-debert/genlink/pkg/errors"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Format selects how a transition report is rendered.
type Format int

const (
	// FormatAuto picks terminal or text based on the output's
	// capabilities.
	FormatAuto Format = iota
	// FormatTerminal renders styled terminal output.
	FormatTerminal
	// FormatText renders plain text.
	FormatText
	// FormatXML renders the machine-readable XML report.
	FormatXML
)

func (f Format) String() string {
	switch f {
	case FormatTerminal:
		return "term"
	case FormatText:
		return "text"
	case FormatXML:
		return "xml"
	default:
		return "auto"
	}
}

// ParseFormat parses a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "auto", "":
		return FormatAuto, nil
	case "term", "terminal":
		return FormatTerminal, nil
	case "text", "plain":
		return FormatText, nil
	case "xml":
		return FormatXML, nil
	default:
		return FormatAuto, errors.Newf(errors.ErrInvalidInput, "unknown format: %s", s)
	}
}

// DetectFormat resolves FormatAuto against the actual output stream.
func DetectFormat(out *os.File) Format {
	if os.Getenv("NO_COLOR") != "" {
		return FormatText
	}
	if !isatty.IsTerminal(out.Fd()) && !isatty.IsCygwinTerminal(out.Fd()) {
		return FormatText
	}
	if termenv.ColorProfile() == termenv.Ascii {
		return FormatText
	}
	return FormatTerminal
}
