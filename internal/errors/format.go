package errors

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
)

var (
	colorEnabled = true

	styleError  = text.Colors{text.FgRed, text.Bold}
	styleCode   = text.Colors{text.FgWhite, text.Bold}
	styleCause  = text.Colors{text.FgYellow}
	styleHint   = text.Colors{text.FgCyan}
	styleFaint  = text.Colors{text.FgHiBlack}
	styleLink   = text.Colors{text.FgBlue}
	styleMarker = text.Colors{text.FgRed}
)

// DisableColors turns off ANSI styling in Format and Fprint.
func DisableColors() { colorEnabled = false }

// EnableColors turns ANSI styling back on.
func EnableColors() { colorEnabled = true }

func paint(c text.Colors, s string) string {
	if !colorEnabled {
		return s
	}
	return c.Sprint(s)
}

// Format returns the error laid out for terminal display.
func (e *Error) Format() string {
	var b strings.Builder

	b.WriteString("\n")
	if e.Code != "" {
		b.WriteString(paint(styleError, "ERROR "))
		b.WriteString(paint(styleCode, e.Code+": "))
	} else {
		b.WriteString(paint(styleError, "ERROR: "))
	}
	b.WriteString(e.Message)
	b.WriteString("\n\n")

	if e.Location != nil {
		b.WriteString("  ")
		b.WriteString(paint(styleHint, e.Location.String()))
		b.WriteString("\n\n")
		e.writeContext(&b)
	}

	if e.Detail != "" {
		for _, line := range wrapText(e.Detail, 70) {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if e.Wrapped != nil {
		b.WriteString("  ")
		b.WriteString(paint(styleCause, "Cause: "))
		b.WriteString(e.Wrapped.Error())
		b.WriteString("\n\n")
	}

	if e.Suggestion != "" {
		b.WriteString("  ")
		b.WriteString(paint(styleHint, "Hint: "))
		b.WriteString(e.Suggestion)
		b.WriteString("\n\n")
	}

	if e.DocURL != "" {
		b.WriteString("  ")
		b.WriteString(paint(styleFaint, "Learn more: "))
		b.WriteString(paint(styleLink, e.DocURL))
		b.WriteString("\n")
	}

	return b.String()
}

func (e *Error) writeContext(b *strings.Builder) {
	if len(e.Context) == 0 {
		return
	}
	startLine := e.Location.Line - 2
	if startLine < 1 {
		startLine = 1
	}
	for i, line := range e.Context {
		lineNum := startLine + i
		if lineNum == e.Location.Line {
			b.WriteString("  ")
			b.WriteString(paint(styleMarker, "→ "))
		} else {
			b.WriteString("    ")
		}
		fmt.Fprintf(b, "%4d", lineNum)
		b.WriteString(paint(styleFaint, " │ "))
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

// FormatCompact returns a compact single-line error format.
func (e *Error) FormatCompact() string {
	var b strings.Builder
	if e.Location != nil {
		b.WriteString(e.Location.String())
		b.WriteString(": ")
	}
	b.WriteString(e.Error())
	return b.String()
}

type jsonError struct {
	Code       string    `json:"code,omitempty"`
	Category   Category  `json:"category"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	Location   *Location `json:"location,omitempty"`
	Suggestion string    `json:"suggestion,omitempty"`
	Cause      string    `json:"cause,omitempty"`
	DocURL     string    `json:"docUrl,omitempty"`
}

// FormatJSON returns the error as a JSON object.
func (e *Error) FormatJSON() string {
	out := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Location:   e.Location,
		Suggestion: e.Suggestion,
		DocURL:     e.DocURL,
	}
	if e.Wrapped != nil {
		out.Cause = e.Wrapped.Error()
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Error())
	}
	return string(data)
}

// wrapText splits text into lines no wider than width, breaking on spaces.
func wrapText(s string, width int) []string {
	if s == "" {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(text.WrapSoft(strings.Join(strings.Fields(s), " "), width), "\n") {
		if line = strings.TrimRight(line, " "); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Fprint writes err to w, using Format for *Error values in the chain.
func Fprint(w io.Writer, err error) {
	var ve *Error
	if As(err, &ve) {
		fmt.Fprint(w, ve.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", paint(styleError, "ERROR:"), err.Error())
}

// FprintCompact writes err to w on a single line, using FormatCompact for
// *Error values in the chain.
func FprintCompact(w io.Writer, err error) {
	var ve *Error
	if As(err, &ve) {
		fmt.Fprintln(w, ve.FormatCompact())
		return
	}
	fmt.Fprintln(w, err.Error())
}
