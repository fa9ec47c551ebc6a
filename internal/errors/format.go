package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	ansiReset = "\033[0m"
	ansiRed   = "\033[1;31m"
	ansiCyan  = "\033[36m"
	ansiGray  = "\033[90m"
)

type painter bool

func (p painter) paint(code, s string) string {
	if !p {
		return s
	}
	return code + s + ansiReset
}

// Format renders the error for a terminal. With color set, ANSI escapes
// highlight the code, location and hints.
func (e *NavError) Format(color bool) string {
	p := painter(color)
	var b strings.Builder

	head := "ERROR"
	if e.Code != "" {
		head += " " + e.Code
	}
	fmt.Fprintf(&b, "\n%s %s\n\n", p.paint(ansiRed, head+":"), e.Message)

	if e.Location != nil {
		fmt.Fprintf(&b, "  %s\n\n", p.paint(ansiCyan, e.Location.String()))
		if len(e.Context) > 0 {
			e.writeSource(&b, p)
		}
	}

	for _, field := range []struct{ label, text string }{
		{"", e.Detail},
		{"Cause: ", wrappedText(e.Wrapped)},
		{"Hint: ", e.Suggestion},
		{"Learn more: ", e.DocURL},
	} {
		if field.text == "" {
			continue
		}
		fmt.Fprintf(&b, "  %s%s\n", p.paint(ansiGray, field.label), field.text)
	}
	return b.String()
}

// writeSource prints the context lines with the failing line marked and a
// caret under the column.
func (e *NavError) writeSource(b *strings.Builder, p painter) {
	first := e.Location.Line - len(e.Context)/2
	if first < 1 {
		first = 1
	}
	for i, line := range e.Context {
		n := first + i
		marker := "  "
		if n == e.Location.Line {
			marker = p.paint(ansiRed, "→ ")
		}
		fmt.Fprintf(b, "  %s%4d │ %s\n", marker, n, line)
		if n == e.Location.Line && e.Location.Column > 0 {
			fmt.Fprintf(b, "         │ %s%s\n", strings.Repeat(" ", e.Location.Column-1), p.paint(ansiRed, "^"))
		}
	}
	b.WriteString("\n")
}

func wrappedText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

type jsonLocation struct {
	File   string `json:"file"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

type jsonError struct {
	Code       string        `json:"code,omitempty"`
	Category   Category      `json:"category,omitempty"`
	Message    string        `json:"message"`
	Detail     string        `json:"detail,omitempty"`
	Cause      string        `json:"cause,omitempty"`
	Location   *jsonLocation `json:"location,omitempty"`
	Suggestion string        `json:"suggestion,omitempty"`
	DocURL     string        `json:"docUrl,omitempty"`
}

// MarshalJSON encodes the error as a flat object for machine consumers.
func (e *NavError) MarshalJSON() ([]byte, error) {
	out := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Cause:      wrappedText(e.Wrapped),
		Suggestion: e.Suggestion,
		DocURL:     e.DocURL,
	}
	if e.Location != nil {
		out.Location = &jsonLocation{File: e.Location.File, Line: e.Location.Line, Column: e.Location.Column}
	}
	return json.Marshal(out)
}

// Fprint writes err to w, colored when w is a terminal.
func Fprint(w io.Writer, err error) {
	color := isTerminal(w)
	var ne *NavError
	if stderrors.As(err, &ne) {
		fmt.Fprint(w, ne.Format(color))
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", painter(color).paint(ansiRed, "ERROR:"), err.Error())
}

// FprintJSON writes err to w as a single JSON line. Errors that do not
// wrap a NavError are reported with their message only.
func FprintJSON(w io.Writer, err error) {
	var ne *NavError
	if !stderrors.As(err, &ne) {
		ne = &NavError{Message: err.Error()}
	}
	data, mErr := json.Marshal(ne)
	if mErr != nil {
		data, _ = json.Marshal(map[string]string{"message": err.Error()})
	}
	fmt.Fprintf(w, "%s\n", data)
}

func isTerminal(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
