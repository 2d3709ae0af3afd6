package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	ColorPrimary = lipgloss.Color("#7C3AED")
	ColorError   = lipgloss.Color("#EF4444")
	ColorSuccess = lipgloss.Color("#22C55E")
	ColorMuted   = lipgloss.Color("#6B7280")

	BrandStyle   = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorError)
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	MutedStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
)

var useJSON bool

func SetJSONOutput(enabled bool) {
	useJSON = enabled
}

// PrintResult renders a value either as indented JSON or via the supplied
// human formatter.
func PrintResult(v any, human func()) {
	if useJSON {
		out, _ := json.MarshalIndent(v, "", "  ")
		fmt.Println(string(out))
		return
	}
	human()
}

func PrintError(err error) {
	if useJSON {
		out, _ := json.Marshal(map[string]string{"error": err.Error()})
		fmt.Fprintln(os.Stderr, string(out))
		return
	}
	fmt.Fprintln(os.Stderr, ErrorStyle.Render("error: ")+err.Error())
}

func statusBadge(ok bool) string {
	if ok {
		return SuccessStyle.Render("ok")
	}
	return ErrorStyle.Render("fail")
}
