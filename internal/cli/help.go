// internal/cli/help.go
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/law-makers/offers/internal/ui"
)

// styler wraps text in ANSI styles, or returns it unchanged when color is off.
type styler struct{ color bool }

func newStyler(color bool) styler { return styler{color: color} }

func (s styler) paint(style, text string) string {
	if !s.color || text == "" {
		return text
	}
	return style + text + ui.ColorReset
}

func (s styler) heading(text string) string { return s.paint(ui.ColorBold+ui.ColorWhite, text) }

// writeHelp renders the colorized help page for cmd.
func writeHelp(w io.Writer, cmd *cobra.Command, st styler) {
	fmt.Fprintf(w, "\n%s\n", st.paint(ui.ColorBold+ui.ColorCyan, strings.ToUpper(cmd.Name())))
	if cmd.Short != "" {
		fmt.Fprintln(w, cmd.Short)
	}
	if cmd.Long != "" && cmd.Long != cmd.Short {
		fmt.Fprintf(w, "\n%s\n", wrapText(cmd.Long, 80))
	}

	writeUsageLines(w, cmd, st)

	if cmd.HasExample() {
		fmt.Fprintf(w, "\n%s\n", st.heading("Examples"))
		lastWasCommand := false
		for _, line := range strings.Split(cmd.Example, "\n") {
			line = strings.TrimSpace(line)
			switch {
			case line == "":
			case strings.HasPrefix(line, "#"):
				if lastWasCommand {
					fmt.Fprintln(w)
				}
				fmt.Fprintf(w, "  %s\n", st.paint(ui.ColorDim, line))
				lastWasCommand = false
			default:
				fmt.Fprintf(w, "  %s\n", st.paint(ui.ColorGreen, "$ "+line))
				lastWasCommand = true
			}
		}
	}

	writeCommands(w, cmd, st)

	if cmd.HasAvailableLocalFlags() {
		fmt.Fprintf(w, "\n%s\n", st.heading("Flags"))
		writeFlags(w, cmd.LocalFlags().FlagUsages(), st)
	}
	if cmd.HasAvailableInheritedFlags() {
		fmt.Fprintf(w, "\n%s\n", st.heading("Global Flags"))
		writeFlags(w, cmd.InheritedFlags().FlagUsages(), st)
	}

	if cmd.HasAvailableSubCommands() {
		hint := fmt.Sprintf("%s %s %s",
			st.paint(ui.ColorCyan, cmd.CommandPath()),
			st.paint(ui.ColorYellow, "<command>"),
			st.paint(ui.ColorGreen, "--help"))
		fmt.Fprintf(w, "\nUse \"%s\" for more information about a command.\n", hint)
	}
	fmt.Fprintln(w)
}

// writeUsage is the short form printed after a usage error.
func writeUsage(w io.Writer, cmd *cobra.Command, st styler) {
	writeUsageLines(w, cmd, st)
	writeCommands(w, cmd, st)
	if cmd.HasAvailableLocalFlags() {
		fmt.Fprintf(w, "\n%s\n", st.heading("Flags"))
		writeFlags(w, cmd.LocalFlags().FlagUsages(), st)
	}
	fmt.Fprintf(w, "\nUse \"%s %s\" for more information.\n",
		st.paint(ui.ColorCyan, cmd.CommandPath()), st.paint(ui.ColorGreen, "--help"))
}

func writeUsageLines(w io.Writer, cmd *cobra.Command, st styler) {
	fmt.Fprintf(w, "\n%s\n", st.heading("Usage"))
	if cmd.Runnable() {
		fmt.Fprintf(w, "  %s\n", st.paint(ui.ColorCyan, cmd.UseLine()))
	}
	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(w, "  %s %s %s\n",
			st.paint(ui.ColorCyan, cmd.CommandPath()),
			st.paint(ui.ColorYellow, "<command>"),
			st.paint(ui.ColorDim, "[flags]"))
	}
}

func writeCommands(w io.Writer, cmd *cobra.Command, st styler) {
	if !cmd.HasAvailableSubCommands() {
		return
	}
	var cmds []*cobra.Command
	width := 0
	for _, c := range cmd.Commands() {
		if !c.IsAvailableCommand() || c.Name() == "help" {
			continue
		}
		cmds = append(cmds, c)
		width = max(width, len(c.Name()))
	}

	fmt.Fprintf(w, "\n%s\n", st.heading("Commands"))
	for _, c := range cmds {
		name := fmt.Sprintf("%-*s", width+2, c.Name())
		fmt.Fprintf(w, "  %s%s\n", st.paint(ui.ColorCyan, name), st.paint(ui.ColorDim, c.Short))
	}
}

// writeFlags re-aligns pflag's usage block and colors flag names.
func writeFlags(w io.Writer, usages string, st styler) {
	lines := strings.Split(usages, "\n")

	width := 28
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		if strings.HasPrefix(trimmed, "-") {
			flag, _, _ := strings.Cut(trimmed, "  ")
			width = max(width, len(strings.TrimSpace(flag)))
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "-") {
			// continuation of the previous description
			fmt.Fprintf(w, "%s%s\n", strings.Repeat(" ", width+4), st.paint(ui.ColorDim, trimmed))
			continue
		}
		flag, desc, ok := strings.Cut(trimmed, "  ")
		if !ok {
			fmt.Fprintf(w, "  %s\n", st.paint(ui.ColorGreen, trimmed))
			continue
		}
		flag = strings.TrimSpace(flag)
		pad := strings.Repeat(" ", width-len(flag)+2)
		fmt.Fprintf(w, "  %s%s%s\n", st.paint(ui.ColorGreen, flag), pad, st.paint(ui.ColorDim, strings.TrimSpace(desc)))
	}
}

// wrapText wraps text at width, keeping paragraphs and list items intact.
func wrapText(text string, width int) string {
	var paragraphs []string
	for _, para := range strings.Split(text, "\n\n") {
		var out []string
		for _, line := range strings.Split(para, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "•") || strings.HasPrefix(line, "*") {
				out = append(out, line)
				continue
			}

			var cur strings.Builder
			for _, word := range strings.Fields(line) {
				switch {
				case cur.Len() == 0:
				case cur.Len()+1+len(word) <= width:
					cur.WriteByte(' ')
				default:
					out = append(out, cur.String())
					cur.Reset()
				}
				cur.WriteString(word)
			}
			if cur.Len() > 0 {
				out = append(out, cur.String())
			}
		}
		if len(out) > 0 {
			paragraphs = append(paragraphs, strings.Join(out, "\n"))
		}
	}
	return strings.Join(paragraphs, "\n\n")
}
