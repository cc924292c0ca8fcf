package main

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/adminkit/internal/ui"
)

// helpStyle colors the parts of cobra's help text matched by re. group is
// the submatch to color; the others are kept as they are.
type helpStyle struct {
	re     *regexp.Regexp
	group  int
	render func(string) string
}

var helpStyles = []helpStyle{
	// Group headers such as "Entries:" or "Flags:".
	{regexp.MustCompile(`(?m)^([A-Z][^\n]*:)[ \t]*$`), 1, ui.RenderAccent},
	// Command names in the command listing.
	{regexp.MustCompile(`(?m)^(  )([a-z][\w-]*)(  )`), 2, ui.RenderCommand},
	// Flag value types, e.g. "--api string".
	{regexp.MustCompile(`(--?[\w-]+ )(string|int|duration|stringArray|stringSlice)\b`), 2, ui.RenderMuted},
	// Quoted defaults only, so [flags] and [id...] stay plain.
	{regexp.MustCompile(`(\(default "[^"]*"\))`), 1, ui.RenderMuted},
}

// colorizedHelpFunc renders cobra's usage and colors it when stdout
// supports it.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if !ui.ShouldUseColor() {
			_ = cmd.Usage()
			return
		}
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		_ = cmd.Usage()
		cmd.SetOut(out)
		fmt.Fprint(out, colorizeHelpOutput(buf.String()))
	}
}

func colorizeHelpOutput(s string) string {
	for _, st := range helpStyles {
		s = st.re.ReplaceAllStringFunc(s, func(match string) string {
			parts := st.re.FindStringSubmatch(match)
			var b bytes.Buffer
			for i := 1; i < len(parts); i++ {
				if i == st.group {
					b.WriteString(st.render(parts[i]))
				} else {
					b.WriteString(parts[i])
				}
			}
			return b.String()
		})
	}
	return s
}
