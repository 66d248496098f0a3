// Package banner renders the CLI start banner.
package banner

import (
	"fmt"
	"strings"

	"github.com/gookit/color"
)

const logo = `
  _            _            _
 | |_ _____  _| |_ ___ __ _| |_
 | __/ _ \ \/ / __/ __/ _' | __|
 | ||  __/>  <| || (_| (_| | |_
  \__\___/_/\_\\__\___\__,_|\__|
`

// Banner returns the logo followed by the version line.
func Banner(version string) string {
	var b strings.Builder
	b.WriteString(color.New(color.FgCyan, color.OpBold).Render(strings.TrimPrefix(logo, "\n")))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s %s\n\n",
		color.New(color.FgGray).Render("page text classifier"),
		color.New(color.FgGreen).Render(version)))
	return b.String()
}
