package cliutil

import (
	"fmt"

	"github.com/labstack/gommon/color"

	"github.com/ng-cloudflare/plexrequest/pkg/build"
)

// PrintHero prints the startup banner for a locally running server.
func PrintHero(addr string, mode string) {
	fmt.Printf(`
%s plexrequest %s
🌍 %s
🏷  mode: %s
🚀 Ready!
`,
		color.Red("▶", color.B),
		build.Version,
		color.Green(addr),
		mode)
}
