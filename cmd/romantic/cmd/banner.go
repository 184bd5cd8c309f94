package cmd

import (
	"fmt"
)

const banner = `
                                    _   _
  _ __ ___  _ __ ___   __ _ _ __ | |_(_) ___
 | '__/ _ \| '_ ` + "`" + ` _ \ / _` + "`" + ` | '_ \| __| |/ __|
 | | | (_) | | | | | | (_| | | | | |_| | (__
 |_|  \___/|_| |_| |_|\__,_|_| |_|\__|_|\___|
`

func printBanner() {
	fmt.Printf("\x1b[35m%s\x1b[0m", banner)
	fmt.Printf("\x1b[31m  ♥ Version %s\x1b[0m\n\n", Version)
}
