package cmd

import (
	"fmt"
)

const banner = `
  _____          _                 _
 |  __ \        | |               | |
 | |__) |___  __| |_ __   ___  ___| |_
 |  _  // _ \/ _` + "`" + ` | '_ \ / _ \/ __| __|
 | | \ \  __/ (_| | |_) | (_) \__ \ |_
 |_|  \_\___|\__,_| .__/ \___/|___/\__|
                  | |
                  |_|
`

func printBanner() {
	fmt.Printf("\x1b[31m%s\x1b[0m", banner)
	fmt.Printf("\x1b[32m  Xiaohongshu Publisher - Version %s\x1b[0m\n\n", Version)
}
