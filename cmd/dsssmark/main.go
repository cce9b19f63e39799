// Package main provides the dsssmark CLI tool.
//
// Usage:
//
//	dsssmark [flags] <command> [args]
//
// Commands:
//
//	embed    - Embed a text watermark into a WAV file
//	extract  - Recover a text watermark from a WAV file
//	quality  - Sweep embedding strength and segment duration
//	prn      - Print the spreading sequence of one segment
//	config   - Write the effective configuration with "config init"
//
// Configuration:
//
//	Settings are read from the YAML file given with --config.
//	Command line flags take precedence over the file.
package main

import (
	"fmt"
	"os"

	"github.com/yyyoichi/watermark_dsss/cmd/dsssmark/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
