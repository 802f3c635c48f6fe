package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version 当前版本号
const Version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("port64 %s (%s/%s)\n", Version, runtime.GOOS, runtime.GOARCH)
	},
}
