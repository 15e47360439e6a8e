package main

import (
	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{Use: "predictor"}

	root.AddCommand(serveCMD(), predictCMD(), analyzeCMD(), chatCMD(), sessionsCMD())
	_ = root.Execute()
}
