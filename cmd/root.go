package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vibedl/vibedl/util/anchor"
)

var (
	tui     = anchor.New(anchor.Red)
	cmdRoot = &cobra.Command{
		Use:   "vibedl",
		Short: "Resolve catalog tracks, albums and playlists into tagged local audio files",
	}
)

func Execute() {
	if err := cmdRoot.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
