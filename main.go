package main

import "github.com/vibedl/vibedl/cmd"

func main() {
	cmd.Execute()
}
