package main

import "github.com/skyline-labs/bridgecore/cmd"

func main() {
	cmd.Execute()
}
