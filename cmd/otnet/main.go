package main

import "github.com/OpenTraceLab/netcore/cmd/otnet/cmd"

func main() {
	cmd.Execute()
}
