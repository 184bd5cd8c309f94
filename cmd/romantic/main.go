package main

import "github.com/nossahistoria/romantic/cmd/romantic/cmd"

func main() {
	cmd.Execute()
}
