package main

import "github.com/notargets/gamr/cmd"

func main() {
	cmd.Execute()
}
