package main

import "github.com/soundbenchlab/tracktape/cmd"

func main() {
	cmd.Execute()
}
