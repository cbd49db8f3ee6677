package main

import "github.com/fakeyudi/codepulse/cmd"

func main() {
	cmd.Execute()
}
