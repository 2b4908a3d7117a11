package main

import "github.com/mpapenbr/splash-track/cmd"

func main() {
	cmd.Execute()
}
