package main

import "labkb/internal/cli"

func main() {
	cli.Execute()
}
