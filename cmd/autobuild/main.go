package main

import "github.com/andrescamacho/autobuild-go/internal/adapters/cli"

func main() {
	cli.Execute()
}
