package main

import "github.com/funvibe/logex/pkg/cli"

func main() {
	cli.Run()
}
