package main

import "github.com/mcoot/bullsgame/internal/cli"

func main() {
	cli.Execute()
}
