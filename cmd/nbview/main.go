package main

import "github.com/dgallion1/nbview/internal/cli"

func main() {
	cli.Execute()
}
