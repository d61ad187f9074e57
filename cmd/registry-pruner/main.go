package main

import "registry-pruner/internal/cli"

func main() {
	cli.Execute()
}
