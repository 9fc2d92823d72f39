package main

import "formflow/internal/cli"

func main() {
	cli.Execute()
}
