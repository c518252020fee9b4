package main

import (
	"os"

	"redis3/internal/cli"
)

func main() {
	code := cli.Execute(os.Args[1:])
	os.Exit(code)
}
