package main

import (
	"invoicer/internal/cli"
	"invoicer/internal/config"
)

func main() {
	config.LoadDotEnv()
	cli.Execute()
}
