package main

import (
	"context"
	"log"
	"os"

	"github.com/terraincognita07/prostranstvo/internal/cli"
)

var version = "dev"

func main() {
	root := cli.NewRootCommand(version, serve)
	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Printf("prostranstvo: %v", err)
		os.Exit(1)
	}
}
