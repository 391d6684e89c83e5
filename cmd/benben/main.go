// Package main is the benben command.
package main

import (
	"log"
	"os"

	"go.viam.com/benben/cli"
	// registers the transports.
	_ "go.viam.com/benben/transport/ble"
	_ "go.viam.com/benben/transport/fake"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
