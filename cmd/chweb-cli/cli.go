package main

import (
	"context"
	"log"
	"os"
	"os/signal"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	rootCommand := newRootCommand(newQueryCommand(), newPingCommand())

	if err := rootCommand.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
