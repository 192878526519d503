package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/akgrant43/storagemgr/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	fmt.Printf("storagemgr %s, commit %s, built at %s\n", version, commit, date)

	ctx, cancel := context.WithCancel(context.Background())
	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, os.Interrupt)
	go func() {
		<-signalChannel
		fmt.Println("\nCtrl+C received. Shutting down...")
		cancel()
	}()

	root := cli.NewRootCommand(ctx)
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
