package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	uhppoted "github.com/uhppoted/uhppoted-lib/command"

	"github.com/uhppoted/uhppoted-app-sheets-sync/commands"
)

var cli = []uhppoted.Command{
	&commands.SyncCmd,
	&commands.GetCmd,
	&commands.VersionCmd,
}

var options = commands.Options{
	Debug: false,
}

var help = uhppoted.NewHelp("uhppoted-app-sheets-sync", cli, nil)

func main() {
	flag.BoolVar(&options.Debug, "debug", options.Debug, "Enable debugging information")
	flag.Parse()

	log.SetOutput(os.Stdout)

	ctx := context.Background()

	// ... no command defaults to 'sync' of the configured tabs
	var cmd uhppoted.Command = &commands.SyncCmd

	if flag.NArg() > 0 {
		c, err := uhppoted.Parse(cli, nil, help)
		if err != nil {
			fmt.Printf("\nError parsing command line: %v\n\n", err)
			os.Exit(1)
		}

		if c == nil {
			help.Execute(ctx)
			os.Exit(1)
		}

		cmd = c
	}

	if err := cmd.Execute(ctx, &options); err != nil {
		log.Fatalf("ERROR: %v", err)
	}
}
