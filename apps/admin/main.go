package main

import (
	"fmt"
	"log"
	"os"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/auth"
	"github.com/trezcool/ratiba/core/availability"
	"github.com/trezcool/ratiba/core/timetable"
	"github.com/trezcool/ratiba/services/apiclient"
	"github.com/trezcool/ratiba/services/logger"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	defer logger.Close()

	// start CLI
	client := apiclient.New(conf.API.BaseURL, conf.API.Timeout, logger)
	availSvc := availability.NewService(client)
	cli := commandLine{
		authSvc:  auth.NewService(client),
		ttSvc:    timetable.NewService(client, availSvc),
		availSvc: availSvc,
		out:      os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %s", core.UserMessage(err)), err)
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		logger.Close()
		os.Exit(1)
	}
}
