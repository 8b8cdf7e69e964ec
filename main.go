package main

import (
	"os"

	"ue4ss-installer/cmd"
	"ue4ss-installer/logger"

	_ "go.uber.org/automaxprocs/maxprocs"
)

func main() {
	err := cmd.Execute()
	logger.Sync() // Ensure logs are flushed on exit
	if err != nil {
		os.Exit(1)
	}
}
