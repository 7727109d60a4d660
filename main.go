// main is the entry point for the tenure CLI.
package main

import (
	"os"

	"github.com/huangsam/tenure/cmd"
	"github.com/huangsam/tenure/internal/contract"
	"github.com/huangsam/tenure/internal/iocache"
)

func main() {
	cmd.SetCacheManager(iocache.Manager)
	defer iocache.CloseCaching()
	defer cmd.CloseWarehouse()

	if err := cmd.Execute(); err != nil {
		contract.LogWarn("Command failed", err)
		iocache.CloseCaching()
		cmd.CloseWarehouse()
		os.Exit(1)
	}
}
