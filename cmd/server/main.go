package main

import (
	"github.com/semlattice/lattice/internal/server"
	"github.com/semlattice/lattice/internal/util"
	"github.com/semlattice/lattice/pkg/logger"
	"github.com/semlattice/lattice/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
