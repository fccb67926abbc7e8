package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/bcview/bcview/internal/app"
	"github.com/bcview/bcview/internal/baichuan"
	"github.com/bcview/bcview/internal/streams"
	"github.com/rs/zerolog/log"
)

func main() {
	app.Init() // init config and logs

	baichuan.Init() // add support for the baichuan scheme
	streams.Init()  // load streams list and start preloads

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	log.Info().Msgf("exit with signal: %s", <-sig)
}
