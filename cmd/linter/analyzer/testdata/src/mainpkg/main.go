package main

import (
	"log"
	"os"

	zlog "github.com/rs/zerolog/log"
)

func run() error {
	os.Exit(2) // want "os.Exit is forbidden outside main function"
	return nil
}

func init() {
	panic("panic forbidden even in init") // want "panic is forbidden"
	log.Fatal("forbidden in init")        // want "log.Fatal is forbidden outside main function"
}

func main() {
	if err := run(); err != nil {
		zlog.Fatal().Err(err).Msg("allowed in main")
	}
	defer func() {
		log.Fatal("allowed in a closure inside main")
	}()
	os.Exit(0)
}
