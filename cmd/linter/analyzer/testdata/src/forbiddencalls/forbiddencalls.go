package forbiddencalls

import (
	"log"
	"os"

	zlog "github.com/rs/zerolog/log"
)

func SaveItems() {
	panic("storage is not ready") // want "panic is forbidden"
}

func LoadConfig() {
	log.Fatal("config file is missing") // want "log.Fatal is forbidden outside main function"
}

func Shutdown() {
	os.Exit(1) // want "os.Exit is forbidden outside main function"
}

func OpenStore() {
	log.Fatalf("open %s", "menu.jsonl")               // want "log.Fatalf is forbidden outside main function"
	zlog.Fatal().Msg("failed to connect to database") // want "zerolog log.Fatal is forbidden outside main function"
	zlog.Panic().Msg("restaurants table is missing")  // want "zerolog log.Panic is forbidden outside main function"
	zlog.Error().Msg("allowed: logging does not exit")
}

func ShadowedPanic() {
	panic := func(string) {}
	panic("not the builtin")
}
