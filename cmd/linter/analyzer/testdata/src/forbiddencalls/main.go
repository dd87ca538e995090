package forbiddencalls

import (
	"log"
	"os"
)

// main in a non-main package gets no exemption.
func main() {
	log.Fatal("not a program entry point") // want "log.Fatal is forbidden outside main function"
	os.Exit(0)                             // want "os.Exit is forbidden outside main function"
}
