// Command linter runs the forbiddencalls analyzer.
//
//	go run ./cmd/linter ./...
package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/MikhailRaia/menu-scraper/cmd/linter/analyzer"
)

func main() {
	singlechecker.Main(analyzer.Analyzer)
}
