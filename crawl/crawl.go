package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"log"
	"os"

	coll "github.com/rgdonohue/ghost-forest-watcher/crawl/collector"
)

func ensure(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	conc := flag.Int("conc", 4, "concurrent record readers")
	pattern := flag.String("pattern", "", "record filter expression, e.g. 'area_km2 > 1'")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("Please provide a path to an output directory or '-' for reading from stdin")
	}

	path := flag.Arg(0)

	if path == "-" {
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Scan()
		path = scanner.Text()
	}

	records, err := coll.CollectTileRecords(path, *conc)
	ensure(err)

	records, err = coll.FilterTileRecords(records, *pattern)
	ensure(err)

	summary := coll.RebuildRunSummary(records, path)

	out, err := json.Marshal(summary)
	ensure(err)

	_, err = os.Stdout.Write(out)
	ensure(err)
}
