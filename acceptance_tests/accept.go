package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"golang.org/x/crypto/ssh/terminal"

	proc "github.com/rgdonohue/ghost-forest-watcher/processor"
)

var runs_list string = "http://%s/runs"
var run_doc string = "http://%s/runs/%s"
var progress_url string = "http://%s/progress"
var passed string = "Passed"
var failed string = "Failed"

func Reachable(url string) bool {
	resp, err := http.Get(url)
	if err != nil {
		log.Fatal(err)
	}
	if resp.StatusCode != 200 {
		return false
	}

	return true
}

func RunsList(host string) ([]string, bool) {
	resp, err := http.Get(fmt.Sprintf(runs_list, host))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false
	}

	var runs []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &runs); err != nil {
		fmt.Println(string(body))
		return nil, false
	}

	ids := make([]string, len(runs))
	for i, run := range runs {
		ids[i] = run.ID
	}
	return ids, true
}

func RunDocs(host string, ids []string, concLevel int) (bool, time.Duration) {
	out := true
	start := time.Now()

	conc := proc.NewConcLimiter(concLevel)
	results := make(chan bool)
	defer close(results)
	go func() {
		for res := range results {
			if res == false {
				out = false
			}
		}
	}()

	for _, id := range ids {
		conc.Increase()
		go func(id string) {
			results <- QueryRunDoc(host, id)
			conc.Decrease()
		}(id)
	}
	conc.Wait()
	time.Sleep(100 * time.Millisecond)

	return out, time.Since(start)
}

func QueryRunDoc(host, id string) bool {
	resp, err := http.Get(fmt.Sprintf(run_doc, host, id))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false
	}

	var summary proc.RunSummary
	if err := json.Unmarshal(body, &summary); err != nil {
		fmt.Println(string(body))
		return false
	}
	if summary.RunID != id {
		return false
	}

	return true
}

func inRed(str string) string {
	return fmt.Sprintf("\x1b[31;1m%s\x1b[0m", str)
}

func inGreen(str string) string {
	return fmt.Sprintf("\x1b[32;1m%s\x1b[0m", str)
}

func main() {
	host := flag.String("h", "localhost:8080", "Runs API host name or address")
	suite := flag.String("s", "runs", "Test suite [runs, progress]")
	conc := flag.Int("n", 6, "Concurrency level for acceptance tests")
	flag.Parse()

	var t time.Duration

	if terminal.IsTerminal(int(os.Stdout.Fd())) {
		passed = inGreen(passed)
		failed = inRed(failed)
	}

	switch *suite {
	case "runs":
		fmt.Printf("Testing runs listing: ")
		ids, ok := RunsList(*host)
		if !ok {
			fmt.Println(failed)
			os.Exit(1)
		}
		fmt.Println(passed)

		fmt.Printf("Testing %d run documents: ", len(ids))
		if ok, t = RunDocs(*host, ids, *conc); !ok {
			fmt.Println(failed)
			os.Exit(1)
		}
		fmt.Println(passed, t)
	case "progress":
		fmt.Printf("Testing progress endpoint: ")
		if !Reachable(fmt.Sprintf(progress_url, *host)) {
			fmt.Println(failed)
			os.Exit(1)
		}
		fmt.Println(passed)
	}
}
