// Run summary API
//
// Stores the summary document of each processing run in Postgres and
// serves them back as JSON, with memcached in front of reads.

package main

import (
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	reuseport "github.com/kavu/go_reuseport"
	_ "github.com/lib/pq"
	"github.com/nci/gomemcache/memcache"
)

var (
	db       *sql.DB
	mc       *memcache.Client
	dbName   = flag.String("database", "gfw", "database name")
	dbUser   = flag.String("user", "api", "database user name")
	dbPool   = flag.Int("pool", 8, "database pool size")
	dbLimit  = flag.Int("limit", 64, "database concurrent requests")
	httpPort = flag.Int("port", 8080, "http port")
	mcURI    = flag.String("memcache", "", "memcache uri host:port")
)

// Spit out a simple JSON-formatted error message for Content-Type: application/json
func httpJSONError(response http.ResponseWriter, err error, status int) {
	http.Error(response, fmt.Sprintf(`{ "error": %q }`, err.Error()), status)
}

func ingestHandler(response http.ResponseWriter, request *http.Request) {
	response.Header().Set("Content-Type", "application/json")

	doc, err := io.ReadAll(request.Body)
	if err != nil {
		httpJSONError(response, err, 400)
		return
	}

	var runID string
	err = db.QueryRow(
		`insert into runs (id, created_at, doc)
		 select doc->>'run_id', (doc->>'created_at')::timestamptz, doc
		 from (select $1::jsonb as doc) payload
		 on conflict (id) do update set doc = excluded.doc
		 returning id`,
		string(doc),
	).Scan(&runID)

	if err != nil {
		httpJSONError(response, err, 400)
		return
	}

	fmt.Fprintf(response, `{ "run_id": %q }`, runID)
}

func runsHandler(response http.ResponseWriter, request *http.Request) {

	if request.Method == "POST" {
		ingestHandler(response, request)
		return
	}

	response.Header().Set("Content-Type", "application/json")

	var hash string

	if mc != nil {

		buff := md5.Sum([]byte(request.URL.RequestURI()))
		hash = hex.EncodeToString(buff[:])

		if cached, ok := mc.Get(hash); ok == nil {
			response.Write(cached.Value)
			return
		}
	}

	var payload string
	var err error

	runID := strings.Trim(strings.TrimPrefix(request.URL.Path, "/runs"), "/")
	if len(runID) > 0 {
		// Use Postgres prepared statements and placeholders for input checks.
		err = db.QueryRow(
			`select doc::text from runs where id = $1`,
			runID,
		).Scan(&payload)
	} else {
		err = db.QueryRow(
			`select coalesce(jsonb_agg(r), '[]')::text from (
				select id, created_at,
					doc->'processing_summary' as processing_summary
				from runs order by created_at desc limit 100
			 ) r`,
		).Scan(&payload)
	}

	if err == sql.ErrNoRows {
		httpJSONError(response, fmt.Errorf("run %s not found", runID), 404)
		return
	}
	if err != nil {
		httpJSONError(response, err, 400)
		return
	}

	response.Write([]byte(payload))

	if mc != nil {
		// don't care about errors; memcache may not necessarily retain this anyway
		mc.Set(&memcache.Item{Key: hash, Value: []byte(payload)})
	}
}

func main() {

	flag.Parse()

	log.Printf("dbUser %s dbName %s dbPool %d httpPort %d", *dbUser, *dbName, *dbPool, *httpPort)

	dbinfo := fmt.Sprintf("user=%s host=/var/run/postgresql dbname=%s sslmode=disable", *dbUser, *dbName)

	var err error
	db, err = sql.Open("postgres", dbinfo)

	if err != nil {
		panic(err)
	}

	defer db.Close()

	db.SetMaxIdleConns(*dbPool)
	db.SetMaxOpenConns(*dbLimit)

	_, err = db.Exec(
		`create table if not exists runs (
			id text primary key,
			created_at timestamptz not null,
			doc jsonb not null
		)`)
	if err != nil {
		panic(err)
	}

	if *mcURI != "" {
		// lazy connection; errors returned in .Get
		mc = memcache.New(*mcURI)
	}

	http.HandleFunc("/runs", runsHandler)
	http.HandleFunc("/runs/", runsHandler)

	l, err := reuseport.Listen("tcp", fmt.Sprintf(":%d", *httpPort))
	if err != nil {
		panic(err)
	}
	log.Fatal(http.Serve(l, nil))
}
