package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"runtime"

	tp "github.com/rgdonohue/ghost-forest-watcher/worker/tileproc"
	ts "github.com/rgdonohue/ghost-forest-watcher/worker/tileservice"
)

func sendOutput(out *ts.Result, conn net.Conn) error {
	outb, err := json.Marshal(out)
	if err != nil {
		return err
	}

	_, err = conn.Write(outb)
	if err != nil {
		return err
	}

	return nil
}

func dataHandler(conn net.Conn, seg tp.Segmenter, debug bool) {
	defer conn.Close()
	out := &ts.Result{}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, conn)
	if err != nil {
		out.Error = fmt.Sprintf("Error reading data %d from socket: %v", n, err)
		sendOutput(out, conn)
		return
	}

	in := new(ts.TileGranule)
	err = json.Unmarshal(buf.Bytes(), in)
	if err != nil {
		out.Error = fmt.Sprintf("Error unmarshaling request: %v", err)
		sendOutput(out, conn)
		return
	}

	if debug {
		log.Printf("tile %d: window %v", in.TileID, in.Window)
	}

	out = tp.ProcessTile(in, seg)

	err = sendOutput(out, conn)
	if err != nil {
		log.Println(err)
	}
}

func init() {
	if _, ok := os.LookupEnv("GOMAXPROCS"); !ok {
		runtime.GOMAXPROCS(2)
	}
}

func main() {
	debug := flag.Bool("debug", false, "verbose logging")
	sock := flag.String("sock", "", "unix socket path")
	flag.Parse()

	// the segmenter loads once per process, every tile reuses it
	seg := &tp.BuiltinSegmenter{}
	if err := seg.Load(); err != nil {
		log.Fatal(err)
	}

	l, err := net.ListenUnix("unix", &net.UnixAddr{Name: *sock, Net: "unix"})
	if err != nil {
		log.Fatal(err)
		return
	}
	defer os.Remove(*sock)

	log.Println("Listening on", *sock)

	for {
		conn, err := l.Accept()
		if err != nil {
			log.Fatal(err)
			return
		}

		dataHandler(conn, seg, *debug)
	}
}
