package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"bookcatalog/internal/logging"
	synchub "bookcatalog/internal/sync"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:7070", "TCP change feed address")
	pretty := flag.Bool("pretty", true, "pretty print JSON events")
	flag.Parse()

	log := logging.Init(logging.FromEnv()).With(slog.String("component", "sync-client"))

	for {
		if err := run(log, *addr, *pretty); err != nil {
			log.Warn("disconnected", slog.Any("err", err))
		}
		time.Sleep(1 * time.Second) // auto reconnect
	}
}

func run(log *slog.Logger, addr string, pretty bool) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Info("connected", slog.String("addr", addr))

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		line := sc.Bytes()

		var ev synchub.CatalogEvent
		if err := json.Unmarshal(line, &ev); err != nil || ev.BookID == 0 {
			// welcome banner or not an event
			fmt.Println(string(line))
			continue
		}

		if !pretty {
			fmt.Println(string(line))
			continue
		}
		b, _ := json.MarshalIndent(ev, "", "  ")
		fmt.Println(string(b))
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return os.ErrClosed
}
