// relay-tail prints the realtime monitor feed of a running dashgate.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/carverauto/dashgate/pkg/version"
)

func main() {
	var (
		host   = flag.String("host", "localhost:3000", "dashgate host:port")
		secure = flag.Bool("secure", false, "Use WSS instead of WS")
		origin = flag.String("origin", "", "Origin header to send")
		quiet  = flag.Bool("quiet", false, "Only print status changes")
		showV  = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *showV {
		fmt.Println(version.GetFullVersion())
		return
	}

	scheme := "ws"
	if *secure {
		scheme = "wss"
	}

	u := url.URL{Scheme: scheme, Host: *host, Path: "/api/realtime"}

	var headers http.Header
	if *origin != "" {
		headers = http.Header{"Origin": []string{*origin}}
	}

	log.Printf("Connecting to %s", u.String())

	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), headers)
	if err != nil {
		if resp != nil {
			log.Printf("HTTP response status: %s", resp.Status)
		}

		log.Fatalf("Failed to connect: %v", err)
	}
	defer func() { _ = conn.Close() }()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)

	frames := make(chan frame, 100)
	done := make(chan struct{})

	go func() {
		defer close(done)

		for {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("WebSocket error: %v", err)
				}

				return
			}

			frames <- f
		}
	}()

	r := newRenderer(os.Stdout, *quiet)

	for {
		select {
		case f := <-frames:
			r.render(f)

		case <-interrupt:
			log.Println("Received interrupt signal, closing connection...")

			err := conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Printf("Error sending close message: %v", err)
			}

			select {
			case <-done:
			case <-time.After(time.Second):
			}

			return

		case <-done:
			fmt.Fprintln(os.Stdout, r.styles.muted.Render("connection closed"))
			return
		}
	}
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}
