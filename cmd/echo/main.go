package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/indigo-web/lattice"
	"github.com/indigo-web/lattice/config"
	"github.com/indigo-web/lattice/http"
	"github.com/indigo-web/lattice/http/status"
)

func Echo(r *http.Request, w *http.ResponseWriter) {
	body, err := r.Body().String()
	if err != nil {
		_ = w.Code(status.BadRequest)
		return
	}

	_ = w.String("got data: " + body)
}

func main() {
	addr, cfg, err := config.FromEnv(".env")
	if err != nil {
		log.Fatal(err)
	}

	app, err := lattice.New(http.HandlerFunc(Echo)).
		Tune(cfg).
		NotifyOnStop(func() {
			log.Println("lattice: stopped")
		}).
		Start(addr)
	if err != nil {
		log.Fatal(err)
	}

	log.Println("lattice: listening on", app.Addr())

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		app.Stop()
	}()

	if err = app.Wait(); err != nil {
		log.Fatal(err)
	}
}
