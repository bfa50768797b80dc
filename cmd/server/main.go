package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/Caiolinooo/PontoFlow-sub001/internal/server"
)

func main() {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	mux, err := server.NewMux(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	log.Printf("listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal(err)
	}
}
