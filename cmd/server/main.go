package main

import (
	"errors"
	"log"
	"net/http"

	"ResumeForge-backend/internal/server"
)

// @title ResumeForge API
// @version 1.0
// @description Backend service for resume building, AI suggestions, payments and the hiring pipeline.
// @BasePath /api/v1
func main() {
	srv := server.NewServer()

	log.Printf("Server listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server stopped unexpectedly: %s", err)
	}
}
