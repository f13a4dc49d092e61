package server

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	// Load env file into environments.
	_ "github.com/joho/godotenv/autoload"

	"ResumeForge-backend/internal/auth"
	"ResumeForge-backend/internal/database"
)

// MyServer holds the database instance and the session blacklist shared by
// every route handler.
type MyServer struct {
	DB             *database.DBinstanceStruct
	BlacklistStore auth.JwtBlacklistStore
}

// NewServer construct new http.Server instance bound to the configured port
func NewServer() *http.Server {
	port, _ := strconv.Atoi(os.Getenv("PORT"))

	db, err := database.GetMainDB()
	if err != nil {
		log.Fatalf("Database failed to initialized: %s", err)
	}

	s := &MyServer{
		DB:             db,
		BlacklistStore: auth.NewInMemoryBlacklistStore(),
	}

	// Declare Server config
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}
