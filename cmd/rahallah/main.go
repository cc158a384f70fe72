// Command rahallah runs the bilingual trip-planning assistant server: the
// REST API and the realtime WebSocket channel on one port.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Salehnexta/Rahallah10.13/internal/agents"
	"github.com/Salehnexta/Rahallah10.13/internal/api"
	"github.com/Salehnexta/Rahallah10.13/internal/config"
	"github.com/Salehnexta/Rahallah10.13/internal/domain"
	"github.com/Salehnexta/Rahallah10.13/internal/hub"
	"github.com/Salehnexta/Rahallah10.13/internal/notify"
	"github.com/Salehnexta/Rahallah10.13/internal/orchestrator"
	"github.com/Salehnexta/Rahallah10.13/internal/router"
	"github.com/Salehnexta/Rahallah10.13/internal/store"
	"github.com/Salehnexta/Rahallah10.13/internal/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}
	cfg := config.Load()

	log.Printf("Starting trip-planning assistant...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)

	sessionStore := store.NewMemoryStore()

	var recorder orchestrator.Recorder
	if cfg.DatabaseURL != "" {
		archive, err := store.OpenArchive(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to open transcript archive: %v", err)
		}
		defer archive.Close()
		recorder = archive
		log.Printf("Transcript archive enabled: %s", cfg.DatabaseURL)
	}

	notifier := notify.NewNotifier()
	intentRouter := router.New(notifier)

	handlers := map[domain.Intent]orchestrator.Handler{
		domain.IntentFlight:   orchestrator.WithTimeout(agents.NewFlightAgent(), cfg.AgentTimeout),
		domain.IntentHotel:    orchestrator.WithTimeout(agents.NewHotelAgent(), cfg.AgentTimeout),
		domain.IntentTrip:     orchestrator.WithTimeout(agents.NewTripAgent(), cfg.AgentTimeout),
		domain.IntentContinue: orchestrator.WithTimeout(agents.NewConversationAgent(), cfg.AgentTimeout),
	}

	connectionHub := hub.NewHub()
	go connectionHub.Run()

	wsServer := ws.NewServer(cfg, connectionHub, notifier)
	orch := orchestrator.New(sessionStore, intentRouter, handlers, wsServer, notifier, recorder)
	wsServer.SetOrchestrator(orch)

	// Log every classified error that reaches the notification stream.
	errCh, cancelErrs := notifier.Subscribe()
	defer cancelErrs()
	go func() {
		for te := range errCh {
			log.Printf("Notification [%s/%s/%s]: %s", te.Kind, te.Category, te.Severity, te.Message)
		}
	}()

	// Idle session eviction janitor.
	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go func() {
		ticker := time.NewTicker(cfg.EvictInterval)
		defer ticker.Stop()
		for {
			select {
			case <-janitorCtx.Done():
				return
			case <-ticker.C:
				if n := sessionStore.EvictIdle(cfg.SessionIdleTimeout); n > 0 {
					log.Printf("Evicted %d idle sessions", n)
				}
			}
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	apiHandler := api.NewHandler(cfg, orch, connectionHub, notifier, nil)
	apiHandler.Register(e)
	e.GET("/ws", wsServer.HandleWebSocket)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server started on port %d", cfg.HTTPPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}
	log.Println("Server stopped")
}
