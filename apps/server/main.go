package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raoakhan/RangMaster/apps/server/internal/auth"
	"github.com/raoakhan/RangMaster/apps/server/internal/gateway"
	"github.com/raoakhan/RangMaster/apps/server/internal/history"
	"github.com/raoakhan/RangMaster/apps/server/internal/registry"
	"github.com/raoakhan/RangMaster/apps/server/internal/storage"
	"github.com/raoakhan/RangMaster/rang/ai"
)

func main() {
	store, storageMode, err := storage.NewFromEnv()
	if err != nil {
		log.Fatalf("[Server] Failed to init storage: %v", err)
	}
	defer store.Close()

	authService, err := auth.NewManager(store)
	if err != nil {
		log.Fatalf("[Server] Failed to init auth manager: %v", err)
	}
	defer authService.Close()

	historyService, historyMode, err := history.NewServiceFromEnv(storageMode)
	if err != nil {
		log.Fatalf("[Server] Failed to init history service: %v", err)
	}
	defer historyService.Close()

	profiles := ai.NewRegistry()
	if path := os.Getenv("AI_PROFILES_PATH"); path != "" {
		if err := profiles.LoadFromFile(path); err != nil {
			log.Fatalf("[Server] Failed to load AI profiles from %s: %v", path, err)
		}
		log.Printf("[Server] Loaded %d AI profiles from %s", profiles.Count(), path)
	}

	gw := gateway.New(authService)
	rooms := registry.New(gw, store, historyService, profiles)
	gw.AttachRegistry(rooms)
	historyHTTP := history.NewHTTPHandler(authService, historyService)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	auth.RegisterRoutes(mux, authService)
	historyHTTP.RegisterRoutes(mux)

	addr := ":" + port()
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		log.Printf("[Server] Storage mode: %s", storageMode)
		log.Printf("[Server] History mode: %s", historyMode)
		log.Printf("[Server] Starting WebSocket server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[Server] Failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Print("[Server] Shutting down")
	rooms.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[Server] Shutdown error: %v", err)
	}
}

func port() string {
	if p := os.Getenv("PORT"); p != "" {
		return p
	}
	return "8080"
}
