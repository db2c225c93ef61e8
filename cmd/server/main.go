// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/blanksgame/blanks/internal/auth"
	"github.com/blanksgame/blanks/internal/cache"
	"github.com/blanksgame/blanks/internal/database"
	"github.com/blanksgame/blanks/internal/deck"
	"github.com/blanksgame/blanks/internal/game"
	"github.com/blanksgame/blanks/internal/handlers"
	"github.com/blanksgame/blanks/internal/middleware"
)

func main() {
	auth.Init()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	// Card source: postgres pack store when a database is configured,
	// otherwise the built-in deck.
	var source game.CardSource = deck.NewStaticSource()
	if os.Getenv("PG_HOST") != "" {
		pool, err := database.Connect(context.Background())
		if err != nil {
			log.Fatalf("database connect failed: %v", err)
		}
		defer pool.Close()
		source = database.NewPackStore(pool)
		logger.Info("using postgres card source")
	}

	if os.Getenv("REDIS_ADDR") != "" {
		if err := cache.ConnectRedis(); err != nil {
			logger.Warnf("redis connect failed, game records disabled: %v", err)
		}
	}

	cfg := game.ConfigFromEnv()
	store := game.NewRoomStore(cfg, source, logger)
	srv := handlers.NewServer(store, logger)

	mux := http.NewServeMux()

	// room endpoints
	mux.Handle("/room/create", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.CreateRoomHandler(srv),
	)))
	mux.Handle("/room/join", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.JoinRoomHandler(srv),
	)))
	mux.Handle("/room/list", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.ListRoomsHandler(srv),
	)))
	mux.Handle("/room/invite", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.InviteQRHandler(srv),
	)))
	mux.Handle("/packs", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.ListPacksHandler(srv),
	)))

	// room websocket; left unwrapped so the upgrade can hijack the
	// response writer directly.
	mux.HandleFunc("/room/ws/", handlers.RoomWSHandler(logger, srv))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
