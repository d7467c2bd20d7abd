package main

import (
	"context"
	"net/http"
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/adhamsabryco-maker/khamin-Takhmina/auth"
	"github.com/adhamsabryco-maker/khamin-Takhmina/config"
	"github.com/adhamsabryco-maker/khamin-Takhmina/game"
	"github.com/adhamsabryco-maker/khamin-Takhmina/logger"
	"github.com/adhamsabryco-maker/khamin-Takhmina/storage"
	"github.com/adhamsabryco-maker/khamin-Takhmina/storage/migrations"
)

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")

		if origin == "" || slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Authorization",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Bad configuration: %v", err)
	}
	if cfg.Debug {
		logger.SetDebug()
	}

	migrations.Migrate(cfg.PostgresURL)

	pgRepo, err := storage.NewPostgresRepo(context.Background(), cfg.PostgresURL)
	if err != nil {
		logger.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer pgRepo.Close()

	players, err := pgRepo.LoadPlayers(context.Background())
	if err != nil {
		logger.Fatalf("Failed to load players: %v", err)
	}

	directory := game.NewDirectory(pgRepo)
	directory.Load(players)
	ledger := game.NewLedger(pgRepo)

	hub := game.NewHub(directory, ledger, game.NewTickerCreator())
	hubStarted := make(chan struct{})
	go hub.Run(hubStarted)
	<-hubStarted

	r := CreateServer(cfg.AllowedOrigins)

	checkOrigin := func(req *http.Request) bool {
		origin := req.Header.Get("Origin")
		return origin == "" || slices.Contains(cfg.AllowedOrigins, origin)
	}
	game.NewHandler(hub, checkOrigin).RegisterRoutes(r)

	google := auth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.AdminEmails)
	auth.NewGoogleHandler(google).RegisterRoutes(r)

	logger.Infof("Server listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatalf("Server stopped: %v", err)
	}
}
