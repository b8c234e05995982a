package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/FestiveLedger/FL-Backend/internal/accesslog"
	"github.com/FestiveLedger/FL-Backend/internal/analytics"
	"github.com/FestiveLedger/FL-Backend/internal/config"
	"github.com/FestiveLedger/FL-Backend/internal/db"
	"github.com/FestiveLedger/FL-Backend/internal/festival"
	"github.com/FestiveLedger/FL-Backend/internal/logging"
	"github.com/FestiveLedger/FL-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	response := "Server is up!"
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, response)
}

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load(context.Background(), "config.yaml")
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	logging.Init(logging.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	db.Connect(cfg.DatabaseURL)

	festival.Init()
	accesslog.Init()

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger)
	r.Use(middleware.CORS(cfg.Origins()))
	r.Get("/", RootHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Mount("/festivals", festival.SetupRoutes(middleware.Throttle(cfg.ThrottleRPS)))
	r.Mount("/access", accesslog.SetupRoutes())
	r.Mount("/analytics", analytics.SetupRoutes(cfg.PageSize))

	logging.Get().Info().Str("port", cfg.Port).Msg("server listening")

	http.ListenAndServe("0.0.0.0:"+cfg.Port, r)
}
