package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	"googlemaps.github.io/maps"

	"github.com/oakwell/treeaid/internal/auth"
	"github.com/oakwell/treeaid/internal/config"
	"github.com/oakwell/treeaid/internal/db"
	"github.com/oakwell/treeaid/internal/geocode"
	"github.com/oakwell/treeaid/internal/handlers"
	"github.com/oakwell/treeaid/internal/repository"
	"github.com/oakwell/treeaid/internal/storage"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	if err := godotenv.Load(); err != nil {
		log.Warn("no .env file loaded", "error", err)
	}
	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("loading configuration", "error", err)
		os.Exit(1)
	}

	// OAuth + sessions
	goth.UseProviders(google.New(cfg.GoogleKey, cfg.GoogleSecret, cfg.CallbackURL))
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.MaxAge(86400 * 30)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = false
	gothic.Store = store

	// Database (runs embedded migrations)
	gdb, err := db.Open(cfg.DSN)
	if err != nil {
		log.Error("opening database", "error", err)
		os.Exit(1)
	}

	// Geocoding
	mapsClient, err := maps.NewClient(maps.WithAPIKey(cfg.MapsAPIKey))
	if err != nil {
		log.Error("creating maps client", "error", err)
		os.Exit(1)
	}

	// Object storage (R2)
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.AccessKeySecret, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		log.Error("loading object storage config", "error", err)
		os.Exit(1)
	}
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String("https://" + cfg.AccountID + ".r2.cloudflarestorage.com")
	})

	h := &handlers.Handler{
		Trees:    repository.NewTreeRepo(gdb),
		Users:    repository.NewUserRepo(gdb),
		Store:    storage.New(s3Client, cfg.Bucket, log),
		Geocoder: geocode.NewMapsGeocoder(mapsClient),
		Config:   cfg,
		Log:      log,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/auth/{provider}/callback", h.OAuthCallback)
	r.Post("/auth/{provider}", h.BeginAuth)
	r.Post("/logout/{provider}", h.Logout)

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.CurrentUser)
		r.Use(httprate.Limit(
			20,
			1*time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
		))
		r.Post("/tree/infected", h.InfectedTree)
		r.Post("/tree/saved", h.SavedTree)
		r.Post("/trees", h.GetTrees)
		r.Get("/me", h.Me)
		r.Post("/tree/info", h.TreeInfo)
		r.Post("/user/info", h.UserInfo)
	})

	log.Info("starting API server", "port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
