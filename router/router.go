// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/campus-vote/auth"
	"github.com/danielhkuo/campus-vote/cliparse"
	"github.com/danielhkuo/campus-vote/handlers"
	"github.com/danielhkuo/campus-vote/ledger"
	"github.com/danielhkuo/campus-vote/mailer"
	"github.com/danielhkuo/campus-vote/media"
	"github.com/danielhkuo/campus-vote/middleware"
	"github.com/danielhkuo/campus-vote/models"
	"github.com/danielhkuo/campus-vote/otp"
)

// Services are the pluggable backends behind the API. Media is required;
// a nil OTPStore uses the otp_code table and a nil Mailer logs codes.
type Services struct {
	OTPStore otp.Store
	Mailer   mailer.Mailer
	Media    media.Store
}

func NewRouter(db *sql.DB, cfg cliparse.Config, svc Services) *http.ServeMux {
	mux := http.NewServeMux()

	if svc.OTPStore == nil {
		svc.OTPStore = otp.NewSQLStore(db)
	}
	if svc.Mailer == nil {
		svc.Mailer = mailer.LogMailer{}
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	authn := middleware.NewAuthenticator(db, tokens)
	votes := ledger.New(db)

	// Per email inside the handler, per IP around the public auth routes
	emailLimiter := middleware.NewRateLimiter(cfg.OTPRatePerMinute, 3)
	ipLimiter := middleware.NewRateLimiter(cfg.OTPRatePerMinute*4, cfg.OTPRatePerMinute*4)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, cfg,
		otp.NewService(db, svc.OTPStore, svc.Mailer, cfg.OTPTTL), tokens, authn, emailLimiter)
	electionHandler := handlers.NewElectionHandler(db, cfg)
	positionHandler := handlers.NewPositionHandler(db, cfg, votes)
	candidateHandler := handlers.NewCandidateHandler(db, cfg, svc.Media)
	voteHandler := handlers.NewVoteHandler(db, cfg, votes)
	userHandler := handlers.NewUserHandler(db, cfg)
	resultsHandler := handlers.NewResultsHandler(db, cfg, votes)

	anyone := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(authn.Require(h))
	}
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(authn.Require(h, models.RoleAdmin))
	}
	student := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(authn.Require(h, models.RoleStudent))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Authentication (public)
	mux.HandleFunc("POST /api/auth/request-otp", middleware.WithLogging(ipLimiter.ByIP(authHandler.RequestOTP)))
	mux.HandleFunc("POST /api/auth/verify-otp", middleware.WithLogging(ipLimiter.ByIP(authHandler.VerifyOTP)))
	mux.HandleFunc("GET /api/auth/check-auth", middleware.WithLogging(authHandler.CheckAuth))
	mux.HandleFunc("POST /api/auth/logout", middleware.WithLogging(authHandler.Logout))
	mux.HandleFunc("POST /api/auth/register", admin(authHandler.Register))

	// Elections
	mux.HandleFunc("GET /api/election/get", anyone(electionHandler.List))
	mux.HandleFunc("POST /api/election/get", anyone(electionHandler.List))
	mux.HandleFunc("POST /api/election/create", admin(electionHandler.Create))

	// Positions
	mux.HandleFunc("GET /api/position/get", anyone(positionHandler.List))
	mux.HandleFunc("POST /api/position/get", anyone(positionHandler.List))
	mux.HandleFunc("POST /api/position/create", admin(positionHandler.Create))
	mux.HandleFunc("GET /api/position/{id}", anyone(positionHandler.Get))

	// Candidates
	mux.HandleFunc("GET /api/candidate/allCandidate", anyone(candidateHandler.List))
	mux.HandleFunc("POST /api/candidate/allCandidate", anyone(candidateHandler.List))
	mux.HandleFunc("POST /api/candidate/create", admin(candidateHandler.Create))
	mux.HandleFunc("POST /api/candidate/uploadImage", admin(candidateHandler.UploadImage))

	// Votes
	mux.HandleFunc("POST /api/vote/cast", student(voteHandler.Cast))
	mux.HandleFunc("GET /api/vote/getVoteByStudent/{id}", anyone(voteHandler.ByStudent))
	mux.HandleFunc("GET /api/vote/all", admin(voteHandler.All))

	// Users
	mux.HandleFunc("GET /api/user/all", admin(userHandler.All))

	// Results (students only once the election has ended)
	mux.HandleFunc("GET /api/results/{positionId}", anyone(resultsHandler.ByPosition))

	// Uploaded images when stored on local disk
	if disk, ok := svc.Media.(*media.DiskStore); ok {
		mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(disk.Dir))))
	}

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			middleware.ErrorResponse(w, http.StatusNotFound, "Route not found")
			return
		}
		w.Write([]byte("campus-vote API v1"))
	})

	return mux
}
