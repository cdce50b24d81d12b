// Copyright (c) 2025 The Livepoll Authors.
// Source-available; see LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/livepoll/livepoll/admission"
	"github.com/livepoll/livepoll/broadcast"
	"github.com/livepoll/livepoll/cliparse"
	"github.com/livepoll/livepoll/handlers"
	"github.com/livepoll/livepoll/identity"
	"github.com/livepoll/livepoll/ledger"
	"github.com/livepoll/livepoll/middleware"
	"github.com/livepoll/livepoll/ratelimit"
	"github.com/livepoll/livepoll/store"
)

func NewRouter(db *sql.DB, cfg cliparse.Config, hub *broadcast.Hub, limiter *ratelimit.Limiter) *http.ServeMux {
	mux := http.NewServeMux()

	st := store.NewSQLStore(db)

	svc := &admission.Service{
		Polls:   st,
		Ledger:  ledger.NewSQL(db),
		Limiter: limiter,
		Resolver: &identity.Resolver{
			Salt:           cfg.FingerprintSalt,
			IPv6PrefixBits: cfg.IPv6PrefixBits,
		},
		Hub: hub,
	}

	// Initialize handlers
	pollHandler := handlers.NewPollHandler(db, cfg)
	voteHandler := handlers.NewVoteHandler(svc)
	resultsHandler := handlers.NewResultsHandler(st)
	liveHandler := handlers.NewLiveHandler(st, hub)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Poll management
	mux.HandleFunc("POST /polls", middleware.WithLogging(pollHandler.CreatePoll))
	mux.HandleFunc("GET /polls", middleware.WithLogging(pollHandler.ListPolls))
	mux.HandleFunc("GET /polls/{id}", middleware.WithLogging(pollHandler.GetPoll))
	mux.HandleFunc("DELETE /polls/{id}", middleware.WithLogging(pollHandler.DeletePoll))

	// Voting and results (public)
	mux.HandleFunc("POST /polls/{id}/vote", middleware.WithLogging(voteHandler.Vote))
	mux.HandleFunc("GET /polls/{id}/results", middleware.WithLogging(resultsHandler.Results))

	// Live updates stream; not wrapped in WithLogging because the
	// connection stays open for the life of the viewer.
	mux.HandleFunc("GET /polls/{id}/live", liveHandler.Live)

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("livepoll API v1"))
	})

	return mux
}
