// Package api exposes the proving pipeline, the note store and the
// withdrawal coordinator over HTTP.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spectre-protocol/spectre-shield/log"
	"github.com/spectre-protocol/spectre-shield/service"
	"github.com/spectre-protocol/spectre-shield/withdraw"
)

// APIConfig type represents the configuration for the API HTTP server.
type APIConfig struct {
	Host    string
	Port    int
	Service *service.Service
	// Coordinator is optional; without it the withdrawal endpoints
	// return 404.
	Coordinator *withdraw.Coordinator
}

// API type represents the API HTTP server.
type API struct {
	router      *chi.Mux
	service     *service.Service
	coordinator *withdraw.Coordinator
}

// New creates a new API instance with the given configuration and
// starts the HTTP server.
func New(conf *APIConfig) (*API, error) {
	if conf == nil {
		return nil, fmt.Errorf("missing API configuration")
	}
	if conf.Service == nil {
		return nil, fmt.Errorf("missing service instance")
	}
	a := &API{
		service:     conf.Service,
		coordinator: conf.Coordinator,
	}
	a.initRouter()
	go func() {
		log.Infow("Starting API server", "host", conf.Host, "port", conf.Port)
		if err := http.ListenAndServe(fmt.Sprintf("%s:%d", conf.Host, conf.Port), a.router); err != nil {
			log.Fatalf("failed to start the API server: %v", err)
		}
	}()
	return a, nil
}

// Router returns the chi router for testing purposes.
func (a *API) Router() *chi.Mux {
	return a.router
}

// registerHandlers registers all the API handlers.
func (a *API) registerHandlers() {
	log.Infow("register handler", "endpoint", PingEndpoint, "method", "GET")
	a.router.Get(PingEndpoint, func(w http.ResponseWriter, r *http.Request) {
		httpWriteOK(w)
	})
	log.Infow("register handler", "endpoint", ProofsEndpoint, "method", "POST")
	a.router.Post(ProofsEndpoint, a.generateProof)
	log.Infow("register handler", "endpoint", NotesEndpoint, "method", "GET")
	a.router.Get(NotesEndpoint, a.listNotes)
	log.Infow("register handler", "endpoint", NotesEndpoint, "method", "POST")
	a.router.Post(NotesEndpoint, a.addNote)
	log.Infow("register handler", "endpoint", NoteSpentEndpoint, "method", "POST")
	a.router.Post(NoteSpentEndpoint, a.markNoteSpent)
	if a.service.Tree() != nil {
		log.Infow("register handler", "endpoint", TreeRootEndpoint, "method", "GET")
		a.router.Get(TreeRootEndpoint, a.treeRoot)
		log.Infow("register handler", "endpoint", TreeProofEndpoint, "method", "GET")
		a.router.Get(TreeProofEndpoint, a.treeProof)
	}
	if a.coordinator != nil {
		log.Infow("register handler", "endpoint", PendingWithdrawalsEndpoint, "method", "GET")
		a.router.Get(PendingWithdrawalsEndpoint, a.pendingWithdrawals)
		log.Infow("register handler", "endpoint", WithdrawalCompleteEndpoint, "method", "POST")
		a.router.Post(WithdrawalCompleteEndpoint, a.completeWithdrawal)
	}
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() {
	a.router = chi.NewRouter()
	a.router.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}).Handler)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Throttle(100))
	a.router.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	// proof generation is CPU-bound for tens of seconds
	a.router.Use(middleware.Timeout(120 * time.Second))

	a.registerHandlers()
}
