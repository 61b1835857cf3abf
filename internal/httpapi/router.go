package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// NewMux registers every route of the status API.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: HealthHandler{}.Health,
	}))

	sh := StatusHandler{Status: d.Status}
	mux.HandleFunc("/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: sh.Get,
	}))

	if d.DB != nil {
		rh := RunsHandler{DB: d.DB}
		mux.HandleFunc("/runs", methodMux(map[string]http.HandlerFunc{
			http.MethodGet: rh.List,
		}))
		mux.HandleFunc("/runs/", methodMux(map[string]http.HandlerFunc{
			http.MethodGet: rh.GetByPath, // expects /runs/{id}
		}))
	}

	if d.Hub != nil {
		eh := EventsHandler{Hub: d.Hub}
		mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
			http.MethodGet: eh.ServeSSE,
		}))
	}

	ah := AbortHandler{Token: d.AbortToken, Abort: d.Abort}
	mux.HandleFunc("/abort", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ah.Post,
	}))

	return mux
}

// NewHandler wraps the mux with the standard middleware.
func NewHandler(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("http")
	return Chain(NewMux(d), RequestID, Recover(log), AccessLog(log), Cors)
}
