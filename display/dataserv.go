package meter

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	Me "github.com/maroda/meter/engine"
	Mt "github.com/maroda/meter/types"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// StaticDir holds the browser surface
var StaticDir = "./web/"

// SetupMux handles all data serving:
// - Prometheus metric endpoint
// - Websocket carrying snapshots out and events in
// - Version for programmatic use
// - Current state, the state table and its graph
// - Journaled outcomes, when a journal is configured
func (s *Session) SetupMux() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.StatsMiddleware)

	r.Handle("/metrics", s.Stats.Handler())
	r.HandleFunc("/ws", s.Hub.WebsocketHandler)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/version", VersionHandler).Methods(http.MethodGet)
	api.HandleFunc("/state", s.StateHandler).Methods(http.MethodGet)
	api.HandleFunc("/states", s.StatesHandler).Methods(http.MethodGet)
	api.HandleFunc("/graph", s.GraphHandler).Methods(http.MethodGet)
	api.HandleFunc("/outcomes", s.OutcomesHandler).Methods(http.MethodGet)
	api.HandleFunc("/event", s.EventHandler).Methods(http.MethodPost)

	// Static files for the browser
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(StaticDir)))

	return r
}

// Handler is SetupMux with a span per request
func (s *Session) Handler() http.Handler {
	return otelhttp.NewHandler(s.SetupMux(), "meter")
}

var Version = "dev"

func VersionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": Version})
}

// StateHandler returns the latest snapshot
func (s *Session) StateHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Hub.Last())
}

// StateInfo describes one row of the state table
type StateInfo struct {
	Name    string   `json:"name"`
	Comment string   `json:"comment"`
	Message string   `json:"message"`
	Next    []string `json:"next"`
	Back    string   `json:"back,omitempty"`
}

func (s *Session) StatesHandler(w http.ResponseWriter, r *http.Request) {
	table := s.Driver.Table()

	states := make([]StateInfo, 0, Me.NumStates)
	for _, st := range table.States() {
		e := table.Entry(st)
		info := StateInfo{
			Name:    st.String(),
			Comment: e.Comment,
			Message: e.Message,
			Next:    make([]string, len(e.Next)),
		}
		for i, n := range e.Next {
			info.Next[i] = n.String()
		}
		if e.Back != Me.NoState {
			info.Back = e.Back.String()
		}
		states = append(states, info)
	}

	writeJSON(w, http.StatusOK, states)
}

// GraphHandler returns the state table as a GraphViz document
func (s *Session) GraphHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	fmt.Fprint(w, Me.Digraph(s.Driver.Table().Graph()))
}

// OutcomesHandler returns journaled outcomes between the RFC3339 times
// "from" (default the epoch) and "to" (default now)
func (s *Session) OutcomesHandler(w http.ResponseWriter, r *http.Request) {
	if s.Journal == nil {
		http.Error(w, "journal is not configured", http.StatusServiceUnavailable)
		return
	}

	from, err := queryTime(r, "from", time.Unix(0, 0))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, err := queryTime(r, "to", time.Now().Add(time.Second))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	outcomes, err := s.Journal.QueryRange(from, to)
	if err != nil {
		slog.Error("Journal query failed", slog.Any("Error", err))
		http.Error(w, "journal query failed", http.StatusInternalServerError)
		return
	}
	if outcomes == nil {
		outcomes = []*Mt.Outcome{}
	}

	writeJSON(w, http.StatusOK, outcomes)
}

// EventHandler queues one ClientMessage
func (s *Session) EventHandler(w http.ResponseWriter, r *http.Request) {
	var msg ClientMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "bad event: "+err.Error(), http.StatusBadRequest)
		return
	}
	ev, err := msg.Event()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.Queue.Submit(ev); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, ErrQueueFull) {
			code = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), code)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func queryTime(r *http.Request, key string, def time.Time) (time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", key, err)
	}
	return t, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Could not write response", slog.Any("Error", err))
	}
}
