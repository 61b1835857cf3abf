package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"sync/atomic"

	"receitanet-engine/internal/store"
)

type StatusHandler struct {
	Status *atomic.Value
}

func (h StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, _ := h.Status.Load().(Status)
	WriteJSON(w, http.StatusOK, s)
}

type RunsHandler struct {
	DB *store.DB
}

func (h RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	runs, err := h.DB.ListRuns(r.Context(), queryInt(r, "limit", 20, 200))
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	WriteJSON(w, http.StatusOK, runs)
}

type runDetail struct {
	store.Run
	Items []store.Item `json:"items"`
}

// GetByPath serves /runs/{id}.
func (h RunsHandler) GetByPath(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/runs/"), "/")
	if id == "" {
		WriteError(w, r, http.StatusBadRequest, CodeBadRequest, "missing run id")
		return
	}
	run, err := h.DB.GetRun(r.Context(), id)
	if errors.Is(err, store.ErrRunNotFound) {
		WriteError(w, r, http.StatusNotFound, CodeNotFound, "run not found")
		return
	}
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}
	items, err := h.DB.ListItems(r.Context(), id)
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}
	if items == nil {
		items = []store.Item{}
	}
	WriteJSON(w, http.StatusOK, runDetail{Run: run, Items: items})
}
