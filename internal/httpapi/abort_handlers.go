package httpapi

import (
	"crypto/subtle"
	"net/http"
)

// AbortHandler stops the running batch. It is the remote twin of moving the
// pointer into a screen corner.
type AbortHandler struct {
	Token string
	Abort func()
}

func (h AbortHandler) Post(w http.ResponseWriter, r *http.Request) {
	if !isLocal(r) {
		WriteError(w, r, http.StatusForbidden, CodeForbidden, "forbidden")
		return
	}
	got := r.Header.Get("X-Abort-Token")
	if h.Token == "" || got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.Token)) != 1 {
		WriteError(w, r, http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
		return
	}
	if h.Abort != nil {
		h.Abort()
	}
	WriteJSON(w, http.StatusAccepted, map[string]any{"aborting": true})
}
