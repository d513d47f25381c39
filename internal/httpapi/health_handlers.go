package httpapi

import "net/http"

func (h handlers) health(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "API up and running"})
}

func (h handlers) adminStatus(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "Admin routes working"})
}
