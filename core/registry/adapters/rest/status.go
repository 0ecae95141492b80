package rest

import (
	"net/http"

	"registry/modules/api/registryapi"
	"registry/modules/api/serde"
)

// Status reports the status line plus the transient editing/removal state.
func (s *RegistryAPI) Status(w http.ResponseWriter, r *http.Request) {
	st := s.app.Status()
	out := registryapi.RegistryStatus{
		Status: registryapi.Status{
			Level:   string(st.Level),
			Message: st.Message,
			At:      st.At,
		},
	}
	if id := s.app.EditingID(); id != "" {
		out.EditingId = &id
	}
	if id := s.app.PendingRemovalID(); id != "" {
		out.PendingRemovalId = &id
	}
	serde.WriteJSON(w, http.StatusOK, out)
}
