package http

import (
	"net/http"
)

func (s *Server) handleListFarms(w http.ResponseWriter, r *http.Request) {
	l, err := s.ownerLedger(r)
	if err != nil {
		writeError(w, r, err, "Error fetching farms")
		return
	}
	list, err := l.ListFarms(r.Context())
	if err != nil {
		writeError(w, r, err, "Error fetching farms")
		return
	}
	NewJSONResponse().Body(newFarmViews(list)).Write(w)
}

func (s *Server) handleCreateFarm(w http.ResponseWriter, r *http.Request) {
	l, err := s.ownerLedger(r)
	if err != nil {
		writeError(w, r, err, "Error adding farm")
		return
	}
	var req farmRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "Error adding farm")
		return
	}
	in, err := req.toNewFarm()
	if err != nil {
		writeError(w, r, err, "Error adding farm")
		return
	}
	f, err := l.AddFarm(r.Context(), in)
	if err != nil {
		writeError(w, r, err, "Error adding farm")
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Message("Farm added successfully").
		Field("farm", newFarmView(f)).
		Write(w)
}

func (s *Server) handleUpdateFarm(w http.ResponseWriter, r *http.Request) {
	l, err := s.ownerLedger(r)
	if err != nil {
		writeError(w, r, err, "Error updating farm")
		return
	}
	var req farmRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "Error updating farm")
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		writeError(w, r, err, "Error updating farm")
		return
	}
	f, err := l.UpdateFarm(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err, "Error updating farm")
		return
	}
	NewJSONResponse().
		Message("Farm updated successfully").
		Field("farm", newFarmView(f)).
		Write(w)
}

func (s *Server) handleDeleteFarm(w http.ResponseWriter, r *http.Request) {
	l, err := s.ownerLedger(r)
	if err != nil {
		writeError(w, r, err, "Error deleting farm")
		return
	}
	if err := l.DeleteFarm(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err, "Error deleting farm")
		return
	}
	NewJSONResponse().Message("Farm deleted successfully").Write(w)
}
