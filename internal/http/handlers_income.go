package http

import (
	"net/http"
)

func (s *Server) handleGetIncome(w http.ResponseWriter, r *http.Request) {
	l, err := s.ownerLedger(r)
	if err != nil {
		writeError(w, r, err, "Error fetching income")
		return
	}
	inc, err := l.GetIncome(r.Context())
	if err != nil {
		writeError(w, r, err, "Error fetching income")
		return
	}
	NewJSONResponse().Body(newIncomeView(inc)).Write(w)
}

func (s *Server) handleSaveIncome(w http.ResponseWriter, r *http.Request) {
	l, err := s.ownerLedger(r)
	if err != nil {
		writeError(w, r, err, "Error saving income")
		return
	}
	var req incomeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "Error saving income")
		return
	}
	crop, other, err := req.amounts()
	if err != nil {
		writeError(w, r, err, "Error saving income")
		return
	}
	inc, err := l.SaveIncome(r.Context(), crop, other)
	if err != nil {
		writeError(w, r, err, "Error saving income")
		return
	}
	NewJSONResponse().
		Message("Income saved").
		Field("income", newIncomeView(inc)).
		Write(w)
}
