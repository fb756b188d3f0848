package http

import (
	"net/http"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	l, err := s.ownerLedger(r)
	if err != nil {
		writeError(w, r, err, "Error fetching expenses")
		return
	}
	list, err := l.ListExpenses(r.Context())
	if err != nil {
		writeError(w, r, err, "Error fetching expenses")
		return
	}
	NewJSONResponse().Body(newExpenseViews(list)).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	l, err := s.ownerLedger(r)
	if err != nil {
		writeError(w, r, err, "Error adding expense")
		return
	}
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "Error adding expense")
		return
	}
	in, err := req.toNewExpense()
	if err != nil {
		writeError(w, r, err, "Error adding expense")
		return
	}
	e, err := l.AddExpense(r.Context(), in)
	if err != nil {
		writeError(w, r, err, "Error adding expense")
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Message("Expense added").
		Field("expense", newExpenseView(e)).
		Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	l, err := s.ownerLedger(r)
	if err != nil {
		writeError(w, r, err, "Error updating expense")
		return
	}
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "Error updating expense")
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		writeError(w, r, err, "Error updating expense")
		return
	}
	e, err := l.UpdateExpense(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err, "Error updating expense")
		return
	}
	NewJSONResponse().
		Message("Expense updated").
		Field("expense", newExpenseView(e)).
		Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	l, err := s.ownerLedger(r)
	if err != nil {
		writeError(w, r, err, "Error deleting expense")
		return
	}
	if err := l.DeleteExpense(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err, "Error deleting expense")
		return
	}
	NewJSONResponse().Message("Expense deleted").Write(w)
}
