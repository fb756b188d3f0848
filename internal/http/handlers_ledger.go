package http

import (
	"bytes"
	"net/http"
	"strconv"

	"farmledger/internal/report"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	l, err := s.ownerLedger(r)
	if err != nil {
		writeError(w, r, err, "Error computing summary")
		return
	}
	sum, _, err := l.Summary(r.Context())
	if err != nil {
		writeError(w, r, err, "Error computing summary")
		return
	}
	NewJSONResponse().Body(newSummaryView(sum)).Write(w)
}

// handleExportCSV renders into a buffer first so a failure can still be
// reported as JSON.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	l, err := s.ownerLedger(r)
	if err != nil {
		writeError(w, r, err, "Error exporting expenses")
		return
	}
	sum, expenses, err := l.Summary(r.Context())
	if err != nil {
		writeError(w, r, err, "Error exporting expenses")
		return
	}

	var buf bytes.Buffer
	if err := report.ExportCSV(&buf, expenses, sum); err != nil {
		writeError(w, r, err, "Error exporting expenses")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename(s.now())+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
