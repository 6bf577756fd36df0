package http

import (
	"bytes"
	"fmt"
	"net/http"

	"expensetracker/internal/export"
	"expensetracker/internal/log"
)

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	report, err := s.reports.Build(r.Context(), callerFrom(r.Context()))
	if err != nil {
		s.serverError(w, r, err, log.ComponentReports, log.OpRead)
		return
	}
	p := s.pageFor(r, "Reports", "reports")
	p.View = newReportView(report)
	s.respond(w, r, http.StatusOK, "reports.html", p)
}

func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.reports.Build(r.Context(), callerFrom(r.Context()))
	if err != nil {
		s.serverError(w, r, err, log.ComponentReports, log.OpRead)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteReport(&buf, report); err != nil {
		s.serverError(w, r, err, log.ComponentExport, log.OpExport)
		return
	}

	writeOrLog(w, r, NewResponse().
		Header("Content-Type", export.ContentType).
		Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(report))).
		Body(buf.Bytes()))
}
