package handler

import (
	"bytes"
	"net/http"

	"github.com/denissonlm/AcoCameras/internal/report"
	"github.com/denissonlm/AcoCameras/internal/stats"
)

type reportRequest struct {
	Conclusion *string `json:"conclusion"`
}

// ReportDownload renders the management report as an attachment. A POST may
// override the conclusion; an empty one drops that section.
func (h *Handler) ReportDownload(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if r.Method == http.MethodPost {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, err, "gerar o relatório")
			return
		}
	}
	snap := h.Cache.Current()
	now := h.Now()

	var buf bytes.Buffer
	err := h.Report.Render(&buf, report.Input{
		Stats:       stats.Compute(snap.Devices, snap.Divisions),
		Conclusion:  req.Conclusion,
		GeneratedAt: now,
	})
	if err != nil {
		writeError(w, err, "gerar o relatório")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename(now)+`"`)
	buf.WriteTo(w)
}
