package handler

import (
	"fmt"
	"net/http"

	"github.com/denissonlm/AcoCameras/internal/diskstat"
)

type storageResponse struct {
	diskstat.Stats
	PctFree float64 `json:"pct_free"`
	Warning string  `json:"warning"`
	Message string  `json:"message,omitempty"`
}

func (h *Handler) AdminStorageJSON(w http.ResponseWriter, r *http.Request) {
	if h.DiskCache == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: errorDetail{Kind: "unavailable", Message: "Monitoramento de disco indisponível."}})
		return
	}
	stats := h.DiskCache.Get()
	level := stats.WarningLevel(h.diskThresholds())
	jsonOK(w, storageResponse{
		Stats:   stats,
		PctFree: stats.PctFree(),
		Warning: diskstat.LevelName(level),
		Message: diskWarnMsg(level, stats.PctFree()),
	})
}

func diskWarnMsg(level int, pctFree float64) string {
	switch level {
	case diskstat.WarnYellow:
		return fmt.Sprintf("%.1f%% livre: espaço em disco baixo", pctFree)
	case diskstat.WarnRed:
		return fmt.Sprintf("%.1f%% livre: espaço em disco crítico", pctFree)
	case diskstat.WarnBlock:
		return fmt.Sprintf("%.1f%% livre: disco cheio, novas imagens de layout bloqueadas", pctFree)
	default:
		return ""
	}
}
