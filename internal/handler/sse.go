package handler

import (
	"fmt"
	"net/http"

	"github.com/denissonlm/AcoCameras/internal/gateway"
	"github.com/denissonlm/AcoCameras/internal/metrics"
)

// Events streams row changes. Clients refetch what they show on each event;
// a closed stream means only manual refresh remains.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, unsub := h.SSE.Subscribe(gateway.Topic)
	defer unsub()
	metrics.FeedSubscribers.Inc()
	defer metrics.FeedSubscribers.Dec()

	// Send initial keepalive
	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, evt.Data)
			flusher.Flush()
		}
	}
}
