package report

import (
	"bytes"
	"io/fs"
	"strings"
	"testing"
	"time"

	acocameras "github.com/denissonlm/AcoCameras"
	"github.com/denissonlm/AcoCameras/internal/model"
	"github.com/denissonlm/AcoCameras/internal/stats"
)

func newRenderer(t *testing.T, signature string) *Renderer {
	t.Helper()
	sub, err := fs.Sub(acocameras.TemplateFS, "templates")
	if err != nil {
		t.Fatalf("fs.Sub: %v", err)
	}
	r, err := New(sub, signature)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func fleetWithIncident() ([]model.Device, []model.Division) {
	divisions := []model.Division{{ID: 1, Name: "Matriz"}}
	devices := []model.Device{{
		ID: 1, Name: "NVR <Galpão>", Type: model.DeviceNVR, DivisionID: 1, ChannelCount: 16,
		Channels: []model.Channel{
			{ID: 1, DeviceID: 1, Name: "Cam 1", Status: model.StatusOnline},
			{ID: 2, DeviceID: 1, Name: "Cam 2", Status: model.StatusOffline, ActionTaken: model.ActionWorks},
		},
	}}
	return devices, divisions
}

func TestFormatSummary(t *testing.T) {
	got := string(FormatSummary("**Visão Geral:**\n- um *item*\n- ##2 câmeras##\nfim <b>"))
	want := `<strong>Visão Geral:</strong><br /><ul><li>um <em>item</em></li><li><strong style="color: #dc3545;">2 câmeras</strong></li></ul><br />fim &lt;b&gt;`
	if got != want {
		t.Errorf("FormatSummary =\n%s\nwant\n%s", got, want)
	}
}

func TestComposeSummaryConclusion(t *testing.T) {
	devices, divisions := fleetWithIncident()
	parts := stats.Compute(devices, divisions).Summary

	withDefault := ComposeSummary(parts, parts.Conclusion)
	if !strings.Contains(withDefault, "**Conclusão:**\n"+stats.DefaultConclusion) {
		t.Errorf("default conclusion missing:\n%s", withDefault)
	}
	without := ComposeSummary(parts, "")
	if strings.Contains(without, "Conclusão") {
		t.Errorf("empty conclusion kept the title:\n%s", without)
	}
	if strings.Contains(without, "\n\n") {
		t.Error("blank lines should be dropped")
	}
}

func TestRenderIncidentReport(t *testing.T) {
	r := newRenderer(t, "Equipe de Segurança")
	devices, divisions := fleetWithIncident()
	custom := "Prazo: *sexta-feira*."
	var buf bytes.Buffer
	err := r.Render(&buf, Input{
		Stats:       stats.Compute(devices, divisions),
		Conclusion:  &custom,
		GeneratedAt: time.Date(2026, 3, 9, 14, 5, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Gerado em: 09/03/2026 às 14:05:00",
		"Detalhes de Câmeras com Problemas",
		"NVR &lt;Galpão&gt;",
		"Chamado para Obras",
		"Prazo: <em>sexta-feira</em>.",
		"Equipe de Segurança",
		"status-Offline",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report lacks %q", want)
		}
	}
	if strings.Contains(out, stats.DefaultConclusion) {
		t.Error("custom conclusion should replace the default")
	}
	if strings.Contains(out, "<Galpão>") {
		t.Error("device name was not escaped")
	}
}

func TestRenderAllOnline(t *testing.T) {
	r := newRenderer(t, "")
	devices, divisions := fleetWithIncident()
	devices[0].Channels = devices[0].Channels[:1]
	var buf bytes.Buffer
	if err := r.Render(&buf, Input{Stats: stats.Compute(devices, divisions), GeneratedAt: time.Now()}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "Detalhes de Câmeras com Problemas") {
		t.Error("problem table rendered without problems")
	}
	if !strings.Contains(out, "SESMT do Grupo Açotubo") {
		t.Error("default signature missing")
	}
}

func TestFilename(t *testing.T) {
	got := Filename(time.Date(2026, 10, 14, 23, 0, 0, 0, time.UTC))
	if got != "Relatorio_Acotubo_Cameras_2026-10-14.html" {
		t.Errorf("Filename = %q", got)
	}
}
