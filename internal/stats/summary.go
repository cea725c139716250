package stats

import "fmt"

const (
	DefaultSignature  = "Atenciosamente,\nSESMT do Grupo Açotubo"
	DefaultConclusion = "As ações para restabelecer 100% da cobertura de vigilância estão em andamento. Acompanharemos de perto a resolução de cada chamado para garantir a normalização dos serviços o mais breve possível."
)

// SummaryParts is the executive summary in markdown-lite: **bold**, *em*,
// ##highlight## and "- " list items.
type SummaryParts struct {
	Title                string   `json:"title"`
	Greeting             string   `json:"greeting"`
	Intro                string   `json:"intro"`
	OverviewTitle        string   `json:"overviewTitle"`
	OverviewItems        []string `json:"overviewItems"`
	ProblemIntro         string   `json:"problemIntro"`
	IncidentDetailsTitle string   `json:"incidentDetailsTitle,omitempty"`
	IncidentDetails      []string `json:"incidentDetails,omitempty"`
	ConclusionTitle      string   `json:"conclusionTitle,omitempty"`
	Conclusion           string   `json:"conclusion"`
	Signature            string   `json:"signature"`
}

// HasIncidents reports whether the problems branch was taken.
func (p SummaryParts) HasIncidents() bool {
	return p.IncidentDetailsTitle != ""
}

func summarize(s Stats, divisions int) SummaryParts {
	parts := SummaryParts{
		Title:         "📝 **Relatório Executivo de Status das Câmeras**",
		Greeting:      "Prezados Gestores,",
		Intro:         "Este relatório sumariza a condição atual do nosso sistema de vigilância:",
		OverviewTitle: "**Visão Geral:**",
		Signature:     DefaultSignature,
	}
	t := s.Totals

	fleet := fmt.Sprintf("- Nosso sistema de vigilância atualmente monitora **%d Divisões/Áreas**, com um total de **%d Gravadores NVR/DVR** e **%d câmeras** instaladas.", divisions, t.Devices, t.Channels)
	available := fmt.Sprintf("- Existem **%d canais disponíveis** em nossos dispositivos para futuras expansões.", t.AvailableChannels)

	if t.Problems == 0 {
		parts.OverviewItems = []string{
			fleet,
			fmt.Sprintf("- Todos os **%d canais** estão **operando normalmente (Online)**.", t.Channels),
		}
		if t.AvailableChannels > 0 {
			parts.OverviewItems = append(parts.OverviewItems, available)
		}
		parts.ProblemIntro = "Nenhuma falha foi detectada, garantindo 100% de cobertura e segurança em nossas instalações."
		return parts
	}

	parts.OverviewItems = []string{
		fleet,
		fmt.Sprintf("- Do total de câmeras, **%d** estão **operando normalmente (Online)**.", t.Online),
	}
	if t.Offline > 0 {
		parts.OverviewItems = append(parts.OverviewItems, fmt.Sprintf("- Foram identificadas ##%d câmeras Offline##, que requerem atenção imediata.", t.Offline))
	}
	if t.AvailableChannels > 0 {
		parts.OverviewItems = append(parts.OverviewItems, available)
	}

	parts.ProblemIntro = fmt.Sprintf("Identificamos um total de %d canais que requerem atenção. As equipes responsáveis já foram acionadas conforme as necessidades específicas de cada incidente.", t.Problems)
	parts.IncidentDetailsTitle = "**Detalhes dos Incidentes:**"
	parts.IncidentDetails = make([]string, 0, len(s.ProblemChannels))
	for _, p := range s.ProblemChannels {
		parts.IncidentDetails = append(parts.IncidentDetails, IncidentLine(p))
	}
	parts.ConclusionTitle = "**Conclusão:**"
	parts.Conclusion = DefaultConclusion
	return parts
}
