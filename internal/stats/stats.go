// Package stats derives chart rollups, totals and the executive summary from
// the device and division collections. Everything here is a pure function of
// its inputs.
package stats

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/denissonlm/AcoCameras/internal/model"
)

type ChartEntry struct {
	ID    int64  `json:"id,omitempty"`
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type DeviceStats struct {
	Total int `json:"total"`
	NVR   int `json:"nvr"`
	DVR   int `json:"dvr"`
}

type Totals struct {
	Devices           int `json:"devices"`
	Channels          int `json:"channels"`
	Online            int `json:"online"`
	Offline           int `json:"offline"`
	Problems          int `json:"problems"`
	AvailableChannels int `json:"availableChannels"`
}

// ProblemChannel is a channel that is not Online, with the name of its device.
type ProblemChannel struct {
	model.Channel
	DeviceName string `json:"device_name"`
}

// DivisionCoverage is the share of a division's channels that are online.
type DivisionCoverage struct {
	DivisionID int64   `json:"division_id"`
	Name       string  `json:"name"`
	Channels   int     `json:"channels"`
	Online     int     `json:"online"`
	Percent    float64 `json:"percent"`
}

// Coverage spreads online percentages across divisions that have channels.
type Coverage struct {
	Divisions []DivisionCoverage `json:"divisions"`
	Mean      float64            `json:"mean"`
	StdDev    float64            `json:"stddev"`
}

type Stats struct {
	StatusCounts      map[model.ChannelStatus]int `json:"statusCounts"`
	ActionCounts      map[model.ActionType]int    `json:"actionCounts"`
	StatusChartData   []ChartEntry                `json:"statusChartData"`
	ActionChartData   []ChartEntry                `json:"actionChartData"`
	DivisionChartData []ChartEntry                `json:"divisionChartData"`
	DeviceStats       DeviceStats                 `json:"deviceStats"`
	Totals            Totals                      `json:"totals"`
	ProblemChannels   []ProblemChannel            `json:"problemChannels"`
	Coverage          Coverage                    `json:"coverage"`
	Summary           SummaryParts                `json:"summaryParts"`
}

// Compute never fails: empty inputs give zero totals and empty charts.
func Compute(devices []model.Device, divisions []model.Division) Stats {
	s := Stats{
		StatusCounts:    map[model.ChannelStatus]int{},
		ActionCounts:    map[model.ActionType]int{},
		ProblemChannels: []ProblemChannel{},
	}

	for _, d := range devices {
		switch d.Type {
		case model.DeviceNVR:
			s.DeviceStats.NVR++
		case model.DeviceDVR:
			s.DeviceStats.DVR++
		}
		s.Totals.AvailableChannels += d.AvailableChannels()

		for _, c := range d.Channels {
			s.Totals.Channels++
			if c.Status.Valid() {
				s.StatusCounts[c.Status]++
			}
			if c.Status == model.StatusOnline {
				continue
			}
			s.ProblemChannels = append(s.ProblemChannels, ProblemChannel{Channel: c, DeviceName: d.Name})
			if c.ActionTaken != "" {
				s.ActionCounts[c.ActionTaken]++
			}
		}
	}

	s.DeviceStats.Total = len(devices)
	s.Totals.Devices = len(devices)
	s.Totals.Online = s.StatusCounts[model.StatusOnline]
	s.Totals.Offline = s.StatusCounts[model.StatusOffline]
	s.Totals.Problems = len(s.ProblemChannels)

	s.StatusChartData = chartByName(s.StatusCounts)
	s.ActionChartData = chartByName(s.ActionCounts)
	s.DivisionChartData = divisionChart(devices, divisions)
	s.Coverage = coverage(devices, divisions)
	s.Summary = summarize(s, len(divisions))
	return s
}

func chartByName[K ~string](counts map[K]int) []ChartEntry {
	out := make([]ChartEntry, 0, len(counts))
	for name, value := range counts {
		out = append(out, ChartEntry{Name: string(name), Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// divisionChart sums channels per division, drops empty divisions and sorts
// by value descending. Ties are broken by name, then id.
func divisionChart(devices []model.Device, divisions []model.Division) []ChartEntry {
	perDivision := make(map[int64]int, len(divisions))
	for _, d := range devices {
		perDivision[d.DivisionID] += len(d.Channels)
	}

	out := []ChartEntry{}
	for _, div := range divisions {
		if v := perDivision[div.ID]; v > 0 {
			out = append(out, ChartEntry{ID: div.ID, Name: div.Name, Value: v})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func coverage(devices []model.Device, divisions []model.Division) Coverage {
	type tally struct{ channels, online int }
	perDivision := make(map[int64]*tally, len(divisions))
	for _, d := range devices {
		t := perDivision[d.DivisionID]
		if t == nil {
			t = &tally{}
			perDivision[d.DivisionID] = t
		}
		for _, c := range d.Channels {
			t.channels++
			if c.Status == model.StatusOnline {
				t.online++
			}
		}
	}

	cov := Coverage{Divisions: []DivisionCoverage{}}
	var percents []float64
	for _, div := range divisions {
		t := perDivision[div.ID]
		if t == nil || t.channels == 0 {
			continue
		}
		pct := float64(t.online) / float64(t.channels) * 100
		cov.Divisions = append(cov.Divisions, DivisionCoverage{
			DivisionID: div.ID,
			Name:       div.Name,
			Channels:   t.channels,
			Online:     t.online,
			Percent:    pct,
		})
		percents = append(percents, pct)
	}

	switch len(percents) {
	case 0:
	case 1:
		cov.Mean = percents[0]
	default:
		cov.Mean, cov.StdDev = stat.MeanStdDev(percents, nil)
	}
	return cov
}

// IncidentLine is the summary bullet for one problem channel.
func IncidentLine(p ProblemChannel) string {
	action := string(p.ActionTaken)
	if action == "" {
		action = "Pendente de análise"
	}
	return fmt.Sprintf("- **Dispositivo %s (Canal: %s)**: Status %s. Ação registrada: *%s*.", p.DeviceName, p.Name, p.Status, action)
}
