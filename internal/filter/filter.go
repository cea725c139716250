// Package filter coordinates the three dashboard filters (status, division,
// corrective action) and derives the visible devices from them.
package filter

import (
	"errors"
	"fmt"

	"github.com/denissonlm/AcoCameras/internal/model"
)

// State holds the active filters. The zero value shows everything.
//
// Choosing a status or a division clears the other two filters. Choosing an
// action forces the status to Offline and clears the division. Choosing the
// value that is already active clears that filter only.
type State struct {
	Status     model.ChannelStatus `json:"status,omitempty"`
	DivisionID int64               `json:"division,omitempty"`
	Action     model.ActionType    `json:"action,omitempty"`
}

func (s State) IsZero() bool {
	return s == State{}
}

func (s State) ToggleStatus(status model.ChannelStatus) State {
	if status == "" || status == s.Status {
		s.Status = ""
		return s
	}
	return State{Status: status}
}

func (s State) ToggleDivision(divisionID int64) State {
	if divisionID == 0 || divisionID == s.DivisionID {
		s.DivisionID = 0
		return s
	}
	return State{DivisionID: divisionID}
}

func (s State) ToggleAction(action model.ActionType) State {
	if action == "" || action == s.Action {
		s.Action = ""
		return s
	}
	return State{Status: model.StatusOffline, Action: action}
}

func (s State) Clear() State {
	return State{}
}

// ErrUnreachable rejects combinations no sequence of selections produces: a
// division alongside another filter, or an action with the Online status.
var ErrUnreachable = errors.New("combinação de filtros inválida")

// Reachable reports whether s can result from selections starting at the
// zero state.
func (s State) Reachable() bool {
	if s.DivisionID != 0 {
		return s.Status == "" && s.Action == ""
	}
	if s.Action != "" {
		return s.Status == "" || s.Status == model.StatusOffline
	}
	return true
}

// Validate rejects statuses and actions outside the known sets and states
// the selections cannot produce.
func (s State) Validate() error {
	if s.Status != "" && !s.Status.Valid() {
		return fmt.Errorf("status de filtro inválido: %q", s.Status)
	}
	if s.Action != "" && !s.Action.Valid() {
		return fmt.Errorf("ação de filtro inválida: %q", s.Action)
	}
	if s.DivisionID < 0 {
		return errors.New("divisão de filtro inválida")
	}
	if !s.Reachable() {
		return ErrUnreachable
	}
	return nil
}

// Apply returns the devices visible under s. Without a status or action
// filter devices are returned unchanged, empty ones included. Otherwise each
// device is copied with only its matching channels and devices left with no
// channels are dropped. The input is never modified.
func (s State) Apply(devices []model.Device) []model.Device {
	out := make([]model.Device, 0, len(devices))
	for _, d := range devices {
		if s.DivisionID != 0 && d.DivisionID != s.DivisionID {
			continue
		}
		if s.Status == "" && s.Action == "" {
			out = append(out, d)
			continue
		}
		var kept []model.Channel
		for _, c := range d.Channels {
			if s.Status != "" && c.Status != s.Status {
				continue
			}
			if s.Action != "" && c.ActionTaken != s.Action {
				continue
			}
			kept = append(kept, c)
		}
		if len(kept) == 0 {
			continue
		}
		d.Channels = kept
		out = append(out, d)
	}
	return out
}

// ActiveName labels the filter for display: the division name, then
// "Ação: <action>", then the status. Empty when nothing labels.
func (s State) ActiveName(divisions []model.Division) string {
	if s.DivisionID != 0 {
		for _, d := range divisions {
			if d.ID == s.DivisionID {
				return d.Name
			}
		}
		return ""
	}
	if s.Action != "" {
		return "Ação: " + string(s.Action)
	}
	return string(s.Status)
}

// Dimension names a filter in a Transition.
type Dimension string

const (
	DimStatus   Dimension = "status"
	DimDivision Dimension = "division"
	DimAction   Dimension = "action"
	DimClear    Dimension = "clear"
)

// Transition is one filter selection as sent by a client.
type Transition struct {
	Dimension  Dimension           `json:"dimension" validate:"required,oneof=status division action clear"`
	Status     model.ChannelStatus `json:"status,omitempty"`
	DivisionID int64               `json:"division,omitempty"`
	Action     model.ActionType    `json:"action,omitempty"`
}

var ErrUnknownDimension = errors.New("filter: unknown dimension")

// Next applies t to s.
func (s State) Next(t Transition) (State, error) {
	var next State
	switch t.Dimension {
	case DimStatus:
		next = s.ToggleStatus(t.Status)
	case DimDivision:
		next = s.ToggleDivision(t.DivisionID)
	case DimAction:
		next = s.ToggleAction(t.Action)
	case DimClear:
		next = s.Clear()
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownDimension, t.Dimension)
	}
	if err := next.Validate(); err != nil {
		return s, err
	}
	return next, nil
}
