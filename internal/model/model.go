package model

import (
	"time"

	"github.com/goccy/go-json"
)

type ChannelStatus string

const (
	StatusOnline  ChannelStatus = "Online"
	StatusOffline ChannelStatus = "Offline"
)

func (s ChannelStatus) Valid() bool {
	return s == StatusOnline || s == StatusOffline
}

// MarshalJSON encodes the empty status as null.
func (s ChannelStatus) MarshalJSON() ([]byte, error) {
	return marshalNullable(string(s))
}

func (s *ChannelStatus) UnmarshalJSON(b []byte) error {
	v, err := unmarshalNullable(b)
	*s = ChannelStatus(v)
	return err
}

type DeviceType string

const (
	DeviceNVR DeviceType = "NVR"
	DeviceDVR DeviceType = "DVR"
)

func (t DeviceType) Valid() bool {
	return t == DeviceNVR || t == DeviceDVR
}

// ActionType is the corrective action registered against an offline channel.
type ActionType string

const (
	ActionPurchase   ActionType = "Requisição de Compras"
	ActionWorks      ActionType = "Chamado para Obras"
	ActionInspection ActionType = "Relatório de Inspeção (RIF)"
)

var Actions = []ActionType{ActionPurchase, ActionWorks, ActionInspection}

func (a ActionType) Valid() bool {
	for _, v := range Actions {
		if a == v {
			return true
		}
	}
	return false
}

// MarshalJSON encodes the empty action as null.
func (a ActionType) MarshalJSON() ([]byte, error) {
	return marshalNullable(string(a))
}

func (a *ActionType) UnmarshalJSON(b []byte) error {
	v, err := unmarshalNullable(b)
	*a = ActionType(v)
	return err
}

// Allowed channel capacities for a recorder.
const (
	Capacity16 = 16
	Capacity32 = 32
)

type Division struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Device struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Location     string     `json:"location"`
	Type         DeviceType `json:"type"`
	DivisionID   int64      `json:"division_id"`
	ChannelCount int        `json:"channel_count"`
	CreatedAt    time.Time  `json:"created_at"`
	Channels     []Channel  `json:"channels"`
}

// AvailableChannels is the unused capacity, never below zero even when more
// channels exist than the device declares.
func (d Device) AvailableChannels() int {
	if free := d.ChannelCount - len(d.Channels); free > 0 {
		return free
	}
	return 0
}

func (d Device) IsFull() bool {
	return len(d.Channels) >= d.ChannelCount
}

type Channel struct {
	ID          int64         `json:"id"`
	DeviceID    int64         `json:"device_id"`
	Name        string        `json:"name"`
	Status      ChannelStatus `json:"status"`
	ActionTaken ActionType    `json:"action_taken"`
	ActionNotes *string       `json:"action_notes"`
	CreatedAt   time.Time     `json:"created_at"`
}

type ChannelLog struct {
	ID          int64         `json:"id"`
	ChannelID   int64         `json:"channel_id"`
	LogEntry    string        `json:"log_entry"`
	NewStatus   ChannelStatus `json:"new_status"`
	ActionTaken ActionType    `json:"action_taken"`
	CreatedAt   time.Time     `json:"created_at"`
}

// IsSystemEvent reports whether the entry was written by a status change or a
// registered action rather than typed by an operator.
func (l ChannelLog) IsSystemEvent() bool {
	return l.NewStatus != "" || l.ActionTaken != ""
}

// PlacedCamera is a channel marker on a floor plan. X and Y are percentages
// of the canvas size so markers survive canvas resizes.
type PlacedCamera struct {
	ChannelID int64   `json:"channelId"`
	DeviceID  int64   `json:"deviceId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Rotation  int     `json:"rotation"`
	Flipped   bool    `json:"flipped"`
}

// DivisionLayout is the floor plan of a division. A layout that was never
// stored has ID 0.
//
// A layout is locked while it has placements: coordinates were captured
// against the current image and orientation, so the background can be neither
// replaced nor rotated until every marker is removed.
type DivisionLayout struct {
	ID                 int64          `json:"id"`
	DivisionID         int64          `json:"division_id"`
	BackgroundImageURL *string        `json:"background_image_url"`
	BackgroundRotation int            `json:"background_rotation"`
	PlacedCameras      []PlacedCamera `json:"placed_cameras"`
	CreatedAt          time.Time      `json:"created_at"`
}

// DefaultLayout is the synthesized empty layout for a division with no row.
func DefaultLayout(divisionID int64) DivisionLayout {
	return DivisionLayout{
		DivisionID:    divisionID,
		PlacedCameras: []PlacedCamera{},
	}
}

func (l DivisionLayout) IsLocked() bool {
	return len(l.PlacedCameras) > 0
}

func (l DivisionLayout) Persisted() bool {
	return l.ID != 0
}

func (l DivisionLayout) HasBackground() bool {
	return l.BackgroundImageURL != nil && *l.BackgroundImageURL != ""
}

// Placement returns the marker for channelID, if any.
func (l DivisionLayout) Placement(channelID int64) (PlacedCamera, bool) {
	for _, pc := range l.PlacedCameras {
		if pc.ChannelID == channelID {
			return pc, true
		}
	}
	return PlacedCamera{}, false
}

// Clone returns a copy that shares no slices or pointers with l.
func (l DivisionLayout) Clone() DivisionLayout {
	c := l
	c.PlacedCameras = make([]PlacedCamera, len(l.PlacedCameras))
	copy(c.PlacedCameras, l.PlacedCameras)
	if l.BackgroundImageURL != nil {
		u := *l.BackgroundImageURL
		c.BackgroundImageURL = &u
	}
	return c
}

func marshalNullable(s string) ([]byte, error) {
	if s == "" {
		return []byte("null"), nil
	}
	return json.Marshal(s)
}

func unmarshalNullable(b []byte) (string, error) {
	if string(b) == "null" {
		return "", nil
	}
	var s string
	err := json.Unmarshal(b, &s)
	return s, err
}
