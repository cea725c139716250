// Package layout edits division floor plans: camera markers placed on a
// background image, and the background itself.
package layout

import (
	"github.com/denissonlm/AcoCameras/internal/model"
)

// RotationStep is how far one Rotate turns a marker.
const RotationStep = 45

// Editor applies edits to a working copy of a layout. Every method reports
// whether it changed anything; an edit that changes nothing is not an error.
type Editor struct {
	layout model.DivisionLayout
}

func NewEditor(l model.DivisionLayout) *Editor {
	l = l.Clone()
	if l.PlacedCameras == nil {
		l.PlacedCameras = []model.PlacedCamera{}
	}
	return &Editor{layout: l}
}

// Layout returns a copy of the working layout.
func (e *Editor) Layout() model.DivisionLayout {
	return e.layout.Clone()
}

func (e *Editor) index(channelID int64) int {
	for i, pc := range e.layout.PlacedCameras {
		if pc.ChannelID == channelID {
			return i
		}
	}
	return -1
}

// Place drops a channel at p. A channel already on the layout stays where it
// is.
func (e *Editor) Place(deviceID, channelID int64, p Point) bool {
	if channelID <= 0 || e.index(channelID) >= 0 {
		return false
	}
	p = Clamp(p)
	e.layout.PlacedCameras = append(e.layout.PlacedCameras, model.PlacedCamera{
		ChannelID: channelID,
		DeviceID:  deviceID,
		X:         p.X,
		Y:         p.Y,
	})
	return true
}

// Move repositions a placed channel, clamping p into the canvas.
func (e *Editor) Move(channelID int64, p Point) bool {
	i := e.index(channelID)
	if i < 0 {
		return false
	}
	p = Clamp(p)
	pc := &e.layout.PlacedCameras[i]
	if pc.X == p.X && pc.Y == p.Y {
		return false
	}
	pc.X, pc.Y = p.X, p.Y
	return true
}

func (e *Editor) Rotate(channelID int64) bool {
	i := e.index(channelID)
	if i < 0 {
		return false
	}
	pc := &e.layout.PlacedCameras[i]
	pc.Rotation = normalizeDegrees(pc.Rotation + RotationStep)
	return true
}

func (e *Editor) Flip(channelID int64) bool {
	i := e.index(channelID)
	if i < 0 {
		return false
	}
	pc := &e.layout.PlacedCameras[i]
	pc.Flipped = !pc.Flipped
	return true
}

func (e *Editor) Remove(channelID int64) bool {
	i := e.index(channelID)
	if i < 0 {
		return false
	}
	e.layout.PlacedCameras = append(e.layout.PlacedCameras[:i], e.layout.PlacedCameras[i+1:]...)
	return true
}

// RotateBackground turns the background by +90 or -90 degrees.
func (e *Editor) RotateBackground(degrees int) (bool, error) {
	if degrees != 90 && degrees != -90 {
		return false, ErrBadRotation
	}
	if e.layout.IsLocked() {
		return false, ErrLocked
	}
	e.layout.BackgroundRotation = normalizeDegrees(e.layout.BackgroundRotation + degrees)
	return true, nil
}

func (e *Editor) ResetBackgroundRotation() (bool, error) {
	if e.layout.IsLocked() {
		return false, ErrLocked
	}
	if e.layout.BackgroundRotation == 0 {
		return false, nil
	}
	e.layout.BackgroundRotation = 0
	return true, nil
}

// CanReplaceBackground is false while markers sit on an existing image. A
// first image may be added over markers placed on the empty canvas.
func (e *Editor) CanReplaceBackground() bool {
	return !(e.layout.IsLocked() && e.layout.HasBackground())
}

// ReplaceBackground points the layout at a new image, which resets the
// rotation and drops every marker.
func (e *Editor) ReplaceBackground(url string) error {
	if !e.CanReplaceBackground() {
		return ErrLocked
	}
	e.layout.BackgroundImageURL = &url
	e.layout.BackgroundRotation = 0
	e.layout.PlacedCameras = []model.PlacedCamera{}
	return nil
}
