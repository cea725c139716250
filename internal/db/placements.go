package db

import (
	"math"

	"github.com/goccy/go-json"

	"github.com/denissonlm/AcoCameras/internal/model"
)

type storedPlacement struct {
	ChannelID *float64 `json:"channelId"`
	DeviceID  *float64 `json:"deviceId"`
	X         *float64 `json:"x"`
	Y         *float64 `json:"y"`
	Rotation  *float64 `json:"rotation"`
	Flipped   *bool    `json:"flipped"`
}

// DecodePlacements reads the placed_cameras column. The column is free-form
// JSON, so anything that is not an array yields no placements, entries without
// a usable channelId are dropped, duplicates keep the first entry, and
// coordinates and rotation are coerced into range.
func DecodePlacements(raw string) []model.PlacedCamera {
	out := []model.PlacedCamera{}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return out
	}

	seen := make(map[int64]bool, len(items))
	for _, item := range items {
		var sp storedPlacement
		if err := json.Unmarshal(item, &sp); err != nil {
			continue
		}
		if sp.ChannelID == nil {
			continue
		}
		channelID, ok := storedID(*sp.ChannelID)
		if !ok {
			continue
		}
		if seen[channelID] {
			continue
		}
		seen[channelID] = true

		pc := model.PlacedCamera{ChannelID: channelID}
		if sp.DeviceID != nil {
			pc.DeviceID, _ = storedID(*sp.DeviceID)
		}
		if sp.X != nil {
			pc.X = clampPercent(*sp.X)
		}
		if sp.Y != nil {
			pc.Y = clampPercent(*sp.Y)
		}
		if sp.Rotation != nil && !math.IsNaN(*sp.Rotation) && !math.IsInf(*sp.Rotation, 0) {
			pc.Rotation = normalizeDegrees(int(math.Mod(*sp.Rotation, 360)))
		}
		if sp.Flipped != nil {
			pc.Flipped = *sp.Flipped
		}
		out = append(out, pc)
	}
	return out
}

// maxStoredID is the largest integer a JSON number holds exactly.
const maxStoredID = 1 << 53

// storedID accepts positive whole numbers that convert to int64 exactly.
func storedID(v float64) (int64, bool) {
	if !(v > 0) || v > maxStoredID || v != math.Trunc(v) {
		return 0, false
	}
	return int64(v), true
}

func EncodePlacements(placed []model.PlacedCamera) (string, error) {
	if placed == nil {
		placed = []model.PlacedCamera{}
	}
	b, err := json.Marshal(placed)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func clampPercent(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

func normalizeDegrees(d int) int {
	return ((d % 360) + 360) % 360
}
