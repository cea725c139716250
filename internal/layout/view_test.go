package layout

import (
	"testing"

	"github.com/denissonlm/AcoCameras/internal/model"
	"github.com/denissonlm/AcoCameras/internal/snapshot"
)

func TestBuildView(t *testing.T) {
	url := "http://localhost/blobs/layouts/public/a.png"
	snap := snapshot.Assemble(
		[]model.Division{{ID: 1, Name: "Matriz"}, {ID: 2, Name: "Filial"}},
		[]model.Device{
			{ID: 10, Name: "NVR 1", DivisionID: 1, ChannelCount: 16},
			{ID: 20, Name: "NVR 2", DivisionID: 2, ChannelCount: 16},
		},
		[]model.Channel{
			{ID: 100, DeviceID: 10, Name: "Cam 10", Status: model.StatusOnline},
			{ID: 101, DeviceID: 10, Name: "Cam 2", Status: model.StatusOffline},
			{ID: 200, DeviceID: 20, Name: "Cam 1", Status: model.StatusOnline},
		},
		[]model.DivisionLayout{{
			ID: 5, DivisionID: 1, BackgroundImageURL: &url,
			PlacedCameras: []model.PlacedCamera{
				{ChannelID: 101, DeviceID: 10, X: 20, Y: 30},
				{ChannelID: 999, DeviceID: 10, X: 50, Y: 50},
			},
		}},
	)

	v := BuildView(snap, 1)
	if !v.Locked || v.CanReplaceBackground {
		t.Errorf("locked = %v, canReplace = %v", v.Locked, v.CanReplaceBackground)
	}
	if len(v.Markers) != 1 || v.Markers[0].ChannelName != "Cam 2" || v.Markers[0].Status != model.StatusOffline {
		t.Errorf("markers = %+v", v.Markers)
	}
	if len(v.Devices) != 1 || v.Devices[0].ID != 10 {
		t.Fatalf("devices = %+v", v.Devices)
	}
	chans := v.Devices[0].Channels
	if len(chans) != 2 || chans[0].Name != "Cam 2" || !chans[0].Placed || chans[1].Placed {
		t.Errorf("sidebar channels = %+v", chans)
	}
}

func TestBuildViewSkipsMarkersOfMovedDevice(t *testing.T) {
	snap := snapshot.Assemble(
		[]model.Division{{ID: 1, Name: "Matriz"}, {ID: 2, Name: "Filial"}},
		[]model.Device{{ID: 20, Name: "NVR 2", DivisionID: 2, ChannelCount: 16}},
		[]model.Channel{{ID: 200, DeviceID: 20, Name: "Cam 1", Status: model.StatusOnline}},
		[]model.DivisionLayout{{
			ID: 5, DivisionID: 1,
			PlacedCameras: []model.PlacedCamera{{ChannelID: 200, DeviceID: 20, X: 10, Y: 10}},
		}},
	)
	if v := BuildView(snap, 1); len(v.Markers) != 0 {
		t.Errorf("markers on the old division = %+v, want none", v.Markers)
	}
}

func TestBuildViewDefaultLayout(t *testing.T) {
	snap := snapshot.Assemble([]model.Division{{ID: 3, Name: "Obras"}}, nil, nil, nil)
	v := BuildView(snap, 3)
	if v.Layout.Persisted() || v.Layout.BackgroundImageURL != nil || v.Locked {
		t.Errorf("view = %+v", v)
	}
	if !v.CanReplaceBackground || v.Markers == nil || v.Devices == nil {
		t.Errorf("view = %+v", v)
	}
}

func TestNaturalLess(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"Cam 2", "Cam 10", true},
		{"Cam 10", "Cam 2", false},
		{"Cam", "Cam 1", true},
		{"Doca", "Cam 1", false},
		{"Cam 02", "Cam 2", false},
	}
	for _, tc := range cases {
		if got := naturalLess(tc.a, tc.b); got != tc.want {
			t.Errorf("naturalLess(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
