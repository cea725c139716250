package layout

import (
	"sort"
	"strconv"

	"github.com/denissonlm/AcoCameras/internal/model"
	"github.com/denissonlm/AcoCameras/internal/snapshot"
)

// Marker is a placement joined with the channel it shows.
type Marker struct {
	model.PlacedCamera
	ChannelName string              `json:"channelName"`
	DeviceName  string              `json:"deviceName"`
	Status      model.ChannelStatus `json:"status"`
}

type SidebarChannel struct {
	ID     int64               `json:"id"`
	Name   string              `json:"name"`
	Status model.ChannelStatus `json:"status"`
	Placed bool                `json:"placed"`
}

type SidebarDevice struct {
	ID       int64            `json:"id"`
	Name     string           `json:"name"`
	Channels []SidebarChannel `json:"channels"`
}

// View is what the floor-plan editor renders for one division.
type View struct {
	Layout               model.DivisionLayout `json:"layout"`
	Locked               bool                 `json:"locked"`
	CanReplaceBackground bool                 `json:"canReplaceBackground"`
	Markers              []Marker             `json:"markers"`
	Devices              []SidebarDevice      `json:"devices"`
}

// BuildView joins the division's layout with the snapshot. Placements whose
// channel no longer exists, or whose device now belongs to another division,
// are not rendered.
func BuildView(snap snapshot.Snapshot, divisionID int64) View {
	l := snap.Layout(divisionID)
	ed := NewEditor(l)
	v := View{
		Layout:               l,
		Locked:               l.IsLocked(),
		CanReplaceBackground: ed.CanReplaceBackground(),
		Markers:              make([]Marker, 0, len(l.PlacedCameras)),
		Devices:              []SidebarDevice{},
	}
	for _, pc := range l.PlacedCameras {
		ch, dev, ok := snap.Channel(pc.ChannelID)
		if !ok || dev.DivisionID != divisionID {
			continue
		}
		v.Markers = append(v.Markers, Marker{PlacedCamera: pc, ChannelName: ch.Name, DeviceName: dev.Name, Status: ch.Status})
	}

	for _, d := range snap.Devices {
		if d.DivisionID != divisionID {
			continue
		}
		sd := SidebarDevice{ID: d.ID, Name: d.Name, Channels: make([]SidebarChannel, 0, len(d.Channels))}
		for _, c := range d.Channels {
			_, placed := l.Placement(c.ID)
			sd.Channels = append(sd.Channels, SidebarChannel{ID: c.ID, Name: c.Name, Status: c.Status, Placed: placed})
		}
		sort.SliceStable(sd.Channels, func(i, j int) bool {
			return naturalLess(sd.Channels[i].Name, sd.Channels[j].Name)
		})
		v.Devices = append(v.Devices, sd)
	}
	return v
}

// naturalLess orders names with digit runs compared by value, so "Cam 2"
// sorts before "Cam 10".
func naturalLess(a, b string) bool {
	for a != "" && b != "" {
		da, db := digitPrefix(a), digitPrefix(b)
		if da != "" && db != "" {
			na, _ := strconv.ParseUint(da, 10, 64)
			nb, _ := strconv.ParseUint(db, 10, 64)
			if na != nb {
				return na < nb
			}
			a, b = a[len(da):], b[len(db):]
			continue
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func digitPrefix(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i]
}
