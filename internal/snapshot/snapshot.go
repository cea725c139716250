// Package snapshot holds the in-memory copy of divisions, devices with their
// channels, and layouts that every dashboard view is derived from.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/denissonlm/AcoCameras/internal/gateway"
	"github.com/denissonlm/AcoCameras/internal/metrics"
	"github.com/denissonlm/AcoCameras/internal/model"
)

type Reader interface {
	ListDivisions(ctx context.Context) ([]model.Division, error)
	ListDevices(ctx context.Context) ([]model.Device, error)
	ListChannels(ctx context.Context) ([]model.Channel, error)
	ListLayouts(ctx context.Context) ([]model.DivisionLayout, error)
}

// Snapshot is an immutable view of the store. Callers must not modify the
// slices it exposes.
type Snapshot struct {
	Divisions []model.Division       `json:"divisions"`
	Devices   []model.Device         `json:"devices"`
	Layouts   []model.DivisionLayout `json:"layouts"`
	LoadedAt  time.Time              `json:"loaded_at"`

	channels []model.Channel
}

// Assemble nests channels under their devices, ordered by name. Channels whose
// device is unknown are left out.
func Assemble(divisions []model.Division, devices []model.Device, channels []model.Channel, layouts []model.DivisionLayout) Snapshot {
	byDevice := make(map[int64][]model.Channel, len(devices))
	for _, c := range channels {
		byDevice[c.DeviceID] = append(byDevice[c.DeviceID], c)
	}

	nested := make([]model.Device, len(devices))
	for i, d := range devices {
		chans := byDevice[d.ID]
		sort.SliceStable(chans, func(a, b int) bool {
			if chans[a].Name != chans[b].Name {
				return chans[a].Name < chans[b].Name
			}
			return chans[a].ID < chans[b].ID
		})
		if chans == nil {
			chans = []model.Channel{}
		}
		d.Channels = chans
		nested[i] = d
	}

	if divisions == nil {
		divisions = []model.Division{}
	}
	if layouts == nil {
		layouts = []model.DivisionLayout{}
	}
	return Snapshot{
		Divisions: divisions,
		Devices:   nested,
		Layouts:   layouts,
		channels:  channels,
	}
}

func (s Snapshot) Division(id int64) (model.Division, bool) {
	for _, d := range s.Divisions {
		if d.ID == id {
			return d, true
		}
	}
	return model.Division{}, false
}

// DivisionByName matches names exactly.
func (s Snapshot) DivisionByName(name string) (model.Division, bool) {
	for _, d := range s.Divisions {
		if d.Name == name {
			return d, true
		}
	}
	return model.Division{}, false
}

func (s Snapshot) Device(id int64) (model.Device, bool) {
	for _, d := range s.Devices {
		if d.ID == id {
			return d, true
		}
	}
	return model.Device{}, false
}

// Channel returns the channel together with its owning device.
func (s Snapshot) Channel(id int64) (model.Channel, model.Device, bool) {
	for _, d := range s.Devices {
		for _, c := range d.Channels {
			if c.ID == id {
				return c, d, true
			}
		}
	}
	return model.Channel{}, model.Device{}, false
}

// DevicesInDivision counts devices referencing the division.
func (s Snapshot) DevicesInDivision(divisionID int64) int {
	n := 0
	for _, d := range s.Devices {
		if d.DivisionID == divisionID {
			n++
		}
	}
	return n
}

// Layout returns the division's layout, or a synthesized empty one when no
// row exists yet. The result is a copy.
func (s Snapshot) Layout(divisionID int64) model.DivisionLayout {
	for _, l := range s.Layouts {
		if l.DivisionID == divisionID {
			return l.Clone()
		}
	}
	return model.DefaultLayout(divisionID)
}

// Cache owns the current snapshot. Only Refresh replaces it.
type Cache struct {
	reader Reader

	mu      sync.RWMutex
	snap    Snapshot
	applied uint64
	tickets uint64
}

func New(reader Reader) *Cache {
	return &Cache{reader: reader, snap: Assemble(nil, nil, nil, nil)}
}

func (c *Cache) Current() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Refresh re-reads every table. A table that fails to load keeps its previous
// contents (empty on first load) and the failures are returned joined. When
// refreshes overlap, the one started last wins.
func (c *Cache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.tickets++
	ticket := c.tickets
	prev := c.snap
	c.mu.Unlock()

	start := time.Now()
	var errs []error

	divisions, err := c.reader.ListDivisions(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("load divisions: %w", err))
		divisions = prev.Divisions
	}
	devices, err := c.reader.ListDevices(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("load devices: %w", err))
		devices = stripChannels(prev.Devices)
	}
	channels, err := c.reader.ListChannels(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("load channels: %w", err))
		channels = prev.channels
	}
	layouts, err := c.reader.ListLayouts(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("load layouts: %w", err))
		layouts = prev.Layouts
	}

	next := Assemble(divisions, devices, channels, layouts)
	next.LoadedAt = time.Now()
	joined := errors.Join(errs...)

	c.mu.Lock()
	stale := ticket < c.applied
	if !stale {
		c.snap = next
		c.applied = ticket
	}
	c.mu.Unlock()

	metrics.RecordRefresh(time.Since(start), joined, stale)
	if joined != nil {
		slog.Error("snapshot refresh", "error", joined)
	}
	return joined
}

func stripChannels(devices []model.Device) []model.Device {
	out := make([]model.Device, len(devices))
	for i, d := range devices {
		d.Channels = nil
		out[i] = d
	}
	return out
}

// Watch refreshes on every change until ctx is done or the feed closes. A
// closed feed leaves manual refresh as the only way to resync.
func (c *Cache) Watch(ctx context.Context, feed <-chan gateway.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-feed:
			if !ok {
				slog.Warn("change feed lost, only manual refresh remains")
				return
			}
			slog.Debug("change received", "table", change.Table, "event", change.Event, "id", change.ID)
			c.Refresh(ctx)
		}
	}
}
