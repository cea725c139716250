// Package gateway is the relational store behind the dashboard: table CRUD
// over sqlite, a write policy and a row change feed.
package gateway

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/goccy/go-json"

	"github.com/denissonlm/AcoCameras/internal/db"
	"github.com/denissonlm/AcoCameras/internal/model"
	"github.com/denissonlm/AcoCameras/internal/sse"
)

// Topic is the hub topic row changes are published on.
const Topic = "changes"

// Table names carried by Change.
const (
	TableDivisions   = "divisions"
	TableDevices     = "devices"
	TableChannels    = "channels"
	TableChannelLogs = "channel_logs"
	TableLayouts     = "layouts"
)

var AllTables = []string{TableDivisions, TableDevices, TableChannels, TableChannelLogs, TableLayouts}

// Change events.
const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// ErrReadOnly rejects writes when the store is configured read-only. The
// message matches what a row-level policy denial reports.
var ErrReadOnly = errors.New("permission denied: store is read-only")

// ErrNotFound is returned when an update or delete matched no row.
var ErrNotFound = db.ErrNotFound

type Change struct {
	Table string `json:"table"`
	Event string `json:"event"`
	ID    int64  `json:"id,omitempty"`
}

type SQLite struct {
	DB       *sql.DB
	Hub      *sse.Hub
	ReadOnly bool
}

func New(database *sql.DB, hub *sse.Hub, readOnly bool) *SQLite {
	return &SQLite{DB: database, Hub: hub, ReadOnly: readOnly}
}

// Subscribe delivers changes to the given tables, or to every table when none
// are named. The returned channel is closed when the feed ends, either through
// cancel or because the hub shut down.
func (g *SQLite) Subscribe(tables ...string) (<-chan Change, func()) {
	events, unsub := g.Hub.Subscribe(Topic)
	out := make(chan Change, 16)
	go func() {
		defer close(out)
		for ev := range events {
			var c Change
			if err := json.Unmarshal([]byte(ev.Data), &c); err != nil {
				slog.Warn("gateway: malformed change event", "data", ev.Data, "error", err)
				continue
			}
			if len(tables) > 0 && !slices.Contains(tables, c.Table) {
				continue
			}
			select {
			case out <- c:
			default:
				// a pending change already triggers a full refresh
			}
		}
	}()
	return out, unsub
}

func (g *SQLite) allowWrite() error {
	if g.ReadOnly {
		return ErrReadOnly
	}
	return nil
}

func (g *SQLite) notify(table, event string, id int64) {
	if g.Hub == nil {
		return
	}
	data, err := json.Marshal(Change{Table: table, Event: event, ID: id})
	if err != nil {
		return
	}
	g.Hub.Publish(Topic, sse.Event{Type: "change", Data: string(data)})
}

func (g *SQLite) ListDivisions(ctx context.Context) ([]model.Division, error) {
	return db.ListDivisions(ctx, g.DB)
}

func (g *SQLite) ListDevices(ctx context.Context) ([]model.Device, error) {
	return db.ListDevices(ctx, g.DB)
}

func (g *SQLite) ListChannels(ctx context.Context) ([]model.Channel, error) {
	return db.ListChannels(ctx, g.DB)
}

func (g *SQLite) ListLayouts(ctx context.Context) ([]model.DivisionLayout, error) {
	return db.ListLayouts(ctx, g.DB)
}

func (g *SQLite) ListLogs(ctx context.Context, channelID int64) ([]model.ChannelLog, error) {
	return db.ListChannelLogs(ctx, g.DB, channelID)
}

// GetLog returns nil when the entry does not exist.
func (g *SQLite) GetLog(ctx context.Context, id int64) (*model.ChannelLog, error) {
	return db.GetChannelLog(ctx, g.DB, id)
}

func (g *SQLite) InsertDivision(ctx context.Context, name string) (int64, error) {
	if err := g.allowWrite(); err != nil {
		return 0, err
	}
	id, err := db.CreateDivision(ctx, g.DB, name)
	if err != nil {
		return 0, fmt.Errorf("insert division: %w", err)
	}
	g.notify(TableDivisions, EventInsert, id)
	return id, nil
}

func (g *SQLite) UpdateDivision(ctx context.Context, id int64, name string) error {
	if err := g.allowWrite(); err != nil {
		return err
	}
	if err := db.UpdateDivision(ctx, g.DB, id, name); err != nil {
		return fmt.Errorf("update division: %w", err)
	}
	g.notify(TableDivisions, EventUpdate, id)
	return nil
}

func (g *SQLite) DeleteDivision(ctx context.Context, id int64) error {
	if err := g.allowWrite(); err != nil {
		return err
	}
	if err := db.DeleteDivision(ctx, g.DB, id); err != nil {
		return fmt.Errorf("delete division: %w", err)
	}
	g.notify(TableDivisions, EventDelete, id)
	return nil
}

func (g *SQLite) InsertDevice(ctx context.Context, d *model.Device) error {
	if err := g.allowWrite(); err != nil {
		return err
	}
	if err := db.CreateDevice(ctx, g.DB, d); err != nil {
		return fmt.Errorf("insert device: %w", err)
	}
	g.notify(TableDevices, EventInsert, d.ID)
	return nil
}

func (g *SQLite) UpdateDevice(ctx context.Context, d *model.Device) error {
	if err := g.allowWrite(); err != nil {
		return err
	}
	if err := db.UpdateDevice(ctx, g.DB, d); err != nil {
		return fmt.Errorf("update device: %w", err)
	}
	g.notify(TableDevices, EventUpdate, d.ID)
	return nil
}

func (g *SQLite) DeleteDevice(ctx context.Context, id int64) error {
	if err := g.allowWrite(); err != nil {
		return err
	}
	if err := db.DeleteDevice(ctx, g.DB, id); err != nil {
		return fmt.Errorf("delete device: %w", err)
	}
	g.notify(TableDevices, EventDelete, id)
	return nil
}

func (g *SQLite) InsertChannel(ctx context.Context, c *model.Channel) error {
	if err := g.allowWrite(); err != nil {
		return err
	}
	if err := db.CreateChannel(ctx, g.DB, c); err != nil {
		return fmt.Errorf("insert channel: %w", err)
	}
	g.notify(TableChannels, EventInsert, c.ID)
	return nil
}

// InsertChannels inserts all rows or none.
func (g *SQLite) InsertChannels(ctx context.Context, channels []model.Channel) error {
	if err := g.allowWrite(); err != nil {
		return err
	}
	if len(channels) == 0 {
		return nil
	}
	if err := db.CreateChannels(ctx, g.DB, channels); err != nil {
		return fmt.Errorf("insert channels: %w", err)
	}
	g.notify(TableChannels, EventInsert, 0)
	return nil
}

func (g *SQLite) RenameChannel(ctx context.Context, id int64, name string) error {
	if err := g.allowWrite(); err != nil {
		return err
	}
	if err := db.RenameChannel(ctx, g.DB, id, name); err != nil {
		return fmt.Errorf("rename channel: %w", err)
	}
	g.notify(TableChannels, EventUpdate, id)
	return nil
}

func (g *SQLite) SetChannelState(ctx context.Context, id int64, status model.ChannelStatus, action model.ActionType, notes *string) error {
	if err := g.allowWrite(); err != nil {
		return err
	}
	if err := db.SetChannelState(ctx, g.DB, id, status, action, notes); err != nil {
		return fmt.Errorf("update channel: %w", err)
	}
	g.notify(TableChannels, EventUpdate, id)
	return nil
}

func (g *SQLite) DeleteChannel(ctx context.Context, id int64) error {
	if err := g.allowWrite(); err != nil {
		return err
	}
	if err := db.DeleteChannel(ctx, g.DB, id); err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	g.notify(TableChannels, EventDelete, id)
	return nil
}

func (g *SQLite) InsertLog(ctx context.Context, l *model.ChannelLog) error {
	if err := g.allowWrite(); err != nil {
		return err
	}
	if err := db.CreateChannelLog(ctx, g.DB, l); err != nil {
		return fmt.Errorf("insert channel log: %w", err)
	}
	g.notify(TableChannelLogs, EventInsert, l.ID)
	return nil
}

func (g *SQLite) UpdateLogEntry(ctx context.Context, id int64, entry string) error {
	if err := g.allowWrite(); err != nil {
		return err
	}
	if err := db.UpdateChannelLogEntry(ctx, g.DB, id, entry); err != nil {
		return fmt.Errorf("update channel log: %w", err)
	}
	g.notify(TableChannelLogs, EventUpdate, id)
	return nil
}

func (g *SQLite) DeleteLog(ctx context.Context, id int64) error {
	if err := g.allowWrite(); err != nil {
		return err
	}
	if err := db.DeleteChannelLog(ctx, g.DB, id); err != nil {
		return fmt.Errorf("delete channel log: %w", err)
	}
	g.notify(TableChannelLogs, EventDelete, id)
	return nil
}

func (g *SQLite) UpdateLayout(ctx context.Context, l *model.DivisionLayout) error {
	if err := g.allowWrite(); err != nil {
		return err
	}
	if err := db.UpdateLayout(ctx, g.DB, l); err != nil {
		return fmt.Errorf("update layout: %w", err)
	}
	g.notify(TableLayouts, EventUpdate, l.ID)
	return nil
}

func (g *SQLite) UpsertLayout(ctx context.Context, l *model.DivisionLayout) error {
	if err := g.allowWrite(); err != nil {
		return err
	}
	if err := db.UpsertLayout(ctx, g.DB, l); err != nil {
		return fmt.Errorf("upsert layout: %w", err)
	}
	g.notify(TableLayouts, EventUpdate, l.ID)
	return nil
}
