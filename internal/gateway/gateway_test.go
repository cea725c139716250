package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	acocameras "github.com/denissonlm/AcoCameras"
	"github.com/denissonlm/AcoCameras/internal/db"
	"github.com/denissonlm/AcoCameras/internal/model"
	"github.com/denissonlm/AcoCameras/internal/sse"
)

func newTestGateway(t *testing.T) *SQLite {
	t.Helper()
	database, err := db.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := db.Migrate(context.Background(), database, acocameras.MigrationFS); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return New(database, sse.New(), false)
}

func receive(t *testing.T, ch <-chan Change) Change {
	t.Helper()
	select {
	case c, ok := <-ch:
		if !ok {
			t.Fatal("feed closed")
		}
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no change received")
	}
	return Change{}
}

func TestWritesPublishChanges(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()
	feed, cancel := g.Subscribe()
	defer cancel()

	id, err := g.InsertDivision(ctx, "Matriz")
	if err != nil {
		t.Fatalf("InsertDivision: %v", err)
	}
	c := receive(t, feed)
	if c.Table != TableDivisions || c.Event != EventInsert || c.ID != id {
		t.Errorf("change = %+v, want divisions INSERT %d", c, id)
	}

	if err := g.UpdateDivision(ctx, id, "Matriz SP"); err != nil {
		t.Fatalf("UpdateDivision: %v", err)
	}
	if c := receive(t, feed); c.Event != EventUpdate {
		t.Errorf("event = %s, want UPDATE", c.Event)
	}
}

func TestSubscribeFiltersTables(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()
	feed, cancel := g.Subscribe(TableDevices)
	defer cancel()

	divisionID, err := g.InsertDivision(ctx, "Matriz")
	if err != nil {
		t.Fatalf("InsertDivision: %v", err)
	}
	d := &model.Device{Name: "DVR", Type: model.DeviceDVR, DivisionID: divisionID, ChannelCount: 32}
	if err := g.InsertDevice(ctx, d); err != nil {
		t.Fatalf("InsertDevice: %v", err)
	}
	c := receive(t, feed)
	if c.Table != TableDevices || c.ID != d.ID {
		t.Errorf("change = %+v, want devices %d", c, d.ID)
	}
}

func TestHubCloseEndsSubscription(t *testing.T) {
	g := newTestGateway(t)
	feed, cancel := g.Subscribe()
	defer cancel()
	g.Hub.Close()
	select {
	case _, ok := <-feed:
		if ok {
			t.Error("received a change, want closed feed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("feed not closed after hub shutdown")
	}
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	g := newTestGateway(t)
	g.ReadOnly = true
	ctx := context.Background()

	if _, err := g.InsertDivision(ctx, "Matriz"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("InsertDivision err = %v, want ErrReadOnly", err)
	}
	if err := g.UpsertLayout(ctx, &model.DivisionLayout{DivisionID: 1}); !errors.Is(err, ErrReadOnly) {
		t.Errorf("UpsertLayout err = %v, want ErrReadOnly", err)
	}
	divisions, err := g.ListDivisions(ctx)
	if err != nil {
		t.Fatalf("ListDivisions: %v", err)
	}
	if len(divisions) != 0 {
		t.Errorf("divisions = %d, want 0", len(divisions))
	}
}

func TestNotFoundIsWrapped(t *testing.T) {
	g := newTestGateway(t)
	err := g.DeleteChannel(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteChannel err = %v, want ErrNotFound", err)
	}
}

func TestInsertChannelsEmptyIsNoop(t *testing.T) {
	g := newTestGateway(t)
	feed, cancel := g.Subscribe()
	defer cancel()
	if err := g.InsertChannels(context.Background(), nil); err != nil {
		t.Fatalf("InsertChannels(nil): %v", err)
	}
	select {
	case c := <-feed:
		t.Errorf("unexpected change %+v", c)
	case <-time.After(50 * time.Millisecond):
	}
}
