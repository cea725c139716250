package layout

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/denissonlm/AcoCameras/internal/blob"
	"github.com/denissonlm/AcoCameras/internal/metrics"
	"github.com/denissonlm/AcoCameras/internal/model"
	"github.com/denissonlm/AcoCameras/internal/snapshot"
)

type Store interface {
	UpsertLayout(ctx context.Context, l *model.DivisionLayout) error
	UpdateLayout(ctx context.Context, l *model.DivisionLayout) error
}

type Bucket interface {
	Upload(ctx context.Context, key string, r io.Reader) error
	PublicURL(key string) (string, error)
	Remove(ctx context.Context, keys ...string) error
	KeyFromURL(url string) (string, bool)
}

type Snapshots interface {
	Current() snapshot.Snapshot
	Refresh(ctx context.Context) error
}

// Service loads a division's layout from the snapshot, edits it and writes
// the result back. A division without a stored layout gets its row created on
// the first edit that changes something.
type Service struct {
	Store  Store
	Bucket Bucket
	Cache  Snapshots
	Now    func() time.Time
}

func NewService(store Store, bucket Bucket, cache Snapshots) *Service {
	return &Service{Store: store, Bucket: bucket, Cache: cache, Now: time.Now}
}

// Get returns the stored layout or the synthesized default.
func (s *Service) Get(divisionID int64) (model.DivisionLayout, error) {
	snap := s.Cache.Current()
	if _, ok := snap.Division(divisionID); !ok {
		return model.DivisionLayout{}, ErrUnknownDivision
	}
	return snap.Layout(divisionID), nil
}

// Edit runs op against the division's layout and persists the result when op
// reports a change.
func (s *Service) Edit(ctx context.Context, divisionID int64, op func(*Editor) (bool, error)) (model.DivisionLayout, error) {
	current, err := s.Get(divisionID)
	if err != nil {
		return model.DivisionLayout{}, err
	}
	ed := NewEditor(current)
	changed, err := op(ed)
	if err != nil {
		return current, err
	}
	if !changed {
		return current, nil
	}
	next := ed.Layout()
	if err := s.save(ctx, &next); err != nil {
		return current, err
	}
	s.refresh(ctx)
	return next, nil
}

// save updates a stored layout by id. A layout the snapshot has not seen
// stored goes through the division-keyed upsert, since the row may already
// exist when the refresh after its creation failed or raced this edit.
func (s *Service) save(ctx context.Context, l *model.DivisionLayout) error {
	if l.Persisted() {
		return s.Store.UpdateLayout(ctx, l)
	}
	return s.Store.UpsertLayout(ctx, l)
}

func (s *Service) refresh(ctx context.Context) {
	if err := s.Cache.Refresh(ctx); err != nil {
		slog.Warn("refresh after layout change", "error", err)
	}
}

// Place drops a channel onto its division's layout.
func (s *Service) Place(ctx context.Context, divisionID, channelID int64, p Point) (model.DivisionLayout, error) {
	_, device, ok := s.Cache.Current().Channel(channelID)
	if !ok {
		return model.DivisionLayout{}, ErrUnknownChannel
	}
	if device.DivisionID != divisionID {
		return model.DivisionLayout{}, ErrWrongDivision
	}
	return s.Edit(ctx, divisionID, func(e *Editor) (bool, error) {
		return e.Place(device.ID, channelID, p), nil
	})
}

func (s *Service) Move(ctx context.Context, divisionID, channelID int64, p Point) (model.DivisionLayout, error) {
	return s.Edit(ctx, divisionID, func(e *Editor) (bool, error) {
		return e.Move(channelID, p), nil
	})
}

func (s *Service) Rotate(ctx context.Context, divisionID, channelID int64) (model.DivisionLayout, error) {
	return s.Edit(ctx, divisionID, func(e *Editor) (bool, error) {
		return e.Rotate(channelID), nil
	})
}

func (s *Service) Flip(ctx context.Context, divisionID, channelID int64) (model.DivisionLayout, error) {
	return s.Edit(ctx, divisionID, func(e *Editor) (bool, error) {
		return e.Flip(channelID), nil
	})
}

func (s *Service) Remove(ctx context.Context, divisionID, channelID int64) (model.DivisionLayout, error) {
	return s.Edit(ctx, divisionID, func(e *Editor) (bool, error) {
		return e.Remove(channelID), nil
	})
}

func (s *Service) RotateBackground(ctx context.Context, divisionID int64, degrees int) (model.DivisionLayout, error) {
	return s.Edit(ctx, divisionID, func(e *Editor) (bool, error) {
		return e.RotateBackground(degrees)
	})
}

func (s *Service) ResetBackgroundRotation(ctx context.Context, divisionID int64) (model.DivisionLayout, error) {
	return s.Edit(ctx, divisionID, func(e *Editor) (bool, error) {
		return e.ResetBackgroundRotation()
	})
}

// ImageKey is the object key for a new background of the division.
func ImageKey(divisionID int64, at time.Time, filename string) string {
	return fmt.Sprintf("public/division-%d-layout-%d.%s", divisionID, at.UnixMilli(), imageExt(filename))
}

func imageExt(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		return "png"
	}
	return ext
}

func classifyUpload(err error) *UploadError {
	class := UploadTransport
	if errors.Is(err, blob.ErrPermission) || strings.Contains(err.Error(), "permission denied") ||
		strings.Contains(err.Error(), "security policy") {
		class = UploadPermission
	}
	return &UploadError{Class: class, Err: err}
}

// ReplaceBackground uploads a new image and makes it the division's
// background. The layout row is updated before the previous image is removed,
// so an interruption leaves at worst an unreferenced file behind. Removing the
// previous image is best effort.
func (s *Service) ReplaceBackground(ctx context.Context, divisionID int64, filename string, data []byte) (model.DivisionLayout, error) {
	if len(data) == 0 {
		return model.DivisionLayout{}, ErrNoImage
	}
	current, err := s.Get(divisionID)
	if err != nil {
		return model.DivisionLayout{}, err
	}
	ed := NewEditor(current)
	if !ed.CanReplaceBackground() {
		return current, ErrLocked
	}

	key := ImageKey(divisionID, s.Now(), filename)
	err = s.Bucket.Upload(ctx, key, bytes.NewReader(data))
	if errors.Is(err, blob.ErrExists) {
		key = strings.TrimSuffix(key, "."+imageExt(filename)) + "-" + uuid.NewString()[:8] + "." + imageExt(filename)
		err = s.Bucket.Upload(ctx, key, bytes.NewReader(data))
	}
	if err != nil {
		ue := classifyUpload(err)
		metrics.RecordUpload(string(ue.Class))
		return current, ue
	}

	url, err := s.Bucket.PublicURL(key)
	if err != nil || url == "" {
		if err == nil {
			err = errors.New("empty public url")
		}
		s.removeBlob(ctx, key)
		metrics.RecordUpload(string(UploadURL))
		return current, &UploadError{Class: UploadURL, Err: err}
	}
	metrics.RecordUpload("ok")

	if err := ed.ReplaceBackground(url); err != nil {
		s.removeBlob(ctx, key)
		return current, err
	}
	next := ed.Layout()
	if err := s.save(ctx, &next); err != nil {
		s.removeBlob(ctx, key)
		return current, err
	}

	if current.HasBackground() {
		if oldKey, ok := s.Bucket.KeyFromURL(*current.BackgroundImageURL); ok && oldKey != key {
			s.removeBlob(ctx, oldKey)
		}
	}

	s.refresh(ctx)
	return next, nil
}

func (s *Service) removeBlob(ctx context.Context, key string) {
	if err := s.Bucket.Remove(ctx, key); err != nil {
		metrics.BlobCleanupFailures.Inc()
		slog.Warn("remove layout image", "key", key, "error", err)
	}
}
