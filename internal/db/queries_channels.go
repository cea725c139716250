package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/denissonlm/AcoCameras/internal/model"
)

func ListChannels(ctx context.Context, database *sql.DB) ([]model.Channel, error) {
	rows, err := database.QueryContext(ctx,
		`SELECT id, device_id, name, status, action_taken, action_notes, created_at
		 FROM channels ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []model.Channel
	for rows.Next() {
		var c model.Channel
		var action, notes sql.NullString
		var createdAt SQLiteTime
		if err := rows.Scan(&c.ID, &c.DeviceID, &c.Name, &c.Status, &action, &notes, &createdAt); err != nil {
			return nil, err
		}
		c.ActionTaken = model.ActionType(action.String)
		c.ActionNotes = stringPtr(notes)
		c.CreatedAt = createdAt.Time
		channels = append(channels, c)
	}
	return channels, rows.Err()
}

func CreateChannel(ctx context.Context, database *sql.DB, c *model.Channel) error {
	res, err := database.ExecContext(ctx,
		`INSERT INTO channels (device_id, name, status) VALUES (?, ?, ?)`,
		c.DeviceID, c.Name, string(c.Status),
	)
	if err != nil {
		return err
	}
	c.ID, err = res.LastInsertId()
	return err
}

// CreateChannels inserts all channels in one transaction.
func CreateChannels(ctx context.Context, database *sql.DB, channels []model.Channel) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	for i := range channels {
		c := &channels[i]
		res, err := tx.ExecContext(ctx,
			`INSERT INTO channels (device_id, name, status) VALUES (?, ?, ?)`,
			c.DeviceID, c.Name, string(c.Status),
		)
		if err != nil {
			tx.Rollback()
			return err
		}
		if c.ID, err = res.LastInsertId(); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func RenameChannel(ctx context.Context, database *sql.DB, id int64, name string) error {
	res, err := database.ExecContext(ctx, `UPDATE channels SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// SetChannelState writes status and the corrective action fields together.
func SetChannelState(ctx context.Context, database *sql.DB, id int64, status model.ChannelStatus, action model.ActionType, notes *string) error {
	res, err := database.ExecContext(ctx,
		`UPDATE channels SET status = ?, action_taken = ?, action_notes = ? WHERE id = ?`,
		string(status), nullEnum(string(action)), nullString(notes), id,
	)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func DeleteChannel(ctx context.Context, database *sql.DB, id int64) error {
	res, err := database.ExecContext(ctx, `DELETE FROM channels WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectRow(res)
}
