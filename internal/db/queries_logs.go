package db

import (
	"context"
	"database/sql"

	"github.com/denissonlm/AcoCameras/internal/model"
)

// ListChannelLogs returns the logbook of a channel, newest first.
func ListChannelLogs(ctx context.Context, database *sql.DB, channelID int64) ([]model.ChannelLog, error) {
	rows, err := database.QueryContext(ctx,
		`SELECT id, channel_id, log_entry, new_status, action_taken, created_at
		 FROM channel_logs WHERE channel_id = ? ORDER BY created_at DESC, id DESC`, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []model.ChannelLog
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

func GetChannelLog(ctx context.Context, database *sql.DB, id int64) (*model.ChannelLog, error) {
	row := database.QueryRowContext(ctx,
		`SELECT id, channel_id, log_entry, new_status, action_taken, created_at
		 FROM channel_logs WHERE id = ?`, id)
	l, err := scanLog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return l, err
}

func CreateChannelLog(ctx context.Context, database *sql.DB, l *model.ChannelLog) error {
	res, err := database.ExecContext(ctx,
		`INSERT INTO channel_logs (channel_id, log_entry, new_status, action_taken) VALUES (?, ?, ?, ?)`,
		l.ChannelID, l.LogEntry, nullEnum(string(l.NewStatus)), nullEnum(string(l.ActionTaken)),
	)
	if err != nil {
		return err
	}
	l.ID, err = res.LastInsertId()
	return err
}

func UpdateChannelLogEntry(ctx context.Context, database *sql.DB, id int64, entry string) error {
	res, err := database.ExecContext(ctx, `UPDATE channel_logs SET log_entry = ? WHERE id = ?`, entry, id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func DeleteChannelLog(ctx context.Context, database *sql.DB, id int64) error {
	res, err := database.ExecContext(ctx, `DELETE FROM channel_logs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLog(s rowScanner) (*model.ChannelLog, error) {
	var l model.ChannelLog
	var status, action sql.NullString
	var createdAt SQLiteTime
	if err := s.Scan(&l.ID, &l.ChannelID, &l.LogEntry, &status, &action, &createdAt); err != nil {
		return nil, err
	}
	l.NewStatus = model.ChannelStatus(status.String)
	l.ActionTaken = model.ActionType(action.String)
	l.CreatedAt = createdAt.Time
	return &l, nil
}
