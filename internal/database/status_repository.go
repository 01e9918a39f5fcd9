package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
)

const statusRepoTimeout = 2 * time.Second

type StatusEntry struct {
	GuildID   string
	ChannelID string
	MessageID string
	UpdatedAt time.Time
}

// StatusMessageRepository remembers where each guild's status message lives
// so that messages left behind by a crash can be removed on the next start.
// A repository without a database is a no-op.
type StatusMessageRepository struct {
	db *sql.DB
}

func NewStatusMessageRepository(db *sql.DB) *StatusMessageRepository {
	return &StatusMessageRepository{db: db}
}

func (r *StatusMessageRepository) Upsert(ctx context.Context, guildID, channelID, messageID string) error {
	if r == nil || r.db == nil {
		return nil
	}
	if guildID == "" || channelID == "" || messageID == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, statusRepoTimeout)
	defer cancel()

	const query = `
		INSERT INTO status_messages (guild_id, channel_id, message_id, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (guild_id)
		DO UPDATE SET
			channel_id = EXCLUDED.channel_id,
			message_id = EXCLUDED.message_id,
			updated_at = NOW();
	`

	_, err := r.db.ExecContext(ctx, query, guildID, channelID, messageID)
	return errors.Wrap(err, "upsert status message")
}

func (r *StatusMessageRepository) Delete(ctx context.Context, guildID string) error {
	if r == nil || r.db == nil || guildID == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, statusRepoTimeout)
	defer cancel()

	const query = `DELETE FROM status_messages WHERE guild_id = $1`

	_, err := r.db.ExecContext(ctx, query, guildID)
	return errors.Wrap(err, "delete status message")
}

func (r *StatusMessageRepository) List(ctx context.Context) ([]StatusEntry, error) {
	if r == nil || r.db == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, statusRepoTimeout)
	defer cancel()

	const query = `
		SELECT guild_id, channel_id, message_id, updated_at
		FROM status_messages
		ORDER BY updated_at
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "list status messages")
	}
	defer rows.Close()

	var entries []StatusEntry
	for rows.Next() {
		var e StatusEntry
		if err := rows.Scan(&e.GuildID, &e.ChannelID, &e.MessageID, &e.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan status message")
		}
		entries = append(entries, e)
	}
	return entries, errors.Wrap(rows.Err(), "iterate status messages")
}
