package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/devdeck/internal/domain/message"
	"github.com/geocoder89/devdeck/internal/listing"
	"github.com/geocoder89/devdeck/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const messageSelect = `
	SELECT m.id, m.subject, m.content, m.sender_id, m.receiver_id, m.created_at,
	       s.name, s.avatar_url, r.name, r.avatar_url
	FROM messages m
	JOIN users s ON s.id = m.sender_id
	JOIN users r ON r.id = m.receiver_id`

type MessagesRepo struct {
	observer
	pool *pgxpool.Pool
}

func NewMessagesRepo(pool *pgxpool.Pool, prom *observability.Prom) *MessagesRepo {
	return &MessagesRepo{pool: pool, observer: observer{prom: prom}}
}

func scanMessage(row pgx.Row) (message.Message, error) {
	var m message.Message
	var sender, receiver message.Participant

	err := row.Scan(
		&m.ID, &m.Subject, &m.Content, &m.SenderID, &m.ReceiverID, &m.CreatedAt,
		&sender.Name, &sender.AvatarURL, &receiver.Name, &receiver.AvatarURL,
	)
	if err != nil {
		return message.Message{}, err
	}
	sender.ID = m.SenderID
	receiver.ID = m.ReceiverID
	m.Sender, m.Receiver = &sender, &receiver
	return m, nil
}

func (r *MessagesRepo) Create(ctx context.Context, m message.Message) (message.Message, error) {
	var id int64
	err := r.observe("messages.create", func() error {
		return r.pool.QueryRow(ctx, `
			INSERT INTO messages (subject, content, sender_id, receiver_id)
			VALUES ($1,$2,$3,$4)
			RETURNING id`,
			m.Subject, m.Content, m.SenderID, m.ReceiverID,
		).Scan(&id)
	})
	if err != nil {
		if IsForeignKeyViolation(err) {
			return message.Message{}, message.ErrParticipantNotFound
		}
		return message.Message{}, err
	}

	return r.GetByID(ctx, id)
}

func (r *MessagesRepo) GetByID(ctx context.Context, id int64) (message.Message, error) {
	var m message.Message
	err := r.observe("messages.get_by_id", func() error {
		var err error
		m, err = scanMessage(r.pool.QueryRow(ctx, messageSelect+` WHERE m.id = $1`, id))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return message.Message{}, message.ErrNotFound
		}
		return message.Message{}, err
	}
	return m, nil
}

// ListForUser returns messages where userID is the sender or the receiver.
func (r *MessagesRepo) ListForUser(ctx context.Context, userID int64, params listing.Params) ([]message.Message, int, error) {
	var b whereBuilder
	ph := b.arg(userID)
	b.add("(m.sender_id = " + ph + " OR m.receiver_id = " + ph + ")")

	where := b.sql()
	countArgs := append([]any(nil), b.args...)

	var total int
	err := r.observe("messages.count_for_user", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM messages m`+where, countArgs...).Scan(&total)
	})
	if err != nil {
		return nil, 0, err
	}

	query := messageSelect + where + ` ORDER BY m.created_at DESC, m.id DESC` + b.page(params)

	out := make([]message.Message, 0, params.Limit)
	err = r.observe("messages.list_for_user", func() error {
		rows, err := r.pool.Query(ctx, query, b.args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			m, err := scanMessage(rows)
			if err != nil {
				return err
			}
			out = append(out, m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
