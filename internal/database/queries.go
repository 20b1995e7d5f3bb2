package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-while/go-nntparc/internal/models"
)

// messageColumns is the scan order used by all message queries.
// thread_id is nullable until a message is resolved; 0 means unresolved.
const messageColumns = `id, group_id, COALESCE(thread_id, 0), msg_id, reply_to, sender, subject, subject_normalized, headers, body, created`

// GetGroupByName returns the group or nil if it does not exist.
func (db *Database) GetGroupByName(name string) (*models.Group, error) {
	g := &models.Group{}
	err := retryableQueryRowScan(db.db,
		`SELECT id, name, updated FROM groups WHERE name = ?`,
		[]interface{}{name}, &g.ID, &g.Name, &g.Updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group '%s': %w", name, err)
	}
	return g, nil
}

// GetOrCreateGroup returns the group, creating it on first reference.
func (db *Database) GetOrCreateGroup(name string) (*models.Group, error) {
	if g, err := db.GetGroupByName(name); err != nil || g != nil {
		return g, err
	}
	now := time.Now().UTC()
	res, err := retryableExec(db.db,
		`INSERT INTO groups (name, updated) VALUES (?, ?)`, name, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create group '%s': %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.Group{ID: id, Name: name, Updated: now}, nil
}

// TouchGroup refreshes a group's last-update timestamp after a
// successful ingestion.
func (db *Database) TouchGroup(groupID int64, when time.Time) error {
	_, err := retryableExec(db.db,
		`UPDATE groups SET updated = ? WHERE id = ?`, when.UTC(), groupID)
	return err
}

// GetGroupByID returns the group or nil if it does not exist.
func (db *Database) GetGroupByID(id int64) (*models.Group, error) {
	g := &models.Group{}
	err := retryableQueryRowScan(db.db,
		`SELECT id, name, updated FROM groups WHERE id = ?`,
		[]interface{}{id}, &g.ID, &g.Name, &g.Updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

// GetGroups returns all groups ordered by name, with thread and message
// counts for the web index.
func (db *Database) GetGroups() ([]*models.Group, error) {
	rows, err := retryableQuery(db.db, `
		SELECT g.id, g.name, g.updated,
			(SELECT COUNT(*) FROM threads t WHERE t.group_id = g.id),
			(SELECT COUNT(*) FROM messages m WHERE m.group_id = g.id)
		FROM groups g ORDER BY g.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		g := &models.Group{}
		if err := rows.Scan(&g.ID, &g.Name, &g.Updated, &g.ThreadCount, &g.MessageCount); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// GetThreadByID returns the thread or nil if it does not exist.
func (db *Database) GetThreadByID(id int64) (*models.Thread, error) {
	t := &models.Thread{}
	err := retryableQueryRowScan(db.db,
		`SELECT id, group_id, subject, created, updated FROM threads WHERE id = ?`,
		[]interface{}{id}, &t.ID, &t.GroupID, &t.Subject, &t.Created, &t.Updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetThreadBySubject returns the thread matching the normalized subject
// within the group, or nil.
func (db *Database) GetThreadBySubject(groupID int64, normalizedSubject string) (*models.Thread, error) {
	t := &models.Thread{}
	err := retryableQueryRowScan(db.db,
		`SELECT id, group_id, subject, created, updated FROM threads
		 WHERE group_id = ? AND subject = ? ORDER BY id LIMIT 1`,
		[]interface{}{groupID, normalizedSubject},
		&t.ID, &t.GroupID, &t.Subject, &t.Created, &t.Updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetThreads returns the freshest threads of a group, newest first, with
// per-thread message counts.
func (db *Database) GetThreads(groupID int64, limit int) ([]*models.Thread, error) {
	rows, err := retryableQuery(db.db, `
		SELECT t.id, t.group_id, t.subject, t.created, t.updated,
			(SELECT COUNT(*) FROM messages m WHERE m.thread_id = t.id)
		FROM threads t WHERE t.group_id = ?
		ORDER BY t.updated DESC LIMIT ?`, groupID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var threads []*models.Thread
	for rows.Next() {
		t := &models.Thread{}
		if err := rows.Scan(&t.ID, &t.GroupID, &t.Subject, &t.Created, &t.Updated, &t.MessageCount); err != nil {
			return nil, err
		}
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

// GetMessageByMsgID returns the message with the given protocol
// message-ID, or nil.
func (db *Database) GetMessageByMsgID(msgID string) (*models.Message, error) {
	m := &models.Message{}
	err := retryableQueryRowScan(db.db,
		`SELECT `+messageColumns+` FROM messages WHERE msg_id = ?`,
		[]interface{}{msgID},
		&m.ID, &m.GroupID, &m.ThreadID, &m.MsgID, &m.ReplyTo, &m.Sender,
		&m.Subject, &m.SubjectNormalized, &m.Headers, &m.Body, &m.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// GetLatestMessage returns the newest message of a group by creation
// time, or nil for an empty group. Its msg_id is the fetch watermark.
func (db *Database) GetLatestMessage(groupID int64) (*models.Message, error) {
	m := &models.Message{}
	err := retryableQueryRowScan(db.db,
		`SELECT `+messageColumns+` FROM messages WHERE group_id = ?
		 ORDER BY created DESC LIMIT 1`,
		[]interface{}{groupID},
		&m.ID, &m.GroupID, &m.ThreadID, &m.MsgID, &m.ReplyTo, &m.Sender,
		&m.Subject, &m.SubjectNormalized, &m.Headers, &m.Body, &m.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// GetThreadMessages returns a thread's messages oldest first.
func (db *Database) GetThreadMessages(threadID int64) ([]*models.Message, error) {
	rows, err := retryableQuery(db.db,
		`SELECT `+messageColumns+` FROM messages WHERE thread_id = ? ORDER BY created`,
		threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		m := &models.Message{}
		if err := rows.Scan(&m.ID, &m.GroupID, &m.ThreadID, &m.MsgID, &m.ReplyTo, &m.Sender,
			&m.Subject, &m.SubjectNormalized, &m.Headers, &m.Body, &m.Created); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// GetMessageReferences returns a message's References entries in header
// order.
func (db *Database) GetMessageReferences(messageID int64) ([]*models.Reference, error) {
	rows, err := retryableQuery(db.db,
		`SELECT id, message_id, ref_msg_id, position FROM refs
		 WHERE message_id = ? ORDER BY position`, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []*models.Reference
	for rows.Next() {
		r := &models.Reference{}
		if err := rows.Scan(&r.ID, &r.MessageID, &r.RefMsgID, &r.Position); err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// InsertBatch writes the staged threads, messages and their references
// in one transaction. A message is never visible without its thread:
// either the whole batch lands or none of it does. Thread freshness
// follows the newest member message.
func (db *Database) InsertBatch(newThreads []*models.Thread, messages []*models.Message) error {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, t := range newThreads {
		res, err := tx.Exec(
			`INSERT INTO threads (group_id, subject, created, updated) VALUES (?, ?, ?, ?)`,
			t.GroupID, t.Subject, t.Created.UTC(), t.Updated.UTC())
		if err != nil {
			return fmt.Errorf("failed to insert thread '%s': %w", t.Subject, err)
		}
		if t.ID, err = res.LastInsertId(); err != nil {
			return err
		}
	}

	for _, m := range messages {
		if m.Thread != nil {
			m.ThreadID = m.Thread.ID
		}
		res, err := tx.Exec(`INSERT INTO messages
			(group_id, thread_id, msg_id, reply_to, sender, subject, subject_normalized, headers, body, created)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.GroupID, m.ThreadID, m.MsgID, m.ReplyTo, m.Sender,
			m.Subject, m.SubjectNormalized, m.Headers, m.Body, m.Created.UTC())
		if err != nil {
			return fmt.Errorf("failed to insert message '%s': %w", m.MsgID, err)
		}
		if m.ID, err = res.LastInsertId(); err != nil {
			return err
		}

		for i, ref := range m.Refs {
			if _, err := tx.Exec(
				`INSERT INTO refs (message_id, ref_msg_id, position) VALUES (?, ?, ?)`,
				m.ID, ref, i); err != nil {
				return fmt.Errorf("failed to insert reference for '%s': %w", m.MsgID, err)
			}
		}

		if m.ThreadID != 0 {
			if _, err := tx.Exec(
				`UPDATE threads SET updated = ? WHERE id = ? AND updated < ?`,
				m.Created.UTC(), m.ThreadID, m.Created.UTC()); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// Stats holds archive-wide row counts.
type Stats struct {
	Groups   int64 `json:"groups"`
	Threads  int64 `json:"threads"`
	Messages int64 `json:"messages"`
}

// GetStats returns archive-wide row counts.
func (db *Database) GetStats() (*Stats, error) {
	s := &Stats{}
	if err := retryableQueryRowScan(db.db, `SELECT
		(SELECT COUNT(*) FROM groups),
		(SELECT COUNT(*) FROM threads),
		(SELECT COUNT(*) FROM messages)`,
		nil, &s.Groups, &s.Threads, &s.Messages); err != nil {
		return nil, err
	}
	return s, nil
}
