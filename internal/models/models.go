// Package models defines core data structures for go-nntparc
package models

import (
	"time"
)

// Group represents an archived newsgroup
type Group struct {
	ID      int64     `json:"id" db:"id"`
	Name    string    `json:"name" db:"name"`
	Updated time.Time `json:"updated" db:"updated"`

	// Filled by web queries, not stored
	ThreadCount  int64 `json:"thread_count" db:"-"`
	MessageCount int64 `json:"message_count" db:"-"`
}

// Thread represents a reconstructed conversation within a group.
// Subject holds the normalized form used for matching; the display
// subject lives on the member messages.
type Thread struct {
	ID      int64     `json:"id" db:"id"`
	GroupID int64     `json:"group_id" db:"group_id"`
	Subject string    `json:"subject" db:"subject"`
	Created time.Time `json:"created" db:"created"`
	Updated time.Time `json:"updated" db:"updated"`

	MessageCount int64 `json:"message_count" db:"-"`
}

// Message represents one archived article
type Message struct {
	ID                int64     `json:"id" db:"id"`
	GroupID           int64     `json:"group_id" db:"group_id"`
	ThreadID          int64     `json:"thread_id" db:"thread_id"`
	MsgID             string    `json:"msg_id" db:"msg_id"`
	ReplyTo           string    `json:"reply_to" db:"reply_to"`
	Sender            string    `json:"sender" db:"sender"`
	Subject           string    `json:"subject" db:"subject"`
	SubjectNormalized string    `json:"subject_normalized" db:"subject_normalized"`
	Headers           string    `json:"headers" db:"headers"`
	Body              string    `json:"body" db:"body"`
	Created           time.Time `json:"created" db:"created"`

	// Transient fields used while a batch is staged for insertion
	Thread *Thread  `json:"-" db:"-"`
	Refs   []string `json:"-" db:"-"` // References header tokens, in order
}

// Reference represents one entry of a message's References header
type Reference struct {
	ID        int64  `json:"id" db:"id"`
	MessageID int64  `json:"message_id" db:"message_id"`
	RefMsgID  string `json:"ref_msg_id" db:"ref_msg_id"`
	Position  int    `json:"position" db:"position"`
}

// OverviewRow is one article summary parsed from an OVER/XOVER response.
// Fields is keyed by the lowercased overview field name as advertised by
// LIST OVERVIEW.FMT; Headers/BodyLines/References are filled when the
// full article has been fetched.
type OverviewRow struct {
	Fields     map[string]string
	Headers    []string
	BodyLines  []string
	References []string
}

// Get returns the named overview field or "" if the server did not send it.
func (r *OverviewRow) Get(name string) string {
	if r == nil || r.Fields == nil {
		return ""
	}
	return r.Fields[name]
}

// MessageID returns the message-id overview field.
func (r *OverviewRow) MessageID() string { return r.Get("message-id") }

// Subject returns the subject overview field.
func (r *OverviewRow) Subject() string { return r.Get("subject") }

// From returns the from overview field.
func (r *OverviewRow) From() string { return r.Get("from") }

// DateString returns the raw date overview field.
func (r *OverviewRow) DateString() string { return r.Get("date") }
