// Package processor turns fetched articles into deduplicated,
// thread-linked records for go-nntparc.
package processor

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/go-while/go-nntparc/internal/config"
	"github.com/go-while/go-nntparc/internal/models"
	"github.com/go-while/go-nntparc/internal/nntp"
)

// Store is the persistence capability the ingestion engine needs. The
// sqlite implementation lives in internal/database; tests use an
// in-memory fake.
type Store interface {
	GetOrCreateGroup(name string) (*models.Group, error)
	GetLatestMessage(groupID int64) (*models.Message, error)
	GetMessageByMsgID(msgID string) (*models.Message, error)
	GetThreadByID(id int64) (*models.Thread, error)
	GetThreadBySubject(groupID int64, normalizedSubject string) (*models.Thread, error)
	// InsertBatch writes the staged threads, messages and their references
	// in one transaction: either the whole batch lands or none of it does.
	InsertBatch(newThreads []*models.Thread, messages []*models.Message) error
	TouchGroup(groupID int64, when time.Time) error
}

// Processor drives fetch cycles and ingestion for the configured servers.
type Processor struct {
	store Store
	cfg   *config.Config

	// serializes refresh cycles so the timer and a manual /update
	// trigger can never ingest the same group concurrently
	mu sync.Mutex
}

// NewProcessor creates a processor writing to store, configured by cfg.
func NewProcessor(store Store, cfg *config.Config) *Processor {
	return &Processor{store: store, cfg: cfg}
}

// UpdateMessages refreshes all configured group URLs ("server/group").
// Groups are batched per server onto one connection; one server's outage
// is logged and does not stop the remaining servers in the cycle.
func (proc *Processor) UpdateMessages(groupURLs []string, fetchNew, fetchOld int) error {
	proc.mu.Lock()
	defer proc.mu.Unlock()

	FetchCycles.Inc()

	servers, groupsPerServer := splitServerGroups(groupURLs)
	log.Printf("[FETCH] updating messages for %d servers", len(servers))

	var errs []error
	for _, server := range servers {
		if err := proc.updateServer(server, groupsPerServer[server], fetchNew, fetchOld); err != nil {
			log.Printf("[ERROR] fetch from '%s' failed: %v", server, err)
			FetchErrors.WithLabelValues(server).Inc()
			errs = append(errs, fmt.Errorf("server '%s': %w", server, err))
		}
	}
	return errors.Join(errs...)
}

// updateServer opens one connection and walks the server's groups in
// order. A failure aborts the remaining groups for this server only.
func (proc *Processor) updateServer(server string, groups []string, fetchNew, fetchOld int) error {
	conn := nntp.NewConn(&nntp.ClientConfig{
		Host:           server,
		Port:           proc.cfg.NNTP.Port,
		ConnectTimeout: proc.cfg.NNTP.ConnectTimeout,
		Debug:          proc.cfg.Debug,
	})
	if err := conn.Connect(); err != nil {
		return err
	}
	defer conn.Close()

	for _, groupName := range groups {
		group, err := proc.store.GetOrCreateGroup(groupName)
		if err != nil {
			return err
		}

		var watermark string
		last, err := proc.store.GetLatestMessage(group.ID)
		if err != nil {
			return err
		}
		if last != nil {
			watermark = last.MsgID
		}

		// first fetch of a group pulls fetchNew messages of history;
		// incremental fetches only need fetchOld beyond the watermark
		limit := fetchNew
		if watermark != "" {
			limit = fetchOld
		}

		rows, err := conn.LastMessages(groupName, limit, watermark, proc.cfg.FetchChunkSize)
		if err != nil {
			return err
		}

		saved, err := proc.IngestRows(group, rows)
		if err != nil {
			return err
		}
		if saved > 0 {
			log.Printf("[FETCH] saved %d messages for '%s'", saved, groupName)
		} else {
			log.Printf("[FETCH] no new messages for '%s'", groupName)
		}
	}
	return nil
}

// IngestRows converts enriched overview rows into Message records,
// skips already-stored message-IDs, resolves each message to a thread and
// commits the batch atomically. It returns the number of messages saved.
func (proc *Processor) IngestRows(group *models.Group, rows []*models.OverviewRow) (int, error) {
	var messages []*models.Message
	for _, row := range rows {
		message, err := buildMessage(group, row)
		if err != nil {
			// bad date or missing id fails this message only
			log.Printf("[WARN] skipping article '%s' in '%s': %v", row.MessageID(), group.Name, err)
			ParseFailures.Inc()
			continue
		}

		exists, err := proc.store.GetMessageByMsgID(message.MsgID)
		if err != nil {
			return 0, err
		}
		if exists != nil {
			continue
		}
		messages = append(messages, message)
	}

	if len(messages) == 0 {
		return 0, nil
	}

	newThreads, err := proc.resolveThreads(group, messages)
	if err != nil {
		return 0, err
	}
	if err := proc.store.InsertBatch(newThreads, messages); err != nil {
		return 0, err
	}
	if err := proc.store.TouchGroup(group.ID, time.Now()); err != nil {
		return 0, err
	}

	MessagesIngested.Add(float64(len(messages)))
	return len(messages), nil
}

// resolveThreads assigns a thread to every message of the batch, in
// chronological order. First match wins: an in-batch message the reply
// points at, a stored message the reply points at, an in-batch message
// with the same normalized subject, a stored thread with that subject in
// the same group, else a freshly staged thread. Each resolved message is
// recorded under both its own message-ID and its normalized subject so
// later batch members chain off it without an explicit reply reference.
func (proc *Processor) resolveThreads(group *models.Group, messages []*models.Message) ([]*models.Thread, error) {
	threadBySubject := make(map[string]*models.Thread)
	threadByMsgID := make(map[string]*models.Thread)
	var newThreads []*models.Thread

	for _, message := range messages {
		var thread *models.Thread

		if message.ReplyTo != "" {
			if t, ok := threadByMsgID[message.ReplyTo]; ok {
				thread = t
			} else {
				prev, err := proc.store.GetMessageByMsgID(message.ReplyTo)
				if err != nil {
					return nil, err
				}
				if prev != nil && prev.ThreadID != 0 {
					t, err := proc.store.GetThreadByID(prev.ThreadID)
					if err != nil {
						return nil, err
					}
					thread = t
				}
			}
		}
		if thread == nil {
			thread = threadBySubject[message.SubjectNormalized]
		}
		if thread == nil {
			t, err := proc.store.GetThreadBySubject(group.ID, message.SubjectNormalized)
			if err != nil {
				return nil, err
			}
			thread = t
		}
		if thread == nil {
			thread = &models.Thread{
				GroupID: group.ID,
				Subject: message.SubjectNormalized,
				Created: message.Created,
				Updated: message.Created,
			}
			newThreads = append(newThreads, thread)
		}

		threadBySubject[message.SubjectNormalized] = thread
		threadByMsgID[message.MsgID] = thread
		message.Thread = thread
	}
	return newThreads, nil
}

// buildMessage maps one enriched overview row to a Message record.
func buildMessage(group *models.Group, row *models.OverviewRow) (*models.Message, error) {
	msgID := row.MessageID()
	if msgID == "" {
		return nil, fmt.Errorf("overview row without message-id")
	}

	created, err := ParseArticleDate(row.DateString())
	if err != nil {
		return nil, err
	}

	subject := row.Subject()
	return &models.Message{
		GroupID:           group.ID,
		MsgID:             msgID,
		ReplyTo:           replyToFromHeaders(row.Headers),
		Sender:            row.From(),
		Subject:           subject,
		SubjectNormalized: NormalizeSubject(subject),
		Headers:           strings.Join(row.Headers, "\n"),
		Body:              strings.Join(row.BodyLines, "\n"),
		Created:           created,
		Refs:              row.References,
	}, nil
}

// replyToFromHeaders extracts the In-Reply-To value from raw header
// lines; the last occurrence wins.
func replyToFromHeaders(headers []string) string {
	var replyTo string
	for _, header := range headers {
		if strings.HasPrefix(strings.ToLower(header), "in-reply-to:") {
			if _, value, ok := strings.Cut(header, ":"); ok {
				replyTo = strings.TrimSpace(value)
			}
		}
	}
	return replyTo
}

// splitServerGroups groups "server/group" URLs per server, preserving
// first-seen server order and per-server group order.
func splitServerGroups(groupURLs []string) ([]string, map[string][]string) {
	var servers []string
	groupsPerServer := make(map[string][]string)
	for _, groupURL := range groupURLs {
		server, group, ok := strings.Cut(groupURL, "/")
		if !ok || server == "" || group == "" {
			log.Printf("[WARN] ignoring malformed group url %q (want server/group)", groupURL)
			continue
		}
		if _, seen := groupsPerServer[server]; !seen {
			servers = append(servers, server)
		}
		groupsPerServer[server] = append(groupsPerServer[server], group)
	}
	return servers, groupsPerServer
}
