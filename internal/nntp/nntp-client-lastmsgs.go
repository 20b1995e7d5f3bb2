package nntp

import (
	"errors"
	"fmt"
	"log"

	"github.com/go-while/go-nntparc/internal/models"
	"github.com/go-while/go-nntparc/internal/utils"
)

// DefaultChunkSize bounds one overview round trip during the backward walk.
const DefaultChunkSize = 100

// LastMessages collects up to count messages from the group that are newer
// than watermarkMsgID, oldest first. It walks the article number range
// backward in windows of at most chunkSize, fetching the cheap overview
// range per window and the full article only for rows actually kept. The
// walk stops as soon as the watermark row is seen (that row and everything
// older is excluded), so the work is bounded by genuinely new messages
// even when count is large.
func (c *Conn) LastMessages(group string, count int, watermarkMsgID string, chunkSize int) ([]*models.OverviewRow, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	info, err := c.SelectGroup(group)
	if err != nil {
		return nil, err
	}

	startNum := info.Last - int64(count) + 1
	if startNum < info.First {
		startNum = info.First
	}

	var kept []*models.OverviewRow
	ended := false
	for chunkEnd := info.Last; chunkEnd >= startNum && !ended; chunkEnd -= int64(chunkSize) {
		chunkStart := chunkEnd - int64(chunkSize) + 1
		if chunkStart < startNum {
			chunkStart = startNum
		}

		rows, err := c.Overview(chunkStart, chunkEnd)
		if err != nil {
			return nil, fmt.Errorf("overview walk %d-%d in '%s' failed: %w", chunkStart, chunkEnd, group, err)
		}

		// newest first within the window, so the watermark check fires
		// before any older row gets its article fetched
		for i := len(rows) - 1; i >= 0; i-- {
			row := rows[i]
			if watermarkMsgID != "" && row.MessageID() == watermarkMsgID {
				ended = true
				break
			}
			headers, body, err := c.Article(row.MessageID())
			if err != nil {
				// expired between the overview walk and the fetch
				if errors.Is(err, ErrArticleNotFound) {
					log.Printf("[WARN] article '%s' in '%s' gone, skipping", row.MessageID(), group)
					continue
				}
				return nil, err
			}
			row.Headers = headers
			row.BodyLines = body
			if refs := row.Get("references"); refs != "" {
				row.References = utils.ParseReferences(refs)
			}
			kept = append(kept, row)
		}
	}

	if c.cfg.Debug {
		log.Printf("[NNTP-WALK] group '%s' kept %d of up to %d (watermark %q)", group, len(kept), count, watermarkMsgID)
	}

	// accumulator is newest-first; callers want chronological order
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return kept, nil
}
