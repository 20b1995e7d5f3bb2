package nntp

// NNTP command implementations for go-nntparc.

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/go-while/go-nntparc/internal/models"
)

// GroupInfo represents the state of a selected newsgroup.
type GroupInfo struct {
	Name  string
	Count int64
	First int64
	Last  int64
}

// readResponse frames one protocol response. The status line is read
// first; an empty line or a leading '4'/'5' digit is a ProtocolError.
// When long is set and the status code belongs to the multi-line set,
// continuation lines are read until the lone-dot terminator (consumed,
// excluded) or the stream ends. Continuation lines keep whatever bytes
// the server sent; nothing is rejected for bad encoding.
func (c *Conn) readResponse(long bool) ([]string, error) {
	line, err := c.textConn.ReadLine()
	if err != nil {
		return nil, &ConnectionError{Op: "read status line", Err: err}
	}
	if c.cfg.Debug {
		log.Printf("[NNTP-READ] << %q", line)
	}
	if line == "" || line[0] == '4' || line[0] == '5' {
		return nil, &ProtocolError{Line: line}
	}

	lines := []string{line}
	if !long || len(line) < 3 || !longResponseCodes[line[:3]] {
		return lines, nil
	}

	for {
		next, err := c.textConn.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				// stream ended without terminator: return what we framed
				break
			}
			return nil, &ConnectionError{Op: "read response body", Err: err}
		}
		if c.cfg.Debug {
			log.Printf("[NNTP-READ] << %q", next)
		}
		if next == DOT {
			break
		}
		// undo dot-stuffing (lines starting with .. become .)
		if strings.HasPrefix(next, "..") {
			next = next[1:]
		}
		if len(lines) >= MaxReadLines {
			c.closeLocked()
			return nil, fmt.Errorf("too many lines in response (limit: %d)", MaxReadLines)
		}
		lines = append(lines, next)
	}

	return lines, nil
}

// sendCmdLocked writes one command line and frames its response.
// Callers must hold c.mu.
func (c *Conn) sendCmdLocked(long bool, format string, args ...any) ([]string, error) {
	if !c.connected {
		return nil, ErrNotConnected
	}
	cmd := fmt.Sprintf(format, args...)
	if c.cfg.Debug {
		log.Printf("[NNTP-SEND] >> %q", cmd+"\r\n")
	}
	if err := c.textConn.PrintfLine("%s", cmd); err != nil {
		return nil, &ConnectionError{Op: "send command", Err: err}
	}
	c.lastUsed = time.Now()
	return c.readResponse(long)
}

// fetchCapabilities issues CAPABILITIES and stores the result for feature
// checks (OVER vs. XOVER). Callers must hold c.mu.
func (c *Conn) fetchCapabilities() error {
	lines, err := c.sendCmdLocked(true, "CAPABILITIES")
	if err != nil {
		return err
	}
	caps := make(map[string][]string)
	for _, line := range lines[1:] {
		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}
		caps[words[0]] = words[1:]
	}
	c.caps = caps
	return nil
}

// OverviewFormat returns the overview field layout advertised by
// LIST OVERVIEW.FMT, lowercased and in server order. A server answering
// with an error status gets the classic seven-field default. The result
// is cached for the life of the connection.
func (c *Conn) OverviewFormat() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.overviewFormatLocked()
}

func (c *Conn) overviewFormatLocked() ([]string, error) {
	if c.fmtFields != nil {
		return c.fmtFields, nil
	}
	lines, err := c.sendCmdLocked(true, "LIST OVERVIEW.FMT")
	if err != nil {
		if IsProtocolError(err) {
			// server without OVERVIEW.FMT support: assume the classic layout
			c.fmtFields = append([]string(nil), defaultOverviewFields...)
			return c.fmtFields, nil
		}
		return nil, err
	}

	fields := make([]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		// both "Subject:" and ":bytes" forms occur in the wild
		parts := strings.SplitN(line, ":", 2)
		name := parts[0]
		if name == "" && len(parts) > 1 {
			name = parts[1]
		}
		if name == "" {
			continue
		}
		fields = append(fields, strings.ToLower(name))
	}
	if len(fields) == 0 {
		fields = append(fields, defaultOverviewFields...)
	}
	c.fmtFields = fields
	return c.fmtFields, nil
}

// ListGroups retrieves the names of the newsgroups the server carries.
func (c *Conn) ListGroups() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines, err := c.sendCmdLocked(true, "LIST")
	if err != nil {
		return nil, fmt.Errorf("LIST failed: %w", err)
	}

	groups := make([]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		// format: "group last first posting" - only the name matters here
		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}
		groups = append(groups, words[0])
	}
	return groups, nil
}

// SelectGroup selects a newsgroup and returns its article number range.
// Any status other than 211 is a ProtocolError; missing numeric fields
// default to zero.
func (c *Conn) SelectGroup(groupName string) (*GroupInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines, err := c.sendCmdLocked(false, "GROUP %s", groupName)
	if err != nil {
		return nil, fmt.Errorf("GROUP '%s' failed: %w", groupName, err)
	}

	line := lines[0]
	words := strings.Fields(line)
	if len(words) == 0 || words[0] != "211" {
		return nil, &ProtocolError{Line: line}
	}

	info := &GroupInfo{}
	if len(words) > 1 {
		info.Count, _ = strconv.ParseInt(words[1], 10, 64)
	}
	if len(words) > 2 {
		info.First, _ = strconv.ParseInt(words[2], 10, 64)
	}
	if len(words) > 3 {
		info.Last, _ = strconv.ParseInt(words[3], 10, 64)
	}
	if len(words) > 4 {
		info.Name = words[4]
	}
	return info, nil
}

// Overview fetches overview rows for the inclusive article number range
// first-last, using OVER when the server advertises it and XOVER
// otherwise. Tab fields are mapped positionally through the cached
// overview layout; the leading article number is discarded and an inline
// "fieldname:" echo is stripped case-insensitively.
func (c *Conn) Overview(first, last int64) ([]*models.OverviewRow, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fields, err := c.overviewFormatLocked()
	if err != nil {
		return nil, err
	}

	cmd := "XOVER"
	if c.hasCapability("OVER") {
		cmd = "OVER"
	}
	lines, err := c.sendCmdLocked(true, "%s %d-%d", cmd, first, last)
	if err != nil {
		return nil, fmt.Errorf("%s %d-%d failed: %w", cmd, first, last, err)
	}

	rows := make([]*models.OverviewRow, 0, len(lines)-1)
	for _, line := range lines[1:] {
		parts := strings.Split(line, "\t")
		row := &models.OverviewRow{Fields: make(map[string]string, len(fields))}
		for i := 0; i < len(fields) && i < len(parts)-1; i++ {
			name := fields[i]
			value := parts[i+1]
			// some servers echo the field name inline: "Bytes: 4046"
			if len(value) > len(name) && strings.EqualFold(value[:len(name)+1], name+":") {
				value = strings.TrimLeft(value[len(name)+1:], " \t")
			}
			row.Fields[name] = value
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Article retrieves a complete article by message-ID and splits it at the
// first blank line into headers and body (the blank line itself excluded).
func (c *Conn) Article(messageID string) (headers, body []string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines, err := c.sendCmdLocked(true, "ARTICLE %s", messageID)
	if err != nil {
		if isGoneStatus(err) {
			return nil, nil, fmt.Errorf("ARTICLE '%s': %w", messageID, ErrArticleNotFound)
		}
		return nil, nil, fmt.Errorf("ARTICLE '%s' failed: %w", messageID, err)
	}
	headers, body = splitArticle(lines[1:])
	return headers, body, nil
}

// Body retrieves only the body lines of an article by message-ID.
func (c *Conn) Body(messageID string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines, err := c.sendCmdLocked(true, "BODY %s", messageID)
	if err != nil {
		if isGoneStatus(err) {
			return nil, fmt.Errorf("BODY '%s': %w", messageID, ErrArticleNotFound)
		}
		return nil, fmt.Errorf("BODY '%s' failed: %w", messageID, err)
	}
	return lines[1:], nil
}

// isGoneStatus reports whether err is a 430 protocol error.
func isGoneStatus(err error) bool {
	var perr *ProtocolError
	return errors.As(err, &perr) && strings.HasPrefix(perr.Line, "430")
}

// splitArticle separates raw article lines at the first blank line.
func splitArticle(lines []string) (headers, body []string) {
	for i, line := range lines {
		if line == "" {
			return lines[:i], lines[i+1:]
		}
	}
	return lines, nil
}
