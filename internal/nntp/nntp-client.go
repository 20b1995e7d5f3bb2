package nntp

// nntp implements the client side of the protocol for go-nntparc:
// one persistent connection per server, one in-flight command at a time.

import (
	"fmt"
	"net"
	"net/textproto"
	"sync"
	"time"
)

const (
	// DOT terminates a multi-line response body.
	DOT = "."

	// DefaultPort is the plaintext NNTP port.
	DefaultPort = 119

	// DefaultConnectTimeout bounds the TCP dial.
	DefaultConnectTimeout = 30 * time.Second

	// MaxReadLines is the maximum lines to read per response
	// (allow for large group lists).
	MaxReadLines = 500000
)

// longResponseCodes lists the status codes whose responses are multi-line
// when the caller asked for a long read (RFC 3977 plus the classic
// XOVER/AUTHINFO extensions).
var longResponseCodes = map[string]bool{
	"100": true, "101": true, "211": true, "215": true,
	"220": true, "221": true, "222": true, "224": true,
	"225": true, "230": true, "231": true, "282": true,
}

// defaultOverviewFields is the field layout assumed when the server does
// not answer LIST OVERVIEW.FMT.
var defaultOverviewFields = []string{
	"subject", "from", "date", "message-id", "references", "bytes", "lines",
}

// ClientConfig holds the per-server settings for one connection.
type ClientConfig struct {
	Host           string
	Port           int
	ConnectTimeout time.Duration
	Debug          bool // log every raw line sent and received
}

// Conn is an NNTP connection to a single server. Commands are strictly
// sequential: a new command is not sent until the prior response is fully
// framed.
type Conn struct {
	cfg      *ClientConfig
	conn     net.Conn
	textConn *textproto.Conn
	mu       sync.Mutex

	connected bool
	caps      map[string][]string
	fmtFields []string // cached LIST OVERVIEW.FMT layout, lazily fetched

	created  time.Time
	lastUsed time.Time
}

// NewConn creates a new unconnected client for the given server.
func NewConn(cfg *ClientConfig) *Conn {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	return &Conn{
		cfg:     cfg,
		created: time.Now(),
	}
}

// Connect dials the server, consumes the greeting and negotiates
// capabilities. After a successful Connect the connection is ready for
// commands.
func (c *Conn) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	serverAddr := net.JoinHostPort(c.cfg.Host, fmt.Sprintf("%d", c.cfg.Port))
	conn, err := net.DialTimeout("tcp", serverAddr, c.cfg.ConnectTimeout)
	if err != nil {
		return &ConnectionError{Op: "dial " + serverAddr, Err: err}
	}

	c.conn = conn
	c.textConn = textproto.NewConn(conn)
	c.connected = true
	c.lastUsed = time.Now()

	// greeting: content discarded, 4xx/5xx rejected by readResponse
	if _, err := c.readResponse(false); err != nil {
		c.closeLocked()
		return fmt.Errorf("failed to read greeting from %s: %w", serverAddr, err)
	}

	if err := c.fetchCapabilities(); err != nil {
		c.closeLocked()
		return fmt.Errorf("failed to read capabilities from %s: %w", serverAddr, err)
	}

	return nil
}

// Close tears the connection down. Safe to call twice.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Conn) closeLocked() error {
	if !c.connected {
		return nil
	}
	c.connected = false
	var err error
	if c.textConn != nil {
		err = c.textConn.Close()
	} else if c.conn != nil {
		err = c.conn.Close()
	}
	c.textConn = nil
	c.conn = nil
	return err
}

// Capabilities returns the capability map negotiated at connect time,
// keyed by capability name with its advertised arguments.
func (c *Conn) Capabilities() map[string][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.caps
}

func (c *Conn) hasCapability(name string) bool {
	_, ok := c.caps[name]
	return ok
}
