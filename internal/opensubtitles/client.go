package opensubtitles

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/kolo/xmlrpc"
	"github.com/sirupsen/logrus"

	"github.com/TurriJP/ossub-downloader/internal/subtitles"
)

const (
	defaultEndpoint      = "https://api.opensubtitles.org/xml-rpc"
	defaultUserAgent     = "SMPlayer v22"
	defaultLoginLanguage = "en"
	// largest page the XML-RPC API hands out
	maxSearchLimit = 500
	logoutTimeout  = 5 * time.Second
)

// Config describes the OpenSubtitles XML-RPC client configuration.
type Config struct {
	Endpoint      string
	UserAgent     string
	LoginLanguage string
	Username      string
	PasswordHash  string
	// SearchLimit caps results when a request asks for all of them.
	SearchLimit int
	// Timeout bounds each remote call; zero means none.
	Timeout   time.Duration
	Transport http.RoundTripper
	Log       logrus.FieldLogger
}

// Client talks to the legacy OpenSubtitles XML-RPC API. It logs in lazily on
// the first search and logs out on Close.
type Client struct {
	rpc           *xmlrpc.Client
	userAgent     string
	loginLanguage string
	username      string
	passwordHash  string
	limit         int
	timeout       time.Duration
	log           logrus.FieldLogger

	token string
	// stalled is set once a call was given up on while still in flight.
	// net/rpc would queue anything sent after it behind the hung request.
	stalled bool
}

// StatusError is returned when the API answers with a non-200 status field.
type StatusError struct {
	Method string
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("opensubtitles: %s: %s", e.Method, e.Status)
}

// New creates a Client from the supplied configuration.
func New(cfg Config) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	loginLanguage := strings.TrimSpace(cfg.LoginLanguage)
	if loginLanguage == "" {
		loginLanguage = defaultLoginLanguage
	}
	limit := cfg.SearchLimit
	if limit <= 0 || limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	if cfg.Timeout < 0 {
		return nil, errors.New("opensubtitles: timeout must not be negative")
	}

	rpc, err := xmlrpc.NewClient(endpoint, cfg.Transport)
	if err != nil {
		return nil, fmt.Errorf("opensubtitles: create rpc client: %w", err)
	}

	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		rpc:           rpc,
		userAgent:     userAgent,
		loginLanguage: loginLanguage,
		username:      cfg.Username,
		passwordHash:  cfg.PasswordHash,
		limit:         limit,
		timeout:       cfg.Timeout,
		log:           log,
	}, nil
}

// Search implements subtitles.Searcher. Results are grouped by two-letter
// language code in the order the API listed them.
func (c *Client) Search(ctx context.Context, req subtitles.SearchRequest) (subtitles.Results, error) {
	if c == nil {
		return subtitles.Results{}, errors.New("opensubtitles: client is nil")
	}
	if err := c.login(ctx); err != nil {
		return subtitles.Results{}, err
	}

	query := map[string]interface{}{
		"sublanguageid": req.Language,
	}
	if req.Path != "" {
		fp, err := ComputeFingerprint(req.Path)
		if err != nil {
			return subtitles.Results{}, err
		}
		c.log.WithFields(logrus.Fields{
			"hash": fp.Hash,
			"size": humanize.Bytes(uint64(fp.Size)),
		}).Debug("computed movie hash")
		query["moviehash"] = fp.Hash
		query["moviebytesize"] = strconv.FormatInt(fp.Size, 10)
	} else {
		query["query"] = req.Query
	}

	limit := c.limit
	if req.Limit > 0 && req.Limit < limit {
		limit = req.Limit
	}

	reply, err := c.call(ctx, "SearchSubtitles", c.token, []interface{}{query}, map[string]interface{}{"limit": limit})
	if err != nil {
		return subtitles.Results{}, err
	}
	return groupRecords(reply["data"])
}

// Close ends the remote session, if any. LogOut is skipped when an earlier
// call was abandoned and is bounded by a short deadline otherwise.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	var err error
	if c.token != "" && !c.stalled {
		ctx, cancel := context.WithTimeout(context.Background(), logoutTimeout)
		_, err = c.call(ctx, "LogOut", c.token)
		cancel()
	}
	c.token = ""
	if cerr := c.rpc.Close(); err == nil {
		err = cerr
	}
	return err
}

func (c *Client) login(ctx context.Context) error {
	if c.token != "" {
		return nil
	}
	reply, err := c.call(ctx, "LogIn", c.username, c.passwordHash, c.loginLanguage, c.userAgent)
	if err != nil {
		return err
	}
	token, _ := reply["token"].(string)
	if token == "" {
		return errors.New("opensubtitles: LogIn: response missing token")
	}
	c.token = token
	return nil
}

// call invokes method and checks the status field every response carries.
func (c *Client) call(ctx context.Context, method string, args ...interface{}) (map[string]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("opensubtitles: %s: %w", method, err)
	}
	if c.stalled {
		return nil, fmt.Errorf("opensubtitles: %s: earlier call still pending", method)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reply map[string]interface{}
	done := make(chan error, 1)
	go func() {
		done <- c.rpc.Call(method, args, &reply)
	}()

	select {
	case <-ctx.Done():
		c.stalled = true
		return nil, fmt.Errorf("opensubtitles: %s: %w", method, ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("opensubtitles: %s: %w", method, err)
		}
	}

	status, _ := reply["status"].(string)
	if !strings.HasPrefix(status, "200") {
		return nil, &StatusError{Method: method, Status: status}
	}
	return reply, nil
}
