package opensubtitles

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TurriJP/ossub-downloader/internal/subtitles"
)

var methodNamePattern = regexp.MustCompile(`<methodName>\s*([A-Za-z]+)\s*</methodName>`)

type rpcCall struct {
	Method string
	Body   string
}

// rpcServer answers XML-RPC calls with canned struct replies keyed by method.
type rpcServer struct {
	mu      sync.Mutex
	calls   []rpcCall
	replies map[string]string
	holds   map[string]chan struct{}
	server  *httptest.Server
}

func newRPCServer(t *testing.T, replies map[string]string) *rpcServer {
	t.Helper()
	s := &rpcServer{replies: replies}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		method := ""
		if m := methodNamePattern.FindStringSubmatch(string(body)); m != nil {
			method = m[1]
		}
		s.mu.Lock()
		s.calls = append(s.calls, rpcCall{Method: method, Body: string(body)})
		reply, ok := s.replies[method]
		hold := s.holds[method]
		s.mu.Unlock()
		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}
		if !ok {
			reply = xmlStruct(member("status", xmlString("405 Method not allowed")))
		}
		w.Header().Set("Content-Type", "text/xml")
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><methodResponse><params><param>%s</param></params></methodResponse>`, reply)
	}))
	t.Cleanup(s.server.Close)
	return s
}

// hold makes calls to method hang until the test ends.
func (s *rpcServer) hold(t *testing.T, method string) {
	t.Helper()
	ch := make(chan struct{})
	s.mu.Lock()
	if s.holds == nil {
		s.holds = make(map[string]chan struct{})
	}
	s.holds[method] = ch
	s.mu.Unlock()
	t.Cleanup(func() { close(ch) })
}

func (s *rpcServer) methods() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.calls))
	for _, c := range s.calls {
		out = append(out, c.Method)
	}
	return out
}

func (s *rpcServer) call(method string) rpcCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.calls {
		if c.Method == method {
			return c
		}
	}
	return rpcCall{}
}

func xmlString(v string) string { return "<value><string>" + v + "</string></value>" }
func xmlDouble(v string) string { return "<value><double>" + v + "</double></value>" }
func xmlBool(v bool) string {
	if v {
		return "<value><boolean>1</boolean></value>"
	}
	return "<value><boolean>0</boolean></value>"
}
func member(name, value string) string {
	return "<member><name>" + name + "</name>" + value + "</member>"
}
func xmlStruct(members ...string) string {
	return "<value><struct>" + strings.Join(members, "") + "</struct></value>"
}
func xmlArray(values ...string) string {
	return "<value><array><data>" + strings.Join(values, "") + "</data></array></value>"
}

func record(iso, langID, name, downloads, link string, score string) string {
	members := []string{
		member("SubFileName", xmlString(name)),
		member("ISO639", xmlString(iso)),
		member("SubLanguageID", xmlString(langID)),
		member("SubDownloadsCnt", xmlString(downloads)),
		member("SubDownloadLink", xmlString(link)),
		member("SubFormat", xmlString("srt")),
	}
	if score != "" {
		members = append(members, member("Score", xmlDouble(score)))
	}
	return xmlStruct(members...)
}

var (
	loginOK  = xmlStruct(member("status", xmlString("200 OK")), member("token", xmlString("tok123")))
	logoutOK = xmlStruct(member("status", xmlString("200 OK")))
)

func newTestClient(t *testing.T, server *rpcServer) *Client {
	t.Helper()
	log, _ := test.NewNullLogger()
	client, err := New(Config{
		Endpoint:     server.server.URL,
		Username:     "alice",
		PasswordHash: "5f4dcc3b5aa765d61d8327deb882cf99",
		Timeout:      5 * time.Second,
		Log:          log,
	})
	require.NoError(t, err)
	return client
}

func TestSearchByQueryGroupsByLanguage(t *testing.T) {
	search := xmlStruct(
		member("status", xmlString("200 OK")),
		member("data", xmlArray(
			record("en", "eng", "Movie.2019.srt", "1042", "https://dl.opensubtitles.org/en/download/src-api/vrf-19/sid-1/filead/111.gz", "12.5"),
			record("pt", "pob", "Filme.srt", "3", "https://dl.opensubtitles.org/en/download/src-api/vrf-19/sid-1/filead/222.gz", ""),
			record("en", "eng", "Movie.2019.HI.srt", "7", "https://dl.opensubtitles.org/en/download/src-api/vrf-19/sid-1/filead/333.gz", "3"),
		)),
	)
	server := newRPCServer(t, map[string]string{"LogIn": loginOK, "SearchSubtitles": search, "LogOut": logoutOK})
	client := newTestClient(t, server)

	results, err := client.Search(context.Background(), subtitles.SearchRequest{Language: "eng", Query: "Movie.2019.mkv"})
	require.NoError(t, err)
	require.NoError(t, client.Close())

	require.Len(t, results.Groups, 2)
	assert.Equal(t, "en", results.Groups[0].Key)
	assert.Equal(t, "pt", results.Groups[1].Key)
	require.Len(t, results.Groups[0].Subtitles, 2)

	first := results.Groups[0].Subtitles[0]
	assert.Equal(t, "Movie.2019.srt", first.Filename)
	assert.Equal(t, 1042, first.Downloads)
	require.NotNil(t, first.Score)
	assert.Equal(t, 12.5, *first.Score)
	assert.Equal(t, "https://dl.opensubtitles.org/en/download/src-api/vrf-19/sid-1/filead/111.srt", first.URL)
	assert.Equal(t, "https://dl.opensubtitles.org/en/download/subencoding-utf8/src-api/vrf-19/sid-1/filead/111.srt", first.UTF8)
	assert.Nil(t, results.Groups[1].Subtitles[0].Score)

	assert.Equal(t, []string{"LogIn", "SearchSubtitles", "LogOut"}, server.methods())
	login := server.call("LogIn").Body
	assert.Contains(t, login, "alice")
	assert.Contains(t, login, "5f4dcc3b5aa765d61d8327deb882cf99")
	assert.Contains(t, login, "SMPlayer v22")

	body := server.call("SearchSubtitles").Body
	assert.Contains(t, body, "tok123")
	assert.Regexp(t, `<name>query</name>\s*<value>\s*<string>Movie\.2019\.mkv</string>`, body)
	assert.Regexp(t, `<name>sublanguageid</name>\s*<value>\s*<string>eng</string>`, body)
	assert.NotContains(t, body, "moviehash")
}

func TestSearchByFingerprint(t *testing.T) {
	search := xmlStruct(member("status", xmlString("200 OK")), member("data", xmlArray()))
	server := newRPCServer(t, map[string]string{"LogIn": loginOK, "SearchSubtitles": search})
	client := newTestClient(t, server)

	video := filepath.Join(t.TempDir(), "movie.mkv")
	require.NoError(t, os.WriteFile(video, make([]byte, 128*1024), 0o644))

	results, err := client.Search(context.Background(), subtitles.SearchRequest{Language: "eng", Path: video})
	require.NoError(t, err)
	assert.Empty(t, results.Flatten())

	body := server.call("SearchSubtitles").Body
	assert.Contains(t, body, "<name>moviehash</name>")
	assert.Regexp(t, `<name>moviebytesize</name>\s*<value>\s*<string>131072</string>`, body)
	assert.NotContains(t, body, "<name>query</name>")
}

func TestSearchNoMatchesReturnsEmpty(t *testing.T) {
	search := xmlStruct(member("status", xmlString("200 OK")), member("data", xmlBool(false)))
	server := newRPCServer(t, map[string]string{"LogIn": loginOK, "SearchSubtitles": search})
	client := newTestClient(t, server)

	results, err := client.Search(context.Background(), subtitles.SearchRequest{Language: "eng", Query: "nothing"})
	require.NoError(t, err)
	assert.Empty(t, results.Groups)
}

func TestSearchLoginRejected(t *testing.T) {
	server := newRPCServer(t, map[string]string{
		"LogIn": xmlStruct(member("status", xmlString("401 Unauthorized"))),
	})
	client := newTestClient(t, server)

	_, err := client.Search(context.Background(), subtitles.SearchRequest{Language: "eng", Query: "x"})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "LogIn", statusErr.Method)
	assert.Equal(t, "opensubtitles: LogIn: 401 Unauthorized", err.Error())
	assert.Equal(t, []string{"LogIn"}, server.methods())
}

func TestSearchReusesSession(t *testing.T) {
	search := xmlStruct(member("status", xmlString("200 OK")), member("data", xmlBool(false)))
	server := newRPCServer(t, map[string]string{"LogIn": loginOK, "SearchSubtitles": search, "LogOut": logoutOK})
	client := newTestClient(t, server)

	for i := 0; i < 2; i++ {
		_, err := client.Search(context.Background(), subtitles.SearchRequest{Language: "eng", Query: "x"})
		require.NoError(t, err)
	}
	require.NoError(t, client.Close())

	assert.Equal(t, []string{"LogIn", "SearchSubtitles", "SearchSubtitles", "LogOut"}, server.methods())
}

func TestSearchRespectsContext(t *testing.T) {
	server := newRPCServer(t, map[string]string{"LogIn": loginOK})
	client := newTestClient(t, server)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Search(ctx, subtitles.SearchRequest{Language: "eng", Query: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCancelDuringHungSearchReturnsPromptly(t *testing.T) {
	search := xmlStruct(member("status", xmlString("200 OK")), member("data", xmlBool(false)))
	server := newRPCServer(t, map[string]string{"LogIn": loginOK, "SearchSubtitles": search, "LogOut": logoutOK})
	server.hold(t, "SearchSubtitles")
	log, _ := test.NewNullLogger()
	client, err := New(Config{Endpoint: server.server.URL, Log: log})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	_, err = client.Search(ctx, subtitles.SearchRequest{Language: "eng", Query: "x"})
	assert.ErrorIs(t, err, context.Canceled)
	require.NoError(t, client.Close())

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.NotContains(t, server.methods(), "LogOut")

	_, err = client.Search(context.Background(), subtitles.SearchRequest{Language: "eng", Query: "x"})
	assert.Error(t, err)
}

func TestCloseWithoutSessionSkipsLogOut(t *testing.T) {
	server := newRPCServer(t, map[string]string{})
	client := newTestClient(t, server)

	require.NoError(t, client.Close())
	assert.Empty(t, server.methods())
}

func TestContentLinks(t *testing.T) {
	raw, utf8 := contentLinks("https://dl.opensubtitles.org/en/download/file/1.gz", "sub")
	assert.Equal(t, "https://dl.opensubtitles.org/en/download/file/1.sub", raw)
	assert.Equal(t, "https://dl.opensubtitles.org/en/download/subencoding-utf8/file/1.sub", utf8)

	raw, utf8 = contentLinks("https://example.com/plain", "")
	assert.Equal(t, "https://example.com/plain", raw)
	assert.Empty(t, utf8)
}

func TestDecodeRecordFallsBackToLanguageID(t *testing.T) {
	results, err := groupRecords([]interface{}{
		map[string]interface{}{"SubFileName": "a.srt", "SubLanguageID": "pob", "SubDownloadsCnt": ""},
	})
	require.NoError(t, err)
	require.Len(t, results.Groups, 1)
	assert.Equal(t, "pob", results.Groups[0].Key)
	assert.Equal(t, 0, results.Groups[0].Subtitles[0].Downloads)
}
