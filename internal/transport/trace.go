package transport

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"moul.io/http2curl"
)

// CurlTracer is an http.RoundTripper that logs every outgoing request as an
// equivalent curl command at debug level before handing it to Base.
type CurlTracer struct {
	Base http.RoundTripper
	Log  *logrus.Logger
}

// NewClient returns an http.Client that traces its requests through log.
// A zero timeout means no timeout.
func NewClient(log *logrus.Logger, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &CurlTracer{Log: log},
	}
}

func (t *CurlTracer) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Log != nil && t.Log.IsLevelEnabled(logrus.DebugLevel) {
		// GetCurlCommand drains and restores the body
		if command, err := http2curl.GetCurlCommand(req); err == nil {
			t.Log.WithField("curl", command.String()).Debug("http request")
		}
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
