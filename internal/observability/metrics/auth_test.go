package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/tenant-auth/internal/domain/auth"
)

type call struct {
	kind string
	name string
	tags map[string]string
}

type sink struct{ calls []call }

func (s *sink) Count(name string, _ int64, tags map[string]string) {
	s.calls = append(s.calls, call{"count", name, tags})
}
func (s *sink) Gauge(name string, _ float64, tags map[string]string) {
	s.calls = append(s.calls, call{"gauge", name, tags})
}
func (s *sink) Timing(name string, _ time.Duration, tags map[string]string) {
	s.calls = append(s.calls, call{"timing", name, tags})
}

func TestEmitAuthenticate(t *testing.T) {
	s := &sink{}
	EmitAuthenticate(s, AuthMetric{
		Strategy: "cookie",
		Branch:   BranchCallback,
		Result:   ResultFatal,
		Duration: time.Millisecond,
		Err:      &domainauth.ProviderError{Code: domainauth.CodeUnauthorizedClient},
	})

	require.Len(t, s.calls, 2)
	assert.Equal(t, "auth.authenticate", s.calls[0].name)
	assert.Equal(t, map[string]string{
		"strategy":    "cookie",
		"branch":      "callback",
		"result":      "fatal",
		"error_class": "oidc_unauthorized_client",
	}, s.calls[0].tags)
	assert.Equal(t, "timing", s.calls[1].kind)
}

func TestEmitAuthenticate_NilSink(t *testing.T) {
	assert.NotPanics(t, func() { EmitAuthenticate(nil, AuthMetric{}) })
}

func TestEmitSessionPurge(t *testing.T) {
	s := &sink{}
	EmitSessionPurge(s, PurgeMetric{Result: ResultError, Err: errors.New("boom")})
	require.Len(t, s.calls, 1)
	assert.Equal(t, "errors_errorstring", s.calls[0].tags["error_class"])

	s.calls = nil
	EmitSessionPurge(s, PurgeMetric{Result: ResultSuccess, Deleted: 4, Duration: time.Second})
	assert.Len(t, s.calls, 3)
}
