// Package metrics emits the service's StatsD metrics with consistent names and tags.
package metrics

import (
	"time"

	obserrors "github.com/target/tenant-auth/internal/observability/errors"
	"github.com/target/tenant-auth/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultFail    = "fail"
	ResultFatal   = "fatal"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Authenticate branch tags.
const (
	BranchValidate = "validate"
	BranchRefresh  = "refresh"
	BranchCallback = "callback"
	BranchSession  = "session"
	BranchNone     = "none"
)

// AuthMetric captures the outcome of a single Authenticate call.
type AuthMetric struct {
	Strategy string
	Branch   string
	Result   string
	Duration time.Duration
	Err      error
}

// EmitAuthenticate emits the auth.authenticate counter and timing.
func EmitAuthenticate(sink statsd.Sink, in AuthMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"strategy": in.Strategy,
		"branch":   in.Branch,
		"result":   in.Result,
	}
	if in.Err != nil {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("auth.authenticate", 1, tags)
	if in.Duration > 0 {
		sink.Timing("auth.authenticate.duration", in.Duration, CloneTags(tags))
	}
}

// PurgeMetric captures one session purge pass.
type PurgeMetric struct {
	Result   string
	Deleted  int64
	Duration time.Duration
	Err      error
}

// EmitSessionPurge emits session.purge metrics.
func EmitSessionPurge(sink statsd.Sink, in PurgeMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{"result": in.Result}
	if in.Err != nil {
		tags["error_class"] = obserrors.Classify(in.Err)
	}
	sink.Count("session.purge", 1, tags)
	if in.Deleted > 0 {
		sink.Gauge("session.purge.deleted", float64(in.Deleted), CloneTags(tags))
	}
	if in.Duration > 0 {
		sink.Timing("session.purge.duration", in.Duration, CloneTags(tags))
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
