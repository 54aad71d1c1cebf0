// Package server exposes tracking runs over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/swdee/vidtrack"
	"github.com/swdee/vidtrack/pipeline"
	"github.com/swdee/vidtrack/sink"
)

// Options configures the Server
type Options struct {
	// Deps builds the constructors of a run, defaults to
	// pipeline.DefaultDeps
	Deps func(log *logrus.Entry) pipeline.Deps
	// Stream enables the MJPEG preview at /stream
	Stream bool
	// MQTTBroker enables publishing tracks to MQTTTopic on the broker
	MQTTBroker string
	MQTTTopic  string
}

// Server runs one tracking run at a time in response to /detect requests
type Server struct {
	opts   Options
	log    *logrus.Entry
	run    sync.Mutex
	stream *sink.Stream
}

// New returns a Server
func New(log *logrus.Entry, opts Options) *Server {

	if opts.Deps == nil {
		opts.Deps = pipeline.DefaultDeps
	}

	s := &Server{
		opts: opts,
		log:  log,
	}

	if opts.Stream {
		s.stream = sink.NewStream()
	}

	return s
}

// Handler returns the HTTP routes of the server
func (s *Server) Handler() http.Handler {

	mux := http.NewServeMux()
	mux.HandleFunc("/detect", s.detect)

	if s.stream != nil {
		mux.Handle("/stream", s.stream.Handler())
	}

	return mux
}

// detect runs a tracking run to completion and reports its outcome
func (s *Server) detect(w http.ResponseWriter, r *http.Request) {

	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	params, err := ParseParams(r.URL.Query())

	if err != nil {
		s.respond(w, err)
		return
	}

	if !s.run.TryLock() {
		http.Error(w, "a run is already active", http.StatusConflict)
		return
	}

	defer s.run.Unlock()

	deps := s.opts.Deps(s.log)

	if s.stream != nil {
		deps.Sinks = append(deps.Sinks, s.stream)
	}

	if s.opts.MQTTBroker != "" {
		deps.NewPublisher = func(source string) (sink.Sink, error) {
			return sink.NewPublisher(s.opts.MQTTBroker, "vidtrack-"+uuid.NewString(),
				s.opts.MQTTTopic, source)
		}
	}

	sum, err := pipeline.Execute(r.Context(), params, deps)

	if err == nil {
		s.log.WithFields(logrus.Fields{
			"run":    sum.RunID,
			"frames": sum.Frames,
		}).Info("Run finished")
	}

	s.respond(w, err)
}

// StatusFor maps the outcome of a run to an HTTP status and response body
func StatusFor(err error) (int, string) {

	switch {
	case err == nil:
		return http.StatusOK, "Success"
	case errors.Is(err, vidtrack.ErrUserInterrupt):
		return http.StatusOK, "Stopped"
	case errors.Is(err, vidtrack.ErrInvalidParams):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, vidtrack.ErrSourceUnavailable):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "Cancelled"
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func (s *Server) respond(w http.ResponseWriter, err error) {

	status, body := StatusFor(err)

	if status >= http.StatusInternalServerError {
		s.log.WithError(err).Error("Run failed")
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
