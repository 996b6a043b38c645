// Package widget bridges the external address-autocomplete/map picker
// to the branch location form. The widget lives outside the trust
// boundary: readiness is detected by polling, and inbound messages are
// accepted only from allow-listed origins with exactly the expected
// payload shape. Everything else is logged and discarded.
package widget

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

// Status reports whether the external widget is usable.
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// PlaceSelection is the only payload the adapter accepts: an address
// with its coordinates, produced by a place pick or a marker drag.
type PlaceSelection struct {
	Address string  `mapstructure:"address"`
	Lat     float64 `mapstructure:"lat"`
	Lng     float64 `mapstructure:"lng"`
}

// Adapter validates widget events and tracks widget readiness.
type Adapter struct {
	allowedOrigins map[string]struct{}
	logger         *zap.Logger

	mu     sync.Mutex
	status Status
}

func NewAdapter(allowedOrigins []string, logger *zap.Logger) *Adapter {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origins[origin] = struct{}{}
	}
	return &Adapter{
		allowedOrigins: origins,
		logger:         logger.Named("widget_adapter"),
		status:         StatusLoading,
	}
}

func (a *Adapter) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

func (a *Adapter) setStatus(s Status) {
	a.mu.Lock()
	a.status = s
	a.mu.Unlock()
}

// WaitReady polls the probe with exponential backoff until it succeeds
// or ctx expires. The probe stands in for "the external script/global
// is available".
func (a *Adapter) WaitReady(ctx context.Context, probe func(context.Context) error) error {
	a.setStatus(StatusLoading)
	err := backoff.Retry(func() error {
		return probe(ctx)
	}, backoff.WithContext(backoff.NewExponentialBackOff(), ctx))
	if err != nil {
		a.setStatus(StatusError)
		return fmt.Errorf("widget never became ready: %w", err)
	}
	a.setStatus(StatusReady)
	return nil
}

// HandleMessage validates an inbound cross-window message. The origin
// must be allow-listed and the payload must carry exactly
// {address: string, lat: number, lng: number}; otherwise the message is
// discarded with a warning and an error is returned.
func (a *Adapter) HandleMessage(origin string, payload []byte) (*PlaceSelection, error) {
	if _, ok := a.allowedOrigins[origin]; !ok {
		a.logger.Warn("discarding message from untrusted origin", zap.String("origin", origin))
		return nil, fmt.Errorf("untrusted origin %q", origin)
	}

	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		a.logger.Warn("discarding malformed widget message", zap.Error(err))
		return nil, fmt.Errorf("malformed payload: %w", err)
	}
	for _, key := range []string{"address", "lat", "lng"} {
		if _, ok := raw[key]; !ok {
			a.logger.Warn("discarding widget message with missing field", zap.String("field", key))
			return nil, fmt.Errorf("payload missing %q", key)
		}
	}

	var selection PlaceSelection
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result: &selection,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		a.logger.Warn("discarding widget message with wrong field types", zap.Error(err))
		return nil, fmt.Errorf("unexpected payload shape: %w", err)
	}
	return &selection, nil
}
