package provider

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/rs/zerolog"

	"github.com/busnap/tracking-bridge/internal/core/domain"
	"github.com/busnap/tracking-bridge/internal/core/ports"
)

// uereMeters converts HDOP into an approximate horizontal accuracy.
const uereMeters = 5.0

// NMEAProvider reads NMEA 0183 sentences from a GNSS receiver exposed as a
// character device (e.g. /dev/ttyACM0).
type NMEAProvider struct {
	device string
	open   func(name string) (io.ReadCloser, error)
	now    func() time.Time
	log    zerolog.Logger

	mu   sync.Mutex
	subs map[string]*subscription
}

func NewNMEAProvider(device string, log zerolog.Logger) *NMEAProvider {
	return &NMEAProvider{
		device: device,
		open:   func(name string) (io.ReadCloser, error) { return os.Open(name) },
		now:    time.Now,
		log:    log,
		subs:   make(map[string]*subscription),
	}
}

var _ ports.LocationProvider = (*NMEAProvider)(nil)

func (p *NMEAProvider) Name() string { return "nmea" }

// RequestLocationUpdates opens the device and streams fixes to cb until the
// subscription is removed. A device the process may not read yields
// domain.ErrPermissionDenied.
func (p *NMEAProvider) RequestLocationUpdates(ctx context.Context, req domain.LocationRequest, cb ports.LocationCallback) (ports.Subscription, error) {
	rc, err := p.open(p.device)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %w", domain.ErrPermissionDenied, err)
		}
		return nil, fmt.Errorf("open nmea device: %w", err)
	}

	// The subscription outlives the request that created it.
	sub, subCtx := newSubscription(context.WithoutCancel(ctx))
	b := newBatcher(req, cb, p.now)

	sub.goRun(func() { b.run(subCtx) })
	sub.goRun(func() { p.read(subCtx, rc, b) })
	sub.goRun(func() {
		<-subCtx.Done()
		_ = rc.Close() // unblocks the reader
	})

	p.mu.Lock()
	p.subs[sub.id] = sub
	p.mu.Unlock()

	p.log.Info().Str("device", p.device).Str("subscription", sub.id).Msg("nmea subscription started")
	return sub, nil
}

func (p *NMEAProvider) RemoveLocationUpdates(_ context.Context, s ports.Subscription) error {
	if s == nil {
		return nil
	}
	p.mu.Lock()
	sub, ok := p.subs[s.ID()]
	delete(p.subs, s.ID())
	p.mu.Unlock()

	if ok {
		sub.stop()
		p.log.Info().Str("subscription", sub.id).Msg("nmea subscription removed")
	}
	return nil
}

func (p *NMEAProvider) read(ctx context.Context, r io.Reader, b *batcher) {
	var st nmeaState
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fix, ok, err := st.parseLine(sc.Text(), p.now)
		if err != nil {
			p.log.Debug().Err(err).Msg("skipping nmea sentence")
			continue
		}
		if ok {
			b.add(fix)
		}
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		p.log.Error().Err(err).Str("device", p.device).Msg("nmea read failed")
	}
}

// nmeaState carries values that arrive in one sentence type and are needed by another.
type nmeaState struct {
	hdop float64
}

// parseLine consumes one sentence. It returns a fix for every valid RMC.
func (st *nmeaState) parseLine(line string, now func() time.Time) (domain.LocationFix, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return domain.LocationFix{}, false, nil
	}
	s, err := nmea.Parse(line)
	if err != nil {
		return domain.LocationFix{}, false, err
	}

	switch s.DataType() {
	case nmea.TypeGGA:
		gga := s.(nmea.GGA)
		st.hdop = gga.HDOP
	case nmea.TypeRMC:
		rmc := s.(nmea.RMC)
		if rmc.Validity != nmea.ValidRMC {
			return domain.LocationFix{}, false, nil
		}
		return domain.LocationFix{
			Latitude:        rmc.Latitude,
			Longitude:       rmc.Longitude,
			Accuracy:        st.hdop * uereMeters,
			TimestampMillis: rmcTime(rmc, now).UnixMilli(),
		}, true, nil
	}
	return domain.LocationFix{}, false, nil
}

// rmcTime combines the RMC date and time, falling back to now when either is missing.
func rmcTime(rmc nmea.RMC, now func() time.Time) time.Time {
	if !rmc.Date.Valid || !rmc.Time.Valid {
		return now().UTC()
	}
	year := 2000 + rmc.Date.YY
	if rmc.Date.YY >= 80 {
		year = 1900 + rmc.Date.YY
	}
	return time.Date(year, time.Month(rmc.Date.MM), rmc.Date.DD,
		rmc.Time.Hour, rmc.Time.Minute, rmc.Time.Second,
		rmc.Time.Millisecond*int(time.Millisecond), time.UTC)
}
