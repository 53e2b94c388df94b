package session

import (
	"context"
	"log"
	"time"

	"github.com/satindergrewal/sonigraph/internal/apperr"
	"github.com/satindergrewal/sonigraph/internal/dataset"
)

// APIStatus is the state of the live data connection.
type APIStatus string

const (
	APIDisconnected APIStatus = "disconnected"
	APIConnecting   APIStatus = "connecting"
	APIConnected    APIStatus = "connected"
	APIError        APIStatus = "error"
)

// ConnectLive fetches a history for symbol, makes it the dataset and turns
// on live mode. An empty symbol uses the configured one. On failure the
// current dataset stays loaded.
func (s *Session) ConnectLive(ctx context.Context, symbol string) error {
	if symbol == "" {
		symbol = s.opts.LiveSymbol
	}
	if symbol == "" {
		return apperr.Input("A symbol is required")
	}
	s.poller.Stop()
	s.setAPIStatus(APIConnecting)

	series, err := s.feed.Series(ctx, symbol)
	if err != nil {
		s.setAPIStatus(APIError)
		log.Printf("Failed to connect to live data: %v", err)
		return err
	}

	s.mu.Lock()
	s.buffer.Fill(series.Values)
	ds, err := dataset.New(series.Name, series.Description, dataset.SourceLive, s.buffer.Values())
	if err != nil {
		s.buffer.Reset()
		s.apiStatus = APIError
		s.mu.Unlock()
		return apperr.LiveFetch(err, "Live feed returned no data")
	}
	s.dataset = ds
	s.connected = true
	s.liveMode = true
	s.symbol = symbol
	s.apiStatus = APIConnected
	s.lastUpdate = series.FetchedAt
	s.clock.SetData(ds.Values, false)
	s.marker.Store(nil)
	s.clock.SetContinuous(true)
	s.refreshLocked()
	info := s.datasetInfoLocked()
	s.mu.Unlock()

	s.poller.Start(context.Background())
	log.Printf("Connected to live data for %s (%d points)", symbol, ds.Len())
	s.events.Publish("dataset", info)
	s.publishStatus()
	return nil
}

// Disconnect stops live updates and discards the live buffer. The last live
// snapshot stays loaded as a static dataset.
func (s *Session) Disconnect() {
	s.mu.Lock()
	was := s.connected
	s.connected = false
	s.liveMode = false
	s.apiStatus = APIDisconnected
	s.buffer.Reset()
	s.clock.SetContinuous(false)
	s.refreshLocked()
	s.mu.Unlock()

	// Stop waits for an in-flight update, which needs mu.
	s.poller.Stop()
	if was {
		log.Println("Disconnected from live data")
		s.publishStatus()
	}
}

// SetLiveMode switches between following live updates with continuous
// playback and treating the buffer as a static dataset. It requires a live
// connection.
func (s *Session) SetLiveMode(on bool) error {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return apperr.Input("Please connect to live data first")
	}
	if s.liveMode == on {
		s.mu.Unlock()
		return nil
	}
	s.liveMode = on
	s.clock.SetContinuous(on)
	if on && s.dataset != nil {
		values := s.buffer.Values()
		s.dataset = s.dataset.WithValues(values)
		s.clock.SetData(values, true)
	}
	s.refreshLocked()
	s.mu.Unlock()

	if on {
		s.poller.Start(context.Background())
		log.Println("Live mode on")
	} else {
		s.poller.Stop()
		log.Println("Live mode off")
	}
	s.publishStatus()
	return nil
}

// RefreshLive fetches new data immediately. In live mode one point is
// appended; otherwise the whole history is refetched and playback, if
// running, restarts on it.
func (s *Session) RefreshLive(ctx context.Context) error {
	s.mu.Lock()
	connected, mode, symbol := s.connected, s.liveMode, s.symbol
	s.mu.Unlock()
	if !connected {
		return apperr.Input("No live data connection active")
	}

	if mode {
		v, err := s.feed.Latest(ctx)
		if err != nil {
			s.setAPIStatus(APIError)
			return err
		}
		s.mu.Lock()
		if s.connected && s.liveMode {
			s.pushLocked(v)
		}
		s.mu.Unlock()
		return nil
	}

	series, err := s.feed.Series(ctx, symbol)
	if err != nil {
		s.setAPIStatus(APIError)
		log.Printf("Live data refresh failed: %v", err)
		return err
	}

	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return nil
	}
	s.buffer.Fill(series.Values)
	values := s.buffer.Values()
	s.dataset = s.dataset.WithValues(values)
	s.dataset.Name = series.Name
	s.apiStatus = APIConnected
	s.lastUpdate = series.FetchedAt
	wasPlaying := s.clock.Playing()
	s.clock.SetData(values, false)
	info := s.datasetInfoLocked()
	s.mu.Unlock()

	s.events.Publish("dataset", info)
	if wasPlaying {
		s.clock.Stop()
		return s.Play(ctx)
	}
	s.publishStatus()
	return nil
}

// onLiveValue receives values from the poller.
func (s *Session) onLiveValue(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected || !s.liveMode {
		return
	}
	s.pushLocked(v)
}

// pushLocked appends a live value and moves playback to trail it. Must be
// called with mu held.
func (s *Session) pushLocked(v float64) {
	s.buffer.Push(v)
	values := s.buffer.Values()
	s.dataset = s.dataset.WithValues(values)
	s.lastUpdate = time.Now()
	s.apiStatus = APIConnected
	s.clock.SetData(values, true)
	s.clock.FollowTail(FollowLag)
	if s.opts.Debug {
		log.Printf("Live update %.4f (buffer %d/%d)", v, s.buffer.Len(), s.buffer.Cap())
	}
	s.events.Publish("live", LiveUpdate{Value: v, Length: len(values), At: s.lastUpdate})
}

// LiveUpdate is published for every appended live value.
type LiveUpdate struct {
	Value  float64   `json:"value"`
	Length int       `json:"length"`
	At     time.Time `json:"at"`
}

func (s *Session) setAPIStatus(st APIStatus) {
	s.mu.Lock()
	s.apiStatus = st
	s.mu.Unlock()
	s.events.Publish("api", st)
}
