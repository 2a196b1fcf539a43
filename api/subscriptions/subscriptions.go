// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/builtin/stakepool"
	"github.com/vechain/stakepool/co"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/metrics"
)

var (
	logger              = log.WithContext("pkg", "subscriptions")
	metricSubscribers   = metrics.LazyLoadGaugeVec("api_subscribers", []string{"stream"})
	metricDroppedLagged = metrics.LazyLoadCounterVec("api_subscribers_dropped", []string{"stream"})
	eventsStream        = metrics.Labels{"stream": "events"}
)

const (
	eventCacheSize = 1000
	listenerBuffer = 64
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 7 / 10
)

// Subscriptions streams pool events over websockets. Recent events are kept
// so a client can resume after the last sequence number it saw.
type Subscriptions struct {
	pool     *stakepool.Pool
	upgrader *websocket.Upgrader

	mu        sync.Mutex
	recent    *lru.Cache // seq => *stakepool.Event
	listeners map[chan *stakepool.Event]struct{}

	goes co.Goes
	done chan struct{}
	once sync.Once
}

func New(pool *stakepool.Pool, allowedOrigins []string) *Subscriptions {
	recent, err := lru.New(eventCacheSize)
	if err != nil {
		panic(errors.Wrap(err, "create event cache"))
	}
	s := &Subscriptions{
		pool: pool,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				return false
			},
		},
		recent:    recent,
		listeners: make(map[chan *stakepool.Event]struct{}),
		done:      make(chan struct{}),
	}

	ch := make(chan *stakepool.Event, listenerBuffer)
	sub := pool.SubscribeEvents(ch)
	s.goes.Go(func() {
		defer sub.Unsubscribe()
		s.dispatchLoop(ch, sub.Err())
	})
	return s
}

// dispatchLoop caches every event and fans it out. A listener whose buffer
// is full is dropped and its channel closed.
func (s *Subscriptions) dispatchLoop(ch <-chan *stakepool.Event, errCh <-chan error) {
	for {
		select {
		case ev := <-ch:
			s.mu.Lock()
			s.recent.Add(ev.Seq, ev)
			for lsn := range s.listeners {
				select {
				case lsn <- ev:
				default:
					delete(s.listeners, lsn)
					close(lsn)
					metricSubscribers().Add(-1, eventsStream)
					metricDroppedLagged().Add(1, eventsStream)
				}
			}
			s.mu.Unlock()
		case <-errCh:
			return
		case <-s.done:
			return
		}
	}
}

// subscribe registers a listener and returns the cached events after since.
func (s *Subscriptions) subscribe(since *uint64) (chan *stakepool.Event, []*stakepool.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var backlog []*stakepool.Event
	if since != nil {
		// keys are ordered oldest first
		for _, key := range s.recent.Keys() {
			if key.(uint64) <= *since {
				continue
			}
			if ev, ok := s.recent.Peek(key); ok {
				backlog = append(backlog, ev.(*stakepool.Event))
			}
		}
	}
	ch := make(chan *stakepool.Event, listenerBuffer)
	s.listeners[ch] = struct{}{}
	metricSubscribers().Add(1, eventsStream)
	return ch, backlog
}

func (s *Subscriptions) unsubscribe(ch chan *stakepool.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.listeners[ch]; ok {
		delete(s.listeners, ch)
		metricSubscribers().Add(-1, eventsStream)
	}
}

func parseSince(s string) (*uint64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Subscriptions) handleSubscribeEvents(w http.ResponseWriter, req *http.Request) error {
	since, err := parseSince(req.URL.Query().Get("since"))
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "since"))
	}
	// registered before the upgrade so no event falls between the backlog
	// and the live stream
	ch, backlog := s.subscribe(since)
	defer s.unsubscribe(ch)

	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader has replied already
		logger.Debug("upgrade failed", "err", err)
		return nil
	}
	defer conn.Close()

	if err := s.pipe(conn, ch, backlog); err != nil {
		logger.Debug("subscription closed", "err", err)
	}
	return nil
}

func (s *Subscriptions) pipe(conn *websocket.Conn, ch <-chan *stakepool.Event, backlog []*stakepool.Event) error {
	closed := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var last uint64
	write := func(ev *stakepool.Event) error {
		if ev.Seq <= last {
			return nil
		}
		last = ev.Seq
		data, err := json.Marshal(convertEvent(ev))
		if err != nil {
			return err
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(websocket.TextMessage, data)
	}
	closeWith := func(code int, text string) error {
		return conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(writeWait))
	}

	for _, ev := range backlog {
		if err := write(ev); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return closeWith(websocket.ClosePolicyViolation, "listener lagging")
			}
			if err := write(ev); err != nil {
				return err
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		case <-closed:
			return nil
		case <-s.done:
			return closeWith(websocket.CloseGoingAway, "server closing")
		}
	}
}

// Close stops dispatching and ends every open subscription.
func (s *Subscriptions) Close() {
	s.once.Do(func() {
		close(s.done)
		s.goes.Wait()
	})
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/events").
		Methods(http.MethodGet).
		Name("subscriptions_get_events").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeEvents))
}
