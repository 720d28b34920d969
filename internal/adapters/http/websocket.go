package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/hewliyang/waze-traffic-api/internal/adapters/nats"
	"github.com/hewliyang/waze-traffic-api/internal/pkg/metrics"
)

const wsPingInterval = 30 * time.Second

// wsMessage is sent by clients to change which routes they follow.
type wsMessage struct {
	Action string `json:"action"` // "subscribe" | "unsubscribe"
	Route  string `json:"route"`  // watched route name, "" for all routes
}

func wsSubject(route string) string {
	if route == "" {
		return natsadapter.SampleSubjectPrefix + ">"
	}
	return natsadapter.SampleSubject(route)
}

// wsSession is one client's set of sample subscriptions. Writes from NATS
// callbacks, the pinger and the read loop are serialised by mu.
type wsSession struct {
	conn *websocket.Conn
	nc   *nats.Conn
	log  *slog.Logger

	mu   sync.Mutex
	subs map[string]*nats.Subscription
}

func (s *wsSession) write(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(messageType, data)
}

func (s *wsSession) send(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = s.write(websocket.TextMessage, data)
}

func (s *wsSession) relay(msg *nats.Msg) {
	_ = s.write(websocket.TextMessage, msg.Data)
}

func (s *wsSession) subscribe(subject string) error {
	if _, ok := s.subs[subject]; ok {
		s.send(statusMsg("already subscribed", subject))
		return nil
	}
	sub, err := s.nc.Subscribe(subject, s.relay)
	if err != nil {
		return err
	}
	s.subs[subject] = sub
	s.send(statusMsg("subscribed", subject))
	return nil
}

func (s *wsSession) unsubscribe(subject string) {
	sub, ok := s.subs[subject]
	if !ok {
		s.send(map[string]string{"error": "not subscribed to " + subject})
		return
	}
	_ = sub.Unsubscribe()
	delete(s.subs, subject)
	s.send(statusMsg("unsubscribed", subject))
}

func (s *wsSession) close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
}

func (s *wsSession) ping(done <-chan struct{}) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func statusMsg(status, subject string) map[string]string {
	return map[string]string{"status": status, "subject": subject}
}

// WebSocketHandler relays travel samples published by the poller. A new
// connection follows every route; sending
//
//	{"action":"unsubscribe","route":""}
//	{"action":"subscribe","route":"vista-to-subang"}
//
// narrows it to one.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		s := &wsSession{
			conn: c,
			nc:   nc,
			log:  slog.Default().With("remote_addr", c.RemoteAddr().String()),
			subs: make(map[string]*nats.Subscription),
		}
		if nc == nil {
			s.send(map[string]string{"error": "live feed not configured"})
			return
		}

		if err := s.subscribe(wsSubject("")); err != nil {
			s.log.Error("ws default subscribe", "error", err)
			return
		}
		defer s.close()
		s.log.Info("ws client connected")

		done := make(chan struct{})
		defer close(done)
		go s.ping(done)

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(raw, &m); err != nil {
				s.send(map[string]string{"error": "invalid JSON"})
				continue
			}

			subject := wsSubject(m.Route)
			switch m.Action {
			case "subscribe":
				if err := s.subscribe(subject); err != nil {
					s.send(map[string]string{"error": "subscribe failed: " + err.Error()})
				}
			case "unsubscribe":
				s.unsubscribe(subject)
			default:
				s.send(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		s.log.Info("ws client disconnected")
	}
}
