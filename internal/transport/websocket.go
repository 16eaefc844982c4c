package transport

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultMessageSize is the read limit before negotiation.
	DefaultMessageSize = 128
	// NegotiatedMessageSize is the enlarged limit requested on connect, big
	// enough that every protocol payload fits in a single un-chunked frame.
	NegotiatedMessageSize = 512

	// inboundQueueSize bounds the queue between the read loop and the
	// consumer. A stalled consumer drops the oldest message instead of
	// stalling reception.
	inboundQueueSize = 64

	writeTimeout = 5 * time.Second
)

// WS is a Transport over a WebSocket carrying UTF-8 JSON text frames. Board
// firmware exposes the endpoint at ws://<addr>/link.
type WS struct {
	log *logrus.Entry

	mu          sync.Mutex
	conn        *websocket.Conn
	messageSize int
	subscribed  bool
	inbound     chan []byte
	done        chan struct{}
	closeOnce   *sync.Once
}

// NewWS returns an unconnected WebSocket transport.
func NewWS(log *logrus.Logger) *WS {
	return &WS{
		log:  log.WithField("component", "transport"),
		done: closedChan(),
	}
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// Connect dials the board. A fresh inbound queue and done signal are armed
// for the new connection.
func (t *WS) Connect(ctx context.Context, target string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		t.closeLocked()
	}

	u := url.URL{Scheme: "ws", Host: target, Path: "/link"}
	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", ErrUnreachable, target, err)
	}
	conn.SetReadLimit(DefaultMessageSize)

	t.conn = conn
	t.messageSize = DefaultMessageSize
	t.subscribed = false
	t.inbound = make(chan []byte, inboundQueueSize)
	t.done = make(chan struct{})
	t.closeOnce = &sync.Once{}

	t.log.Infof("connected to board at %s", target)
	return nil
}

// Negotiate raises the per-message read limit. WebSocket framing has no MTU
// exchange, so enlarging always succeeds locally; the error path covers a
// link that died between connect and negotiate.
func (t *WS) Negotiate(ctx context.Context) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return 0, fmt.Errorf("%w: no connection", ErrNegotiation)
	}
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%w: %v", ErrNegotiation, ctx.Err())
	default:
	}

	t.conn.SetReadLimit(NegotiatedMessageSize)
	t.messageSize = NegotiatedMessageSize
	t.log.Infof("message size negotiated: %d bytes", t.messageSize)
	return t.messageSize, nil
}

// Subscribe starts the read loop that delivers inbound frames.
func (t *WS) Subscribe(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return fmt.Errorf("%w: no connection", ErrSubscribe)
	}
	if t.subscribed {
		return nil
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrSubscribe, ctx.Err())
	default:
	}

	t.subscribed = true
	go t.readLoop(t.conn, t.inbound, t.done, t.closeOnce)
	return nil
}

// readLoop pumps frames from the socket into the bounded inbound queue. It
// must never block on a slow consumer: when the queue is full the oldest
// message is dropped so reception keeps up with the board.
func (t *WS) readLoop(conn *websocket.Conn, inbound chan []byte, done chan struct{}, once *sync.Once) {
	defer once.Do(func() {
		close(inbound)
		close(done)
	})

	for {
		_, data, err := conn.Read(context.Background())
		if err != nil {
			t.log.Debugf("read loop ended: %v", err)
			return
		}

		select {
		case inbound <- data:
		default:
			select {
			case stale := <-inbound:
				t.log.Warnf("inbound queue full, dropped message: %.64s", stale)
			default:
			}
			select {
			case inbound <- data:
			default:
			}
		}
	}
}

// Send writes one frame as UTF-8 text. Fire-and-forget: a write error tears
// nothing down here; the read loop notices the dead link.
func (t *WS) Send(data []byte) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return ErrNotReady
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("%w: %v", ErrSend, err)
	}
	return nil
}

// Receive returns the inbound queue for the current connection.
func (t *WS) Receive() <-chan []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.inbound == nil {
		ch := make(chan []byte)
		close(ch)
		return ch
	}
	return t.inbound
}

// Done reports termination of the current connection.
func (t *WS) Done() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

// Disconnect tears the link down. Safe to call repeatedly and when never
// connected.
func (t *WS) Disconnect() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeLocked()
}

func (t *WS) closeLocked() {
	if t.conn == nil {
		return
	}
	conn := t.conn
	once := t.closeOnce
	inbound := t.inbound
	done := t.done
	subscribed := t.subscribed

	t.conn = nil
	t.subscribed = false

	_ = conn.Close(websocket.StatusNormalClosure, "disconnect")
	if !subscribed && once != nil {
		// Read loop never started; close the signals ourselves.
		once.Do(func() {
			close(inbound)
			close(done)
		})
	}
}
