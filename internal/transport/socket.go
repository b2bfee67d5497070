package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/MrSnakeDoc/herald/internal/domain"
	"github.com/MrSnakeDoc/herald/internal/logger"
)

const (
	// DefaultDialTimeout bounds the websocket handshake.
	DefaultDialTimeout = 4 * time.Second
	// maxFrameBytes caps a single inbound frame.
	maxFrameBytes = 1 << 20
)

// SocketOptions configures the live transport.
type SocketOptions struct {
	URL         string        // ws:// or wss:// endpoint
	DialTimeout time.Duration // default DefaultDialTimeout
	HTTPClient  *http.Client  // optional, for custom TLS
	OnStatus    func(Status)  // optional, called on every status change
}

// Socket is the live transport: one persistent websocket connection
// authenticated with a bearer credential.
type Socket struct {
	opts    SocketOptions
	handler Handler
	logger  logger.Logger
	status  atomic.Value // Status
	count   atomic.Int64

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
	done   chan struct{}
}

var _ Transport = (*Socket)(nil)

// NewSocket creates a disconnected live transport.
func NewSocket(opts SocketOptions, handler Handler, log logger.Logger) *Socket {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = DefaultDialTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	s := &Socket{
		opts:    opts,
		handler: handler,
		logger:  log,
	}
	s.status.Store(StatusDisconnected)
	return s
}

// Connect dials the endpoint. Dial failures are logged and leave the
// transport disconnected; they are not returned.
func (s *Socket) Connect(ctx context.Context, credential string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, s.opts.DialTimeout)
	defer cancel()

	header := http.Header{}
	if credential != "" {
		header.Set("Authorization", "Bearer "+credential)
	}

	conn, _, err := websocket.Dial(dialCtx, s.opts.URL, &websocket.DialOptions{
		HTTPClient: s.opts.HTTPClient,
		HTTPHeader: header,
	})
	if err != nil {
		s.logger.Warn("socket connect failed, staying disconnected",
			logger.String("url", s.opts.URL),
			logger.Error(err))
		s.setStatus(StatusDisconnected)
		return nil
	}
	conn.SetReadLimit(maxFrameBytes)

	readCtx, cancelRead := context.WithCancel(context.Background())
	s.conn = conn
	s.cancel = cancelRead
	s.done = make(chan struct{})

	s.logger.Info("socket connected", logger.String("url", s.opts.URL))
	s.setStatus(StatusConnected)

	go s.readLoop(readCtx, conn, s.done)
	return nil
}

// Disconnect closes the socket and waits for the read loop to exit.
func (s *Socket) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return
	}

	s.cancel()
	_ = s.conn.Close(websocket.StatusNormalClosure, "client disconnect")
	<-s.done

	s.conn = nil
	s.cancel = nil
	s.done = nil
	s.setStatus(StatusDisconnected)
	s.logger.Info("socket disconnected")
}

// Status reports the current connection state.
func (s *Socket) Status() Status {
	return s.status.Load().(Status)
}

// Mode always returns ModeLive.
func (s *Socket) Mode() Mode { return ModeLive }

// Delivered returns how many frames were forwarded to the handler.
func (s *Socket) Delivered() int64 { return s.count.Load() }

func (s *Socket) readLoop(ctx context.Context, conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() == nil && !isNormalClose(err) {
				s.logger.Warn("socket dropped", logger.Error(err))
			}
			s.setStatus(StatusDisconnected)
			return
		}

		ev, err := decodeFrame(data)
		if err != nil {
			s.logger.Debug("ignoring socket frame", logger.Error(err))
			continue
		}

		// the connection may have been cancelled while we were decoding
		if ctx.Err() != nil {
			return
		}
		s.count.Add(1)
		s.handler(ev)
	}
}

func (s *Socket) setStatus(st Status) {
	prev := s.status.Swap(st)
	if prev != st && s.opts.OnStatus != nil {
		s.opts.OnStatus(st)
	}
}

func decodeFrame(data []byte) (domain.InboundEvent, error) {
	var msg domain.WireMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return domain.InboundEvent{}, err
	}

	kind, err := domain.ParseWireName(msg.Event)
	if err != nil {
		return domain.InboundEvent{}, err
	}

	var raw domain.RawAnnouncement
	if err := json.Unmarshal(msg.Data, &raw); err != nil {
		return domain.InboundEvent{}, err
	}

	return domain.InboundEvent{Kind: kind, Raw: raw}, nil
}

func isNormalClose(err error) bool {
	status := websocket.CloseStatus(err)
	return status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway ||
		errors.Is(err, context.Canceled)
}
