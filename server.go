package mqlite

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/xid"
	"golang.org/x/time/rate"
)

// Server errors.
var (
	ErrServerClosed  = errors.New("mqlite: server closed")
	ErrServerRunning = errors.New("mqlite: server already running")
)

// Server is a lightweight MQTT v5.0 broker.
//
// One event-loop goroutine owns all broker state: the client set, the
// subscription index, the retained store handle and the keep-alive
// tracker. The accept goroutine and the per-connection reader
// goroutines only produce events into the loop's channel; every packet
// is handled, and every response written, on the loop goroutine. That
// keeps packets from one client in arrival order and fan-out in
// subscription insertion order without any locking.
type Server struct {
	config   *serverConfig
	listener net.Listener
	log      Logger
	metrics  *BrokerMetrics
	retained RetainedStore
	limiter  *rate.Limiter

	// Loop-owned state.
	subs      *SubscriptionIndex
	clients   map[*ServerClient]struct{}
	byID      map[string]*ServerClient
	keepAlive *keepAliveTracker

	events  chan event
	done    chan struct{}
	running atomic.Bool
	closer  sync.Once
	wg      sync.WaitGroup
}

type eventKind int

const (
	eventConn eventKind = iota
	eventPacket
)

// event is one unit of work for the broker loop: a freshly accepted
// connection, or the outcome of one ReadPacket call on a client.
type event struct {
	kind   eventKind
	conn   net.Conn
	client *ServerClient
	pkt    Packet
	size   int
	err    error
}

// NewServer creates a broker listening on addr.
func NewServer(addr string, opts ...ServerOption) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewServerWithListener(listener, opts...), nil
}

// NewServerWithListener creates a broker on an existing listener.
func NewServerWithListener(listener net.Listener, opts ...ServerOption) *Server {
	config := defaultServerConfig()
	for _, opt := range opts {
		opt(config)
	}

	s := &Server{
		config:    config,
		listener:  listener,
		log:       config.logger,
		metrics:   NewBrokerMetrics(config.metrics),
		retained:  config.retainedStore,
		subs:      NewSubscriptionIndex(),
		clients:   make(map[*ServerClient]struct{}),
		byID:      make(map[string]*ServerClient),
		keepAlive: newKeepAliveTracker(),
		events:    make(chan event, 64),
		done:      make(chan struct{}),
	}

	if config.connectRate != rate.Inf {
		burst := config.connectBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(config.connectRate, burst)
	}

	return s
}

// Addr returns the listener address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// ListenAndServe runs the broker until Close is called. It always
// returns ErrServerClosed after a clean shutdown.
func (s *Server) ListenAndServe() error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerRunning
	}

	s.log.Info("broker started", LogFields{"addr": s.listener.Addr().String()})

	s.wg.Add(1)
	go s.acceptLoop()

	s.run()
	s.wg.Wait()

	s.log.Info("broker stopped", nil)
	return ErrServerClosed
}

// Close stops the broker: the listener closes, the loop drains, every
// live connection is told the server is shutting down.
func (s *Server) Close() error {
	s.closer.Do(func() {
		close(s.done)
		s.listener.Close()
	})
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-s.done
		cancel()
	}()

	for {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return
			}
		}

		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			s.log.Warn("accept failed", LogFields{"error": err})
			time.Sleep(100 * time.Millisecond)
			continue
		}

		select {
		case s.events <- event{kind: eventConn, conn: conn}:
		case <-s.done:
			conn.Close()
			return
		}
	}
}

// readLoop produces one event per ReadPacket outcome. It exits on the
// first fatal error; the loop closes the connection when it sees it.
func (s *Server) readLoop(client *ServerClient) {
	defer s.wg.Done()

	for {
		pkt, n, err := ReadPacket(client.reader, s.config.maxPacketSize)

		select {
		case s.events <- event{kind: eventPacket, client: client, pkt: pkt, size: n, err: err}:
		case <-s.done:
			return
		}

		if err != nil && !IgnorablePacketError(err) {
			return
		}
	}
}

// run is the broker event loop. All state mutation happens here.
func (s *Server) run() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			s.shutdown()
			return

		case ev := <-s.events:
			s.handleEvent(ev)

		case now := <-ticker.C:
			s.sweepKeepAlive(now)
		}
	}
}

func (s *Server) handleEvent(ev event) {
	switch ev.kind {
	case eventConn:
		s.handleAccept(ev.conn)

	case eventPacket:
		client := ev.client
		if client.state == stateClosed {
			return
		}

		if ev.size > 0 {
			client.receivedData = true
			s.metrics.IncBytesReceived(ev.size)
		}

		if ev.err != nil {
			s.handleReadError(client, ev.err)
		} else {
			s.keepAlive.Touch(client, time.Now())
			s.handlePacket(client, ev.pkt)
		}

		if !client.IsConnected() && client.state != stateClosed {
			s.dropClient(client)
		}
	}
}

func (s *Server) handleAccept(conn net.Conn) {
	if s.config.maxConnections > 0 && len(s.clients) >= s.config.maxConnections {
		s.log.Warn("connection limit reached", LogFields{"remote_addr": conn.RemoteAddr()})
		conn.Close()
		return
	}

	client := newServerClient(conn)
	s.clients[client] = struct{}{}

	s.metrics.IncTotalConnections()
	s.metrics.SetActiveConnections(len(s.clients))
	s.log.Debug("connection accepted", LogFields{"remote_addr": conn.RemoteAddr()})

	s.wg.Add(1)
	go s.readLoop(client)
}

func (s *Server) handleReadError(client *ServerClient, err error) {
	if IgnorablePacketError(err) {
		s.log.Warn("ignoring packet", LogFields{"remote_addr": client.RemoteAddr(), "error": err})
		return
	}

	switch {
	case errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed):
		// Peer went away at a packet boundary. Sockets that never
		// sent a byte are port probes; keep them out of the log noise.
		if client.HasReceivedData() {
			s.log.Info("connection closed by peer", LogFields{"client_id": client.ClientID(), "remote_addr": client.RemoteAddr()})
		} else {
			s.log.Debug("connection closed without data", LogFields{"remote_addr": client.RemoteAddr()})
		}

	default:
		s.metrics.IncConnectionErrors()
		s.log.Warn("read failed", LogFields{"client_id": client.ClientID(), "remote_addr": client.RemoteAddr(), "error": err})

		// A client that speaks garbage instead of CONNECT still gets
		// told the connection is refused before the close.
		if client.state == stateNew && !isTransportError(err) {
			client.writePacket(&ConnackPacket{ReasonCode: ReasonUnspecifiedError}, s.config.maxPacketSize, s.config.writeTimeout)
		}
	}

	s.dropClient(client)
}

// isTransportError distinguishes socket failures from codec failures.
func isTransportError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, net.ErrClosed)
}

func (s *Server) handlePacket(client *ServerClient, pkt Packet) {
	if client.state == stateNew {
		connect, ok := pkt.(*ConnectPacket)
		if !ok {
			// Protocol violation: nothing but CONNECT is legal on a
			// fresh connection. Close without a reply.
			s.metrics.IncConnectionErrors()
			s.log.Warn("packet before connect", LogFields{"remote_addr": client.RemoteAddr(), "packet_type": pkt.Type()})
			s.dropClient(client)
			return
		}
		s.handleConnect(client, connect)
		return
	}

	switch p := pkt.(type) {
	case *ConnectPacket:
		// A second CONNECT on an established session is a protocol
		// error.
		s.log.Warn("duplicate connect", LogFields{"client_id": client.ClientID()})
		s.disconnectClient(client, ReasonProtocolError)

	case *PublishPacket:
		s.handlePublish(client, p)

	case *PubackPacket:
		s.handlePuback(client, p)

	case *SubscribePacket:
		s.handleSubscribe(client, p)

	case *UnsubscribePacket:
		s.handleUnsubscribe(client, p)

	case *PingreqPacket:
		client.writePacket(&PingrespPacket{}, s.config.maxPacketSize, s.config.writeTimeout)

	case *DisconnectPacket:
		s.log.Debug("client disconnecting", LogFields{"client_id": client.ClientID(), "reason_code": p.ReasonCode})
		s.dropClient(client)

	default:
		s.log.Warn("unexpected packet", LogFields{"client_id": client.ClientID(), "packet_type": pkt.Type()})
	}
}

func (s *Server) handleConnect(client *ServerClient, connect *ConnectPacket) {
	s.log.Info("client connecting", LogFields{
		"protocol":    protocolName,
		"version":     protocolVersion,
		"client_id":   connect.ClientID,
		"keep_alive":  connect.KeepAlive,
		"clean_start": connect.CleanStart,
	})

	clientID := connect.ClientID
	if clientID == "" {
		clientID = "auto-" + xid.New().String()
		s.log.Debug("assigned client id", LogFields{"client_id": clientID})
	}

	// A live session with the same client ID is taken over by the new
	// connection.
	if existing, ok := s.byID[clientID]; ok && existing != client {
		s.log.Info("session taken over", LogFields{"client_id": clientID, "remote_addr": existing.RemoteAddr()})
		s.disconnectClient(existing, ReasonSessionTakenOver)
	}

	client.clientID = clientID
	client.keepAlive = connect.KeepAlive
	client.state = stateConnected
	s.byID[clientID] = client
	s.keepAlive.Register(client, connect.KeepAlive, time.Now())

	client.writePacket(&ConnackPacket{ReasonCode: ReasonSuccess}, s.config.maxPacketSize, s.config.writeTimeout)
}

func (s *Server) handlePublish(client *ServerClient, publish *PublishPacket) {
	s.metrics.IncMessagesReceived()
	s.metrics.ObserveMessageSize(len(publish.Payload))

	if publish.Retain {
		if len(publish.Payload) == 0 {
			s.retained.Delete(publish.Topic)
		} else if err := s.retained.Set(&RetainedMessage{
			Topic:   publish.Topic,
			Payload: publish.Payload,
			QoS:     publish.QoS,
		}); err != nil {
			s.log.Error("retained store update failed", LogFields{"topic": publish.Topic, "error": err})
		}
	}

	for _, sub := range s.subs.Subscribers(publish.Topic) {
		s.deliver(sub.Client, publish.Topic, publish.Payload, min(publish.QoS, sub.QoS), false)
	}

	// QoS 1 inbound is acknowledged; QoS 2 is parsed but gets no
	// PUBREC, the broker does not implement the exactly-once flow.
	if publish.QoS == 1 {
		client.writePacket(&PubackPacket{PacketID: publish.PacketID, ReasonCode: ReasonSuccess}, s.config.maxPacketSize, s.config.writeTimeout)
	}
}

// deliver writes one copy of a message to a subscriber. QoS 1 copies
// get a packet identifier from the subscriber's own counter and stay
// tracked until the PUBACK arrives.
func (s *Server) deliver(client *ServerClient, topic string, payload []byte, qos byte, retain bool) {
	out := &PublishPacket{
		Topic:   topic,
		Payload: payload,
		QoS:     qos,
		Retain:  retain,
	}
	if qos > 0 {
		out.PacketID = client.allocPacketID()
	}

	n, err := client.writePacket(out, s.config.maxPacketSize, s.config.writeTimeout)
	if err != nil {
		if qos > 0 {
			client.ackPacketID(out.PacketID)
		}
		s.log.Debug("delivery failed", LogFields{"client_id": client.ClientID(), "topic": topic, "error": err})
		return
	}

	s.metrics.IncBytesSent(n)
	s.metrics.IncMessagesPublished()
}

func (s *Server) handlePuback(client *ServerClient, puback *PubackPacket) {
	if !client.ackPacketID(puback.PacketID) {
		s.log.Debug("puback for unknown packet", LogFields{"client_id": client.ClientID(), "packet_id": puback.PacketID})
	}
}

func (s *Server) handleSubscribe(client *ServerClient, subscribe *SubscribePacket) {
	codes := make([]ReasonCode, 0, len(subscribe.Subscriptions))

	for _, sub := range subscribe.Subscriptions {
		switch err := ValidateTopicFilter(sub.TopicFilter); {
		case errors.Is(err, ErrTopicHasWildcard):
			codes = append(codes, ReasonWildcardsNotSupported)
			continue
		case err != nil:
			codes = append(codes, ReasonTopicFilterInvalid)
			continue
		}

		// The broker caps delivery at QoS 1, so that is the most it
		// will grant.
		granted := min(sub.QoS, 1)
		s.subs.Add(sub.TopicFilter, client, granted)

		// A retained message on the topic is replayed to the new
		// subscriber ahead of the SUBACK.
		if retained, ok := s.retained.Get(sub.TopicFilter); ok {
			s.deliver(client, retained.Topic, retained.Payload, min(retained.QoS, granted), true)
		}

		codes = append(codes, ReasonCode(granted))
	}

	client.writePacket(&SubackPacket{PacketID: subscribe.PacketID, ReasonCodes: codes}, s.config.maxPacketSize, s.config.writeTimeout)
	s.metrics.SetActiveSubscriptions(s.subs.Total())
}

func (s *Server) handleUnsubscribe(client *ServerClient, unsubscribe *UnsubscribePacket) {
	codes := make([]ReasonCode, 0, len(unsubscribe.TopicFilters))

	for _, filter := range unsubscribe.TopicFilters {
		if s.subs.Remove(filter, client) {
			codes = append(codes, ReasonSuccess)
		} else {
			codes = append(codes, ReasonNoSubscriptionExisted)
		}
	}

	client.writePacket(&UnsubackPacket{PacketID: unsubscribe.PacketID, ReasonCodes: codes}, s.config.maxPacketSize, s.config.writeTimeout)
	s.metrics.SetActiveSubscriptions(s.subs.Total())
}

// dropClient removes every trace of a connection: its subscriptions,
// its keep-alive deadline, its registry entries, and finally the socket.
func (s *Server) dropClient(client *ServerClient) {
	if client.state == stateClosed {
		return
	}
	client.state = stateClosed
	client.Close()

	s.subs.RemoveAll(client)
	s.keepAlive.Remove(client)
	delete(s.clients, client)
	if current, ok := s.byID[client.clientID]; ok && current == client {
		delete(s.byID, client.clientID)
	}

	s.metrics.SetActiveConnections(len(s.clients))
	s.metrics.SetActiveSubscriptions(s.subs.Total())

	if client.HasReceivedData() {
		s.log.Debug("client removed", LogFields{"client_id": client.ClientID(), "remote_addr": client.RemoteAddr()})
	}
}

// disconnectClient notifies the peer with a DISCONNECT before dropping
// the connection.
func (s *Server) disconnectClient(client *ServerClient, reason ReasonCode) {
	if client.state == stateClosed {
		return
	}
	client.writePacket(&DisconnectPacket{ReasonCode: reason}, s.config.maxPacketSize, s.config.writeTimeout)
	s.dropClient(client)
}

func (s *Server) sweepKeepAlive(now time.Time) {
	for _, client := range s.keepAlive.Expired(now) {
		s.log.Info("keep alive expired", LogFields{"client_id": client.ClientID()})
		s.disconnectClient(client, ReasonKeepAliveTimeout)
	}
}

func (s *Server) shutdown() {
	snapshot := make([]*ServerClient, 0, len(s.clients))
	for client := range s.clients {
		snapshot = append(snapshot, client)
	}
	for _, client := range snapshot {
		s.disconnectClient(client, ReasonServerShuttingDown)
	}
}
