// Package server implements the TCP gateway companion clients connect
// to. It validates the line protocol, assigns session IDs and forwards
// observations and actions to Kafka keyed by session.
package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/STOmaha/Time-to-Burn-sub002/internal/connection"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/log"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/protocol"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/queue"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/timer"
	"github.com/STOmaha/Time-to-Burn-sub002/pkg/config"
)

// TCPServer is the gateway for companion clients
type TCPServer struct {
	config       *config.GatewayConfig
	connManager  *connection.Manager
	timerManager *timer.TimerManager
	producer     *queue.Producer
	listener     net.Listener
	wg           sync.WaitGroup
	stopCh       chan struct{}
	ctx          context.Context
	cancel       context.CancelFunc
}

// NewTCPServer creates a new gateway server
func NewTCPServer(cfg *config.GatewayConfig, connManager *connection.Manager, timerManager *timer.TimerManager, producer *queue.Producer) *TCPServer {
	ctx, cancel := context.WithCancel(context.Background())
	return &TCPServer{
		config:       cfg,
		connManager:  connManager,
		timerManager: timerManager,
		producer:     producer,
		stopCh:       make(chan struct{}),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start starts the gateway
func (s *TCPServer) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start gateway: %w", err)
	}

	s.listener = listener
	log.Infof("Gateway listening on %s", addr)

	s.wg.Add(1)
	go s.acceptConnections()

	return nil
}

// Stop stops the gateway gracefully
func (s *TCPServer) Stop() {
	close(s.stopCh)
	s.cancel()

	if s.listener != nil {
		s.listener.Close()
	}

	s.wg.Wait()
	log.Info("Gateway stopped")
}

func (s *TCPServer) acceptConnections() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
				log.Warnf("Failed to accept connection: %v", err)
				continue
			}
		}

		// Check max connections
		if s.connManager.Count() >= s.config.MaxConnections {
			log.Warn("Maximum connections reached, rejecting connection")
			conn.Close()
			continue
		}

		// Handle connection in a new goroutine
		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *TCPServer) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	// Generate connection ID
	connectionID := uuid.New().String()
	log.Debugf("New connection: %s from %s", connectionID, conn.RemoteAddr())

	// Set identify timeout
	conn.SetReadDeadline(time.Now().Add(s.config.IdentifyTimeout))

	// Read identification message
	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	if err != nil {
		log.Debugf("Failed to read identify message: %v", err)
		return
	}

	// Parse identification message
	msg, err := protocol.ParseMessage([]byte(line))
	if err != nil {
		log.Debugf("Failed to parse identify message: %v", err)
		s.sendError(conn)
		return
	}

	identifyMsg, ok := msg.(*protocol.IdentifyMessage)
	if !ok {
		log.Debugf("Expected identify message, got %T", msg)
		s.sendError(conn)
		return
	}

	// A reconnecting client presents its session ID; a fresh client
	// gets a new one.
	sessionID := identifyMsg.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	// Register client
	if err := s.connManager.Register(connectionID, sessionID, identifyMsg.UserID, conn); err != nil {
		log.Warnf("Failed to register client: %v", err)
		s.sendError(conn)
		return
	}
	defer s.connManager.Unregister(connectionID)

	log.Infof("Client identified: %s (session=%s, user=%s)", connectionID, sessionID, identifyMsg.UserID)

	// Send acknowledgment carrying the assigned session ID
	ack := protocol.NewAckMessage(protocol.AckStatusIdentified)
	ack.SessionID = sessionID
	if err := s.sendMessage(conn, ack); err != nil {
		log.Debugf("Failed to send ack: %v", err)
		return
	}

	// Schedule inactivity timer
	s.scheduleInactivityTimer(connectionID)

	// Clear read deadline for normal operation
	conn.SetReadDeadline(time.Time{})

	// Handle messages
	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		// Read message with a reasonable timeout
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		line, err := reader.ReadString('\n')
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				// Timeout, continue reading
				continue
			}
			// Connection closed or error
			log.Debugf("Connection %s closed: %v", connectionID, err)
			return
		}

		// Parse message
		msg, err := protocol.ParseMessage([]byte(line))
		if err != nil {
			log.Debugf("Failed to parse message: %v", err)
			continue
		}

		// Handle message
		if err := s.handleMessage(sessionID, identifyMsg.UserID, msg, conn); err != nil {
			log.Warnf("Failed to handle message: %v", err)
		}

		// Update activity timestamp
		s.connManager.UpdateActivity(connectionID)

		// Reschedule inactivity timer
		s.scheduleInactivityTimer(connectionID)
	}
}

func (s *TCPServer) handleMessage(sessionID, userID string, msg interface{}, conn net.Conn) error {
	switch m := msg.(type) {
	case *protocol.ObservationMessage:
		return s.handleObservation(sessionID, userID, m, conn)

	case *protocol.ActionMessage:
		return s.handleAction(sessionID, userID, m, conn)

	case *protocol.KeepaliveMessage:
		return s.handleKeepalive(conn)

	default:
		return fmt.Errorf("unknown message type: %T", msg)
	}
}

func (s *TCPServer) handleObservation(sessionID, userID string, msg *protocol.ObservationMessage, conn net.Conn) error {
	event := &protocol.EventMessage{
		SessionID:   sessionID,
		UserID:      userID,
		ReceivedAt:  time.Now(),
		Kind:        protocol.EventKindObservation,
		Observation: &msg.Data,
	}

	if err := s.publishEvent(sessionID, event); err != nil {
		return err
	}

	log.Debugf("Observation from session %s (uv=%d)", sessionID, msg.Data.UVIndex)
	return s.sendMessage(conn, protocol.NewAckMessage(protocol.AckStatusAccepted))
}

func (s *TCPServer) handleAction(sessionID, userID string, msg *protocol.ActionMessage, conn net.Conn) error {
	event := &protocol.EventMessage{
		SessionID:  sessionID,
		UserID:     userID,
		ReceivedAt: time.Now(),
		Kind:       protocol.EventKindAction,
		Action:     msg.Action,
	}

	if err := s.publishEvent(sessionID, event); err != nil {
		return err
	}

	log.Debugf("Action %q from session %s", msg.Action, sessionID)
	return s.sendMessage(conn, protocol.NewAckMessage(protocol.AckStatusAccepted))
}

func (s *TCPServer) publishEvent(sessionID string, event *protocol.EventMessage) error {
	data, err := protocol.EncodeEventMessage(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	// Key is session ID so one engine partition owns each session
	if err := s.producer.Publish(s.ctx, sessionID, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

func (s *TCPServer) handleKeepalive(conn net.Conn) error {
	ack := protocol.NewAckMessage(protocol.AckStatusAlive)
	return s.sendMessage(conn, ack)
}

func (s *TCPServer) sendMessage(conn net.Conn, msg interface{}) error {
	data, err := protocol.EncodeMessage(msg)
	if err != nil {
		return err
	}

	_, err = conn.Write(append(data, '\n'))
	return err
}

func (s *TCPServer) sendError(conn net.Conn) {
	ack := protocol.NewAckMessage(protocol.AckStatusError)
	s.sendMessage(conn, ack)
}

func (s *TCPServer) scheduleInactivityTimer(connectionID string) {
	timerID := fmt.Sprintf("inactivity-%s", connectionID)
	expiryAt := time.Now().Add(s.config.InactivityTimeout)

	callback := func() {
		log.Debugf("Inactivity timeout for connection %s", connectionID)

		// Get client info
		client, exists := s.connManager.Get(connectionID)
		if !exists {
			return
		}

		// Close connection
		client.Conn.Close()

		// Unregister will happen automatically in deferred cleanup
	}

	s.timerManager.Schedule(timerID, expiryAt, callback)
}
