package server

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aeolun/parley/pkg/credstore"
)

var (
	errorLog = log.New(os.Stderr, "ERROR: ", log.LstdFlags)
	debugLog = log.New(io.Discard, "DEBUG: ", log.LstdFlags)
)

// Server represents the Parley chat server
type Server struct {
	creds      CredentialStore
	sessions   *SessionManager
	rooms      *RoomRegistry
	history    *HistoryBuffer
	config     ServerConfig
	metrics    *Metrics
	listener   net.Listener
	httpServer *http.Server
	httpAddr   net.Addr
	startTime  time.Time
	shutdown   chan struct{}
	wg         sync.WaitGroup
}

// NewServer creates a new server instance backed by the credential
// file at credsPath.
func NewServer(credsPath string, config ServerConfig) (*Server, error) {
	creds, err := credstore.Open(credsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	return &Server{
		creds:    creds,
		sessions: NewSessionManager(),
		rooms:    NewRoomRegistry(config.DefaultRoom),
		history:  NewHistoryBuffer(config.HistorySize),
		config:   config,
		shutdown: make(chan struct{}),
	}, nil
}

// SetMetrics attaches metrics to the server and its session manager
func (s *Server) SetMetrics(metrics *Metrics) {
	s.metrics = metrics
	s.sessions.SetMetrics(metrics)
}

// EnableDebugLogging turns on debug output
func (s *Server) EnableDebugLogging() {
	debugLog.SetOutput(os.Stderr)
}

// Start starts the TCP listener and, if configured, the HTTP listener
// for WebSocket clients, health checks and metrics.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.TCPPort)
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var optErr error
			if err := c.Control(func(fd uintptr) {
				optErr = setSocketOptions(fd)
			}); err != nil {
				return err
			}
			return optErr
		},
	}
	listener, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.listener = listener
	s.startTime = time.Now()
	logListenBacklog(listener.Addr().String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.monitorListenOverflows()
	}()

	if s.config.HTTPPort >= 0 {
		if err := s.startHTTPServer(); err != nil {
			s.listener.Close()
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
	}

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop() error {
	close(s.shutdown)

	if s.listener != nil {
		s.listener.Close()
		s.listener = nil
	}

	if s.httpServer != nil {
		s.httpServer.Close()
		s.httpServer = nil
	}

	// Wait for goroutines to finish
	s.wg.Wait()

	// Close all sessions
	s.sessions.CloseAll()

	return nil
}

// Addr returns the address the TCP listener is bound to
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// HTTPAddr returns the address the HTTP listener is bound to, or nil
// if the HTTP server is disabled.
func (s *Server) HTTPAddr() net.Addr {
	return s.httpAddr
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return
			default:
				errorLog.Printf("Accept error: %v", err)
				continue
			}
		}

		go s.handleConnection(conn, "tcp")
	}
}

// handleConnection drives one client through authentication and the
// chat read loop. It runs in its own goroutine per connection.
func (s *Server) handleConnection(conn net.Conn, connType string) {
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.SetNoDelay(true)
	}

	sess := NewSession(conn, connType, s.config.DefaultRoom)
	reader := bufio.NewReader(conn)

	if !s.authenticate(sess, reader) {
		conn.Close()
		return
	}

	s.sessions.Register(sess)
	log.Printf("Session %d authenticated as %q from %s (%s)", sess.ID, sess.Username, conn.RemoteAddr(), connType)

	sess.SendLine(fmt.Sprintf("Welcome %s! Type /help for available commands.", sess.Username))
	s.sessions.Broadcast(sess.Room(), fmt.Sprintf("%s has joined the chat.", sess.Username))

	s.readLoop(sess, reader)
	s.disconnect(sess)
}

// authenticate runs the login/register handshake. One attempt per
// connection: any failure closes the session.
func (s *Server) authenticate(sess *Session, reader *bufio.Reader) bool {
	sess.SendLine("Welcome! Enter '1' to login or '2' to register:")

	choice, err := readLine(reader)
	if err != nil {
		return false
	}

	// Anything other than "2" is treated as login.
	if strings.TrimSpace(choice) == "2" {
		return s.authRegister(sess, reader)
	}
	return s.authLogin(sess, reader)
}

func (s *Server) authLogin(sess *Session, reader *bufio.Reader) bool {
	sess.SendLine("Enter username:")
	username, err := readLine(reader)
	if err != nil {
		return false
	}
	sess.SendLine("Enter password:")
	password, err := readLine(reader)
	if err != nil {
		return false
	}

	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)

	stored, ok := s.creds.Lookup(username)
	if !ok || stored != password {
		sess.SendLine("Login failed!")
		if s.metrics != nil {
			s.metrics.RecordAuthAttempt("login", "failed")
		}
		return false
	}

	sess.Username = username
	if s.metrics != nil {
		s.metrics.RecordAuthAttempt("login", "ok")
	}
	return true
}

func (s *Server) authRegister(sess *Session, reader *bufio.Reader) bool {
	sess.SendLine("Enter desired username:")
	username, err := readLine(reader)
	if err != nil {
		return false
	}
	sess.SendLine("Enter password:")
	password, err := readLine(reader)
	if err != nil {
		return false
	}

	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)

	if username == "" {
		sess.SendLine("Invalid username or already exists!")
		if s.metrics != nil {
			s.metrics.RecordAuthAttempt("register", "failed")
		}
		return false
	}
	if password == "" {
		sess.SendLine("Invalid password!")
		if s.metrics != nil {
			s.metrics.RecordAuthAttempt("register", "failed")
		}
		return false
	}

	if err := s.creds.Register(username, password); err != nil {
		sess.SendLine("Invalid username or already exists!")
		if s.metrics != nil {
			s.metrics.RecordAuthAttempt("register", "failed")
		}
		return false
	}

	sess.Username = username
	if s.metrics != nil {
		s.metrics.RecordAuthAttempt("register", "ok")
	}
	return true
}

// readLoop processes chat lines and commands until the connection
// drops or the client goes away.
func (s *Server) readLoop(sess *Session, reader *bufio.Reader) {
	for {
		line, err := readLine(reader)
		if err != nil {
			if err != io.EOF {
				debugLog.Printf("Session %d read error: %v", sess.ID, err)
			}
			return
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, "/") {
			s.dispatchCommand(sess, trimmed)
			continue
		}

		if s.config.MaxMessageLength > 0 && len(line) > s.config.MaxMessageLength {
			line = line[:s.config.MaxMessageLength]
		}

		stamped := fmt.Sprintf("[%s] %s: %s", time.Now().Format("15:04:05"), sess.Username, line)
		s.sessions.Broadcast(sess.Room(), stamped)
		s.history.Append(stamped)
	}
}

// disconnect runs full session cleanup. All steps execute even if the
// transport is already broken: registry removal and the departure
// notice never depend on the socket being healthy.
func (s *Server) disconnect(sess *Session) {
	room := sess.Room()

	s.sessions.Unregister(sess)
	s.rooms.Leave(sess.Username)
	s.sessions.Broadcast(room, fmt.Sprintf("%s has left the chat.", sess.Username))

	if err := sess.Close(); err != nil {
		debugLog.Printf("Session %d: close failed: %v", sess.ID, err)
	}

	log.Printf("Session %d (%s) disconnected", sess.ID, sess.Username)
}

// readLine reads a single line, tolerating a final line without a
// trailing newline.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
