// Package adminsock serves the private, line-oriented admin protocol
// cmd/ncfiledbd exposes over a Unix socket so cmd/ncfiledbctl (or any
// other local tool) can drive a *filestore.Datastore without a full
// NETCONF transport. This is explicitly not RFC 6242 framing: it is a
// debug/ops convenience, one command per line, with a bare "." line
// terminating any multi-line XML payload — grounded on the teacher
// repo's SSH server accept-loop shape (pkg/netconf/ssh_server.go),
// swapped from an SSH listener to net.Listen("unix", ...).
package adminsock

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/cesnet/ncfiledb/pkg/editconfig"
	"github.com/cesnet/ncfiledb/pkg/filestore"
	"github.com/cesnet/ncfiledb/pkg/logger"
	"github.com/cesnet/ncfiledb/pkg/nacm"
	"github.com/cesnet/ncfiledb/pkg/session"
)

// Server accepts connections on a Unix socket and dispatches each line
// as a command against a single *filestore.Datastore handle.
type Server struct {
	ds   *filestore.Datastore
	log  *logger.Logger
	rules *nacm.Rules

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
}

// New constructs a Server over ds. rules, if non-nil, is forwarded as
// the NACM rule set for every copy-config/edit-config the socket
// drives.
func New(ds *filestore.Datastore, rules *nacm.Rules) *Server {
	return &Server{
		ds:    ds,
		log:   logger.New("adminsock", nil),
		rules: rules,
	}
}

// Serve listens on socketPath (removing any stale socket file left
// behind by a crashed prior instance) and accepts connections until
// Close is called.
func (s *Server) Serve(socketPath string) error {
	_ = removeStaleSocket(socketPath)

	l, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("adminsock: listen: %w", err)
	}
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()

	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return nil
			}
			return fmt.Errorf("adminsock: accept: %w", err)
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
}

// Close stops accepting new connections. It returns without waiting for
// in-flight connections; Serve waits for them before it returns.
func (s *Server) Close() error {
	s.mu.Lock()
	l := s.listener
	s.mu.Unlock()
	if l == nil {
		return nil
	}
	return l.Close()
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)
	defer w.Flush()

	for {
		line, err := readLine(r)
		if err != nil {
			return
		}
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd := strings.ToUpper(fields[0])
		if cmd == "QUIT" {
			fmt.Fprintln(w, "OK bye")
			w.Flush()
			return
		}

		reply := s.dispatch(cmd, fields[1:], r)
		fmt.Fprintln(w, reply)
		w.Flush()
		s.log.Debug("admin command", "cmd", cmd)
	}
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readPayload reads lines until a bare "." terminator, per the SMTP
// DATA convention this protocol borrows for multi-line XML bodies.
func readPayload(r *bufio.Reader) (string, error) {
	var b strings.Builder
	for {
		line, err := r.ReadString('\n')
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "." {
			return b.String(), nil
		}
		b.WriteString(trimmed)
		b.WriteByte('\n')
		if err != nil {
			if err == io.EOF {
				return b.String(), nil
			}
			return "", err
		}
	}
}

func (s *Server) dispatch(cmd string, args []string, r *bufio.Reader) string {
	switch cmd {
	case "GETCONFIG":
		return s.cmdGetConfig(args)
	case "LOCK":
		return s.cmdLock(args)
	case "UNLOCK":
		return s.cmdUnlock(args)
	case "LOCKINFO":
		return s.cmdLockInfo(args)
	case "DELETECONFIG":
		return s.cmdDeleteConfig(args)
	case "COPYCONFIG":
		return s.cmdCopyConfig(args, r)
	case "EDITCONFIG":
		return s.cmdEditConfig(args, r)
	default:
		return "ERROR bad-element: unknown command " + cmd
	}
}

func parseTarget(s string) (filestore.Target, error) {
	switch strings.ToLower(s) {
	case "running":
		return filestore.Running, nil
	case "startup":
		return filestore.Startup, nil
	case "candidate":
		return filestore.Candidate, nil
	case "config":
		return filestore.ConfigLiteral, nil
	default:
		return 0, fmt.Errorf("unsupported datastore: %s", s)
	}
}

func (s *Server) sessionOf(sid string) *session.Session {
	if sid == "" || sid == "-" {
		return nil
	}
	return &session.Session{ID: sid}
}

func (s *Server) ctxFor(sess *session.Session, op string) nacm.Context {
	return nacm.Context{Session: sess, Operation: op, Rules: s.rules}
}

// formatError renders err as a wire-protocol ERROR line. A *filestore.Error
// is converted through ToRPCError so the reply carries the same RFC 6241
// error-tag/error-message a NETCONF <rpc-error> would, plus the lock
// holder when the RPCError's error-info names one.
func formatError(err error) string {
	var fsErr *filestore.Error
	if errors.As(err, &fsErr) {
		rpcErr := fsErr.ToRPCError()
		line := fmt.Sprintf("ERROR %s: %s", rpcErr.ErrorTag, rpcErr.ErrorMessage)
		if rpcErr.ErrorInfo != nil && rpcErr.ErrorInfo.LockOwnerSession != "" {
			line += " (held by session " + rpcErr.ErrorInfo.LockOwnerSession + ")"
		}
		return line
	}
	return "ERROR operation-failed: " + err.Error()
}

func (s *Server) cmdGetConfig(args []string) string {
	if len(args) != 1 {
		return "ERROR bad-element: usage GETCONFIG <target>"
	}
	target, err := parseTarget(args[0])
	if err != nil {
		return "ERROR bad-element: " + err.Error()
	}
	xmlStr, err := s.ds.GetConfig(nil, target)
	if err != nil {
		return formatError(err)
	}
	return "OK " + strings.ReplaceAll(xmlStr, "\n", " ")
}

func (s *Server) cmdLock(args []string) string {
	if len(args) != 2 {
		return "ERROR bad-element: usage LOCK <target> <session>"
	}
	target, err := parseTarget(args[0])
	if err != nil {
		return "ERROR bad-element: " + err.Error()
	}
	if err := s.ds.Lock(s.sessionOf(args[1]), target); err != nil {
		return formatError(err)
	}
	return "OK"
}

func (s *Server) cmdUnlock(args []string) string {
	if len(args) != 2 {
		return "ERROR bad-element: usage UNLOCK <target> <session>"
	}
	target, err := parseTarget(args[0])
	if err != nil {
		return "ERROR bad-element: " + err.Error()
	}
	if err := s.ds.Unlock(s.sessionOf(args[1]), target); err != nil {
		return formatError(err)
	}
	return "OK"
}

func (s *Server) cmdLockInfo(args []string) string {
	if len(args) != 1 {
		return "ERROR bad-element: usage LOCKINFO <target>"
	}
	target, err := parseTarget(args[0])
	if err != nil {
		return "ERROR bad-element: " + err.Error()
	}
	sid, at, ok := s.ds.LockInfo(target)
	if !ok {
		return "OK -"
	}
	return fmt.Sprintf("OK %s %s", sid, at.Format("2006-01-02T15:04:05Z07:00"))
}

func (s *Server) cmdDeleteConfig(args []string) string {
	if len(args) != 2 {
		return "ERROR bad-element: usage DELETECONFIG <target> <session>"
	}
	target, err := parseTarget(args[0])
	if err != nil {
		return "ERROR bad-element: " + err.Error()
	}
	if err := s.ds.DeleteConfig(s.sessionOf(args[1]), target); err != nil {
		return formatError(err)
	}
	return "OK"
}

func (s *Server) cmdCopyConfig(args []string, r *bufio.Reader) string {
	if len(args) != 3 {
		return "ERROR bad-element: usage COPYCONFIG <target> <source> <session>"
	}
	target, err := parseTarget(args[0])
	if err != nil {
		return "ERROR bad-element: " + err.Error()
	}
	source, err := parseTarget(args[1])
	if err != nil {
		return "ERROR bad-element: " + err.Error()
	}
	var payload string
	if source == filestore.ConfigLiteral {
		payload, err = readPayload(r)
		if err != nil {
			return "ERROR operation-failed: " + err.Error()
		}
	}
	sess := s.sessionOf(args[2])
	if err := s.ds.CopyConfig(sess, s.ctxFor(sess, "copy-config"), target, source, payload); err != nil {
		return formatError(err)
	}
	return "OK"
}

func (s *Server) cmdEditConfig(args []string, r *bufio.Reader) string {
	if len(args) != 4 {
		return "ERROR bad-element: usage EDITCONFIG <target> <session> <default-operation> <error-option>\\n<xml>\\n."
	}
	target, err := parseTarget(args[0])
	if err != nil {
		return "ERROR bad-element: " + err.Error()
	}
	payload, err := readPayload(r)
	if err != nil {
		return "ERROR operation-failed: " + err.Error()
	}
	sess := s.sessionOf(args[1])
	defOp := editconfig.DefaultOperation(args[2])
	errOp := editconfig.ErrorOption(args[3])
	if err := s.ds.EditConfig(sess, s.ctxFor(sess, "edit-config"), target, payload, defOp, errOp); err != nil {
		return formatError(err)
	}
	return "OK"
}
