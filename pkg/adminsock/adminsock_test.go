package adminsock

import (
	"bufio"
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cesnet/ncfiledb/pkg/config"
	"github.com/cesnet/ncfiledb/pkg/filestore"
)

func startTestServer(t *testing.T) (net.Conn, *bufio.Reader) {
	t.Helper()

	dir := t.TempDir()
	cfg := config.DatastoreConfig{
		Path:     filepath.Join(dir, "datastore.xml"),
		FileMode: 0o600,
		LockDir:  dir,
	}
	ds, err := filestore.Open(cfg)
	if err != nil {
		t.Fatalf("failed to open datastore: %v", err)
	}
	t.Cleanup(func() { ds.Close() })

	srv := New(ds, nil)
	socketPath := filepath.Join(dir, "admin.sock")

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(socketPath) }()
	t.Cleanup(func() { srv.Close() })

	var conn net.Conn
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err = net.Dial("unix", socketPath)
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if conn == nil {
		t.Fatalf("failed to dial admin socket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn, bufio.NewReader(conn)
}

func sendLine(t *testing.T, conn net.Conn, r *bufio.Reader, line string) string {
	t.Helper()
	if _, err := fmt.Fprintf(conn, "%s\n", line); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	reply, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return strings.TrimRight(reply, "\r\n")
}

func TestAdminSocketLockUnlockRoundTrip(t *testing.T) {
	conn, r := startTestServer(t)

	if reply := sendLine(t, conn, r, "LOCK running s1"); reply != "OK" {
		t.Fatalf("expected OK, got %q", reply)
	}
	if reply := sendLine(t, conn, r, "LOCKINFO running"); !strings.HasPrefix(reply, "OK s1 ") {
		t.Fatalf("expected lock info for s1, got %q", reply)
	}
	if reply := sendLine(t, conn, r, "UNLOCK running s1"); reply != "OK" {
		t.Fatalf("expected OK, got %q", reply)
	}
	if reply := sendLine(t, conn, r, "LOCKINFO running"); reply != "OK -" {
		t.Fatalf("expected unlocked, got %q", reply)
	}
}

func TestAdminSocketLockDeniedToOtherSession(t *testing.T) {
	conn, r := startTestServer(t)

	if reply := sendLine(t, conn, r, "LOCK running s1"); reply != "OK" {
		t.Fatalf("expected OK, got %q", reply)
	}
	reply := sendLine(t, conn, r, "LOCK running s2")
	if !strings.HasPrefix(reply, "ERROR") {
		t.Fatalf("expected a second session's lock to be denied, got %q", reply)
	}
}

func TestAdminSocketEditConfigThenGetConfig(t *testing.T) {
	conn, r := startTestServer(t)

	if _, err := fmt.Fprintf(conn, "EDITCONFIG candidate s1 merge stop-on-error\n"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := fmt.Fprintf(conn, "<config><a>1</a></config>\n.\n"); err != nil {
		t.Fatalf("write payload failed: %v", err)
	}
	reply, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if strings.TrimRight(reply, "\r\n") != "OK" {
		t.Fatalf("expected OK for edit-config, got %q", reply)
	}

	reply2 := sendLine(t, conn, r, "GETCONFIG candidate")
	if !strings.HasPrefix(reply2, "OK") || !strings.Contains(reply2, "<a>1</a>") {
		t.Fatalf("expected get-config to reflect the edit, got %q", reply2)
	}
}

func TestAdminSocketUnknownCommand(t *testing.T) {
	conn, r := startTestServer(t)
	reply := sendLine(t, conn, r, "BOGUS")
	if !strings.HasPrefix(reply, "ERROR bad-element") {
		t.Fatalf("expected bad-element error, got %q", reply)
	}
}

func TestAdminSocketQuitClosesGracefully(t *testing.T) {
	conn, r := startTestServer(t)
	reply := sendLine(t, conn, r, "QUIT")
	if !strings.HasPrefix(reply, "OK") {
		t.Fatalf("expected OK bye, got %q", reply)
	}
}
