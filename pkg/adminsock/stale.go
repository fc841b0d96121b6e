package adminsock

import (
	"net"
	"os"
	"time"
)

// removeStaleSocket removes a Unix socket file left behind by a
// crashed prior instance: if nothing answers a quick dial, the path is
// unlinked so a fresh net.Listen can bind it.
func removeStaleSocket(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	conn, err := net.DialTimeout("unix", path, 200*time.Millisecond)
	if err == nil {
		conn.Close()
		return nil
	}
	return os.Remove(path)
}
