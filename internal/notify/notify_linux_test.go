package notify

import (
	"net"
	"path/filepath"
	"testing"
	"time"

	. "github.com/franela/goblin"
)

func TestNotifier(t *testing.T) {
	g := Goblin(t)

	g.Describe("Notifier", func() {
		var conn *net.UnixConn
		var path string

		g.BeforeEach(func() {
			path = filepath.Join(t.TempDir(), "notify.sock")
			c, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: path, Net: "unixgram"})
			if err != nil {
				g.Fail(err)
			}
			conn = c
		})

		g.AfterEach(func() {
			conn.Close()
		})

		read := func() string {
			buf := make([]byte, 1024)
			_ = conn.SetReadDeadline(time.Now().Add(time.Second))
			n, err := conn.Read(buf)
			if err != nil {
				g.Fail(err)
			}
			return string(buf[:n])
		}

		g.It("writes the state to the socket", func() {
			n := &Notifier{Socket: path}
			g.Assert(n.Notify(Ready, "")).IsNil()
			g.Assert(read()).Equal("READY=1")

			g.Assert(n.Notify(Stopping, "")).IsNil()
			g.Assert(read()).Equal("STOPPING=1")
		})

		g.It("appends the status line when one is given", func() {
			n := &Notifier{Socket: path}
			g.Assert(n.Notify(Watchdog, "Gathered statistics for node-1")).IsNil()
			g.Assert(read()).Equal("WATCHDOG=1\nSTATUS=Gathered statistics for node-1")
		})

		g.It("does nothing without a socket", func() {
			g.Assert((&Notifier{}).Notify(Ready, "")).IsNil()

			var n *Notifier
			g.Assert(n.Notify(Ready, "")).IsNil()
		})

		g.It("returns an error if the socket is gone", func() {
			n := &Notifier{Socket: filepath.Join(t.TempDir(), "missing.sock")}
			g.Assert(n.Notify(Ready, "") != nil).IsTrue()
		})
	})
}
