package notify

import (
	"io"
	"net"
	"strings"

	"emperror.dev/errors"
)

func send(path string, payload string) error {
	s := &net.UnixAddr{
		Name: path,
		Net:  "unixgram",
	}
	c, err := net.DialUnix(s.Net, nil, s)
	if err != nil {
		return errors.Wrap(err, "notify: failed to connect to socket")
	}
	defer c.Close()

	if _, err := io.Copy(c, strings.NewReader(payload)); err != nil {
		return errors.Wrap(err, "notify: failed to write to socket")
	}
	return nil
}
