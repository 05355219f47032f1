//go:build !linux

package notify

func send(string, string) error {
	return nil
}
