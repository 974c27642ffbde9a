package player

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"
)

// Mpv controls a running mpv instance over its JSON IPC socket. One
// request runs at a time; asynchronous event lines from mpv are skipped
// while waiting for the matching response.
type Mpv struct {
	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	nextID int64
}

// DialMpv connects to the mpv IPC socket at the given path.
func DialMpv(path string) (*Mpv, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("dial mpv socket: %w", err)
	}
	return &Mpv{conn: conn, reader: bufio.NewReader(conn), nextID: 1}, nil
}

// Close closes the underlying connection.
func (m *Mpv) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return nil
	}
	err := m.conn.Close()
	m.conn = nil
	return err
}

type mpvRequest struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

type mpvResponse struct {
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
	RequestID int64           `json:"request_id"`
	Event     string          `json:"event"`
}

// command sends one command and waits for the response carrying the same
// request id, discarding interleaved event notifications.
func (m *Mpv) command(args ...any) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return nil, fmt.Errorf("mpv connection closed")
	}

	m.nextID++
	req := mpvRequest{Command: args, RequestID: m.nextID}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode mpv command: %w", err)
	}
	if _, err := m.conn.Write(append(payload, '\n')); err != nil {
		return nil, fmt.Errorf("write mpv command: %w", err)
	}

	for {
		line, err := m.reader.ReadBytes('\n')
		if err != nil {
			return nil, fmt.Errorf("read mpv response: %w", err)
		}
		var resp mpvResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			return nil, fmt.Errorf("decode mpv response: %w", err)
		}
		if resp.Event != "" || resp.RequestID != req.RequestID {
			continue
		}
		if resp.Error != "success" {
			return nil, fmt.Errorf("mpv command failed: %s", resp.Error)
		}
		return resp.Data, nil
	}
}

func (m *Mpv) getFloat(property string) (float64, error) {
	data, err := m.command("get_property", property)
	if err != nil {
		return 0, err
	}
	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		return 0, fmt.Errorf("decode %s: %w", property, err)
	}
	return value, nil
}

// Seek jumps to an absolute position in seconds.
func (m *Mpv) Seek(seconds float64) error {
	_, err := m.command("seek", seconds, "absolute")
	return err
}

// CurrentTime reports the playback position in seconds.
func (m *Mpv) CurrentTime() (float64, error) {
	return m.getFloat("time-pos")
}

// Duration reports the total length in seconds, when mpv knows it.
func (m *Mpv) Duration() (float64, error) {
	return m.getFloat("duration")
}

func (m *Mpv) Play() error {
	_, err := m.command("set_property", "pause", false)
	return err
}

func (m *Mpv) Pause() error {
	_, err := m.command("set_property", "pause", true)
	return err
}

func (m *Mpv) Volume() (float64, error) {
	return m.getFloat("volume")
}

func (m *Mpv) SetVolume(volume float64) error {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	_, err := m.command("set_property", "volume", volume)
	return err
}
