package deepgram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"clinical-ehr-gateway/internal/transcription"
)

const defaultLiveURL = "wss://api.deepgram.com/v1/listen"

// ErrNotStarted is returned when audio is sent before Start.
var ErrNotStarted = errors.New("live transcription not started: call Start first")

// liveMessage is a message received over the live WebSocket. Results
// carry transcripts; Metadata and other types are ignored.
type liveMessage struct {
	Type    string  `json:"type"`
	IsFinal bool    `json:"is_final"`
	Channel Channel `json:"channel"`
}

// closeStream asks Deepgram to flush and end the stream. Without it the
// vendor times out the connection after roughly 12 seconds of silence.
var closeStream = map[string]string{"type": "CloseStream"}

// Live streams audio to Deepgram over WebSocket and delivers final
// transcripts through a Callback. One Live value handles one session;
// Start a fresh session after Finish.
type Live struct {
	apiKey string
	wsURL  string
	dialer *websocket.Dialer

	mu       sync.Mutex
	conn     *websocket.Conn
	finished bool
}

// NewLive creates a live transcriber for the given API key.
func NewLive(apiKey string) *Live {
	return &Live{
		apiKey: apiKey,
		wsURL:  defaultLiveURL,
		dialer: websocket.DefaultDialer,
	}
}

// Start opens the WebSocket and begins delivering transcripts to cb
// from a background reader. Interim results are disabled: every
// delivered transcript is final.
func (l *Live) Start(ctx context.Context, cb transcription.Callback, opts transcription.Options) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn != nil {
		return fmt.Errorf("live transcription already started")
	}

	q := listenQuery(opts)
	q.Set("interim_results", "false")

	header := http.Header{"Authorization": {"Token " + l.apiKey}}
	conn, resp, err := l.dialer.DialContext(ctx, l.wsURL+"?"+q.Encode(), header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("connecting to deepgram (%d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("connecting to deepgram: %w", err)
	}

	l.conn = conn
	l.finished = false
	go l.readLoop(conn, cb)
	return nil
}

// SendAudio writes a raw audio chunk to the open stream.
func (l *Live) SendAudio(chunk []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return ErrNotStarted
	}
	return l.conn.WriteMessage(websocket.BinaryMessage, chunk)
}

// Finish flushes the stream and closes the connection. Safe to call
// when no session is open.
func (l *Live) Finish() error {
	l.mu.Lock()
	conn := l.conn
	l.conn = nil
	l.finished = true
	l.mu.Unlock()

	if conn == nil {
		return nil
	}
	// Best effort: the server may already have gone away.
	conn.WriteJSON(closeStream)
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return conn.Close()
}

// IsConnected reports whether a session is open.
func (l *Live) IsConnected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn != nil
}

func (l *Live) readLoop(conn *websocket.Conn, cb transcription.Callback) {
	for {
		var msg liveMessage
		if err := conn.ReadJSON(&msg); err != nil {
			l.mu.Lock()
			finished := l.finished
			if l.conn == conn {
				l.conn = nil
			}
			l.mu.Unlock()

			if !finished && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				cb.OnError(err)
			}
			cb.OnClose()
			return
		}

		if msg.Type != "Results" {
			continue
		}
		alts := msg.Channel.Alternatives
		if len(alts) == 0 || alts[0].Transcript == "" {
			continue
		}

		var start, end float64
		speaker := 0
		if words := alts[0].Words; len(words) > 0 {
			start = words[0].Start
			end = words[len(words)-1].End
			speaker = words[0].Speaker
		}
		cb.OnTranscript(alts[0].Transcript, speaker, start, end)
	}
}
