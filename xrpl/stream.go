package xrpl

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/everFinance/nftsync/schema"
	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
)

const (
	StreamTransactions = "transactions"

	subscribeId    = 1
	handshakeWait  = 10 * time.Second
	streamChanSize = 64
)

// Stream is a websocket subscription to a rippled/clio node.
type Stream struct {
	url    string
	dialer *websocket.Dialer

	locker sync.Mutex
	err    error
}

func NewStream(wsUrl string) *Stream {
	return &Stream{
		url: wsUrl,
		dialer: &websocket.Dialer{
			HandshakeTimeout: handshakeWait,
		},
	}
}

type subscribeRequest struct {
	Id      int      `json:"id"`
	Command string   `json:"command"`
	Streams []string `json:"streams"`
}

// Subscribe dials the node and subscribes to streams. Messages are delivered in the
// order the node sends them. The channel is closed when ctx ends or the connection
// drops; Err tells which.
func (s *Stream) Subscribe(ctx context.Context, streams ...string) (<-chan []byte, error) {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", schema.ErrSubscribe, s.url, err)
	}
	if err = conn.WriteJSON(subscribeRequest{Id: subscribeId, Command: "subscribe", Streams: streams}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", schema.ErrSubscribe, err)
	}

	// wait for the subscribe response before handing out the stream
	conn.SetReadDeadline(time.Now().Add(handshakeWait))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("%w: %v", schema.ErrSubscribe, err)
		}
		if gjson.GetBytes(msg, "id").Int() != subscribeId {
			continue
		}
		if status := gjson.GetBytes(msg, "status").String(); status != "success" {
			conn.Close()
			return nil, fmt.Errorf("%w: %s", schema.ErrSubscribe, gjson.GetBytes(msg, "error").String())
		}
		break
	}
	conn.SetReadDeadline(time.Time{})
	log.Info("subscribe stream success", "url", s.url, "streams", streams)

	s.setErr(nil)
	msgChan := make(chan []byte, streamChanSize)
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		conn.Close()
	}()
	go func() {
		defer close(msgChan)
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() != nil {
					s.setErr(ctx.Err())
				} else {
					log.Warn("stream read failed", "err", err, "url", s.url)
					s.setErr(fmt.Errorf("%w: %v", schema.ErrStreamClosed, err))
				}
				return
			}
			select {
			case msgChan <- msg:
			case <-ctx.Done():
				s.setErr(ctx.Err())
				return
			}
		}
	}()
	return msgChan, nil
}

func (s *Stream) Err() error {
	s.locker.Lock()
	defer s.locker.Unlock()
	return s.err
}

func (s *Stream) setErr(err error) {
	s.locker.Lock()
	defer s.locker.Unlock()
	s.err = err
}
