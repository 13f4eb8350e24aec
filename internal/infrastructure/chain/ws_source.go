package chain

import (
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/thanhpk/randstr"
	"github.com/tonmarket-network/sale-daemon/internal/core/ports"
)

const (
	handshakeTimeout = 15 * time.Second

	// reconnectDelay is the base delay before attempting to reconnect.
	reconnectDelay = 2 * time.Second
	// maxReconnectDelay caps the exponential backoff for reconnection.
	maxReconnectDelay = 60 * time.Second

	msgChannelSize = 64
)

type subscribeCommand struct {
	Type    string `json:"type"`
	Address string `json:"address"`
	ID      string `json:"id"`
}

// wsSource subscribes to the chain gateway's websocket feed and emits
// every message addressed to the sale contract on a single channel, in
// delivery order.
type wsSource struct {
	wsURL           string
	contractAddress string

	msgChan  chan ports.InboundMessage
	quitChan chan struct{}
}

// NewWebsocketSource returns a ports.ChainSource reading the inbound
// messages of the contract at contractAddress from the gateway at wsURL.
func NewWebsocketSource(wsURL, contractAddress string) ports.ChainSource {
	return &wsSource{
		wsURL:           wsURL,
		contractAddress: contractAddress,
		msgChan:         make(chan ports.InboundMessage, msgChannelSize),
		quitChan:        make(chan struct{}),
	}
}

func (s *wsSource) Start() {
	delay := reconnectDelay

	for {
		select {
		case <-s.quitChan:
			close(s.msgChan)
			return
		default:
		}

		if err := s.consumeFeed(); err != nil {
			log.WithError(err).Warnf(
				"chain feed interrupted, reconnecting in %s", delay,
			)
			select {
			case <-s.quitChan:
				close(s.msgChan)
				return
			case <-time.After(delay):
			}
			if delay *= 2; delay > maxReconnectDelay {
				delay = maxReconnectDelay
			}
			continue
		}

		delay = reconnectDelay
	}
}

func (s *wsSource) Stop() {
	close(s.quitChan)
}

func (s *wsSource) GetMessageChannel() chan ports.InboundMessage {
	return s.msgChan
}

// consumeFeed dials the gateway, subscribes to the contract's message feed
// and pumps messages until the connection drops or Stop is called.
func (s *wsSource) consumeFeed() error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.Dial(s.wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.WriteJSON(subscribeCommand{
		Type:    "subscribe",
		Address: s.contractAddress,
		ID:      randstr.Hex(8),
	}); err != nil {
		return err
	}

	log.Debugf("subscribed to message feed of %s", s.contractAddress)

	for {
		var msg ports.InboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			select {
			case <-s.quitChan:
				return nil
			default:
				return err
			}
		}

		select {
		case s.msgChan <- msg:
		case <-s.quitChan:
			return nil
		}
	}
}
