package websocket

import (
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/domain"
)

// WsHub fans applied sync events and receipt updates out to connected
// operator clients. Delivery is best-effort: a full broadcast buffer drops
// the message rather than blocking the applier.
type WsHub struct {
	Clients    map[*websocket.Conn]bool
	Broadcast  chan WsMessage
	Register   chan *websocket.Conn
	Unregister chan *websocket.Conn
	Logger     zerolog.Logger
}

type WsMessage struct {
	Type    string              `json:"type"`
	Event   *domain.LedgerEvent `json:"event,omitempty"`
	Receipt *domain.FiatReceipt `json:"receipt,omitempty"`
}

func NewWsHub(logger zerolog.Logger) *WsHub {
	return &WsHub{
		Clients:    make(map[*websocket.Conn]bool),
		Broadcast:  make(chan WsMessage, 100),
		Register:   make(chan *websocket.Conn, 100),
		Unregister: make(chan *websocket.Conn, 100),
		Logger:     logger,
	}
}

func (h *WsHub) Run() {
	for {
		select {
		case conn := <-h.Register:
			h.Clients[conn] = true
			h.Logger.Info().
				Int("connection_count", len(h.Clients)).
				Msg("WebSocket client registered")

		case conn := <-h.Unregister:
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
				h.Logger.Info().
					Int("connection_count", len(h.Clients)).
					Msg("WebSocket client unregistered")
			}

		case message := <-h.Broadcast:
			for conn := range h.Clients {
				if err := conn.WriteJSON(message); err != nil {
					h.Logger.Err(err).
						Str("type", message.Type).
						Msg("Failed to send WebSocket message")
					conn.Close()
					delete(h.Clients, conn)
				}
			}
		}
	}
}

// BroadcastEvent publishes an applied ledger event to the feed.
func (h *WsHub) BroadcastEvent(ev domain.LedgerEvent) {
	msg := WsMessage{Type: string(ev.Kind), Event: &ev}
	select {
	case h.Broadcast <- msg:
	default:
		h.Logger.Warn().
			Str("type", msg.Type).
			Str("tx_hash", ev.TxHash).
			Msg("WebSocket broadcast buffer full, dropping event")
	}
}

// BroadcastReceipt publishes a fiat receipt status change to the feed.
func (h *WsHub) BroadcastReceipt(receipt domain.FiatReceipt) {
	msg := WsMessage{Type: "fiat_receipt", Receipt: &receipt}
	select {
	case h.Broadcast <- msg:
	default:
		h.Logger.Warn().
			Str("receipt_id", receipt.ReceiptID).
			Msg("WebSocket broadcast buffer full, dropping receipt update")
	}
}
