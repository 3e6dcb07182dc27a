package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/salesagent/runtime/internal/app"
)

// inboundMessage is one widget-to-runtime message over the embed socket.
type inboundMessage struct {
	Type      string `json:"type"`      // "connect" | "utterance"
	CDPURL    string `json:"cdp_url"`   // required on "connect"
	Utterance string `json:"utterance"` // required on "utterance"
}

// outboundMessage is one runtime-to-widget message over the embed socket.
type outboundMessage struct {
	Type    string `json:"type"` // "prompt" | "error" | "state"
	Prompt  string `json:"prompt,omitempty"`
	Error   string `json:"error,omitempty"`
	StageOf string `json:"stage,omitempty"`
}

// newEmbedHandler returns the HTTP handler backing the widget's embed
// socket: one WebSocket connection maps to one [app.Session], matching the
// "exactly one Session per browser tab connection" discipline the Session
// type itself documents.
func newEmbedHandler(application *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			slog.Warn("embed: accept failed", "err", err)
			return
		}
		defer conn.CloseNow()

		ctx := r.Context()
		sessionID := r.URL.Query().Get("session_id")
		if sessionID == "" {
			sessionID = randomSessionID()
		}

		var sess *app.Session
		defer func() {
			if sess != nil {
				_ = application.Disconnect(sessionID)
			}
		}()

		for {
			var in inboundMessage
			if err := wsjson.Read(ctx, conn, &in); err != nil {
				if !isNormalClose(err) {
					slog.Warn("embed: read failed", "session_id", sessionID, "err", err)
				}
				return
			}

			switch in.Type {
			case "connect":
				if sess != nil {
					writeErr(ctx, conn, "session already connected")
					continue
				}
				s, err := application.Connect(ctx, sessionID, in.CDPURL)
				if err != nil {
					writeErr(ctx, conn, err.Error())
					continue
				}
				sess = s
				_ = wsjson.Write(ctx, conn, outboundMessage{Type: "state", StageOf: "connected"})

			case "utterance":
				if sess == nil {
					writeErr(ctx, conn, "not connected — send a connect message first")
					continue
				}
				prompt, _, err := sess.HandleUtterance(ctx, in.Utterance)
				if err != nil {
					writeErr(ctx, conn, err.Error())
					continue
				}
				_ = wsjson.Write(ctx, conn, outboundMessage{Type: "prompt", Prompt: prompt})

			default:
				writeErr(ctx, conn, "unknown message type")
			}
		}
	}
}

func writeErr(ctx context.Context, conn *websocket.Conn, msg string) {
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = wsjson.Write(writeCtx, conn, outboundMessage{Type: "error", Error: msg})
}

func isNormalClose(err error) bool {
	status := websocket.CloseStatus(err)
	return status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway
}

func randomSessionID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "session"
	}
	return hex.EncodeToString(b)
}
