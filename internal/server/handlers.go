// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, and the built-in test page.
package server

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocketHandler returns a handler that upgrades HTTP requests to
// WebSocket connections and registers the resulting client with the hub. The
// hub launches the client's pump goroutines.
func WebSocketHandler(hub *Hub) http.HandlerFunc {
	checker := newOriginChecker(hub.cfg.AllowedOrigins, hub.log)
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checker.check,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.log.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := NewClient(conn, hub, r.RemoteAddr)
		hub.register <- client
	}
}

// HealthHandler provides a simple health check endpoint that returns server status.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "NeonChat server is running!")
}

// TestPageHandler serves an HTML page speaking the chat protocol, useful for
// poking at a running server from a browser.
func TestPageHandler(log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := fmt.Fprint(w, testPageHTML); err != nil {
			log.Warn("writing test page failed", zap.Error(err))
		}
	}
}

const testPageHTML = `<!DOCTYPE html>
<html>
<head>
    <title>NeonChat Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        input[type="text"] { padding: 5px; margin-right: 10px; }
        button {
            padding: 5px 15px;
            background-color: #007cba;
            color: white;
            border: none;
            cursor: pointer;
        }
        .notice { color: gray; font-style: italic; }
    </style>
</head>
<body>
    <h1>NeonChat Test</h1>

    <div>
        <input type="text" id="username" placeholder="Username">
        <input type="text" id="room" placeholder="Room" value="generale">
        <button id="joinButton" onclick="join()">Join</button>
    </div>

    <div id="messages"></div>

    <div>
        <input type="text" id="messageInput" placeholder="Type a message..." disabled>
        <button id="sendButton" onclick="sendMessage()" disabled>Send</button>
    </div>

    <script>
        let ws = null;
        const messagesDiv = document.getElementById('messages');
        const messageInput = document.getElementById('messageInput');
        const sendButton = document.getElementById('sendButton');

        function addLine(text, cls) {
            const el = document.createElement('div');
            if (cls) el.className = cls;
            el.textContent = text;
            messagesDiv.appendChild(el);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        function join() {
            ws = new WebSocket('ws://' + location.host + '/ws');

            ws.onopen = function() {
                ws.send(JSON.stringify({
                    type: 'join',
                    username: document.getElementById('username').value,
                    room: document.getElementById('room').value
                }));
                messageInput.disabled = false;
                sendButton.disabled = false;
            };

            ws.onmessage = function(event) {
                const data = JSON.parse(event.data);
                switch (data.type) {
                case 'history':
                    data.messages.forEach(m => addLine(m.username + ': ' + m.text));
                    break;
                case 'users':
                    addLine('online: ' + data.users.join(', '), 'notice');
                    break;
                case 'join':
                    addLine(data.username + ' joined', 'notice');
                    break;
                case 'leave':
                    addLine(data.username + ' left', 'notice');
                    break;
                case 'message':
                    addLine(data.username + ': ' + data.text);
                    break;
                case 'typing':
                    if (data.active) addLine(data.username + ' is typing...', 'notice');
                    break;
                }
            };

            ws.onclose = function() {
                addLine('connection closed', 'notice');
                messageInput.disabled = true;
                sendButton.disabled = true;
                ws = null;
            };
        }

        function sendMessage() {
            const text = messageInput.value.trim();
            if (text && ws && ws.readyState === WebSocket.OPEN) {
                ws.send(JSON.stringify({type: 'message', text: text}));
                messageInput.value = '';
            }
        }

        messageInput.addEventListener('keypress', function(e) {
            if (e.key === 'Enter') {
                sendMessage();
            }
        });
    </script>
</body>
</html>`
