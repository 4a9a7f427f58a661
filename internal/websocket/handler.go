package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/groceryhub/internal/grocery"
	"github.com/dukerupert/groceryhub/internal/model"
)

// Subscriber is the live item feed of a list.
type Subscriber interface {
	Subscribe(listID string, onUpdate func([]model.GroceryItem), onError func(error)) func()
}

// HandleWebSocket upgrades the connection and streams snapshots of the list
// named by the {list_id} path value until the client goes away.
func HandleWebSocket(hub *Hub, items Subscriber, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listID := r.PathValue("list_id")

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // Allow connections from any origin (household LAN)
		})
		if err != nil {
			logger.Warn("accept", "list_id", listID, "error", err)
			return
		}

		client := NewClient(hub, conn, listID)
		var memo grocery.Memo

		unsubscribe := items.Subscribe(listID,
			func(snapshot []model.GroceryItem) {
				view := memo.View(snapshot)
				if err := client.Send(Message{Type: TypeSnapshot, ListID: listID, Items: snapshot, View: &view}); err != nil {
					logger.Error("encode snapshot", "list_id", listID, "error", err)
				}
			},
			func(err error) {
				logger.Error("item subscription failed", "list_id", listID, "error", err)
				client.Fail(Message{Type: TypeError, ListID: listID, Error: "Live updates stopped. Reload to reconnect."})
			},
		)
		defer unsubscribe()

		client.Run(r.Context())
	}
}
