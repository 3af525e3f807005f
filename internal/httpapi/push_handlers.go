package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ticktock/internal/service"
)

func (h *handler) vapidPublicKey(c *gin.Context) {
	key, err := h.push.PublicKey()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key})
}

func (h *handler) subscribe(c *gin.Context) {
	ident, _ := currentIdentity(c)
	b := readBody(c)
	keys := b.object("keys")

	err := h.push.Subscribe(c.Request.Context(), ident, b.text("endpoint"), service.PushKeys{
		P256DH: keys.text("p256dh"),
		Auth:   keys.text("auth"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *handler) unsubscribe(c *gin.Context) {
	ident, _ := currentIdentity(c)
	if err := h.push.Unsubscribe(c.Request.Context(), ident, readBody(c).text("endpoint")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
