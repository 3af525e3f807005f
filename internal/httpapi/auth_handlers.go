package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ticktock/internal/service"
)

type userView struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

func newUserView(ident service.Identity) userView {
	return userView{ID: ident.UserID, Email: ident.Email}
}

func (h *handler) register(c *gin.Context) {
	b := readBody(c)
	sess, err := h.auth.Register(c.Request.Context(), b.text("email"), b.text("password"))
	if err != nil {
		writeError(c, err)
		return
	}
	h.startSession(c, sess)
}

func (h *handler) login(c *gin.Context) {
	b := readBody(c)
	sess, err := h.auth.Login(c.Request.Context(), b.text("email"), b.text("password"))
	if err != nil {
		writeError(c, err)
		return
	}
	h.startSession(c, sess)
}

// logout always succeeds, with or without a live session.
func (h *handler) logout(c *gin.Context) {
	for _, token := range sessionTokens(c) {
		h.auth.Logout(c.Request.Context(), token)
	}
	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *handler) me(c *gin.Context) {
	ident, ok := currentIdentity(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": newUserView(ident)})
}

func (h *handler) startSession(c *gin.Context, sess *service.Session) {
	h.setSessionCookie(c, sess.Token, int(h.opts.SessionTTL.Seconds()))
	c.JSON(http.StatusOK, gin.H{
		"ok":    true,
		"user":  newUserView(sess.Identity),
		"token": sess.Token,
	})
}

func (h *handler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	cookie := &http.Cookie{
		Name:     sessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if h.opts.SecureCookies {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteNoneMode
	}
	http.SetCookie(c.Writer, cookie)
}
