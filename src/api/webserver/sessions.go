package webserver

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/OneOfOne/xxhash"
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/atulbakery/ishan-assistant/src/backup"
	"github.com/atulbakery/ishan-assistant/src/order"
	"github.com/atulbakery/ishan-assistant/src/persona"
	"github.com/atulbakery/ishan-assistant/src/session"
)

type Sessions struct {
	svc       *session.Service
	sanitizer *bluemonday.Policy
}

func NewSessions(svc *session.Service) Sessions {
	return Sessions{svc: svc, sanitizer: bluemonday.StrictPolicy()}
}

const maxCleanPasses = 8

// invalidBackupText is the message shown when a restore is rejected.
const invalidBackupText = "Invalid Backup File"

// clean strips markup from customer text and restores the entities the policy escaped.
// Unescaping can surface markup that was sent entity-encoded, so the text is sanitized
// again until it stops changing. If it never settles, the escaped form is kept.
func (s Sessions) clean(text string) string {
	for i := 0; i < maxCleanPasses; i++ {
		next := html.UnescapeString(s.sanitizer.Sanitize(text))
		if next == text {
			return strings.TrimSpace(text)
		}
		text = next
	}
	return strings.TrimSpace(s.sanitizer.Sanitize(text))
}

func (s Sessions) Personas(c *gin.Context) {
	type summary struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		ShopName    string `json:"shopName"`
		Avatar      string `json:"avatar"`
		Description string `json:"description"`
	}
	list := s.svc.Catalog().List()
	out := make([]summary, 0, len(list))
	for _, p := range list {
		out = append(out, summary{ID: p.ID, Name: p.Name, ShopName: p.ShopName, Avatar: p.Avatar, Description: p.Description})
	}
	c.JSON(http.StatusOK, gin.H{"personas": out})
}

func (s Sessions) Create(c *gin.Context) {
	st, err := s.svc.Start(c)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

func (s Sessions) Get(c *gin.Context) {
	st, err := s.svc.Get(c, c.Param("id"))
	if err != nil {
		abortErr(c, err)
		return
	}
	body, err := json.Marshal(st)
	if err != nil {
		abortErr(c, err)
		return
	}
	etag := fmt.Sprintf(`"%016x"`, xxhash.Checksum64(body))
	c.Header("ETag", etag)
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (s Sessions) Send(c *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"max=4000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	st, ignored, err := s.svc.Send(c, c.Param("id"), s.clean(req.Text))
	if err != nil {
		abortErr(c, err)
		return
	}
	resp := gin.H{"session": st, "ignored": ignored}
	if st.PendingOrder != nil {
		resp["receipt"] = order.Receipt(*st.PendingOrder, s.svc.Persona(st).ShopName)
	}
	c.JSON(http.StatusOK, resp)
}

func (s Sessions) Confirm(c *gin.Context) {
	h, err := s.svc.ConfirmOrder(c, c.Param("id"))
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, h)
}

func (s Sessions) Edit(c *gin.Context) {
	st, err := s.svc.EditOrder(c, c.Param("id"))
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s Sessions) SwitchPersona(c *gin.Context) {
	var req struct {
		PersonaID string `json:"personaId" binding:"required,max=64"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	st, err := s.svc.SwitchPersona(c, c.Param("id"), req.PersonaID)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s Sessions) UpdateInstruction(c *gin.Context) {
	var req struct {
		Instruction *string `json:"instruction" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	st, err := s.svc.UpdateInstruction(c, c.Param("id"), c.Param("personaId"), *req.Instruction)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s Sessions) Backup(c *gin.Context) {
	blob, name, err := s.svc.Backup(c, c.Param("id"))
	if err != nil {
		abortErr(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, "application/json", blob)
}

func (s Sessions) Restore(c *gin.Context) {
	blob, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": invalidBackupText})
		return
	}
	st, err := s.svc.Restore(c, c.Param("id"), blob)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func abortErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"err": "session not found"})
	case errors.Is(err, persona.ErrUnknownPersona):
		c.JSON(http.StatusNotFound, gin.H{"err": err.Error()})
	case errors.Is(err, session.ErrNoPendingOrder):
		c.JSON(http.StatusConflict, gin.H{"err": "no pending order"})
	case errors.Is(err, backup.ErrInvalidBackup):
		c.JSON(http.StatusBadRequest, gin.H{"err": invalidBackupText})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
	}
}
