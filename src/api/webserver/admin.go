package webserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/atulbakery/ishan-assistant/src/api/data"
	"github.com/atulbakery/ishan-assistant/src/config"
	"github.com/atulbakery/ishan-assistant/src/order"
)

// settingNames are the settings staff may change at runtime.
var settingNames = map[string]bool{
	"shop_number":        true,
	"discord_channel_id": true,
}

type Admin struct {
	passwordHash  []byte
	secret        []byte
	gen           Broadcaster
	ledger        OrderLister
	db            *gorm.DB
	messagingHost string
}

func NewAdmin(d Deps) Admin {
	return Admin{
		passwordHash:  []byte(d.Config.AdminPasswordHash),
		secret:        []byte(d.Config.JWTSecret),
		gen:           d.Broadcaster,
		ledger:        d.Ledger,
		db:            d.DB,
		messagingHost: d.Config.MessagingHost,
	}
}

func (a Admin) Login(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required,max=256"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if len(a.passwordHash) == 0 || len(a.secret) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"err": "admin login disabled"})
		return
	}
	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(req.Password)); err != nil {
		log.Warn().Str("ip", c.ClientIP()).Msg("admin login rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"err": "bad credentials"})
		return
	}
	token, err := issueJWT("admin", a.secret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (a Admin) Broadcast(c *gin.Context) {
	var req struct {
		Topic    string `json:"topic" binding:"required,max=500"`
		Audience string `json:"audience" binding:"max=200"`
		Tone     string `json:"tone" binding:"max=100"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if a.gen == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"err": "model not configured"})
		return
	}
	text := a.gen.GenerateBroadcast(c, req.Topic, req.Audience, req.Tone)
	shop := config.GetSetting("shop_number", "SHOP_NUMBER", order.DefaultShopNumber)
	c.JSON(http.StatusOK, gin.H{"text": text, "url": order.HandoffURL(a.messagingHost, shop, text)})
}

func (a Admin) Orders(c *gin.Context) {
	if a.ledger == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"err": "order ledger not configured"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	rows, err := a.ledger.Recent(c, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": rows})
}

func (a Admin) SetSetting(c *gin.Context) {
	name := c.Param("name")
	if !settingNames[name] {
		c.JSON(http.StatusBadRequest, gin.H{"err": "unknown setting"})
		return
	}
	var req struct {
		Value string `json:"value" binding:"required,max=64"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	// Both settings are numeric ids.
	if _, err := strconv.ParseUint(req.Value, 10, 64); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "value must be numeric"})
		return
	}
	if a.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"err": "settings store not configured"})
		return
	}

	log.Info().Str("admin", c.GetString("sub")).Str("setting", name).Str("value", req.Value).Msg("setting updated")

	if err := data.SaveSetting(a.db, name, req.Value); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
