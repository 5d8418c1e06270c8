package httpHandler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	flashCookie     = "flash"
	flashNowKey     = "flash_now"
	flashPendingKey = "flash_pending"
	flashCodecKey   = "flash_codec"

	flashSubject = "flash"
	flashTTL     = 10 * time.Minute
)

// Flash is a one-shot notification shown on the next rendered page.
type Flash struct {
	Category string `json:"category"` // success | info | danger
	Message  string `json:"message"`
}

type flashClaims struct {
	Flashes []Flash `json:"flashes"`
	jwt.RegisteredClaims
}

// FlashCodec signs the flash cookie so clients cannot forge banners.
type FlashCodec struct {
	secret []byte
	secure bool
	now    func() time.Time
}

func NewFlashCodec(secret string, secure bool) *FlashCodec {
	return &FlashCodec{secret: []byte(secret), secure: secure, now: time.Now}
}

// Attach makes the codec available to the flash helpers of this request.
func (f *FlashCodec) Attach(c *gin.Context) {
	c.Set(flashCodecKey, f)
	c.Next()
}

func (f *FlashCodec) encode(flashes []Flash) (string, error) {
	now := f.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, flashClaims{
		Flashes: flashes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   flashSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(flashTTL)),
		},
	})
	return token.SignedString(f.secret)
}

// decode returns nil for anything not signed by this codec.
func (f *FlashCodec) decode(raw string) []Flash {
	claims := &flashClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return f.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(f.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid || claims.Subject != flashSubject {
		return nil
	}
	return claims.Flashes
}

func codecFrom(c *gin.Context) *FlashCodec {
	v, ok := c.Get(flashCodecKey)
	if !ok {
		return nil
	}
	f, _ := v.(*FlashCodec)
	return f
}

// addFlash queues a message for the next request, typically across a redirect.
func addFlash(c *gin.Context, category, message string) {
	var pending []Flash
	if v, ok := c.Get(flashPendingKey); ok {
		pending, _ = v.([]Flash)
	} else {
		pending = readFlashCookie(c)
	}
	pending = append(pending, Flash{Category: category, Message: message})
	c.Set(flashPendingKey, pending)

	f := codecFrom(c)
	if f == nil {
		return
	}
	value, err := f.encode(pending)
	if err != nil {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, value, 0, "/", "", f.secure, true)
}

// flashNow attaches a message to the page rendered by this request.
func flashNow(c *gin.Context, category, message string) {
	var now []Flash
	if v, ok := c.Get(flashNowKey); ok {
		now, _ = v.([]Flash)
	}
	c.Set(flashNowKey, append(now, Flash{Category: category, Message: message}))
}

// consumeFlashes returns every pending message and clears the cookie.
func consumeFlashes(c *gin.Context) []Flash {
	flashes := readFlashCookie(c)
	if _, err := c.Cookie(flashCookie); err == nil {
		secure := false
		if f := codecFrom(c); f != nil {
			secure = f.secure
		}
		c.SetCookie(flashCookie, "", -1, "/", "", secure, true)
	}
	if v, ok := c.Get(flashNowKey); ok {
		now, _ := v.([]Flash)
		flashes = append(flashes, now...)
	}
	return flashes
}

func readFlashCookie(c *gin.Context) []Flash {
	f := codecFrom(c)
	if f == nil {
		return nil
	}
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return nil
	}
	return f.decode(raw)
}
