package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Ключи контекста gin, которые выставляет middleware
const (
	contextKeyValidated = "api_key_validated"
	contextKeyName      = "api_key_name"
)

// APIKeyConfig конфигурация для API key аутентификации
type APIKeyConfig struct {
	// ValidKeys карта валидных API ключей к именам владельцев
	ValidKeys map[string]string
	// HeaderName имя заголовка для API ключа (по умолчанию: X-API-Key)
	HeaderName string
	// Optional если true, запросы без API ключа пропускаются без владельца
	Optional bool
}

// DefaultAPIKeyConfig конфигурация по умолчанию
var DefaultAPIKeyConfig = APIKeyConfig{
	HeaderName: "X-API-Key",
	Optional:   false,
}

// APIKey middleware для аутентификации по API ключу.
// Имя валидного ключа становится идентификатором владельца ссылок.
type APIKey struct {
	config APIKeyConfig
}

// NewAPIKey создаёт новый API key middleware
func NewAPIKey(config APIKeyConfig) *APIKey {
	if config.HeaderName == "" {
		config.HeaderName = DefaultAPIKeyConfig.HeaderName
	}
	return &APIKey{config: config}
}

// Middleware возвращает Gin middleware handler для API key аутентификации
func (ak *APIKey) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := ak.extractKey(c)

		if apiKey == "" {
			if ak.config.Optional {
				c.Set(contextKeyValidated, false)
				c.Next()
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "missing_api_key",
				"message": "API key required: use the X-API-Key header or Authorization: Bearer",
			})
			return
		}

		keyName, ok := ak.lookup(apiKey)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_api_key",
				"message": "Invalid API key",
			})
			return
		}

		c.Set(contextKeyValidated, true)
		c.Set(contextKeyName, keyName)
		c.Next()
	}
}

// extractKey достаёт ключ из заголовка или Authorization: Bearer.
// Query параметр не поддерживается: ключ не должен попадать в логи запросов.
func (ak *APIKey) extractKey(c *gin.Context) string {
	if key := c.GetHeader(ak.config.HeaderName); key != "" {
		return key
	}
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// lookup сравнивает ключ со всеми валидными за постоянное время
func (ak *APIKey) lookup(apiKey string) (string, bool) {
	var keyName string
	valid := false
	for validKey, name := range ak.config.ValidKeys {
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(validKey)) == 1 {
			valid = true
			keyName = name
		}
	}
	return keyName, valid
}

// RequireAPIKey хелпер для создания middleware, требующего API ключ
func RequireAPIKey(validKeys map[string]string) gin.HandlerFunc {
	return NewAPIKey(APIKeyConfig{
		ValidKeys:  validKeys,
		HeaderName: DefaultAPIKeyConfig.HeaderName,
	}).Middleware()
}

// OptionalAPIKey хелпер для создания middleware, который опционально принимает API ключ
func OptionalAPIKey(validKeys map[string]string) gin.HandlerFunc {
	return NewAPIKey(APIKeyConfig{
		ValidKeys:  validKeys,
		HeaderName: DefaultAPIKeyConfig.HeaderName,
		Optional:   true,
	}).Middleware()
}

// IsAPIKeyValidated проверяет, был ли API ключ успешно валидирован
func IsAPIKeyValidated(c *gin.Context) bool {
	return c.GetBool(contextKeyValidated)
}
