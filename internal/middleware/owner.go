package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// OwnerHeader заголовок с идентификатором владельца, когда API ключи не настроены
const OwnerHeader = "X-Owner-ID"

// OwnerID возвращает идентификатор владельца запроса: имя валидного API ключа,
// иначе значение заголовка X-Owner-ID.
func OwnerID(c *gin.Context) (string, bool) {
	if IsAPIKeyValidated(c) {
		if name := c.GetString(contextKeyName); name != "" {
			return name, true
		}
	}
	owner := strings.TrimSpace(c.GetHeader(OwnerHeader))
	return owner, owner != ""
}
