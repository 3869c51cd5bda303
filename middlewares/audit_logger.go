package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-pos/utils"
)

// AuditLogger records who attempted a sensitive action (item void, bill
// settlement) and whether it succeeded. param names the route parameter that
// identifies the target.
func AuditLogger(action, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		fields := logrus.Fields{
			"action": action,
			"target": c.Param(param),
			"user":   c.GetString(CtxUserName),
			"status": c.Writer.Status(),
		}
		if c.Writer.Status() < 300 {
			utils.InfoLogger.WithFields(fields).Info("audit")
		} else {
			utils.ErrorLogger.WithFields(fields).Error("audit: action rejected")
		}
	}
}
