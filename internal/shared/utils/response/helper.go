package response

import "github.com/gin-gonic/gin"

// RespondJSON writes the envelope every roomly endpoint answers with.
// Availability, reservation and pricing handlers all route through here so
// clients parse success and failure the same way.
func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}
