package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"device-access-control/internal/authz"
)

type accessRequestBody struct {
	HWID     string `form:"hwid" json:"hwid"`
	Hostname string `form:"hostname" json:"hostname"`
	OS       string `form:"os" json:"os"`
}

type accessRequestResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Authorized bool   `json:"authorized"`
	Denied     bool   `json:"denied,omitempty"`
}

// DeviceAPI registers the device-facing routes: request access, poll
// authorization status, and fetch the released resource.
func DeviceAPI(r *gin.RouterGroup, svc *authz.Service) {

	r.POST("/request", func(c *gin.Context) {
		var body accessRequestBody
		if err := c.ShouldBind(&body); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}

		decision, err := svc.RequestAccess(c.Request.Context(), body.HWID, body.Hostname, body.OS)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		resp := accessRequestResponse{
			Success:    true,
			Authorized: decision.Authorized,
			Denied:     decision.Denied,
		}
		switch {
		case decision.Authorized:
			resp.Message = "Device is authorized"
		case decision.Denied:
			resp.Message = "Device has been denied"
		default:
			resp.Message = "Request received, awaiting review"
		}

		c.JSON(http.StatusOK, resp)
	})

	r.GET("/check", func(c *gin.Context) {
		hwid := c.Query("hwid")

		authorized, err := svc.CheckAccess(c.Request.Context(), hwid)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"hwid":       hwid,
			"authorized": authorized,
		})
	})

	r.GET("/resource", func(c *gin.Context) {
		hwid := c.Query("hwid")

		grant, err := svc.FetchResource(c.Request.Context(), hwid)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		switch grant.Status {
		case authz.GrantActive:
			c.JSON(http.StatusOK, gin.H{
				"success":      true,
				"status":       string(grant.Status),
				"resource_url": grant.ResourceURL,
			})
		case authz.GrantExpired:
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"status":  string(grant.Status),
				"message": "Authorization has expired",
			})
		default:
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"status":  string(grant.Status),
			})
		}
	})
}
