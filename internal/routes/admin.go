package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"device-access-control/internal/authz"
	"device-access-control/internal/storage"
)

type approveBody struct {
	HWID        string `json:"hwid"`
	Name        string `json:"name"`
	ResourceURL string `json:"resource_url"`
	ExpiryDate  int64  `json:"expiry_date"`
}

type denyBody struct {
	HWID string `json:"hwid"`
}

type syncTenantsBody struct {
	Tenants map[string]storage.Tenant `json:"tenants"`
}

// tenantPayload flattens the tenant identifier into the record for list
// responses.
type tenantPayload struct {
	TenantID string `json:"tenant_id"`
	storage.Tenant
}

// AdminAPI registers the review routes: list the ledger and tenant table,
// approve, deny, and bulk-replace the tenant table. Authentication of the
// admin caller is out of scope; front it with a trusted proxy or the CIDR
// allow-list.
func AdminAPI(r *gin.RouterGroup, svc *authz.Service) {

	r.GET("/requests", func(c *gin.Context) {
		requests, err := svc.ListRequests(c.Request.Context())
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if requests == nil {
			requests = []storage.AccessRequest{}
		}

		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"requests": requests,
		})
	})

	r.GET("/tenants", func(c *gin.Context) {
		tenants, err := svc.ListTenants(c.Request.Context())
		if err != nil {
			AbortWithError(c, err)
			return
		}

		payload := make([]tenantPayload, 0, len(tenants))
		for tenantID, tenant := range tenants {
			payload = append(payload, tenantPayload{TenantID: tenantID, Tenant: tenant})
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"tenants": payload,
		})
	})

	r.POST("/approve", func(c *gin.Context) {
		var body approveBody
		if err := c.ShouldBindJSON(&body); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}

		tenantID, err := svc.Approve(c.Request.Context(), authz.ApproveParams{
			HWID:        body.HWID,
			Name:        body.Name,
			ResourceURL: body.ResourceURL,
			ExpiryDate:  body.ExpiryDate,
		})
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"message":   "Device approved",
			"tenant_id": tenantID,
		})
	})

	r.POST("/deny", func(c *gin.Context) {
		var body denyBody
		if err := c.ShouldBindJSON(&body); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}

		if err := svc.Deny(c.Request.Context(), body.HWID); err != nil {
			AbortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Device denied and authorization revoked",
		})
	})

	r.POST("/sync/tenants", func(c *gin.Context) {
		var body syncTenantsBody
		if err := c.ShouldBindJSON(&body); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}

		if err := svc.SyncTenants(c.Request.Context(), body.Tenants); err != nil {
			AbortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Tenant table synchronized",
		})
	})
}
