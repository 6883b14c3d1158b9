package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type exportResponse struct {
	Key      string `json:"key"`
	Location string `json:"location"`
	URL      string `json:"url"`
	Count    int    `json:"count"`
}

type exportObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
}

func (h *Handler) createExport(c *gin.Context) {
	userID, _ := callerID(c)

	export, err := h.exports.Export(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "Server error while exporting todos")
		return
	}

	h.log(c).WithField("key", export.Key).Info("todos exported")
	c.JSON(http.StatusCreated, exportResponse{
		Key:      export.Key,
		Location: export.Location,
		URL:      export.URL,
		Count:    export.Count,
	})
}

func (h *Handler) listExports(c *gin.Context) {
	userID, _ := callerID(c)

	objects, err := h.exports.ListExports(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "Server error while listing exports")
		return
	}

	resp := make([]exportObjectResponse, len(objects))
	for i, obj := range objects {
		resp[i] = exportObjectResponse{Key: obj.Key, Size: obj.Size}
		if obj.LastModified != nil && !obj.LastModified.IsZero() {
			v := obj.LastModified.UTC().Format(time.RFC3339)
			resp[i].LastModified = &v
		}
	}
	c.JSON(http.StatusOK, gin.H{"exports": resp})
}

func (h *Handler) deleteExports(c *gin.Context) {
	userID, _ := callerID(c)

	if err := h.exports.DeleteExports(c.Request.Context(), userID); err != nil {
		h.respondError(c, err, "Server error while deleting exports")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Exports deleted"})
}
