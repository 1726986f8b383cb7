// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/telekom/k8s-dashboard/pkg/apiresponses"
	"github.com/telekom/k8s-dashboard/pkg/config"
	"github.com/telekom/k8s-dashboard/pkg/system"
)

// ClusterController manages the cluster registry over HTTP. Responses never
// carry plaintext secrets.
type ClusterController struct {
	log      *zap.SugaredLogger
	registry Registry
}

func NewClusterController(log *zap.SugaredLogger, registry Registry) *ClusterController {
	return &ClusterController{log: log, registry: registry}
}

func (cc *ClusterController) BasePath() string { return "clusters" }

func (cc *ClusterController) Handlers() []gin.HandlerFunc { return nil }

func (cc *ClusterController) Register(rg *gin.RouterGroup) error {
	rg.GET("", cc.handleList)
	rg.POST("", cc.handleAdd)
	rg.PUT(":cluster_id", cc.handleUpdate)
	rg.DELETE(":cluster_id", cc.handleRemove)
	return nil
}

// ClusterResponse is a registry entry as the frontend sees it. Error is set
// when the cluster's client could not be initialized.
type ClusterResponse struct {
	config.ClusterConfig
	Error string `json:"error,omitempty"`
}

// ClusterMutation is the body returned by add and update.
type ClusterMutation struct {
	Success   bool   `json:"success"`
	ClusterID string `json:"cluster_id,omitempty"`
}

func (cc *ClusterController) handleList(c *gin.Context) {
	configs := cc.registry.Configs()
	out := make([]ClusterResponse, 0, len(configs))
	for _, cfg := range configs {
		resp := ClusterResponse{ClusterConfig: cfg.Redacted()}
		if err := cc.registry.InitError(cfg.ID); err != nil {
			resp.Error = err.Error()
		}
		out = append(out, resp)
	}
	apiresponses.RespondOK(c, out)
}

func (cc *ClusterController) handleAdd(c *gin.Context) {
	log := system.EnrichReqLoggerWithCluster(c, system.GetReqLogger(c, cc.log))
	var cfg config.ClusterConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		apiresponses.RespondBadRequestWithDetails(c, "invalid cluster configuration", err.Error())
		return
	}
	// the id always derives from the name on creation
	cfg.ID = ""
	if err := cc.registry.Add(c.Request.Context(), cfg); err != nil {
		apiresponses.RespondError(c, "add cluster", err, log)
		return
	}
	log.Infow("Cluster added", "cluster", cfg.Name)
	apiresponses.RespondOK(c, ClusterMutation{Success: true, ClusterID: cfg.Name})
}

func (cc *ClusterController) handleUpdate(c *gin.Context) {
	log := system.EnrichReqLoggerWithCluster(c, system.GetReqLogger(c, cc.log))
	var cfg config.ClusterConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		apiresponses.RespondBadRequestWithDetails(c, "invalid cluster configuration", err.Error())
		return
	}
	id, err := cc.registry.Update(c.Request.Context(), c.Param("cluster_id"), cfg)
	if err != nil {
		apiresponses.RespondError(c, "update cluster", err, log)
		return
	}
	log.Infow("Cluster updated", "id", id)
	apiresponses.RespondOK(c, ClusterMutation{Success: true, ClusterID: id})
}

func (cc *ClusterController) handleRemove(c *gin.Context) {
	log := system.EnrichReqLoggerWithCluster(c, system.GetReqLogger(c, cc.log))
	if err := cc.registry.Remove(c.Request.Context(), c.Param("cluster_id")); err != nil {
		apiresponses.RespondError(c, "remove cluster", err, log)
		return
	}
	log.Infow("Cluster removed")
	c.JSON(http.StatusOK, ClusterMutation{Success: true})
}
