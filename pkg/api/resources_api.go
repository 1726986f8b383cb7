// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/telekom/k8s-dashboard/pkg/apiresponses"
	"github.com/telekom/k8s-dashboard/pkg/cluster"
	"github.com/telekom/k8s-dashboard/pkg/manifest"
	"github.com/telekom/k8s-dashboard/pkg/records"
	"github.com/telekom/k8s-dashboard/pkg/system"
)

// ResourceController serves the per-cluster resource routes. The target
// namespace comes from the "namespace" query parameter and defaults to the
// cluster's namespace.
type ResourceController struct {
	log      *zap.SugaredLogger
	registry Registry
}

func NewResourceController(log *zap.SugaredLogger, registry Registry) *ResourceController {
	return &ResourceController{log: log, registry: registry}
}

func (rc *ResourceController) BasePath() string { return "clusters/:cluster_id" }

func (rc *ResourceController) Handlers() []gin.HandlerFunc { return nil }

func (rc *ResourceController) Register(rg *gin.RouterGroup) error {
	rg.GET("namespaces", rc.list("list namespaces", func(cl *cluster.Client, ctx context.Context, _ string) ([]records.Record, error) {
		return cl.ListNamespaces(ctx)
	}))
	rg.POST("namespaces", rc.handleCreateNamespace)
	rg.DELETE("namespaces/:namespace", rc.handleDeleteNamespace)

	rg.GET("deployments", rc.list("list deployments", (*cluster.Client).ListWorkloads))
	rg.POST("deployments", rc.create("create deployment", (*cluster.Client).CreateWorkload))
	rg.POST("deployments/yaml", rc.handleApplyYAML)
	rg.GET("deployments/images", rc.list("list deployment images", (*cluster.Client).ListWorkloadImages))
	rg.GET("deployments/:name/detail", rc.detail("get deployment", (*cluster.Client).GetWorkloadDetail))
	rg.POST("deployments/:name/update-image", rc.handleUpdateImage)
	rg.POST("deployments/:name/scale", rc.handleScale)
	rg.DELETE("deployments/:name", rc.remove("delete deployment", (*cluster.Client).DeleteWorkload))
	rg.GET("search-deployments-by-image", rc.handleSearchByImage)
	rg.POST("yaml", rc.handleApplyYAML)

	rg.GET("pods", rc.list("list pods", (*cluster.Client).ListPods))
	rg.DELETE("pods/:name", rc.remove("delete pod", (*cluster.Client).DeletePod))
	rg.GET("pods/:name/logs", rc.handleLogs)

	rg.GET("services", rc.list("list services", (*cluster.Client).ListServices))
	rg.POST("services", rc.create("create service", (*cluster.Client).CreateService))
	rg.GET("services/:name/detail", rc.detail("get service", (*cluster.Client).GetServiceDetail))
	rg.DELETE("services/:name", rc.remove("delete service", (*cluster.Client).DeleteService))

	rg.GET("configmaps", rc.list("list configmaps", (*cluster.Client).ListConfigMaps))
	rg.POST("configmaps", rc.create("create configmap", (*cluster.Client).CreateConfigMap))
	rg.GET("configmaps/:name/detail", rc.detail("get configmap", (*cluster.Client).GetConfigMapDetail))
	rg.DELETE("configmaps/:name", rc.remove("delete configmap", (*cluster.Client).DeleteConfigMap))

	rg.GET("ingresses", rc.list("list ingresses", (*cluster.Client).ListIngresses))
	rg.POST("ingresses", rc.create("create ingress", (*cluster.Client).CreateIngress))
	rg.GET("ingresses/:name/detail", rc.detail("get ingress", (*cluster.Client).GetIngressDetail))
	rg.DELETE("ingresses/:name", rc.remove("delete ingress", (*cluster.Client).DeleteIngress))
	return nil
}

// client resolves the cluster of the request. On failure the error response
// is already written.
func (rc *ResourceController) client(c *gin.Context) (*cluster.Client, *zap.SugaredLogger, bool) {
	log := system.EnrichReqLoggerWithCluster(c, system.GetReqLogger(c, rc.log))
	cl, err := rc.registry.Get(c.Request.Context(), c.Param("cluster_id"))
	if err != nil {
		apiresponses.RespondError(c, "resolve cluster", err, log)
		return nil, log, false
	}
	return cl, log, true
}

// The handler func types take the client first so method expressions such
// as (*cluster.Client).ListPods fit them.
type listFunc func(cl *cluster.Client, ctx context.Context, namespace string) ([]records.Record, error)

func (rc *ResourceController) list(op string, fn listFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, log, ok := rc.client(c)
		if !ok {
			return
		}
		out, err := fn(cl, c.Request.Context(), c.Query("namespace"))
		if err != nil {
			apiresponses.RespondError(c, op, err, log)
			return
		}
		if out == nil {
			out = []records.Record{}
		}
		apiresponses.RespondOK(c, out)
	}
}

type detailFunc func(cl *cluster.Client, ctx context.Context, namespace, name string) (records.Detail, error)

func (rc *ResourceController) detail(op string, fn detailFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, log, ok := rc.client(c)
		if !ok {
			return
		}
		out, err := fn(cl, c.Request.Context(), c.Query("namespace"), c.Param("name"))
		if err != nil {
			apiresponses.RespondError(c, op, err, log)
			return
		}
		apiresponses.RespondOK(c, out)
	}
}

type removeFunc func(cl *cluster.Client, ctx context.Context, namespace, name string) (string, error)

func (rc *ResourceController) remove(op string, fn removeFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, log, ok := rc.client(c)
		if !ok {
			return
		}
		out, err := fn(cl, c.Request.Context(), c.Query("namespace"), c.Param("name"))
		if err != nil {
			apiresponses.RespondError(c, op, err, log)
			return
		}
		log.With(system.NamespacedFields(c.Param("name"), c.Query("namespace"))...).Infow("Resource deleted", "operation", op)
		apiresponses.RespondMessage(c, out)
	}
}

type createFunc func(cl *cluster.Client, ctx context.Context, namespace string, form manifest.Form) (string, error)

func (rc *ResourceController) create(op string, fn createFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form map[string]any
		if err := c.ShouldBindJSON(&form); err != nil {
			apiresponses.RespondBadRequestWithDetails(c, "invalid form", err.Error())
			return
		}
		cl, log, ok := rc.client(c)
		if !ok {
			return
		}
		out, err := fn(cl, c.Request.Context(), c.Query("namespace"), manifest.Form(form))
		if err != nil {
			apiresponses.RespondError(c, op, err, log)
			return
		}
		apiresponses.RespondMessage(c, out)
	}
}

func (rc *ResourceController) handleCreateNamespace(c *gin.Context) {
	var body struct {
		Namespace string `json:"namespace"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiresponses.RespondBadRequestWithDetails(c, "invalid request body", err.Error())
		return
	}
	cl, log, ok := rc.client(c)
	if !ok {
		return
	}
	out, err := cl.CreateNamespace(c.Request.Context(), body.Namespace)
	if err != nil {
		apiresponses.RespondError(c, "create namespace", err, log)
		return
	}
	apiresponses.RespondMessage(c, out)
}

func (rc *ResourceController) handleDeleteNamespace(c *gin.Context) {
	cl, log, ok := rc.client(c)
	if !ok {
		return
	}
	out, err := cl.DeleteNamespace(c.Request.Context(), c.Param("namespace"))
	if err != nil {
		apiresponses.RespondError(c, "delete namespace", err, log)
		return
	}
	apiresponses.RespondMessage(c, out)
}

func (rc *ResourceController) handleApplyYAML(c *gin.Context) {
	var body struct {
		YAML string `json:"yaml"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiresponses.RespondBadRequestWithDetails(c, "invalid request body", err.Error())
		return
	}
	cl, log, ok := rc.client(c)
	if !ok {
		return
	}
	out, err := cl.CreateFromManifest(c.Request.Context(), c.Query("namespace"), body.YAML)
	if err != nil {
		apiresponses.RespondError(c, "apply manifest", err, log)
		return
	}
	apiresponses.RespondMessage(c, out)
}

func (rc *ResourceController) handleUpdateImage(c *gin.Context) {
	var body struct {
		Image string `json:"image"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiresponses.RespondBadRequestWithDetails(c, "invalid request body", err.Error())
		return
	}
	cl, log, ok := rc.client(c)
	if !ok {
		return
	}
	out, err := cl.UpdateWorkloadImage(c.Request.Context(), c.Query("namespace"), c.Param("name"), body.Image)
	if err != nil {
		apiresponses.RespondError(c, "update image", err, log)
		return
	}
	apiresponses.RespondMessage(c, out)
}

func (rc *ResourceController) handleScale(c *gin.Context) {
	var body struct {
		Replicas *int `json:"replicas"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiresponses.RespondBadRequest(c, "replicas must be a number")
		return
	}
	if body.Replicas == nil {
		apiresponses.RespondBadRequest(c, "replicas is required")
		return
	}
	cl, log, ok := rc.client(c)
	if !ok {
		return
	}
	out, err := cl.ScaleWorkload(c.Request.Context(), c.Query("namespace"), c.Param("name"), *body.Replicas)
	if err != nil {
		apiresponses.RespondError(c, "scale deployment", err, log)
		return
	}
	apiresponses.RespondMessage(c, out)
}

// LogsResponse carries a pod's log text.
type LogsResponse struct {
	Success bool   `json:"success"`
	Logs    string `json:"logs"`
}

func (rc *ResourceController) handleLogs(c *gin.Context) {
	tail := 0
	if lines := c.Query("lines"); lines != "" {
		n, err := strconv.Atoi(lines)
		if err != nil {
			apiresponses.RespondBadRequest(c, "lines must be a number")
			return
		}
		tail = n
	}
	cl, log, ok := rc.client(c)
	if !ok {
		return
	}
	out, err := cl.GetPodLogs(c.Request.Context(), c.Query("namespace"), c.Param("name"), tail)
	if err != nil {
		apiresponses.RespondError(c, "get logs", err, log)
		return
	}
	apiresponses.RespondOK(c, LogsResponse{Success: true, Logs: out})
}

// SearchResponse lists the workloads matching an image.
type SearchResponse struct {
	Success     bool                 `json:"success"`
	Deployments []cluster.ImageMatch `json:"deployments"`
}

func (rc *ResourceController) handleSearchByImage(c *gin.Context) {
	cl, log, ok := rc.client(c)
	if !ok {
		return
	}
	out, err := cl.SearchWorkloadsByImage(c.Request.Context(), c.Query("namespace"), c.Query("image"))
	if err != nil {
		apiresponses.RespondError(c, "search deployments", err, log)
		return
	}
	apiresponses.RespondOK(c, SearchResponse{Success: true, Deployments: out})
}
