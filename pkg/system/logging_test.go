package system

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestGetReqLoggerFallbackWhenContextNil(t *testing.T) {
	fallback := zap.NewNop().Sugar()
	require.Same(t, fallback, GetReqLogger(nil, fallback))
}

func TestGetReqLoggerFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	fallback := zap.NewNop().Sugar()
	stored := zap.NewNop().Sugar()
	ctx.Set(ReqLoggerKey, stored)
	require.Same(t, stored, GetReqLogger(ctx, fallback))
}

func TestGetReqLoggerIgnoresInvalidTypes(t *testing.T) {
	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	fallback := zap.NewNop().Sugar()
	ctx.Set(ReqLoggerKey, "not-a-logger")
	require.Same(t, fallback, GetReqLogger(ctx, fallback))
}

func TestEnrichReqLoggerWithClusterAddsFields(t *testing.T) {
	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	ctx.Params = gin.Params{{Key: "cluster_id", Value: "prod"}, {Key: "namespace", Value: "shop"}}

	core, recorded := observer.New(zap.DebugLevel)
	logger := zap.New(core).Sugar()
	enriched := EnrichReqLoggerWithCluster(ctx, logger)
	enriched.Infow("final-log")

	entries := recorded.All()
	require.Len(t, entries, 1)

	infoCtx := entries[0].ContextMap()
	require.Equal(t, "prod", infoCtx["cluster"])
	require.Equal(t, "shop", infoCtx["namespace"])
}

func TestEnrichReqLoggerWithClusterSkipsMissingParams(t *testing.T) {
	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())

	core, recorded := observer.New(zap.DebugLevel)
	EnrichReqLoggerWithCluster(ctx, zap.New(core).Sugar()).Infow("final-log")

	require.Empty(t, recorded.All()[0].ContextMap())
}

func TestEnrichReqLoggerWithClusterHandlesNil(t *testing.T) {
	sugar := zap.NewNop().Sugar()
	require.Same(t, sugar, EnrichReqLoggerWithCluster(nil, sugar))
	require.Nil(t, EnrichReqLoggerWithCluster(&gin.Context{}, nil))
}

func TestNamespacedFields(t *testing.T) {
	require.Equal(t, []interface{}{"name", "obj", "namespace", "ns-1"}, NamespacedFields("obj", "ns-1"))
	require.Equal(t, []interface{}{"name", "obj"}, NamespacedFields("obj", ""))
}
