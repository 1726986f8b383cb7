package kubeapi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/telekom/k8s-dashboard/pkg/clustererr"
)

const twoDocs = `
apiVersion: v1
kind: ConfigMap
metadata:
  name: settings
  namespace: elsewhere
data:
  mode: fast
---
---
apiVersion: apps/v1
kind: Deployment
metadata:
  name: web
spec:
  replicas: 1
  selector:
    matchLabels:
      app: web
  template:
    metadata:
      labels:
        app: web
    spec:
      containers:
      - name: web
        image: nginx:1.25
`

func TestApplyForcesNamespace(t *testing.T) {
	b, cs, _ := newTestBackend(t)
	ctx := context.Background()

	out, err := b.Apply(ctx, "shop", twoDocs)
	require.NoError(t, err)
	assert.Equal(t, "configmap/settings created\ndeployment.apps/web created", out)

	cm, err := cs.CoreV1().ConfigMaps("shop").Get(ctx, "settings", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "fast", cm.Data["mode"])
	_, err = cs.CoreV1().ConfigMaps("elsewhere").Get(ctx, "settings", metav1.GetOptions{})
	assert.True(t, apierrors.IsNotFound(err))

	_, err = cs.AppsV1().Deployments("shop").Get(ctx, "web", metav1.GetOptions{})
	require.NoError(t, err)
}

func TestApplyRejectsUnsupportedKindBeforeCreating(t *testing.T) {
	b, cs, builds := newTestBackend(t)
	manifest := `
apiVersion: v1
kind: ConfigMap
metadata:
  name: settings
---
apiVersion: v1
kind: Secret
metadata:
  name: token
`
	_, err := b.Apply(context.Background(), "shop", manifest)
	assert.ErrorIs(t, err, clustererr.ErrValidation)
	assert.Equal(t, 0, *builds)

	list, err := cs.CoreV1().ConfigMaps("shop").List(context.Background(), metav1.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}

func TestApplyExistingObjectIsConflict(t *testing.T) {
	existing := &corev1.ConfigMap{ObjectMeta: metav1.ObjectMeta{Name: "settings", Namespace: "shop"}}
	b, _, _ := newTestBackend(t, existing)

	_, err := b.Apply(context.Background(), "shop", "apiVersion: v1\nkind: ConfigMap\nmetadata:\n  name: settings\n")
	assert.ErrorIs(t, err, clustererr.ErrConflict)
}

func TestDecodeManifest(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		want     int
		wantErr  bool
	}{
		{name: "two documents", manifest: twoDocs, want: 2},
		{name: "json document", manifest: `{"apiVersion":"v1","kind":"Namespace","metadata":{"name":"x"}}`, want: 1},
		{name: "only separators", manifest: "---\n---\n", wantErr: true},
		{name: "empty", manifest: "", wantErr: true},
		{name: "missing kind", manifest: "apiVersion: v1\nmetadata:\n  name: x\n", wantErr: true},
		{name: "broken yaml", manifest: "kind: [unterminated", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objs, err := decodeManifest(tt.manifest)
			if tt.wantErr {
				assert.ErrorIs(t, err, clustererr.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Len(t, objs, tt.want)
		})
	}
}
