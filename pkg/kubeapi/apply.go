package kubeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"

	"github.com/telekom/k8s-dashboard/pkg/clustererr"
	"github.com/telekom/k8s-dashboard/pkg/records"
)

// decodeManifest splits a multi-document YAML or JSON stream into typed
// objects. Empty documents are skipped.
func decodeManifest(manifest string) ([]runtime.Object, error) {
	deserializer := scheme.Codecs.UniversalDeserializer()
	dec := utilyaml.NewYAMLOrJSONDecoder(strings.NewReader(manifest), 4096)

	var objs []runtime.Object
	for {
		var raw map[string]any
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, clustererr.Validation("decoding manifest: %v", err)
		}
		if len(raw) == 0 {
			continue
		}
		data, err := json.Marshal(raw)
		if err != nil {
			return nil, clustererr.Validation("re-encoding manifest document: %v", err)
		}
		obj, _, err := deserializer.Decode(data, nil, nil)
		if err != nil {
			return nil, clustererr.Validation("decoding manifest document: %v", err)
		}
		objs = append(objs, obj)
	}
	if len(objs) == 0 {
		return nil, clustererr.Validation("manifest contains no objects")
	}
	return objs, nil
}

// Apply creates every object of the manifest in namespace. Namespaced
// objects are forced into namespace regardless of metadata.namespace.
// Decoding happens before any API call, so a malformed document creates
// nothing.
func (b *Backend) Apply(ctx context.Context, namespace, manifest string) (string, error) {
	objs, err := decodeManifest(manifest)
	if err != nil {
		return "", err
	}
	for _, obj := range objs {
		if _, err := kindOf(obj); err != nil {
			return "", err
		}
	}

	var created []string
	err = b.with(ctx, "apply", func(ctx context.Context, cs kubernetes.Interface) error {
		for _, obj := range objs {
			msg, err := create(ctx, cs, namespace, obj)
			if err != nil {
				return err
			}
			created = append(created, msg)
		}
		return nil
	})
	return strings.Join(created, "\n"), err
}

func kindOf(obj runtime.Object) (records.Kind, error) {
	switch obj.(type) {
	case *appsv1.Deployment:
		return records.KindWorkload, nil
	case *corev1.Service:
		return records.KindService, nil
	case *corev1.ConfigMap:
		return records.KindConfigMap, nil
	case *networkingv1.Ingress:
		return records.KindIngress, nil
	case *corev1.Namespace:
		return records.KindNamespace, nil
	}
	gvk := obj.GetObjectKind().GroupVersionKind()
	return "", clustererr.Validation("unsupported manifest kind %s", gvk.Kind)
}

func create(ctx context.Context, cs kubernetes.Interface, namespace string, obj runtime.Object) (string, error) {
	opts := metav1.CreateOptions{}
	switch o := obj.(type) {
	case *appsv1.Deployment:
		o.Namespace = namespace
		_, err := cs.AppsV1().Deployments(namespace).Create(ctx, o, opts)
		return fmt.Sprintf("deployment.apps/%s created", o.Name), apiError(err, records.KindWorkload, o.Name, namespace)
	case *corev1.Service:
		o.Namespace = namespace
		_, err := cs.CoreV1().Services(namespace).Create(ctx, o, opts)
		return fmt.Sprintf("service/%s created", o.Name), apiError(err, records.KindService, o.Name, namespace)
	case *corev1.ConfigMap:
		o.Namespace = namespace
		_, err := cs.CoreV1().ConfigMaps(namespace).Create(ctx, o, opts)
		return fmt.Sprintf("configmap/%s created", o.Name), apiError(err, records.KindConfigMap, o.Name, namespace)
	case *networkingv1.Ingress:
		o.Namespace = namespace
		_, err := cs.NetworkingV1().Ingresses(namespace).Create(ctx, o, opts)
		return fmt.Sprintf("ingress.networking.k8s.io/%s created", o.Name), apiError(err, records.KindIngress, o.Name, namespace)
	case *corev1.Namespace:
		_, err := cs.CoreV1().Namespaces().Create(ctx, o, opts)
		return fmt.Sprintf("namespace/%s created", o.Name), apiError(err, records.KindNamespace, o.Name, "")
	}
	_, err := kindOf(obj)
	return "", err
}
