package kubeapi

import (
	"context"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes"
	"k8s.io/utils/ptr"

	"github.com/telekom/k8s-dashboard/pkg/clustererr"
	"github.com/telekom/k8s-dashboard/pkg/records"
)

// List returns one record per object of kind. Namespace is ignored for namespaces.
func (b *Backend) List(ctx context.Context, kind records.Kind, namespace string) ([]records.Record, error) {
	var out []records.Record
	err := b.with(ctx, "list "+kind.Plural(), func(ctx context.Context, cs kubernetes.Interface) error {
		opts := metav1.ListOptions{}
		switch kind {
		case records.KindNamespace:
			list, err := cs.CoreV1().Namespaces().List(ctx, opts)
			if err != nil {
				return apiError(err, kind, "", "")
			}
			for i := range list.Items {
				out = append(out, namespaceRecord(&list.Items[i]))
			}
		case records.KindWorkload:
			list, err := cs.AppsV1().Deployments(namespace).List(ctx, opts)
			if err != nil {
				return apiError(err, records.KindNamespace, namespace, "")
			}
			for i := range list.Items {
				out = append(out, deploymentRecord(&list.Items[i]))
			}
		case records.KindPod:
			list, err := cs.CoreV1().Pods(namespace).List(ctx, opts)
			if err != nil {
				return apiError(err, records.KindNamespace, namespace, "")
			}
			for i := range list.Items {
				out = append(out, podRecord(&list.Items[i]))
			}
		case records.KindService:
			list, err := cs.CoreV1().Services(namespace).List(ctx, opts)
			if err != nil {
				return apiError(err, records.KindNamespace, namespace, "")
			}
			for i := range list.Items {
				out = append(out, serviceRecord(&list.Items[i]))
			}
		case records.KindConfigMap:
			list, err := cs.CoreV1().ConfigMaps(namespace).List(ctx, opts)
			if err != nil {
				return apiError(err, records.KindNamespace, namespace, "")
			}
			for i := range list.Items {
				out = append(out, configMapRecord(&list.Items[i]))
			}
		case records.KindIngress:
			list, err := cs.NetworkingV1().Ingresses(namespace).List(ctx, opts)
			if err != nil {
				return apiError(err, records.KindNamespace, namespace, "")
			}
			for i := range list.Items {
				out = append(out, ingressRecord(&list.Items[i]))
			}
		default:
			return clustererr.Validation("unsupported resource kind %q", kind)
		}
		return nil
	})
	return out, err
}

// ListWorkloadImages returns NAME and IMAGES per deployment.
func (b *Backend) ListWorkloadImages(ctx context.Context, namespace string) ([]records.Record, error) {
	var out []records.Record
	err := b.with(ctx, "list images", func(ctx context.Context, cs kubernetes.Interface) error {
		list, err := cs.AppsV1().Deployments(namespace).List(ctx, metav1.ListOptions{})
		if err != nil {
			return apiError(err, records.KindNamespace, namespace, "")
		}
		for _, d := range list.Items {
			out = append(out, records.Record{
				"NAME":   d.Name,
				"IMAGES": containerImages(d.Spec.Template.Spec.Containers),
			})
		}
		return nil
	})
	return out, err
}

func (b *Backend) Detail(ctx context.Context, kind records.Kind, namespace, name string) (records.Detail, error) {
	var out records.Detail
	err := b.with(ctx, "get "+kind.String(), func(ctx context.Context, cs kubernetes.Interface) error {
		var (
			obj runtime.Object
			err error
		)
		gvk := corev1.SchemeGroupVersion.WithKind("")
		switch kind {
		case records.KindNamespace:
			obj, err = cs.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
			gvk.Kind = "Namespace"
		case records.KindWorkload:
			obj, err = cs.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
			gvk = appsv1.SchemeGroupVersion.WithKind("Deployment")
		case records.KindPod:
			obj, err = cs.CoreV1().Pods(namespace).Get(ctx, name, metav1.GetOptions{})
			gvk.Kind = "Pod"
		case records.KindService:
			obj, err = cs.CoreV1().Services(namespace).Get(ctx, name, metav1.GetOptions{})
			gvk.Kind = "Service"
		case records.KindConfigMap:
			obj, err = cs.CoreV1().ConfigMaps(namespace).Get(ctx, name, metav1.GetOptions{})
			gvk.Kind = "ConfigMap"
		case records.KindIngress:
			obj, err = cs.NetworkingV1().Ingresses(namespace).Get(ctx, name, metav1.GetOptions{})
			gvk = networkingv1.SchemeGroupVersion.WithKind("Ingress")
		default:
			return clustererr.Validation("unsupported resource kind %q", kind)
		}
		if err != nil {
			return apiError(err, kind, name, namespace)
		}
		out, err = detail(obj, gvk)
		if err != nil {
			return clustererr.Backend(err, 0, "decoding %s %s", kind, name)
		}
		return nil
	})
	return out, err
}

// Delete removes one namespaced object and returns a kubectl-style message.
func (b *Backend) Delete(ctx context.Context, kind records.Kind, namespace, name string) (string, error) {
	err := b.with(ctx, "delete "+kind.String(), func(ctx context.Context, cs kubernetes.Interface) error {
		opts := metav1.DeleteOptions{}
		var err error
		switch kind {
		case records.KindWorkload:
			err = cs.AppsV1().Deployments(namespace).Delete(ctx, name, opts)
		case records.KindPod:
			err = cs.CoreV1().Pods(namespace).Delete(ctx, name, opts)
		case records.KindService:
			err = cs.CoreV1().Services(namespace).Delete(ctx, name, opts)
		case records.KindConfigMap:
			err = cs.CoreV1().ConfigMaps(namespace).Delete(ctx, name, opts)
		case records.KindIngress:
			err = cs.NetworkingV1().Ingresses(namespace).Delete(ctx, name, opts)
		default:
			return clustererr.Validation("cannot delete resource kind %q", kind)
		}
		return apiError(err, kind, name, namespace)
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %q deleted", kind, name), nil
}

func (b *Backend) CreateNamespace(ctx context.Context, name string) (string, error) {
	err := b.with(ctx, "create namespace", func(ctx context.Context, cs kubernetes.Interface) error {
		_, err := cs.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
		if err == nil {
			return clustererr.Conflict(records.KindNamespace.String(), name, "")
		}
		if mapped := apiError(err, records.KindNamespace, name, ""); clustererr.KindOf(mapped) != clustererr.KindNotFound {
			return mapped
		}
		ns := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: name}}
		_, err = cs.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{})
		return apiError(err, records.KindNamespace, name, "")
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("namespace/%s created", name), nil
}

func (b *Backend) DeleteNamespace(ctx context.Context, name string) (string, error) {
	err := b.with(ctx, "delete namespace", func(ctx context.Context, cs kubernetes.Interface) error {
		if _, err := cs.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{}); err != nil {
			return apiError(err, records.KindNamespace, name, "")
		}
		err := cs.CoreV1().Namespaces().Delete(ctx, name, metav1.DeleteOptions{})
		return apiError(err, records.KindNamespace, name, "")
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("namespace %q deleted", name), nil
}

// UpdateWorkloadImage sets the image of the deployment's first container.
func (b *Backend) UpdateWorkloadImage(ctx context.Context, namespace, name, image string) (string, error) {
	err := b.with(ctx, "set image", func(ctx context.Context, cs kubernetes.Interface) error {
		deployments := cs.AppsV1().Deployments(namespace)
		d, err := deployments.Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return apiError(err, records.KindWorkload, name, namespace)
		}
		if len(d.Spec.Template.Spec.Containers) == 0 {
			return clustererr.Backend(nil, 0, "deployment %q has no containers", name)
		}
		d.Spec.Template.Spec.Containers[0].Image = image
		_, err = deployments.Update(ctx, d, metav1.UpdateOptions{})
		return apiError(err, records.KindWorkload, name, namespace)
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("deployment.apps/%s image updated", name), nil
}

// ScaleWorkload sets the replica count through the scale subresource.
func (b *Backend) ScaleWorkload(ctx context.Context, namespace, name string, replicas int) (string, error) {
	err := b.with(ctx, "scale", func(ctx context.Context, cs kubernetes.Interface) error {
		deployments := cs.AppsV1().Deployments(namespace)
		scale, err := deployments.GetScale(ctx, name, metav1.GetOptions{})
		if err != nil {
			return apiError(err, records.KindWorkload, name, namespace)
		}
		scale.Spec.Replicas = int32(replicas) //nolint:gosec // bounded by the caller
		_, err = deployments.UpdateScale(ctx, name, scale, metav1.UpdateOptions{})
		return apiError(err, records.KindWorkload, name, namespace)
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("deployment.apps/%s scaled", name), nil
}

// PodLogs returns the pod's log. tail <= 0 returns the whole log.
func (b *Backend) PodLogs(ctx context.Context, namespace, name string, tail int) (string, error) {
	var out string
	err := b.with(ctx, "logs", func(ctx context.Context, cs kubernetes.Interface) error {
		opts := &corev1.PodLogOptions{}
		if tail > 0 {
			opts.TailLines = ptr.To(int64(tail))
		}
		raw, err := cs.CoreV1().Pods(namespace).GetLogs(name, opts).DoRaw(ctx)
		if err != nil {
			return apiError(err, records.KindPod, name, namespace)
		}
		out = string(raw)
		return nil
	})
	return out, err
}
