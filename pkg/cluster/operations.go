package cluster

import (
	"context"
	"strings"
	"time"

	"github.com/telekom/k8s-dashboard/pkg/audit"
	"github.com/telekom/k8s-dashboard/pkg/clustererr"
	"github.com/telekom/k8s-dashboard/pkg/manifest"
	"github.com/telekom/k8s-dashboard/pkg/records"
)

// ImageMatch is one workload found by SearchWorkloadsByImage.
type ImageMatch struct {
	Name      string `json:"name"`
	Ready     string `json:"ready"`
	Image     string `json:"image"`
	Namespace string `json:"namespace"`
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return clustererr.Required(field)
	}
	return nil
}

func (c *Client) list(ctx context.Context, op string, kind records.Kind, namespace string) (out []records.Record, err error) {
	defer func(start time.Time) { err = c.observe(op, start, err) }(time.Now())
	return c.backend.List(ctx, kind, c.namespace(namespace))
}

func (c *Client) detail(ctx context.Context, op string, kind records.Kind, namespace, name string) (out records.Detail, err error) {
	defer func(start time.Time) { err = c.observe(op, start, err) }(time.Now())
	if err := required(kind.String()+" name", name); err != nil {
		return nil, err
	}
	return c.backend.Detail(ctx, kind, c.namespace(namespace), name)
}

func (c *Client) remove(ctx context.Context, op string, kind records.Kind, namespace, name string) (out string, err error) {
	defer func(start time.Time) { err = c.observe(op, start, err) }(time.Now())
	if err := required(kind.String()+" name", name); err != nil {
		return "", err
	}
	ns := c.namespace(namespace)
	out, err = c.backend.Delete(ctx, kind, ns, name)
	c.record(ctx, audit.EventResourceDeleted, kind.String(), ns, name, nil, err)
	return out, err
}

// create builds the manifest from form, renders it into the namespace and
// hands it to the backend.
func (c *Client) create(ctx context.Context, op string, kind manifest.Kind, namespace string, form manifest.Form) (out string, err error) {
	defer func(start time.Time) { err = c.observe(op, start, err) }(time.Now())
	ns := c.namespace(namespace)
	text, err := manifest.Build(kind, form)
	if err != nil {
		return "", err
	}
	text, err = manifest.Render(text, ns)
	if err != nil {
		return "", err
	}
	out, err = c.backend.Apply(ctx, ns, text)
	c.record(ctx, audit.EventResourceCreated, string(kind), ns, form.String("name", ""), nil, err)
	return out, err
}

// ListNamespaces marks the cluster's default namespace with SELECTED.
func (c *Client) ListNamespaces(ctx context.Context) (out []records.Record, err error) {
	defer func(start time.Time) { err = c.observe("ListNamespaces", start, err) }(time.Now())
	out, err = c.backend.List(ctx, records.KindNamespace, "")
	if err != nil {
		return nil, err
	}
	def := c.cfg.DefaultNamespace()
	for _, r := range out {
		if r.String("NAME") == def {
			r["SELECTED"] = true
		}
	}
	return out, nil
}

func (c *Client) CreateNamespace(ctx context.Context, name string) (out string, err error) {
	defer func(start time.Time) { err = c.observe("CreateNamespace", start, err) }(time.Now())
	if err := required("namespace", name); err != nil {
		return "", err
	}
	out, err = c.backend.CreateNamespace(ctx, name)
	c.record(ctx, audit.EventNamespaceCreated, records.KindNamespace.String(), "", name, nil, err)
	return out, err
}

func (c *Client) DeleteNamespace(ctx context.Context, name string) (out string, err error) {
	defer func(start time.Time) { err = c.observe("DeleteNamespace", start, err) }(time.Now())
	if err := required("namespace", name); err != nil {
		return "", err
	}
	out, err = c.backend.DeleteNamespace(ctx, name)
	c.record(ctx, audit.EventNamespaceDeleted, records.KindNamespace.String(), "", name, nil, err)
	return out, err
}

func (c *Client) ListWorkloads(ctx context.Context, namespace string) ([]records.Record, error) {
	return c.list(ctx, "ListWorkloads", records.KindWorkload, namespace)
}

func (c *Client) GetWorkloadDetail(ctx context.Context, namespace, name string) (records.Detail, error) {
	return c.detail(ctx, "GetWorkloadDetail", records.KindWorkload, namespace, name)
}

// CreateWorkload builds a Deployment from form data.
func (c *Client) CreateWorkload(ctx context.Context, namespace string, form manifest.Form) (string, error) {
	return c.create(ctx, "CreateWorkload", manifest.KindWorkload, namespace, form)
}

// CreateFromManifest applies caller-supplied manifest text. Namespace
// placeholders in the text are rendered like generated manifests.
func (c *Client) CreateFromManifest(ctx context.Context, namespace, text string) (out string, err error) {
	defer func(start time.Time) { err = c.observe("CreateFromManifest", start, err) }(time.Now())
	if err := required("manifest", text); err != nil {
		return "", err
	}
	ns := c.namespace(namespace)
	text, err = manifest.Render(text, ns)
	if err != nil {
		return "", err
	}
	out, err = c.backend.Apply(ctx, ns, text)
	c.record(ctx, audit.EventManifestApplied, "manifest", ns, "", nil, err)
	return out, err
}

func (c *Client) UpdateWorkloadImage(ctx context.Context, namespace, name, image string) (out string, err error) {
	defer func(start time.Time) { err = c.observe("UpdateWorkloadImage", start, err) }(time.Now())
	if err := required("deployment name", name); err != nil {
		return "", err
	}
	if err := required("image", image); err != nil {
		return "", err
	}
	ns := c.namespace(namespace)
	out, err = c.backend.UpdateWorkloadImage(ctx, ns, name, image)
	c.record(ctx, audit.EventWorkloadImageSet, records.KindWorkload.String(), ns, name, map[string]interface{}{"image": image}, err)
	return out, err
}

// ScaleWorkload rejects negative replica counts before reaching the backend.
// Zero is a valid scale-down.
func (c *Client) ScaleWorkload(ctx context.Context, namespace, name string, replicas int) (out string, err error) {
	defer func(start time.Time) { err = c.observe("ScaleWorkload", start, err) }(time.Now())
	if err := required("deployment name", name); err != nil {
		return "", err
	}
	if replicas < 0 {
		return "", clustererr.Validation("replicas must be non-negative, got %d", replicas)
	}
	ns := c.namespace(namespace)
	out, err = c.backend.ScaleWorkload(ctx, ns, name, replicas)
	c.record(ctx, audit.EventWorkloadScaled, records.KindWorkload.String(), ns, name, map[string]interface{}{"replicas": replicas}, err)
	return out, err
}

func (c *Client) DeleteWorkload(ctx context.Context, namespace, name string) (string, error) {
	return c.remove(ctx, "DeleteWorkload", records.KindWorkload, namespace, name)
}

// SearchWorkloadsByImage returns the workloads whose IMAGES start with the
// repository part of image, i.e. everything before the first colon.
func (c *Client) SearchWorkloadsByImage(ctx context.Context, namespace, image string) (out []ImageMatch, err error) {
	defer func(start time.Time) { err = c.observe("SearchWorkloadsByImage", start, err) }(time.Now())
	if err := required("image", image); err != nil {
		return nil, err
	}
	prefix, _, _ := strings.Cut(image, ":")
	ns := c.namespace(namespace)
	workloads, err := c.backend.List(ctx, records.KindWorkload, ns)
	if err != nil {
		return nil, err
	}
	out = []ImageMatch{}
	for _, w := range workloads {
		images := w.String("IMAGES")
		if !strings.HasPrefix(images, prefix) {
			continue
		}
		out = append(out, ImageMatch{
			Name:      w.String("NAME"),
			Ready:     w.String("READY"),
			Image:     images,
			Namespace: ns,
		})
	}
	return out, nil
}

func (c *Client) ListWorkloadImages(ctx context.Context, namespace string) (out []records.Record, err error) {
	defer func(start time.Time) { err = c.observe("ListWorkloadImages", start, err) }(time.Now())
	return c.backend.ListWorkloadImages(ctx, c.namespace(namespace))
}

func (c *Client) ListPods(ctx context.Context, namespace string) ([]records.Record, error) {
	return c.list(ctx, "ListPods", records.KindPod, namespace)
}

func (c *Client) DeletePod(ctx context.Context, namespace, name string) (string, error) {
	return c.remove(ctx, "DeletePod", records.KindPod, namespace, name)
}

// GetPodLogs returns the last tail lines, or the whole log when tail <= 0.
func (c *Client) GetPodLogs(ctx context.Context, namespace, name string, tail int) (out string, err error) {
	defer func(start time.Time) { err = c.observe("GetPodLogs", start, err) }(time.Now())
	if err := required("pod name", name); err != nil {
		return "", err
	}
	return c.backend.PodLogs(ctx, c.namespace(namespace), name, tail)
}

func (c *Client) ListServices(ctx context.Context, namespace string) ([]records.Record, error) {
	return c.list(ctx, "ListServices", records.KindService, namespace)
}

func (c *Client) GetServiceDetail(ctx context.Context, namespace, name string) (records.Detail, error) {
	return c.detail(ctx, "GetServiceDetail", records.KindService, namespace, name)
}

func (c *Client) CreateService(ctx context.Context, namespace string, form manifest.Form) (string, error) {
	return c.create(ctx, "CreateService", manifest.KindService, namespace, form)
}

func (c *Client) DeleteService(ctx context.Context, namespace, name string) (string, error) {
	return c.remove(ctx, "DeleteService", records.KindService, namespace, name)
}

func (c *Client) ListConfigMaps(ctx context.Context, namespace string) ([]records.Record, error) {
	return c.list(ctx, "ListConfigMaps", records.KindConfigMap, namespace)
}

func (c *Client) GetConfigMapDetail(ctx context.Context, namespace, name string) (records.Detail, error) {
	return c.detail(ctx, "GetConfigMapDetail", records.KindConfigMap, namespace, name)
}

func (c *Client) CreateConfigMap(ctx context.Context, namespace string, form manifest.Form) (string, error) {
	return c.create(ctx, "CreateConfigMap", manifest.KindConfigMap, namespace, form)
}

func (c *Client) DeleteConfigMap(ctx context.Context, namespace, name string) (string, error) {
	return c.remove(ctx, "DeleteConfigMap", records.KindConfigMap, namespace, name)
}

func (c *Client) ListIngresses(ctx context.Context, namespace string) ([]records.Record, error) {
	return c.list(ctx, "ListIngresses", records.KindIngress, namespace)
}

func (c *Client) GetIngressDetail(ctx context.Context, namespace, name string) (records.Detail, error) {
	return c.detail(ctx, "GetIngressDetail", records.KindIngress, namespace, name)
}

func (c *Client) CreateIngress(ctx context.Context, namespace string, form manifest.Form) (string, error) {
	return c.create(ctx, "CreateIngress", manifest.KindIngress, namespace, form)
}

func (c *Client) DeleteIngress(ctx context.Context, namespace, name string) (string, error) {
	return c.remove(ctx, "DeleteIngress", records.KindIngress, namespace, name)
}
