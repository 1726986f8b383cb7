package shell

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"sigs.k8s.io/yaml"

	"github.com/telekom/k8s-dashboard/pkg/clustererr"
	"github.com/telekom/k8s-dashboard/pkg/records"
)

// List returns kubectl's table for kind. Namespace is ignored for namespaces.
func (b *Backend) List(ctx context.Context, kind records.Kind, namespace string) ([]records.Record, error) {
	var out []records.Record
	err := b.do(ctx, "list "+kind.Plural(), func(ctx context.Context, conn Conn) error {
		name, data := "list", commandData{Resource: kind.Plural(), Namespace: namespace}
		switch kind {
		case records.KindNamespace:
			name = "listNamespaces"
		case records.KindWorkload:
			// wide output adds the IMAGES column
			data.Wide = true
		}
		res, err := b.exec(ctx, conn, name, data, nil)
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			return failure("kubectl get "+kind.Plural(), res, records.KindNamespace, namespace, "")
		}
		rows := records.ParseTable(res.Stdout)
		out = make([]records.Record, len(rows))
		for i, r := range rows {
			out[i] = records.Project(kind, r)
		}
		return nil
	})
	return out, err
}

// ListWorkloadImages returns NAME and IMAGES per deployment.
func (b *Backend) ListWorkloadImages(ctx context.Context, namespace string) ([]records.Record, error) {
	var out []records.Record
	err := b.do(ctx, "list images", func(ctx context.Context, conn Conn) error {
		res, err := b.exec(ctx, conn, "listImages", commandData{Namespace: namespace}, nil)
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			return failure("kubectl get deployments", res, records.KindNamespace, namespace, "")
		}
		out = records.ParseTable(res.Stdout)
		return nil
	})
	return out, err
}

// Detail fetches the object as YAML and projects it to the canonical shape.
func (b *Backend) Detail(ctx context.Context, kind records.Kind, namespace, name string) (records.Detail, error) {
	var out records.Detail
	err := b.do(ctx, "get "+kind.String(), func(ctx context.Context, conn Conn) error {
		res, err := b.exec(ctx, conn, "detail", commandData{Resource: kind.String(), Name: name, Namespace: namespace}, nil)
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			return failure("kubectl get "+kind.String(), res, kind, name, namespace)
		}
		var obj map[string]any
		if err := yaml.Unmarshal([]byte(res.Stdout), &obj); err != nil {
			return clustererr.Backend(err, 0, "decoding %s %s", kind, name)
		}
		out = records.CanonicalDetail(obj)
		return nil
	})
	return out, err
}

func (b *Backend) Delete(ctx context.Context, kind records.Kind, namespace, name string) (string, error) {
	var out string
	err := b.do(ctx, "delete "+kind.String(), func(ctx context.Context, conn Conn) error {
		res, err := b.exec(ctx, conn, "delete", commandData{Resource: kind.Plural(), Name: name, Namespace: namespace}, nil)
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			return failure("kubectl delete", res, kind, name, namespace)
		}
		out = strings.TrimSpace(res.Stdout)
		return nil
	})
	return out, err
}

func (b *Backend) CreateNamespace(ctx context.Context, name string) (string, error) {
	var out string
	err := b.do(ctx, "create namespace", func(ctx context.Context, conn Conn) error {
		exists, err := b.namespaceExists(ctx, conn, name)
		if err != nil {
			return err
		}
		if exists {
			return clustererr.Conflict("namespace", name, "")
		}
		res, err := b.exec(ctx, conn, "createNamespace", commandData{Name: name}, nil)
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			return failure("kubectl create namespace", res, records.KindNamespace, name, "")
		}
		out = strings.TrimSpace(res.Stdout)
		return nil
	})
	return out, err
}

func (b *Backend) DeleteNamespace(ctx context.Context, name string) (string, error) {
	var out string
	err := b.do(ctx, "delete namespace", func(ctx context.Context, conn Conn) error {
		exists, err := b.namespaceExists(ctx, conn, name)
		if err != nil {
			return err
		}
		if !exists {
			return clustererr.NotFound("namespace", name, "")
		}
		res, err := b.exec(ctx, conn, "deleteNamespace", commandData{Name: name}, nil)
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			return failure("kubectl delete namespace", res, records.KindNamespace, name, "")
		}
		out = strings.TrimSpace(res.Stdout)
		return nil
	})
	return out, err
}

func (b *Backend) namespaceExists(ctx context.Context, conn Conn, name string) (bool, error) {
	res, err := b.exec(ctx, conn, "getNamespace", commandData{Name: name}, nil)
	if err != nil {
		return false, err
	}
	if res.ExitCode == 0 {
		return true, nil
	}
	if err := failure("kubectl get namespace", res, records.KindNamespace, name, ""); !errors.Is(err, clustererr.ErrNotFound) {
		return false, err
	}
	return false, nil
}

// UpdateWorkloadImage sets the image of the deployment's first container.
func (b *Backend) UpdateWorkloadImage(ctx context.Context, namespace, name, image string) (string, error) {
	var out string
	err := b.do(ctx, "set image", func(ctx context.Context, conn Conn) error {
		res, err := b.exec(ctx, conn, "firstContainer", commandData{Name: name, Namespace: namespace}, nil)
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			return failure("kubectl get deployment", res, records.KindWorkload, name, namespace)
		}
		container := strings.TrimSpace(res.Stdout)
		if container == "" {
			return clustererr.Backend(nil, 0, "deployment %q has no containers", name)
		}
		res, err = b.exec(ctx, conn, "setImage", commandData{Name: name, Namespace: namespace, Container: container, Image: image}, nil)
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			return failure("kubectl set image", res, records.KindWorkload, name, namespace)
		}
		out = strings.TrimSpace(res.Stdout)
		return nil
	})
	return out, err
}

func (b *Backend) ScaleWorkload(ctx context.Context, namespace, name string, replicas int) (string, error) {
	var out string
	err := b.do(ctx, "scale", func(ctx context.Context, conn Conn) error {
		res, err := b.exec(ctx, conn, "scale", commandData{Name: name, Namespace: namespace, Replicas: replicas}, nil)
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			return failure("kubectl scale", res, records.KindWorkload, name, namespace)
		}
		out = strings.TrimSpace(res.Stdout)
		return nil
	})
	return out, err
}

// PodLogs returns the pod's log. tail <= 0 returns the whole log.
func (b *Backend) PodLogs(ctx context.Context, namespace, name string, tail int) (string, error) {
	var out string
	err := b.do(ctx, "logs", func(ctx context.Context, conn Conn) error {
		res, err := b.exec(ctx, conn, "logs", commandData{Name: name, Namespace: namespace, Tail: tail}, nil)
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			return failure("kubectl logs", res, records.KindPod, name, namespace)
		}
		out = res.Stdout
		return nil
	})
	return out, err
}

// Apply writes the manifest to a scratch file on the remote host, applies
// it and removes the file again on every path.
func (b *Backend) Apply(ctx context.Context, namespace, manifest string) (string, error) {
	var out string
	err := b.do(ctx, "apply", func(ctx context.Context, conn Conn) error {
		scratch := path.Join(b.scratchDir, "k8s-dashboard-"+uuid.NewString()+".yaml")
		defer b.removeScratch(ctx, conn, scratch)

		res, err := b.exec(ctx, conn, "writeFile", commandData{Path: scratch}, strings.NewReader(manifest))
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			return clustererr.Backend(errors.New(strings.TrimSpace(res.Stderr)), 0, "writing scratch manifest %s", scratch)
		}
		res, err = b.exec(ctx, conn, "apply", commandData{Path: scratch, Namespace: namespace}, nil)
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			return failure("kubectl apply", res, records.KindNamespace, namespace, "")
		}
		out = strings.TrimSpace(res.Stdout)
		return nil
	})
	return out, err
}

func (b *Backend) removeScratch(ctx context.Context, conn Conn, scratch string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	res, err := b.exec(ctx, conn, "removeFile", commandData{Path: scratch}, nil)
	if err != nil || res.ExitCode != 0 {
		b.log.Warnw("Removing scratch manifest failed", "cluster", b.cluster, "path", scratch, "error", err, "stderr", res.Stderr)
	}
}
