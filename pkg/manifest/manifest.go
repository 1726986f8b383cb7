// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/apimachinery/pkg/util/validation"
	"sigs.k8s.io/yaml"

	"github.com/telekom/k8s-dashboard/pkg/clustererr"
)

// NamespacePlaceholder stands in for the target namespace until Render.
const NamespacePlaceholder = "__NAMESPACE__"

type Kind string

const (
	KindWorkload  Kind = "workload"
	KindService   Kind = "service"
	KindConfigMap Kind = "configmap"
	KindIngress   Kind = "ingress"
)

// ParseKind accepts the canonical kind names and common resource aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "workload", "deployment", "deployments", "deploy":
		return KindWorkload, nil
	case "service", "services", "svc":
		return KindService, nil
	case "configmap", "configmaps", "cm":
		return KindConfigMap, nil
	case "ingress", "ingresses", "ing":
		return KindIngress, nil
	}
	return "", clustererr.Validation("unsupported manifest kind %q", s)
}

// Draft is a manifest tree before serialization. Its namespace is the placeholder.
type Draft map[string]any

// Build returns the YAML manifest for kind, still carrying the placeholder.
func Build(kind Kind, form map[string]any) (string, error) {
	d, err := BuildDraft(kind, form)
	if err != nil {
		return "", err
	}
	out, err := yaml.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("serializing %s manifest: %w", kind, err)
	}
	return string(out), nil
}

func BuildDraft(kind Kind, form map[string]any) (Draft, error) {
	f := Form(form)
	switch kind {
	case KindWorkload:
		return buildWorkload(f)
	case KindService:
		return buildService(f)
	case KindConfigMap:
		return buildConfigMap(f)
	case KindIngress:
		return buildIngress(f)
	}
	return nil, clustererr.Validation("unsupported manifest kind %q", kind)
}

// Render substitutes every placeholder occurrence with namespace.
func Render(text, namespace string) (string, error) {
	if strings.TrimSpace(namespace) == "" {
		return "", clustererr.Required("namespace")
	}
	return strings.ReplaceAll(text, NamespacePlaceholder, namespace), nil
}

func objectMeta(name string, labels, annotations map[string]string) map[string]any {
	meta := map[string]any{
		"name":      name,
		"namespace": NamespacePlaceholder,
	}
	if len(labels) > 0 {
		meta["labels"] = labels
	}
	if len(annotations) > 0 {
		meta["annotations"] = annotations
	}
	return meta
}

func validName(field, name string) error {
	if errs := validation.IsDNS1123Subdomain(name); len(errs) > 0 {
		return clustererr.Validation("%s %q is invalid: %s", field, name, strings.Join(errs, "; "))
	}
	return nil
}

func validPort(field string, port int) error {
	if errs := validation.IsValidPortNum(port); len(errs) > 0 {
		return clustererr.Validation("%s: %s", field, strings.Join(errs, "; "))
	}
	return nil
}

func buildWorkload(f Form) (Draft, error) {
	name := f.String("name", "app")
	if err := validName("name", name); err != nil {
		return nil, err
	}
	replicas, err := f.Int("replicas", 1)
	if err != nil {
		return nil, err
	}
	if replicas < 0 {
		return nil, clustererr.Validation("replicas must not be negative, got %d", replicas)
	}
	labels, err := f.StringMap("labels")
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		labels = map[string]string{"app": name}
	}

	container, err := buildContainer(f, name)
	if err != nil {
		return nil, err
	}
	podSpec := map[string]any{"containers": []any{container}}
	volumes, err := buildVolumes(f)
	if err != nil {
		return nil, err
	}
	if len(volumes) > 0 {
		podSpec["volumes"] = volumes
	}

	return Draft{
		"apiVersion": "apps/v1",
		"kind":       "Deployment",
		"metadata":   objectMeta(name, labels, nil),
		"spec": map[string]any{
			"replicas": replicas,
			"selector": map[string]any{"matchLabels": labels},
			"template": map[string]any{
				"metadata": map[string]any{"labels": labels},
				"spec":     podSpec,
			},
		},
	}, nil
}

func buildContainer(f Form, workloadName string) (map[string]any, error) {
	c := map[string]any{
		"name":  f.String("containerName", workloadName),
		"image": f.String("image", "nginx:latest"),
	}
	if policy := f.String("imagePullPolicy", ""); policy != "" {
		switch policy {
		case "Always", "IfNotPresent", "Never":
			c["imagePullPolicy"] = policy
		default:
			return nil, clustererr.Validation("imagePullPolicy %q is invalid", policy)
		}
	}

	for _, key := range []string{"command", "args"} {
		list, err := f.Strings(key)
		if err != nil {
			return nil, err
		}
		if len(list) > 0 {
			c[key] = list
		}
	}

	ports, err := f.Items("ports", "containerPort")
	if err != nil {
		return nil, err
	}
	var containerPorts []any
	for i, p := range ports {
		field := fmt.Sprintf("ports[%d].containerPort", i)
		key := "containerPort"
		if _, ok := p[key]; !ok {
			key = "port"
		}
		num, err := p.Int(key, 0)
		if err != nil {
			return nil, err
		}
		if err := validPort(field, num); err != nil {
			return nil, err
		}
		port := map[string]any{"containerPort": num}
		if n := p.String("name", ""); n != "" {
			port["name"] = n
		}
		if proto := p.String("protocol", ""); proto != "" {
			port["protocol"] = strings.ToUpper(proto)
		}
		containerPorts = append(containerPorts, port)
	}
	if len(containerPorts) > 0 {
		c["ports"] = containerPorts
	}

	env, err := buildEnv(f)
	if err != nil {
		return nil, err
	}
	if len(env) > 0 {
		c["env"] = env
	}

	mounts, err := f.Items("volumeMounts", "")
	if err != nil {
		return nil, err
	}
	var volumeMounts []any
	for i, m := range mounts {
		name, path := m.String("name", ""), m.String("mountPath", "")
		if name == "" || path == "" {
			return nil, clustererr.Validation("volumeMounts[%d] needs name and mountPath", i)
		}
		mount := map[string]any{"name": name, "mountPath": path}
		if m.Bool("readOnly") {
			mount["readOnly"] = true
		}
		volumeMounts = append(volumeMounts, mount)
	}
	if len(volumeMounts) > 0 {
		c["volumeMounts"] = volumeMounts
	}

	resources, err := buildResources(f.Sub("resources"))
	if err != nil {
		return nil, err
	}
	if len(resources) > 0 {
		c["resources"] = resources
	}
	return c, nil
}

// buildEnv accepts a list of {name, value} or a name to value object.
func buildEnv(f Form) ([]any, error) {
	if _, isMap := f["env"].(map[string]any); isMap {
		m, err := f.StringMap("env")
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, len(m))
		for _, k := range sortedKeys(m) {
			out = append(out, map[string]any{"name": k, "value": m[k]})
		}
		return out, nil
	}
	items, err := f.Items("env", "")
	if err != nil {
		return nil, err
	}
	var out []any
	for i, e := range items {
		name := e.String("name", "")
		if name == "" {
			return nil, clustererr.Validation("env[%d].name is required", i)
		}
		out = append(out, map[string]any{"name": name, "value": stringify(e["value"])})
	}
	return out, nil
}

func buildVolumes(f Form) ([]any, error) {
	items, err := f.Items("volumes", "")
	if err != nil {
		return nil, err
	}
	var out []any
	for i, v := range items {
		name := v.String("name", "")
		if name == "" {
			return nil, clustererr.Validation("volumes[%d].name is required", i)
		}
		vol := map[string]any{"name": name}
		switch {
		case v["configMap"] != nil:
			vol["configMap"] = refOrObject(v["configMap"], "name")
		case v["secret"] != nil:
			vol["secret"] = refOrObject(v["secret"], "secretName")
		case v["hostPath"] != nil:
			vol["hostPath"] = refOrObject(v["hostPath"], "path")
		default:
			vol["emptyDir"] = map[string]any{}
		}
		out = append(out, vol)
	}
	return out, nil
}

func refOrObject(v any, key string) any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{key: stringify(v)}
}

func buildResources(f Form) (map[string]any, error) {
	if f == nil {
		return nil, nil
	}
	out := map[string]any{}
	for _, section := range []string{"requests", "limits"} {
		values, err := f.StringMap(section)
		if err != nil {
			return nil, err
		}
		quantities := map[string]string{}
		for _, k := range sortedKeys(values) {
			q := strings.TrimSpace(values[k])
			if q == "" {
				continue
			}
			if _, err := resource.ParseQuantity(q); err != nil {
				return nil, clustererr.Validation("resources.%s.%s: %q is not a valid quantity", section, k, q)
			}
			quantities[k] = q
		}
		if len(quantities) > 0 {
			out[section] = quantities
		}
	}
	return out, nil
}

func buildService(f Form) (Draft, error) {
	name := f.String("name", "service")
	if errs := validation.IsDNS1035Label(name); len(errs) > 0 {
		return nil, clustererr.Validation("name %q is invalid: %s", name, strings.Join(errs, "; "))
	}
	svcType := f.String("type", "ClusterIP")
	switch svcType {
	case "ClusterIP", "NodePort", "LoadBalancer", "ExternalName":
	default:
		return nil, clustererr.Validation("service type %q is invalid", svcType)
	}
	selector, err := f.StringMap("selector")
	if err != nil {
		return nil, err
	}
	if len(selector) == 0 {
		selector = map[string]string{"app": name}
	}

	spec := map[string]any{"type": svcType, "selector": selector}
	items, err := f.Items("ports", "port")
	if err != nil {
		return nil, err
	}
	var ports []any
	for i, p := range items {
		num, err := p.Int("port", 0)
		if err != nil {
			return nil, err
		}
		if err := validPort(fmt.Sprintf("ports[%d].port", i), num); err != nil {
			return nil, err
		}
		port := map[string]any{"port": num}
		if target, err := targetPort(p, i); err != nil {
			return nil, err
		} else if target != nil {
			port["targetPort"] = target
		}
		nodePort, err := p.Int("nodePort", 0)
		if err != nil {
			return nil, err
		}
		if nodePort != 0 {
			if err := validPort(fmt.Sprintf("ports[%d].nodePort", i), nodePort); err != nil {
				return nil, err
			}
			port["nodePort"] = nodePort
		}
		if proto := p.String("protocol", ""); proto != "" {
			port["protocol"] = strings.ToUpper(proto)
		}
		if n := p.String("name", ""); n != "" {
			port["name"] = n
		}
		ports = append(ports, port)
	}
	if len(ports) > 0 {
		spec["ports"] = ports
	}

	return Draft{
		"apiVersion": "v1",
		"kind":       "Service",
		"metadata":   objectMeta(name, nil, nil),
		"spec":       spec,
	}, nil
}

// targetPort is numeric when it parses as one, otherwise a named port.
func targetPort(p Form, i int) (any, error) {
	raw := p.String("targetPort", "")
	if raw == "" {
		return nil, nil
	}
	if num, err := p.Int("targetPort", 0); err == nil {
		if err := validPort(fmt.Sprintf("ports[%d].targetPort", i), num); err != nil {
			return nil, err
		}
		return num, nil
	}
	if errs := validation.IsValidPortName(raw); len(errs) > 0 {
		return nil, clustererr.Validation("ports[%d].targetPort %q is invalid", i, raw)
	}
	return raw, nil
}

func buildConfigMap(f Form) (Draft, error) {
	name := f.String("name", "config")
	if err := validName("name", name); err != nil {
		return nil, err
	}
	data, err := f.StringMap("data")
	if err != nil {
		return nil, err
	}
	d := Draft{
		"apiVersion": "v1",
		"kind":       "ConfigMap",
		"metadata":   objectMeta(name, nil, nil),
	}
	if len(data) > 0 {
		d["data"] = data
	}
	return d, nil
}

func buildIngress(f Form) (Draft, error) {
	name := f.String("name", "ingress")
	if err := validName("name", name); err != nil {
		return nil, err
	}
	annotations, err := f.StringMap("annotations")
	if err != nil {
		return nil, err
	}

	rules, err := f.Items("rules", "")
	if err != nil {
		return nil, err
	}
	// flat single-rule shorthand
	if len(rules) == 0 && f.String("serviceName", "") != "" {
		rules = []Form{{
			"host": f["host"],
			"paths": []any{map[string]any{
				"path":        f["path"],
				"pathType":    f["pathType"],
				"serviceName": f["serviceName"],
				"servicePort": f["servicePort"],
			}},
		}}
	}

	spec := map[string]any{}
	if class := f.String("ingressClassName", ""); class != "" {
		spec["ingressClassName"] = class
	}
	var specRules []any
	for i, r := range rules {
		rule, err := buildIngressRule(r, i)
		if err != nil {
			return nil, err
		}
		specRules = append(specRules, rule)
	}
	if len(specRules) > 0 {
		spec["rules"] = specRules
	}

	tlsItems, err := f.Items("tls", "")
	if err != nil {
		return nil, err
	}
	var tls []any
	for _, t := range tlsItems {
		entry := map[string]any{}
		hosts, err := t.Strings("hosts")
		if err != nil {
			return nil, err
		}
		if len(hosts) > 0 {
			entry["hosts"] = hosts
		}
		if s := t.String("secretName", ""); s != "" {
			entry["secretName"] = s
		}
		if len(entry) > 0 {
			tls = append(tls, entry)
		}
	}
	if len(tls) > 0 {
		spec["tls"] = tls
	}

	return Draft{
		"apiVersion": "networking.k8s.io/v1",
		"kind":       "Ingress",
		"metadata":   objectMeta(name, nil, annotations),
		"spec":       spec,
	}, nil
}

func buildIngressRule(r Form, i int) (map[string]any, error) {
	items, err := r.Items("paths", "")
	if err != nil {
		return nil, err
	}
	var paths []any
	for j, p := range items {
		svc := p.String("serviceName", "")
		if svc == "" {
			return nil, clustererr.Validation("rules[%d].paths[%d].serviceName is required", i, j)
		}
		pathType := p.String("pathType", "Prefix")
		switch pathType {
		case "Prefix", "Exact", "ImplementationSpecific":
		default:
			return nil, clustererr.Validation("rules[%d].paths[%d].pathType %q is invalid", i, j, pathType)
		}
		port := map[string]any{}
		if num, err := p.Int("servicePort", 80); err == nil {
			if err := validPort(fmt.Sprintf("rules[%d].paths[%d].servicePort", i, j), num); err != nil {
				return nil, err
			}
			port["number"] = num
		} else {
			port["name"] = p.String("servicePort", "")
		}
		paths = append(paths, map[string]any{
			"path":     p.String("path", "/"),
			"pathType": pathType,
			"backend": map[string]any{
				"service": map[string]any{"name": svc, "port": port},
			},
		})
	}

	rule := map[string]any{}
	if host := r.String("host", ""); host != "" {
		rule["host"] = host
	}
	if len(paths) > 0 {
		rule["http"] = map[string]any{"paths": paths}
	}
	return rule, nil
}
