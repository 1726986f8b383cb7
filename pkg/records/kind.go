package records

import "fmt"

// Kind is a listable resource kind.
type Kind string

const (
	KindNamespace Kind = "namespace"
	KindWorkload  Kind = "deployment"
	KindPod       Kind = "pod"
	KindService   Kind = "service"
	KindConfigMap Kind = "configmap"
	KindIngress   Kind = "ingress"
)

var plurals = map[Kind]string{
	KindNamespace: "namespaces",
	KindWorkload:  "deployments",
	KindPod:       "pods",
	KindService:   "services",
	KindConfigMap: "configmaps",
	KindIngress:   "ingresses",
}

// columns is the record field set per kind, in display order.
var columns = map[Kind][]string{
	KindNamespace: {"NAME", "STATUS", "AGE"},
	KindWorkload:  {"NAME", "READY", "UP_TO_DATE", "AVAILABLE", "AGE", "IMAGES"},
	KindPod:       {"NAME", "READY", "STATUS", "RESTARTS", "AGE"},
	KindService:   {"NAME", "TYPE", "CLUSTER_IP", "EXTERNAL_IP", "PORTS", "AGE"},
	KindConfigMap: {"NAME", "DATA", "AGE"},
	KindIngress:   {"NAME", "CLASS", "HOSTS", "ADDRESS", "PORTS", "AGE"},
}

// Plural is the resource name kubectl expects for listing.
func (k Kind) Plural() string {
	if p, ok := plurals[k]; ok {
		return p
	}
	return string(k) + "s"
}

// Project keeps only the fields of kind present in r.
func Project(k Kind, r Record) Record {
	out := make(Record, len(columns[k]))
	for _, col := range columns[k] {
		if v, ok := r[col]; ok {
			out[col] = v
		}
	}
	return out
}

func (k Kind) String() string { return string(k) }

// ParseKind accepts singular, plural and short kubectl names.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "namespace", "namespaces", "ns":
		return KindNamespace, nil
	case "deployment", "deployments", "deploy", "workload", "workloads":
		return KindWorkload, nil
	case "pod", "pods", "po":
		return KindPod, nil
	case "service", "services", "svc":
		return KindService, nil
	case "configmap", "configmaps", "cm":
		return KindConfigMap, nil
	case "ingress", "ingresses", "ing":
		return KindIngress, nil
	}
	return "", fmt.Errorf("unknown resource kind %q", s)
}
