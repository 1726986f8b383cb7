package records

import "k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

// Detail is the canonical "describe" shape returned by both backends:
// apiVersion, kind, a trimmed metadata block, spec and status.
type Detail map[string]any

// metadata keys kept in a Detail; everything else (managedFields, ownerReferences
// bookkeeping, generation counters) is dropped.
var detailMetadataKeys = []string{
	"name",
	"namespace",
	"uid",
	"resourceVersion",
	"creationTimestamp",
	"labels",
	"annotations",
}

const lastAppliedAnnotation = "kubectl.kubernetes.io/last-applied-configuration"

// CanonicalDetail projects an unstructured object (as decoded from kubectl YAML
// or converted from a typed API object) onto the Detail shape. Objects without
// spec/status (ConfigMaps) carry their data/binaryData under "data".
func CanonicalDetail(obj map[string]any) Detail {
	u := &unstructured.Unstructured{Object: obj}
	d := Detail{
		"apiVersion": u.GetAPIVersion(),
		"kind":       u.GetKind(),
	}

	meta := map[string]any{}
	if m, found, err := unstructured.NestedMap(obj, "metadata"); err == nil && found {
		for _, k := range detailMetadataKeys {
			if v, ok := m[k]; ok && v != nil {
				meta[k] = v
			}
		}
		unstructured.RemoveNestedField(meta, "annotations", lastAppliedAnnotation)
	}
	d["metadata"] = meta

	for _, field := range []string{"spec", "status"} {
		if v, found, _ := unstructured.NestedFieldNoCopy(obj, field); found {
			d[field] = v
		} else {
			d[field] = map[string]any{}
		}
	}
	for _, field := range []string{"data", "binaryData"} {
		if v, found, _ := unstructured.NestedFieldNoCopy(obj, field); found {
			d[field] = v
		}
	}
	return d
}
