package kubeapi

import (
	"fmt"
	"strconv"
	"strings"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/telekom/k8s-dashboard/pkg/records"
)

func age(ts metav1.Time) string {
	if ts.IsZero() {
		return ""
	}
	return records.FormatAge(&ts.Time)
}

func namespaceRecord(ns *corev1.Namespace) records.Record {
	return records.Record{
		"NAME":   ns.Name,
		"STATUS": string(ns.Status.Phase),
		"AGE":    age(ns.CreationTimestamp),
	}
}

func containerImages(containers []corev1.Container) string {
	images := make([]string, 0, len(containers))
	for _, c := range containers {
		images = append(images, c.Image)
	}
	return strings.Join(images, ",")
}

func deploymentRecord(d *appsv1.Deployment) records.Record {
	var desired int32
	if d.Spec.Replicas != nil {
		desired = *d.Spec.Replicas
	}
	return records.Record{
		"NAME":       d.Name,
		"READY":      fmt.Sprintf("%d/%d", d.Status.ReadyReplicas, desired),
		"UP_TO_DATE": int(d.Status.UpdatedReplicas),
		"AVAILABLE":  int(d.Status.AvailableReplicas),
		"AGE":        age(d.CreationTimestamp),
		"IMAGES":     containerImages(d.Spec.Template.Spec.Containers),
	}
}

func podRecord(p *corev1.Pod) records.Record {
	ready, restarts := 0, 0
	for _, cs := range p.Status.ContainerStatuses {
		if cs.Ready {
			ready++
		}
		restarts += int(cs.RestartCount)
	}
	return records.Record{
		"NAME":     p.Name,
		"READY":    fmt.Sprintf("%d/%d", ready, len(p.Spec.Containers)),
		"STATUS":   string(p.Status.Phase),
		"RESTARTS": restarts,
		"AGE":      age(p.CreationTimestamp),
	}
}

// externalIP prefers the first load balancer ingress, then spec.externalIPs.
func externalIP(svc *corev1.Service) string {
	if lb := svc.Status.LoadBalancer.Ingress; len(lb) > 0 {
		if lb[0].IP != "" {
			return lb[0].IP
		}
		return lb[0].Hostname
	}
	if len(svc.Spec.ExternalIPs) > 0 {
		return strings.Join(svc.Spec.ExternalIPs, ",")
	}
	return "None"
}

func servicePorts(svc *corev1.Service) string {
	ports := make([]string, 0, len(svc.Spec.Ports))
	for _, p := range svc.Spec.Ports {
		s := strconv.Itoa(int(p.Port))
		if p.NodePort != 0 {
			s += ":" + strconv.Itoa(int(p.NodePort))
		}
		proto := p.Protocol
		if proto == "" {
			proto = corev1.ProtocolTCP
		}
		ports = append(ports, s+"/"+string(proto))
	}
	return strings.Join(ports, ",")
}

func serviceRecord(svc *corev1.Service) records.Record {
	return records.Record{
		"NAME":        svc.Name,
		"TYPE":        string(svc.Spec.Type),
		"CLUSTER_IP":  svc.Spec.ClusterIP,
		"EXTERNAL_IP": externalIP(svc),
		"PORTS":       servicePorts(svc),
		"AGE":         age(svc.CreationTimestamp),
	}
}

func configMapRecord(cm *corev1.ConfigMap) records.Record {
	return records.Record{
		"NAME": cm.Name,
		"DATA": len(cm.Data) + len(cm.BinaryData),
		"AGE":  age(cm.CreationTimestamp),
	}
}

func ingressRecord(ing *networkingv1.Ingress) records.Record {
	class := "<none>"
	if ing.Spec.IngressClassName != nil && *ing.Spec.IngressClassName != "" {
		class = *ing.Spec.IngressClassName
	}

	var hosts []string
	for _, r := range ing.Spec.Rules {
		if r.Host != "" {
			hosts = append(hosts, r.Host)
		}
	}
	hostList := "*"
	if len(hosts) > 0 {
		hostList = strings.Join(hosts, ",")
	}

	var addrs []string
	for _, lb := range ing.Status.LoadBalancer.Ingress {
		if lb.IP != "" {
			addrs = append(addrs, lb.IP)
		} else if lb.Hostname != "" {
			addrs = append(addrs, lb.Hostname)
		}
	}

	ports := "80"
	if len(ing.Spec.TLS) > 0 {
		ports = "80, 443"
	}

	return records.Record{
		"NAME":    ing.Name,
		"CLASS":   class,
		"HOSTS":   hostList,
		"ADDRESS": strings.Join(addrs, ","),
		"PORTS":   ports,
		"AGE":     age(ing.CreationTimestamp),
	}
}
