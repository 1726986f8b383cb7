// Package kubeapi implements the cluster backend that talks to the
// Kubernetes API directly with client-go. Every operation builds a fresh
// clientset from the cluster's kubeconfig before it runs.
package kubeapi
