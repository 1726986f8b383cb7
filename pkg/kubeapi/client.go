package kubeapi

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/telekom/k8s-dashboard/pkg/config"
)

const (
	defaultQPS   = 20
	defaultBurst = 50
)

// ClientFactory builds the clientset used for a single backend call.
type ClientFactory func(ctx context.Context, kc config.KubeConfig) (kubernetes.Interface, error)

// NewClientset is the ClientFactory used outside tests.
func NewClientset(_ context.Context, kc config.KubeConfig) (kubernetes.Interface, error) {
	restCfg, err := RESTConfig(kc)
	if err != nil {
		return nil, err
	}
	cs, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		return nil, fmt.Errorf("create clientset: %w", err)
	}
	return cs, nil
}

// RESTConfig resolves kc to a rest.Config. Inline kubeconfig wins over a
// path; with neither the default loading rules apply (KUBECONFIG, then
// ~/.kube/config). Context selects a non-current context.
func RESTConfig(kc config.KubeConfig) (*rest.Config, error) {
	overrides := &clientcmd.ConfigOverrides{CurrentContext: kc.Context}

	var cc clientcmd.ClientConfig
	if kc.Inline != "" {
		raw, err := clientcmd.Load([]byte(kc.Inline))
		if err != nil {
			return nil, fmt.Errorf("parse inline kubeconfig: %w", err)
		}
		cc = clientcmd.NewNonInteractiveClientConfig(*raw, kc.Context, overrides, nil)
	} else {
		rules := clientcmd.NewDefaultClientConfigLoadingRules()
		if kc.Path != "" {
			path, err := expandHome(kc.Path)
			if err != nil {
				return nil, err
			}
			rules.ExplicitPath = path
		}
		cc = clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides)
	}

	restCfg, err := cc.ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("load kubeconfig: %w", err)
	}
	if restCfg.QPS == 0 {
		restCfg.QPS = defaultQPS
	}
	if restCfg.Burst == 0 {
		restCfg.Burst = defaultBurst
	}
	return restCfg, nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
