package shell

import (
	"fmt"
	"strings"
	"text/template"

	"al.essio.dev/pkg/shellescape"
	"github.com/Masterminds/sprig/v3"
)

// Command lines run on the remote host. Every value that came from a caller
// goes through q.
var commandSources = map[string]string{
	"probe":           `{{ .Probe | default "echo ok" }}`,
	"listNamespaces":  `{{ q .Kubectl }} get namespaces`,
	"getNamespace":    `{{ q .Kubectl }} get namespace {{ q .Name }}`,
	"createNamespace": `{{ q .Kubectl }} create namespace {{ q .Name }}`,
	"deleteNamespace": `{{ q .Kubectl }} delete namespace {{ q .Name }}`,
	"list":            `{{ q .Kubectl }} get {{ .Resource }} -n {{ q .Namespace }}{{ if .Wide }} -o wide{{ end }}`,
	"listImages":      `{{ q .Kubectl }} get deployments -n {{ q .Namespace }} -o {{ q "custom-columns=NAME:.metadata.name,IMAGES:.spec.template.spec.containers[*].image" }}`,
	"detail":          `{{ q .Kubectl }} get {{ .Resource }} {{ q .Name }} -n {{ q .Namespace }} -o yaml`,
	"delete":          `{{ q .Kubectl }} delete {{ .Resource }} {{ q .Name }} -n {{ q .Namespace }}`,
	"logs":            `{{ q .Kubectl }} logs{{ if gt (.Tail | int) 0 }} --tail {{ .Tail | int }}{{ end }} -n {{ q .Namespace }} {{ q .Name }}`,
	"firstContainer":  `{{ q .Kubectl }} get deployment {{ q .Name }} -n {{ q .Namespace }} -o {{ q "jsonpath={.spec.template.spec.containers[0].name}" }}`,
	"setImage":        `{{ q .Kubectl }} set image {{ printf "deployment/%s" .Name | q }} {{ printf "%s=%s" .Container .Image | q }} -n {{ q .Namespace }}`,
	"scale":           `{{ q .Kubectl }} scale {{ printf "deployment/%s" .Name | q }} --replicas={{ .Replicas | int }} -n {{ q .Namespace }}`,
	"writeFile":       `cat > {{ q .Path }}`,
	"apply":           `{{ q .Kubectl }} apply -f {{ q .Path }} -n {{ q .Namespace }}`,
	"removeFile":      `rm -f {{ q .Path }}`,
}

// commandData is the template input. Unused fields stay zero.
type commandData struct {
	Kubectl   string
	Probe     string
	Resource  string
	Name      string
	Namespace string
	Image     string
	Container string
	Path      string
	Tail      int
	Replicas  int
	Wide      bool
}

var commands = parseCommands()

func parseCommands() map[string]*template.Template {
	funcs := sprig.TxtFuncMap()
	funcs["q"] = shellescape.Quote
	out := make(map[string]*template.Template, len(commandSources))
	for name, src := range commandSources {
		out[name] = template.Must(template.New(name).Funcs(funcs).Option("missingkey=error").Parse(src))
	}
	return out
}

func renderCommand(name string, data commandData) (string, error) {
	t, ok := commands[name]
	if !ok {
		return "", fmt.Errorf("unknown command template %q", name)
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("rendering %s command: %w", name, err)
	}
	return b.String(), nil
}
