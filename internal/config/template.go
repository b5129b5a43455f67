package config

import (
	"fmt"
	"sort"
	"strings"
)

const minimalTemplate = `# ngram-keylogger configuration (minimal)
# Counts plain key names only. CLI flags override config values.

[collect]
translator = "minimal"
filters = ["process-scan"]
# devices = ["/dev/input/by-id/usb-My_Keyboard-event-kbd"]
# db = "/var/lib/ngram-keylogger/db.sqlite"
# rest-duration = "2s"     # Waiting longer than that breaks up n-grams
# save-min = 300           # Fewer unsaved actions are never written
# save-max = 3000          # Write once this many actions are pending
`

const advancedTemplate = `# ngram-keylogger configuration (advanced)
# Uncomment a value to enable it. CLI flags override config values.

[collect]
translator = "standard"
# Applied in order. Available: %s
filters = ["process-scan", "shift-printables", "abbreviate-controls", "replace", "skip"]
# devices = ["/dev/input/by-id/usb-My_Keyboard-event-kbd"]
# db = "/var/lib/ngram-keylogger/db.sqlite"
# rest-duration = "2s"     # Waiting longer than that breaks up n-grams
# save-min = 300           # Fewer unsaved actions are never written
# save-max = 3000          # Write once this many actions are pending
# context-source = "xprop" # xprop (polled), i3 or sway (event driven)
# context-poll = "1s"      # How often xprop reads the focused window title

[query]
# contexts = "*"
# limit = 20
# format = "table"         # table, bar, json or yaml

# Action replacements. An empty string drops the action.
[replace]
"Alt-Meta-q" = "workspace-1"
"Alt-Meta-x" = ""

[skip]
actions = []

[process-scan]
# names = ["pinentry", "ssh-askpass"]
# interval = "1s"

# Enable by adding "modal" to [collect] filters.
[modal]
# enter-meta = ["Alt-Meta-f11"]
# exit-meta = ["Alt-Meta-f12"]
# enter-move = ["window-move-to"]
# move-to-prefix = "workspace-"

# Window title rules, first match wins. Context "ignore" drops actions.
# [[context]]
# title = "(?i)keepassxc"
# context = "ignore"
#
# [[context]]
# title = " - N?VIM$"
# context = "vim"
`

var templates = map[string]func() string{
	"minimal":  func() string { return minimalTemplate },
	"advanced": func() string { return fmt.Sprintf(advancedTemplate, strings.Join(FilterNames(), ", ")) },
}

// DefaultTemplate is written by "config" when no template is named.
const DefaultTemplate = "advanced"

// TemplateNames lists the example configurations.
func TemplateNames() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Template returns an example configuration by name.
func Template(name string) (string, error) {
	build, ok := templates[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("unknown template %q (available: %s)", name, strings.Join(TemplateNames(), ", "))
	}
	return build(), nil
}
