package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// wizardStyles are the chroma styles offered by the wizard. Any registered
// chroma style is accepted in the config file.
var wizardStyles = []string{"github", "monokai", "dracula", "solarized-light", "nord"}

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to transport-docs! Let's configure the documentation server.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Port.
	portPrompt := promptui.Prompt{
		Label:    "Port to listen on",
		Default:  strconv.Itoa(cfg.Port),
		Validate: validatePort,
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(strings.TrimSpace(portStr))

	// 2. Base path for the documentation section.
	basePrompt := promptui.Prompt{
		Label:   "Base path for the documentation section",
		Default: cfg.BasePath,
	}
	base, err := basePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("base path: %w", err)
	}
	cfg.BasePath = normalizeBasePath(base)

	// 3. Highlight style.
	stylePrompt := promptui.Select{
		Label: "Select code highlighting style",
		Items: wizardStyles,
	}
	_, style, err := stylePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("style selection: %w", err)
	}
	cfg.Highlight.Style = style

	// 4. Highlight scope.
	scopePrompt := promptui.Select{
		Label: "Select highlighting scope",
		Items: []string{
			"page: only the mounted page's content",
			"global: the whole rendered surface",
		},
	}
	scopeIdx, _, err := scopePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("scope selection: %w", err)
	}
	cfg.Highlight.Scope = []HighlightScope{ScopePage, ScopeGlobal}[scopeIdx]

	// 5. Content override directory.
	contentPrompt := promptui.Prompt{
		Label:   "Content directory (leave blank to use the bundled pages)",
		Default: "",
	}
	contentDir, err := contentPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("content dir: %w", err)
	}
	cfg.ContentDir = strings.TrimSpace(contentDir)
	cfg.Watch = cfg.ContentDir != ""

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func validatePort(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("not a number")
	}
	if n <= 0 || n > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	return nil
}

// normalizeBasePath trims whitespace and slashes and returns "/segment".
func normalizeBasePath(s string) string {
	s = strings.Trim(strings.TrimSpace(s), "/")
	if s == "" {
		return DefaultConfig().BasePath
	}
	return "/" + s
}
