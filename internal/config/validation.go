package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Validate checks cross-field constraints that the YAML decoder cannot
// express. Every problem found is reported, not just the first.
func Validate(c AnchorConfig, filePath string) ConfigurationErrorCollection {
	var errs ConfigurationErrorCollection
	add := func(section, message string, suggestions ...string) {
		errs.Add(ConfigurationError{
			FilePath:    filePath,
			FileName:    filepath.Base(filePath),
			Section:     section,
			ErrorType:   "validation",
			Message:     message,
			Suggestions: suggestions,
		})
	}

	switch c.Registry.Scope {
	case RegistryScopeMachine, RegistryScopeUser, RegistryScopeFile:
	default:
		add("registry", fmt.Sprintf("unknown scope %q", c.Registry.Scope),
			"use one of: machine, user, file")
	}
	if c.Registry.Scope == RegistryScopeFile && strings.TrimSpace(c.Registry.File) == "" {
		add("registry", "file scope requires registry.file")
	}
	if c.Bundle.MaxLogsArchives < 0 {
		add("bundle", "maxLogsArchives must not be negative")
	}
	if strings.TrimSpace(c.Bundle.MarkerFile) == "" {
		add("bundle", "markerFile is required")
	}

	products := make(map[string]bool)
	services := make(map[string]string)
	for i, p := range c.Products {
		section := fmt.Sprintf("products[%d]", i)
		if strings.TrimSpace(p.Name) == "" {
			add(section, "name is required")
			continue
		}
		section = "products." + p.Name

		if products[p.Name] {
			add(section, "duplicate product name")
		}
		products[p.Name] = true

		switch p.Kind {
		case ProductKindService, ProductKindBinary, ProductKindTool:
		default:
			add(section, fmt.Sprintf("unknown kind %q", p.Kind), "use one of: service, binary, tool")
		}
		if strings.TrimSpace(p.Dir) == "" {
			add(section, "dir is required")
		}
		for _, rule := range p.ScanRules {
			if filepath.IsAbs(rule.Path) {
				add(section, fmt.Sprintf("scan rule path %q must be relative to the version directory", rule.Path))
			}
		}

		if p.Kind != ProductKindService {
			continue
		}
		if p.Service == nil {
			add(section, "service products need a service block")
			continue
		}
		if strings.TrimSpace(p.Executable) == "" {
			add(section, "service products need an executable")
		}
		if strings.TrimSpace(p.Service.Name) == "" {
			add(section, "service.name is required")
		} else if owner, ok := services[strings.ToLower(p.Service.Name)]; ok {
			add(section, fmt.Sprintf("service name %q already used by %s", p.Service.Name, owner))
		} else {
			services[strings.ToLower(p.Service.Name)] = p.Name
		}
		if p.Service.Port < 0 || p.Service.Port > 65535 {
			add(section, fmt.Sprintf("port %d out of range", p.Service.Port))
		}
	}

	return errs
}
