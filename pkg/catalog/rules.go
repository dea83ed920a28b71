package catalog

import (
	"fmt"
	"os"
	"strings"

	"github.com/jinzhu/inflection"
	"gopkg.in/yaml.v3"

	"github.com/velora-hq/explorer-engine/pkg/models"
)

// DomainRule maps table-name keywords to a business domain. Rules are
// evaluated in order and the first keyword hit wins, so more specific
// vocabularies belong earlier in the list.
type DomainRule struct {
	Domain   models.Domain `yaml:"domain"`
	Keywords []string      `yaml:"keywords"`
}

// DefaultDomainRules covers the HCM vocabulary shipped with the engine.
func DefaultDomainRules() []DomainRule {
	return []DomainRule{
		{Domain: models.DomainPayroll, Keywords: []string{"pay", "salary", "wage", "comp", "bonus", "deduction", "tax"}},
		{Domain: models.DomainHR, Keywords: []string{"employee", "person", "worker", "org", "dept", "position", "job"}},
		{Domain: models.DomainTime, Keywords: []string{"time", "attendance", "schedule", "shift", "leave", "absence"}},
		{Domain: models.DomainBenefits, Keywords: []string{"benefit", "insurance", "retirement", "enroll"}},
	}
}

// LoadDomainRules reads rule overrides from a YAML file of the form:
//
//	domains:
//	  - domain: payroll
//	    keywords: [pay, salary]
//
// An empty path selects the built-in defaults.
func LoadDomainRules(path string) ([]DomainRule, error) {
	if path == "" {
		return DefaultDomainRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read domain rules: %w", err)
	}

	var doc struct {
		Domains []DomainRule `yaml:"domains"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse domain rules: %w", err)
	}
	if len(doc.Domains) == 0 {
		return nil, fmt.Errorf("domain rules file %s defines no domains", path)
	}

	return doc.Domains, nil
}

// InferDomain assigns a business domain from the table name. Unmatched
// names land in the general bucket.
func InferDomain(name string, rules []DomainRule) models.Domain {
	lower := strings.ToLower(name)
	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			if kw != "" && strings.Contains(lower, kw) {
				return rule.Domain
			}
		}
	}
	return models.DomainGeneral
}

// EntityLabel derives a singular, human-readable entity name from a
// qualified table name. Examples: "hr.pay_amounts" -> "Pay Amount",
// "employees" -> "Employee".
func EntityLabel(qualifiedName string) string {
	name := qualifiedName
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}

	words := make([]string, 0, 4)
	for _, part := range strings.Split(name, "_") {
		if part != "" {
			words = append(words, part)
		}
	}
	if len(words) == 0 {
		return ""
	}

	// Only the trailing word carries the plural
	words[len(words)-1] = inflection.Singular(words[len(words)-1])
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}

	return strings.Join(words, " ")
}
