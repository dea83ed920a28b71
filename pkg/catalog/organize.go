// Package catalog turns flat, possibly malformed table metadata into the
// typed hierarchy the explorer navigates: truth type, then source file,
// then business domain, then tables.
package catalog

import (
	"sort"
	"strings"

	"github.com/velora-hq/explorer-engine/pkg/models"
)

// Organize buckets tables into the truth-type, source-file, domain tree
// and sorts every level: tables lexicographically by label, groups by
// descending table count. The input slice is not modified, and the result
// is a fresh projection each call.
func (o *Organizer) Organize(tables []models.TableDescriptor) models.CatalogHierarchy {
	buckets := make(map[models.TruthType]map[string]map[models.Domain][]models.TableDescriptor)
	for _, table := range tables {
		byFile, ok := buckets[table.TruthType]
		if !ok {
			byFile = make(map[string]map[models.Domain][]models.TableDescriptor)
			buckets[table.TruthType] = byFile
		}
		byDomain, ok := byFile[table.SourceFile]
		if !ok {
			byDomain = make(map[models.Domain][]models.TableDescriptor)
			byFile[table.SourceFile] = byDomain
		}
		byDomain[table.Domain] = append(byDomain[table.Domain], table)
	}

	hierarchy := models.CatalogHierarchy{
		TruthTypes: make([]models.TruthTypeGroup, 0, len(buckets)),
	}
	for truthType, byFile := range buckets {
		group := models.TruthTypeGroup{
			TruthType: truthType,
			Files:     make([]models.FileGroup, 0, len(byFile)),
		}
		for file, byDomain := range byFile {
			fileGroup := models.FileGroup{
				SourceFile: file,
				Domains:    make([]models.DomainGroup, 0, len(byDomain)),
			}
			for domain, domainTables := range byDomain {
				sorted := append([]models.TableDescriptor(nil), domainTables...)
				sort.Slice(sorted, func(i, j int) bool {
					return lessLabel(sorted[i].Label(), sorted[j].Label())
				})
				fileGroup.Domains = append(fileGroup.Domains, models.DomainGroup{
					Domain:     domain,
					TableCount: len(sorted),
					Tables:     sorted,
				})
				fileGroup.TableCount += len(sorted)
			}
			sortDomainGroups(fileGroup.Domains)
			group.Files = append(group.Files, fileGroup)
			group.TableCount += fileGroup.TableCount
		}
		sortFileGroups(group.Files)
		hierarchy.TruthTypes = append(hierarchy.TruthTypes, group)
		hierarchy.TableCount += group.TableCount
	}
	sortTruthTypeGroups(hierarchy.TruthTypes)

	return hierarchy
}

// lessLabel orders labels case-insensitively, falling back to the raw
// comparison so equal-folded labels still sort deterministically.
func lessLabel(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}

func sortDomainGroups(groups []models.DomainGroup) {
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].TableCount != groups[j].TableCount {
			return groups[i].TableCount > groups[j].TableCount
		}
		return groups[i].Domain < groups[j].Domain
	})
}

func sortFileGroups(groups []models.FileGroup) {
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].TableCount != groups[j].TableCount {
			return groups[i].TableCount > groups[j].TableCount
		}
		return groups[i].SourceFile < groups[j].SourceFile
	})
}

func sortTruthTypeGroups(groups []models.TruthTypeGroup) {
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].TableCount != groups[j].TableCount {
			return groups[i].TableCount > groups[j].TableCount
		}
		return groups[i].TruthType < groups[j].TruthType
	})
}
