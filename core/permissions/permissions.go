// Package permissions groups flat permission records into a tree of modules
// and their actions.
package permissions

import (
	"sort"

	"github.com/relabs-tech/rentdesk/core/resource"
)

// Properties of a permission record
const (
	PropertyModuleCode = "module_code"
	PropertyModuleName = "module_name"
	PropertyAction     = "action"
	PropertyName       = "name"
	PropertyDesc       = "description"
)

// actionPriority is the fixed display order of well known actions. All other
// actions follow in alphabetical order.
var actionPriority = map[string]int{
	"view":   0,
	"create": 1,
	"update": 2,
	"delete": 3,
}

func priority(action string) int {
	if p, ok := actionPriority[action]; ok {
		return p
	}
	return len(actionPriority)
}

// Action is a single permission of a module
type Action struct {
	ID          int64  `json:"id"`
	Action      string `json:"action"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	// Assigned is only set in role views
	Assigned *bool `json:"assigned,omitempty"`
}

// Module is a group of permissions sharing a module code
type Module struct {
	ModuleCode string   `json:"module_code"`
	ModuleName string   `json:"module_name"`
	Actions    []Action `json:"actions"`
}

// ModuleInfo is a module without its actions
type ModuleInfo struct {
	ModuleCode string `json:"module_code"`
	ModuleName string `json:"module_name"`
}

// BuildTree groups permissions by module code. Modules are sorted by code,
// actions by view, create, update, delete and then the remaining actions
// alphabetically.
func BuildTree(permissions []resource.Record) []Module {
	return build(permissions, nil)
}

// BuildRoleTree is BuildTree with every action marked as assigned if its id is
// contained in assigned.
func BuildRoleTree(permissions []resource.Record, assigned map[int64]bool) []Module {
	if assigned == nil {
		assigned = map[int64]bool{}
	}
	return build(permissions, assigned)
}

// Modules returns the distinct modules of permissions, sorted by code
func Modules(permissions []resource.Record) []ModuleInfo {
	tree := BuildTree(permissions)
	modules := make([]ModuleInfo, len(tree))
	for i, m := range tree {
		modules[i] = ModuleInfo{ModuleCode: m.ModuleCode, ModuleName: m.ModuleName}
	}
	return modules
}

func build(permissions []resource.Record, assigned map[int64]bool) []Module {
	byCode := map[string]*Module{}
	for _, p := range permissions {
		code := p.String(PropertyModuleCode)
		m, ok := byCode[code]
		if !ok {
			m = &Module{ModuleCode: code, Actions: []Action{}}
			byCode[code] = m
		}
		if m.ModuleName == "" {
			m.ModuleName = p.String(PropertyModuleName)
		}
		a := Action{
			ID:          p.ID,
			Action:      p.String(PropertyAction),
			Name:        p.String(PropertyName),
			Description: p.String(PropertyDesc),
		}
		if assigned != nil {
			isAssigned := p.HasID && assigned[p.ID]
			a.Assigned = &isAssigned
		}
		m.Actions = append(m.Actions, a)
	}

	modules := make([]Module, 0, len(byCode))
	for _, m := range byCode {
		sort.SliceStable(m.Actions, func(i, j int) bool {
			a, b := m.Actions[i], m.Actions[j]
			if pa, pb := priority(a.Action), priority(b.Action); pa != pb {
				return pa < pb
			}
			if a.Action != b.Action {
				return a.Action < b.Action
			}
			if a.Name != b.Name {
				return a.Name < b.Name
			}
			return a.ID < b.ID
		})
		modules = append(modules, *m)
	}
	sort.Slice(modules, func(i, j int) bool {
		return modules[i].ModuleCode < modules[j].ModuleCode
	})
	return modules
}
