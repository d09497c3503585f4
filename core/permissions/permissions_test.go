package permissions

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/rentdesk/core/resource"
)

func permission(id int64, code, action string) resource.Record {
	return resource.NewRecord("", map[string]interface{}{
		"id":          float64(id),
		"module_code": code,
		"module_name": "Module " + code,
		"action":      action,
		"name":        code + "." + action,
	})
}

func actions(m Module) []string {
	result := []string{}
	for _, a := range m.Actions {
		result = append(result, a.Action)
	}
	return result
}

func TestBuildTreeOrdering(t *testing.T) {
	tree := BuildTree([]resource.Record{
		permission(1, "rooms", "delete"),
		permission(2, "rooms", "view"),
		permission(3, "rooms", "create"),
		permission(4, "rooms", "update"),
	})
	require.Len(t, tree, 1)
	assert.Equal(t, []string{"view", "create", "update", "delete"}, actions(tree[0]))
	assert.Equal(t, "Module rooms", tree[0].ModuleName)
}

func TestBuildTreeOthersAlphabetically(t *testing.T) {
	tree := BuildTree([]resource.Record{
		permission(1, "invoices", "print"),
		permission(2, "invoices", "export"),
		permission(3, "invoices", "delete"),
		permission(4, "branches", "view"),
		permission(5, "invoices", "view"),
	})
	require.Len(t, tree, 2)
	assert.Equal(t, "branches", tree[0].ModuleCode)
	assert.Equal(t, "invoices", tree[1].ModuleCode)
	assert.Equal(t, []string{"view", "delete", "export", "print"}, actions(tree[1]))
	for _, a := range tree[1].Actions {
		assert.Nil(t, a.Assigned)
	}
}

func TestBuildRoleTree(t *testing.T) {
	tree := BuildRoleTree([]resource.Record{
		permission(1, "rooms", "view"),
		permission(2, "rooms", "create"),
	}, map[int64]bool{2: true})
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Actions, 2)
	assert.False(t, *tree[0].Actions[0].Assigned)
	assert.True(t, *tree[0].Actions[1].Assigned)

	raw, err := json.Marshal(tree[0].Actions[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"action":"view","name":"rooms.view","assigned":false}`, string(raw))
}

func TestModules(t *testing.T) {
	modules := Modules([]resource.Record{
		permission(1, "rooms", "view"),
		permission(2, "branches", "view"),
		permission(3, "rooms", "create"),
	})
	assert.Equal(t, []ModuleInfo{
		{ModuleCode: "branches", ModuleName: "Module branches"},
		{ModuleCode: "rooms", ModuleName: "Module rooms"},
	}, modules)
	assert.Empty(t, Modules(nil))
}
