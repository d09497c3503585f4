package backend

import (
	"context"

	"github.com/relabs-tech/rentdesk/core/permissions"
	"github.com/relabs-tech/rentdesk/core/resource"
)

// collections used by the permission views
const (
	collectionPermissions = "permissions"
	collectionRoles       = "roles"
)

// rolePermissionsRelation returns the relation between roles and permissions.
// Without configuration the conventional role_permissions collection is used.
func (b *Backend) rolePermissionsRelation() *relationConfiguration {
	for _, r := range b.relations {
		if r.Left == collectionRoles && r.Right == collectionPermissions {
			return r
		}
	}
	return &relationConfiguration{Resource: "role_permissions", Left: collectionRoles, Right: collectionPermissions}
}

// permissionTree is GET /permissions
func (b *Backend) permissionTree(ctx context.Context, c *call) (interface{}, error) {
	records, err := b.collection(ctx, collectionPermissions)
	if err != nil {
		return nil, err
	}
	return permissions.BuildTree(resource.BuildFilter(c.query, c.Params).Apply(records)), nil
}

// permissionModules is GET /permissions/modules
func (b *Backend) permissionModules(ctx context.Context, c *call) (interface{}, error) {
	records, err := b.collection(ctx, collectionPermissions)
	if err != nil {
		return nil, err
	}
	return permissions.Modules(records), nil
}

// rolePermissions is GET /permissions/role/{id}
func (b *Backend) rolePermissions(ctx context.Context, c *call) (interface{}, error) {
	relation := b.rolePermissionsRelation()
	var records []resource.Record
	var assigned map[int64]bool
	var role resource.Record
	var found bool
	g := newGroup(ctx)
	g.Go(func(ctx context.Context) (err error) {
		records, err = b.collection(ctx, collectionPermissions)
		return
	})
	g.Go(func(ctx context.Context) (err error) {
		assigned, err = b.relatedIDs(ctx, relation, c.id)
		return
	})
	g.Go(func(ctx context.Context) (err error) {
		role, found, err = b.find(ctx, collectionRoles, c.id)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if !found {
		return nil, notFound("role %d not found", c.id)
	}
	return map[string]interface{}{
		"role":        role,
		"permissions": permissions.BuildRoleTree(records, assigned),
	}, nil
}
