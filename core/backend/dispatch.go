package backend

import (
	"context"
	"strconv"
	"strings"

	"github.com/relabs-tech/rentdesk/core"
)

// idSegment is the placeholder for a numeric id in a route pattern
const idSegment = "{id}"

type handlerFunc func(ctx context.Context, c *call) (interface{}, error)

// route is an entry of the dispatch table
type route struct {
	verbs   []core.Verb
	pattern []string
	handler handlerFunc
}

func newRoute(pattern string, handler handlerFunc, verbs ...core.Verb) route {
	return route{verbs: verbs, pattern: strings.Split(strings.Trim(pattern, "/"), "/"), handler: handler}
}

// dispatchTable returns the fixed routes which are served before generic CRUD
func (b *Backend) dispatchTable() []route {
	routes := []route{
		newRoute("/dashboard/stats", b.dashboardStats, core.VerbRead),
		newRoute("/dashboard/recent", b.dashboardRecent, core.VerbRead),
		newRoute("/accounts/total-balance", b.totalBalance, core.VerbRead),
		newRoute("/notifications", b.notificationList, core.VerbRead),
		newRoute("/notifications/unread-count", b.notificationUnreadCount, core.VerbRead),
		newRoute("/notifications/mark-all-read", b.notificationMarkAllRead, core.VerbUpdate),
		newRoute("/notifications/{id}/read", b.notificationMarkRead, core.VerbUpdate),
		newRoute("/permissions", b.permissionTree, core.VerbRead),
		newRoute("/permissions/modules", b.permissionModules, core.VerbRead),
		newRoute("/permissions/role/{id}", b.rolePermissions, core.VerbRead),
		newRoute("/reports/profit-loss", b.profitLoss, core.VerbRead),
		newRoute("/reports/accounts-receivable", b.accountsReceivable, core.VerbRead),
		newRoute("/reports/revenue-analysis", b.revenueAnalysis, core.VerbRead),
		newRoute("/reports/cashflow-detail", b.cashflowDetail, core.VerbRead),
	}
	for name := range b.singletons {
		name := name
		routes = append(routes,
			newRoute("/"+name, func(ctx context.Context, c *call) (interface{}, error) {
				return b.readSingletonOrDefault(ctx, name)
			}, core.VerbRead),
			newRoute("/"+name, func(ctx context.Context, c *call) (interface{}, error) {
				result, _, err := b.upsertSingleton(ctx, c, name)
				return result, err
			}, core.VerbCreate, core.VerbReplace),
		)
	}
	for _, r := range b.relations {
		r := r
		routes = append(routes, newRoute("/"+r.Left+"/{id}/"+r.Right, func(ctx context.Context, c *call) (interface{}, error) {
			return b.replaceRelation(ctx, c, r)
		}, core.VerbReplace))
	}
	return routes
}

// lookup finds the route for verb and path. For patterns with an id, the id
// is returned as well.
func (b *Backend) lookup(verb core.Verb, path string) (handlerFunc, int64, bool) {
	rawPath, _, _ := strings.Cut(path, "?")
	segments := []string{}
	for _, s := range strings.Split(strings.Trim(rawPath, "/"), "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	for _, r := range b.routes {
		if !r.accepts(verb) || len(r.pattern) != len(segments) {
			continue
		}
		var id int64
		matched := true
		for i, p := range r.pattern {
			if p == idSegment {
				n, err := strconv.ParseInt(segments[i], 10, 64)
				if err != nil || n < 0 || strings.HasPrefix(segments[i], "+") {
					matched = false
					break
				}
				id = n
				continue
			}
			if p != segments[i] {
				matched = false
				break
			}
		}
		if matched {
			return r.handler, id, true
		}
	}
	return nil, 0, false
}

func (r route) accepts(verb core.Verb) bool {
	for _, v := range r.verbs {
		if v == verb {
			return true
		}
	}
	return false
}
