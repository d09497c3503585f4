/*
Package backend implements the generic REST backend of rentdesk

A backend serves a schemaless document tree. Every top level node of the tree is a
collection, every child of a collection is a record stored under a key like "room_7".
Records are located by their "id" property, never by their key.

Configuration

The configuration is done entirely via JSON. It consists of collections, singletons
and relations. Collections without configuration are served as well, the configuration
only adds schemas, singleton defaults and relation routes.

Example:
  {
	"collections": [
	  {
		"resource": "rooms",
		"schema_id": "https://rentdesk.dev/schemas/room.json"
	  }
	],
	"singletons": [
	  {
		"resource": "settings",
		"default": {"currency": "VND"}
	  }
	],
	"relations": [
	  {
		"resource": "role_permissions",
		"left": "roles",
		"right": "permissions"
	  }
	]
  }

This configuration creates the following REST routes, next to the generic routes of
every other collection:
	GET /rooms
	POST /rooms
	GET /rooms/{id}
	GET /rooms/{id}/{nested/path}
	PUT /rooms/{id}
	PATCH /rooms/{id}
	DELETE /rooms/{id}
	GET /settings
	POST /settings
	PUT /settings
	PUT /roles/{id}/permissions

Fixed routes

These routes are served before generic CRUD:
	GET /dashboard/stats
	GET /dashboard/recent
	GET /accounts/total-balance
	GET /notifications
	GET /notifications/unread-count
	PATCH /notifications/mark-all-read
	PATCH /notifications/{id}/read
	GET /permissions
	GET /permissions/modules
	GET /permissions/role/{id}
	GET /reports/profit-loss
	GET /reports/accounts-receivable
	GET /reports/revenue-analysis
	GET /reports/cashflow-detail

Query parameters

List requests accept property filters, e.g. ?status=available, and paging with
limit/offset or page/pageSize plus sort and order. See package resource.

Responses

Over HTTP every response is an envelope, {"data": ...} on success and {"error": "..."} on
failure. Backend.Do returns the unwrapped data.
*/
package backend
