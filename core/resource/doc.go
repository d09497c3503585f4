/*
Package resource contains the pure building blocks of the document-tree REST
layer: request paths, records, storage keys, filters, pagination and dates.

Nothing in this package talks to the tree. The backend package materializes
collections into []Record and then uses these helpers to do in memory what a
relational engine would do on the server.

Paths

A path looks like "/collection[/id][/sub/segments][?query]". The second segment
is an id only if it consists of digits:

	/rooms/7/photos   -> {Collection: "rooms", ID: 7, SubSegments: ["photos"]}
	/rooms/abc/photos -> {Collection: "rooms", ID: nil, SubSegments: ["abc", "photos"]}

Storage keys

A record with id 7 in collection "rooms" lives under the storage key "room_7".
The singular form is naive: exactly one trailing "s" is removed. Lookups never
rely on the key though, they scan for a matching id, so records with irregular
legacy keys stay reachable.
*/
package resource
