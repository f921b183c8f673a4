package protocol

import "stowroom/domain"

// Route decides how an authorized message leaves the coordinator.
type Route int

const (
	// RouteBroadcast fans the message out to every other open connection.
	RouteBroadcast Route = iota
	// RouteRelay delivers only to the addressed user's connections.
	RouteRelay
)

// routes is the closed routing-policy table. A kind missing here is not a
// valid inbound message ("error" is server-to-client only), which is what
// keeps Parse exhaustive over the union.
var routes = map[Type]Route{
	TypeDrawerCreated:      RouteBroadcast,
	TypeDrawerUpdated:      RouteBroadcast,
	TypeDrawerDeleted:      RouteBroadcast,
	TypeCompartmentUpdated: RouteBroadcast,
	TypeDividersChanged:    RouteBroadcast,
	TypeCompartmentsMerged: RouteBroadcast,
	TypeCompartmentSplit:   RouteBroadcast,
	TypeItemUpdated:        RouteBroadcast,
	TypeItemsBatchUpdated:  RouteBroadcast,
	TypeCategoryCreated:    RouteBroadcast,
	TypeCategoryUpdated:    RouteBroadcast,
	TypeCategoryDeleted:    RouteBroadcast,

	TypeUserJoined:    RouteBroadcast,
	TypeUserLeft:      RouteBroadcast,
	TypeCursorMove:    RouteBroadcast,
	TypeMemberRemoved: RouteBroadcast,

	TypeRTCOffer:        RouteRelay,
	TypeRTCAnswer:       RouteRelay,
	TypeRTCIceCandidate: RouteRelay,
}

func RouteOf(t Type) (Route, bool) {
	route, ok := routes[t]
	return route, ok
}

// restrictedAllowed lists the kinds a member-tier connection may send:
// item edits and cursor movements. Everything else requires the elevated
// tier and yields a Permission denied unicast otherwise.
var restrictedAllowed = map[Type]struct{}{
	TypeItemUpdated:       {},
	TypeItemsBatchUpdated: {},
	TypeCursorMove:        {},
}

// Allowed implements the authorization-policy table. Signaling kinds are
// never checked here; the coordinator routes them before authorization.
func Allowed(role domain.Role, t Type) bool {
	if role.Elevated() {
		return true
	}
	_, ok := restrictedAllowed[t]
	return ok
}
