// Package browser maintains the directory of game servers advertised by the
// connect tier. Server status is polled concurrently over the status RPC and
// cached between refreshes.
package browser

import "fmt"

// ServerCode is the client-facing identity of a game server: twenty ids per
// group, packed into one number. Id 20 of each group is reserved by the
// client for its "select server" row and cannot be allocated.
type ServerCode uint16

const idsPerGroup = 20

// NewServerCode packs a server id and group into a ServerCode. Ids run from
// 1 to 19 and groups from 1 upward.
func NewServerCode(id, group byte) (ServerCode, error) {
	if id < 1 || id >= idsPerGroup {
		return 0, fmt.Errorf("server id %d outside the valid range [1, %d]", id, idsPerGroup-1)
	}
	if group < 1 {
		return 0, fmt.Errorf("server group must be positive")
	}
	return ServerCode(uint16(group-1)*idsPerGroup + uint16(id-1)), nil
}

// ID returns the server's id within its group.
func (c ServerCode) ID() byte {
	return byte(c%idsPerGroup) + 1
}

// Group returns the server's group number.
func (c ServerCode) Group() byte {
	return byte(c/idsPerGroup) + 1
}

func (c ServerCode) String() string {
	return fmt.Sprintf("%d-%d", c.Group(), c.ID())
}
