// internal/detection/connectivity.go
package detection

import "fmt"

// Link is the reachability of one remote resource.
type Link int

const (
	LinkUnknown Link = iota // nothing settled yet
	LinkConnected
	LinkDisconnected
)

func (l Link) String() string {
	switch l {
	case LinkConnected:
		return "connected"
	case LinkDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

func (l Link) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Link) UnmarshalText(b []byte) error {
	switch string(b) {
	case "connected":
		*l = LinkConnected
	case "disconnected":
		*l = LinkDisconnected
	case "unknown", "":
		*l = LinkUnknown
	default:
		return fmt.Errorf("unknown link state %q", b)
	}
	return nil
}

// Connectivity is Connected, or Disconnected with a reason.
type Connectivity struct {
	Link   Link   `json:"link"`
	Reason string `json:"reason,omitempty"`
	Code   uint16 `json:"code,omitempty"`
}

func Connected() Connectivity { return Connectivity{Link: LinkConnected} }

func Disconnected(reason string) Connectivity {
	return Connectivity{Link: LinkDisconnected, Reason: reason}
}

// DisconnectedBy derives reason and code from a failed request.
func DisconnectedBy(err error) Connectivity {
	return Connectivity{Link: LinkDisconnected, Reason: Reason(err), Code: Code(err)}
}

func (c Connectivity) IsConnected() bool { return c.Link == LinkConnected }
