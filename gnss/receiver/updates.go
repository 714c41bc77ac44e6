package receiver

import "github.com/ubports/location-service-sub002/units"

// Updates is the set of channels a Receiver delivers decoded samples
// on.  A caller that isn't interested in a particular kind of update
// simply never receives from that channel.  Publishing never blocks, so
// a slow consumer on one channel never holds up delivery on another:
// when a channel is full, its oldest update is dropped to make room for
// the newest.
type Updates struct {
	Position       chan units.PositionUpdate
	Heading        chan units.HeadingUpdate
	Velocity       chan units.VelocityUpdate
	SpaceVehicles  chan []units.SpaceVehicle
}

func newUpdates() Updates {
	const depth = 16
	return Updates{
		Position:      make(chan units.PositionUpdate, depth),
		Heading:       make(chan units.HeadingUpdate, depth),
		Velocity:      make(chan units.VelocityUpdate, depth),
		SpaceVehicles: make(chan []units.SpaceVehicle, depth),
	}
}

func (u Updates) publishPosition(v units.PositionUpdate) {
	select {
	case u.Position <- v:
	default:
		// A consumer that isn't keeping up loses the oldest update in
		// favour of the newest - staleness matters more than
		// completeness for a live position feed.
		select {
		case <-u.Position:
		default:
		}
		select {
		case u.Position <- v:
		default:
		}
	}
}

func (u Updates) publishHeading(v units.HeadingUpdate) {
	select {
	case u.Heading <- v:
	default:
		select {
		case <-u.Heading:
		default:
		}
		select {
		case u.Heading <- v:
		default:
		}
	}
}

func (u Updates) publishVelocity(v units.VelocityUpdate) {
	select {
	case u.Velocity <- v:
	default:
		select {
		case <-u.Velocity:
		default:
		}
		select {
		case u.Velocity <- v:
		default:
		}
	}
}

func (u Updates) publishSpaceVehicles(v []units.SpaceVehicle) {
	select {
	case u.SpaceVehicles <- v:
	default:
		select {
		case <-u.SpaceVehicles:
		default:
		}
		select {
		case u.SpaceVehicles <- v:
		default:
		}
	}
}
