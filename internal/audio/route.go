/*
 * This file is part of Voxrec (https://github.com/voxlabs/voxrec).
 * Copyright (C) 2025 Vox Labs
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package audio

// RouteKind classifies the active audio hardware path
type RouteKind int

const (
	RouteBuiltInMic RouteKind = iota
	RouteHeadphones
	RouteBluetoothHFP
	RouteUSBAudio
	RouteAirPlay
	RouteNone
	RouteOther
)

// Route is the active audio input/output hardware path. RawName carries the
// host's port name for RouteOther.
type Route struct {
	Kind    RouteKind
	RawName string
}

// Common routes
var (
	BuiltInMicRoute = Route{Kind: RouteBuiltInMic}
	NoInputRoute    = Route{Kind: RouteNone}
)

// OtherRoute builds a route for an unclassified hardware port
func OtherRoute(rawName string) Route {
	return Route{Kind: RouteOther, RawName: rawName}
}

// DisplayName returns a human-readable route name
func (r Route) DisplayName() string {
	switch r.Kind {
	case RouteBuiltInMic:
		return "Built-in Microphone"
	case RouteHeadphones:
		return "Headphones"
	case RouteBluetoothHFP:
		return "Bluetooth"
	case RouteUSBAudio:
		return "USB Audio"
	case RouteAirPlay:
		return "AirPlay"
	case RouteNone:
		return "No Input"
	default:
		return r.RawName
	}
}

// IsWired reports whether the route is a wired peripheral
func (r Route) IsWired() bool {
	switch r.Kind {
	case RouteHeadphones, RouteUSBAudio:
		return true
	}
	return false
}

// IsWireless reports whether the route is a wireless peripheral
func (r Route) IsWireless() bool {
	switch r.Kind {
	case RouteBluetoothHFP, RouteAirPlay:
		return true
	}
	return false
}

// HasViableInput reports whether the route can capture audio. AirPlay is an
// output-only path.
func (r Route) HasViableInput() bool {
	switch r.Kind {
	case RouteNone, RouteAirPlay:
		return false
	}
	return true
}
