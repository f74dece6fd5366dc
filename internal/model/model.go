// Package model holds the domain types exchanged with the backend: places
// on the map, location-bound groups and their chat messages.
package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// User is a registered participant.
type User struct {
	ID        int      `json:"user_id"`
	Name      string   `json:"name"`
	Age       int      `json:"age"`
	Gender    string   `json:"gender"`
	Interests []string `json:"interests,omitempty"`
	Bio       string   `json:"bio,omitempty"`
}

// Role distinguishes the group host from ordinary members.
type Role string

const (
	RoleHost   Role = "host"
	RoleMember Role = "member"
)

// Member is a user together with their role inside one group.
type Member struct {
	User
	Role Role `json:"role"`
}

// Activity is one scheduled entry in a group's plan.
type Activity struct {
	Time        time.Time `json:"time"`
	Description string    `json:"description"`
}

// Group is a meetup bound to exactly one place for its lifetime. The wire
// shape mirrors the backend: a flat member list plus the host's user id.
type Group struct {
	ID          uuid.UUID  `json:"group_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AgeRange    [2]int     `json:"age_range"`
	Date        string     `json:"date"`
	HostID      int        `json:"host_id"`
	Members     []User     `json:"members"`
	Activities  []Activity `json:"activities,omitempty"`
}

// Roster returns the members with their roles resolved against the host id.
func (g Group) Roster() []Member {
	roster := make([]Member, 0, len(g.Members))
	for _, u := range g.Members {
		role := RoleMember
		if u.ID == g.HostID {
			role = RoleHost
		}
		roster = append(roster, Member{User: u, Role: role})
	}
	return roster
}

// OrderedActivities returns the activities sorted by time, earliest first.
func (g Group) OrderedActivities() []Activity {
	out := make([]Activity, len(g.Activities))
	copy(out, g.Activities)
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// ChatMessage is one message in a group chat.
type ChatMessage struct {
	SenderID   int       `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	GroupID    uuid.UUID `json:"group_id"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
}

// Place is a point of interest shown on the map, decoded from a GeoJSON
// feature. Point holds (lon, lat) in orb's axis order.
type Place struct {
	ID       string
	Name     string
	Address  string
	Category string
	Rating   float64
	Open     bool
	Color    string
	Groups   []Group
	Point    orb.Point
}

func (p Place) Lat() float64 { return p.Point.Lat() }
func (p Place) Lon() float64 { return p.Point.Lon() }

func (p Place) HasGroups() bool { return len(p.Groups) > 0 }
func (p Place) GroupCount() int { return len(p.Groups) }

// FromFeature extracts a Place from a GeoJSON feature. The second return is
// false for records without usable point geometry or an id; callers skip
// those per marker instead of failing the whole set.
func FromFeature(f *geojson.Feature) (Place, bool) {
	if f == nil {
		return Place{}, false
	}
	point, ok := f.Geometry.(orb.Point)
	if !ok {
		return Place{}, false
	}

	p := Place{Point: point}

	switch id := f.Properties["id"].(type) {
	case string:
		p.ID = id
	case float64:
		p.ID = fmt.Sprintf("%.0f", id)
	default:
		if f.ID != nil {
			p.ID = fmt.Sprintf("%v", f.ID)
		}
	}
	if p.ID == "" {
		return Place{}, false
	}

	p.Name, _ = f.Properties["name"].(string)
	p.Address, _ = f.Properties["address"].(string)
	p.Category, _ = f.Properties["category"].(string)
	p.Color, _ = f.Properties["color"].(string)
	p.Rating, _ = f.Properties["rating"].(float64)
	p.Open, _ = f.Properties["open"].(bool)

	if raw, ok := f.Properties["groups"]; ok {
		// Properties decode as generic maps; round-trip through JSON to
		// get typed groups.
		if data, err := json.Marshal(raw); err == nil {
			_ = json.Unmarshal(data, &p.Groups)
		}
	}

	return p, true
}

// ParsePlaces decodes the nearby-places response. The backend returns either
// a full FeatureCollection or a bare feature array depending on version.
func ParsePlaces(data []byte) ([]Place, error) {
	var features []*geojson.Feature

	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil {
		features = fc.Features
	} else if err := json.Unmarshal(data, &features); err != nil {
		return nil, fmt.Errorf("decoding places: %w", err)
	}

	places := make([]Place, 0, len(features))
	for _, f := range features {
		if p, ok := FromFeature(f); ok {
			places = append(places, p)
		}
	}
	return places, nil
}
