// Brickdrive Core
// Copyright (c) 2026 The Brickdrive Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Brickdrive Core.
//
// Brickdrive Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Brickdrive Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Brickdrive Core.  If not, see <http://www.gnu.org/licenses/>.

package indicators

import (
	"errors"
	"fmt"
	"time"

	"github.com/brickdrive/brickdrive-core/pkg/leds"
)

type zoneKey struct {
	layout int
	zone   int
}

// Applier pushes rule results into LED groups. An effect is only set when
// it differs from what the zone already runs, so blink cycles are not
// restarted by every telegram.
type Applier struct {
	profile *Profile
	last    map[zoneKey]leds.Effect
	groups  []*leds.Group
}

// BuildGroups creates one LED group per layout of the profile. ids maps a
// layout role to its output group id; unmapped roles take their position
// plus one.
func BuildGroups(p *Profile, ids map[string]int) ([]*leds.Group, error) {
	groups := make([]*leds.Group, 0, len(p.Layout))
	for i, l := range p.Layout {
		id, ok := ids[l.Role]
		if !ok {
			id = i + 1
		}
		g, err := leds.NewGroup(id, l.Pixels, l.Zones...)
		if err != nil {
			return nil, fmt.Errorf("building %s group %q: %w", p.Name, l.Role, err)
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// NewApplier binds a profile to the groups built for its layout.
func NewApplier(p *Profile, groups []*leds.Group) (*Applier, error) {
	if len(groups) != len(p.Layout) {
		return nil, fmt.Errorf("profile %s needs %d led groups, got %d", p.Name, len(p.Layout), len(groups))
	}
	return &Applier{
		profile: p,
		groups:  groups,
		last:    make(map[zoneKey]leds.Effect),
	}, nil
}

// Apply evaluates the rules and starts every changed effect at now.
func (a *Applier) Apply(in *Input, now time.Time) error {
	var errs []error
	for _, req := range a.profile.Rules(in) {
		key := zoneKey{layout: req.Layout, zone: req.Zone}
		if cur, ok := a.last[key]; ok && cur == req.Effect {
			continue
		}
		if req.Layout < 0 || req.Layout >= len(a.groups) {
			errs = append(errs, fmt.Errorf("rule targets missing layout %d", req.Layout))
			continue
		}
		if err := a.groups[req.Layout].SetEffect(req.Zone, req.Effect, now); err != nil {
			errs = append(errs, err)
			continue
		}
		a.last[key] = req.Effect
	}
	return errors.Join(errs...)
}

// Reset forgets the applied effects so the next Apply sets every zone.
func (a *Applier) Reset() {
	clear(a.last)
}

// Groups returns the groups the applier drives.
func (a *Applier) Groups() []*leds.Group {
	return a.groups
}
