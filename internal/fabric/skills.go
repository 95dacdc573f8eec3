package fabric

import (
	"math"
	"math/rand"
	"time"
)

// SkillDef is one catalog entry, per spec.md §4.8.1's "declarative
// catalog (mana cost, cooldown, cast time, range, AOE radius, base
// damage/heal, level-scaling factor)".
type SkillDef struct {
	ID            string
	ManaCost      float64
	Cooldown      time.Duration
	CastTime      time.Duration
	Range         float64
	AOERadius     float64
	BaseDamage    float64
	BaseHeal      float64
	ScalingFactor float64
}

// SkillCatalog is an immutable lookup table of skill definitions, loaded
// once at startup.
type SkillCatalog struct {
	skills map[string]SkillDef
}

// NewSkillCatalog builds a catalog from a slice of definitions.
func NewSkillCatalog(defs []SkillDef) *SkillCatalog {
	m := make(map[string]SkillDef, len(defs))
	for _, d := range defs {
		m[d.ID] = d
	}
	return &SkillCatalog{skills: m}
}

// Lookup returns the definition for id.
func (c *SkillCatalog) Lookup(id string) (SkillDef, bool) {
	if c == nil {
		return SkillDef{}, false
	}
	d, ok := c.skills[id]
	return d, ok
}

// minSkillCooldown is the floor spec.md §4.8.1 sets regardless of
// cooldown-reduction stats ("min 500 ms post-reduction").
const minSkillCooldown = 500 * time.Millisecond

// applyAttack resolves a basic attack, per spec.md §4.8.1 step 3 and the
// literal scenarios in §8 (cooldown rejection, out-of-range rejection,
// crit roll).
func (f *Fabric) applyAttack(attackerID, targetID int64, now time.Time, result *TickResult) {
	attacker, ok := f.players.Get(attackerID)
	if !ok || attacker.IsDead() || attacker.Mode == ModeStunned || attacker.Mode == ModeCastingSkill {
		return
	}
	if attacker.AttackSpeed <= 0 {
		return
	}
	cooldown := time.Duration(float64(time.Second) / attacker.AttackSpeed)
	if !attacker.LastAttack.IsZero() && now.Sub(attacker.LastAttack) < cooldown {
		return
	}

	target, ok := f.players.Get(targetID)
	if !ok || target.IsDead() {
		return
	}
	if dist(attacker.Position, target.Position) > attacker.AttackRadius {
		return
	}

	crit := rand.Float64() < attacker.CritChance
	damage := attacker.Attack
	if crit {
		damage *= attacker.CritMultiplier
	}

	f.players.UpdateWith(attackerID, func(p *Player, ok bool) (*Player, bool) {
		if !ok {
			return nil, false
		}
		p.LastAttack = now
		p.Mode = ModeAttacking
		return p, true
	})

	f.applyDamage(attackerID, targetID, damage, now, result)
}

// applySkill resolves a skill cast, per spec.md §4.8.1's "Execution
// validates mana, cooldown (min 500 ms post-reduction), range, and
// state; costs are applied atomically before effects".
func (f *Fabric) applySkill(casterID, targetID int64, skillID string, catalog *SkillCatalog, now time.Time, result *TickResult) {
	def, ok := catalog.Lookup(skillID)
	if !ok {
		return
	}

	caster, ok := f.players.Get(casterID)
	if !ok || caster.IsDead() || caster.Mode == ModeStunned {
		return
	}
	if caster.CurrentMana < def.ManaCost {
		return
	}
	if until, onCooldown := caster.SkillCooldowns[skillID]; onCooldown && now.Before(until) {
		return
	}

	target, hasTarget := f.players.Get(targetID)
	if def.Range > 0 {
		if !hasTarget || dist(caster.Position, target.Position) > def.Range {
			return
		}
	}

	cooldown := def.Cooldown
	if cooldown < minSkillCooldown {
		cooldown = minSkillCooldown
	}

	f.players.UpdateWith(casterID, func(p *Player, ok bool) (*Player, bool) {
		if !ok {
			return nil, false
		}
		p.CurrentMana -= def.ManaCost
		if p.SkillCooldowns == nil {
			p.SkillCooldowns = make(map[string]time.Time)
		}
		p.SkillCooldowns[skillID] = now.Add(cooldown)
		return p, true
	})

	level := caster.Level
	if level < 1 {
		level = 1
	}
	scaling := def.ScalingFactor
	if scaling <= 0 {
		scaling = 1
	}
	factor := math.Pow(scaling, float64(level-1))
	if factor > 5.0 {
		factor = 5.0
	}

	if def.BaseDamage > 0 && hasTarget {
		f.applyDamage(casterID, targetID, def.BaseDamage*factor, now, result)
	}
	if def.BaseHeal > 0 {
		healTargetID := targetID
		if !hasTarget {
			healTargetID = casterID
		}
		f.applyHeal(healTargetID, def.BaseHeal*factor)
	}
}

// applyDamage applies spec.md §4.8.1's damage formula
// (taken = max(0, damage - defense/2), zeroed under invulnerability)
// and transitions the victim to Dead on lethal damage, recording the
// kill for score attribution.
func (f *Fabric) applyDamage(attackerID, targetID int64, damage float64, now time.Time, result *TickResult) {
	var died bool
	var roomID uint32
	f.players.UpdateWith(targetID, func(p *Player, ok bool) (*Player, bool) {
		if !ok || p.IsDead() {
			return p, ok
		}
		taken := damage - p.Defense/2
		if taken < 0 {
			taken = 0
		}
		if p.IsInvulnerable(now) {
			taken = 0
		}
		p.CurrentHealth -= taken
		if p.CurrentHealth <= 0 {
			p.CurrentHealth = 0
			p.Mode = ModeDead
			died = true
			roomID, _ = p.RoomID, p.HasRoom
		}
		return p, true
	})

	if died {
		result.Deaths = append(result.Deaths, PlayerDeath{VictimID: targetID, AttackerID: attackerID, RoomID: roomID})
	}
}

func (f *Fabric) applyHeal(targetID int64, amount float64) {
	f.players.UpdateWith(targetID, func(p *Player, ok bool) (*Player, bool) {
		if !ok || p.IsDead() {
			return p, ok
		}
		p.CurrentHealth += amount
		if p.CurrentHealth > p.MaxHealth {
			p.CurrentHealth = p.MaxHealth
		}
		return p, true
	})
}

// applyRespawn restores a dead player to full health/mana at their
// room's spawn position with a 5s invulnerability window, per
// spec.md §4.8.1 step 4.
func (f *Fabric) applyRespawn(playerID int64, now time.Time) {
	f.players.UpdateWith(playerID, func(p *Player, ok bool) (*Player, bool) {
		if !ok {
			return nil, false
		}
		if p.HasRoom {
			if room, ok := f.rooms.Get(p.RoomID); ok {
				if idx := room.MemberIndex(playerID); idx >= 0 {
					p.Position = spawnPosition(room.Area, room.Members[idx].Role)
				}
			}
		}
		p.CurrentHealth = p.MaxHealth
		p.CurrentMana = p.MaxMana
		p.SkillCooldowns = make(map[string]time.Time)
		p.Mode = ModeIdle
		p.InvulnerableUntil = now.Add(5 * time.Second)
		return p, true
	})
}
