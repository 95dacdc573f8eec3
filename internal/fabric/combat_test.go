package fabric

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setupCombatRoom(t *testing.T, f *Fabric) uint32 {
	t.Helper()
	roomID := uint32(5)
	_, err := f.CreateRoom(roomID, "arena", 1, 10, DefaultGameArea)
	require.NoError(t, err)
	for _, sid := range []int64{1, 2} {
		_, _ = bindPlayer(t, f, sid, sid, "fighter")
		require.NoError(t, f.JoinRoom(sid, roomID))
	}
	require.NoError(t, f.AdvanceState(roomID, StateStarting))
	require.NoError(t, f.AdvanceState(roomID, StatePlaying))
	return roomID
}

// TestTickIntegratesMovement exercises spec.md §8 scenario 3: a moving
// player's position advances along its velocity, clamped to world
// bounds.
func TestTickIntegratesMovement(t *testing.T) {
	f := newTestFabric()
	setupCombatRoom(t, f)

	require.NoError(t, f.SetVelocity(1, Vec3{X: 1, Y: 0, Z: 0}))
	p, ok := f.Player(1)
	require.True(t, ok)
	start := p.Position

	f.Tick(1.0, nil)

	p, ok = f.Player(1)
	require.True(t, ok)
	require.Greater(t, p.Position.X, start.X, "player must advance along its velocity")
}

// TestTickClampsToWorldBounds exercises the world-bounds invariant of
// spec.md §4.8.1 step 2.
func TestTickClampsToWorldBounds(t *testing.T) {
	f := newTestFabric()
	setupCombatRoom(t, f)

	f.players.UpdateWith(1, func(p *Player, ok bool) (*Player, bool) {
		p.Position = Vec3{X: worldBounds.MaxX - 1, Y: 0, Z: 0}
		return p, true
	})
	require.NoError(t, f.SetVelocity(1, Vec3{X: 1, Y: 0, Z: 0}))

	for i := 0; i < 5; i++ {
		f.Tick(1.0, nil)
	}

	p, ok := f.Player(1)
	require.True(t, ok)
	require.LessOrEqual(t, p.Position.X, worldBounds.MaxX)
}

// TestAttackWithinRangeDamagesTarget exercises spec.md §8 scenario 4:
// an in-range attack lands and reduces the target's health.
func TestAttackWithinRangeDamagesTarget(t *testing.T) {
	f := newTestFabric()
	setupCombatRoom(t, f)

	placeAdjacent(f)
	f.players.UpdateWith(1, func(p *Player, ok bool) (*Player, bool) {
		p.CritChance = 0 // deterministic, no crit roll
		return p, true
	})

	f.QueueAttack(1, 2)
	result := f.Tick(0.016, nil)

	target, ok := f.Player(2)
	require.True(t, ok)
	require.Less(t, target.CurrentHealth, target.MaxHealth)
	require.Empty(t, result.Deaths)
}

// placeAdjacent pins players 1 and 2 at the same point, overriding
// whatever spawn positions their roles received, so attack-range tests
// don't depend on the random police/thief spawn spread.
func placeAdjacent(f *Fabric) {
	f.players.UpdateWith(1, func(p *Player, ok bool) (*Player, bool) {
		p.Position = Vec3{X: 5000, Y: 5000}
		return p, true
	})
	f.players.UpdateWith(2, func(p *Player, ok bool) (*Player, bool) {
		p.Position = Vec3{X: 5000, Y: 5000}
		return p, true
	})
}

// TestAttackOutOfRangeRejected exercises spec.md §8 scenario 5: an
// attack beyond the attacker's range is silently dropped.
func TestAttackOutOfRangeRejected(t *testing.T) {
	f := newTestFabric()
	setupCombatRoom(t, f)

	f.players.UpdateWith(2, func(p *Player, ok bool) (*Player, bool) {
		p.Position = Vec3{X: 10000, Y: 10000, Z: 0}
		return p, true
	})

	f.QueueAttack(1, 2)
	f.Tick(0.016, nil)

	target, ok := f.Player(2)
	require.True(t, ok)
	require.Equal(t, target.MaxHealth, target.CurrentHealth, "out-of-range attack must not land")
}

// TestAttackRespectsCooldown exercises spec.md §4.8.1's attack-speed
// cooldown: a second attack queued before 1/AttackSpeed seconds elapse
// is rejected.
func TestAttackRespectsCooldown(t *testing.T) {
	f := newTestFabric()
	setupCombatRoom(t, f)
	placeAdjacent(f)

	f.players.UpdateWith(1, func(p *Player, ok bool) (*Player, bool) {
		p.CritChance = 0
		p.LastAttack = time.Now()
		return p, true
	})

	f.QueueAttack(1, 2)
	f.Tick(0.016, nil)

	target, _ := f.Player(2)
	require.Equal(t, target.MaxHealth, target.CurrentHealth, "attack inside the cooldown window must not land")
}

// TestLethalDamageProducesDeathAndRespawn exercises spec.md §4.8.1 steps
// 3-4: fatal damage transitions the victim to Dead and records the
// kill, then a queued respawn restores full health at the room spawn.
func TestLethalDamageProducesDeathAndRespawn(t *testing.T) {
	f := newTestFabric()
	setupCombatRoom(t, f)

	f.applyDamage(1, 2, 1000, time.Now(), &TickResult{})
	target, ok := f.Player(2)
	require.True(t, ok)
	require.True(t, target.IsDead())

	f.QueueRespawn(2)
	f.Tick(0.016, nil)

	target, ok = f.Player(2)
	require.True(t, ok)
	require.False(t, target.IsDead())
	require.Equal(t, target.MaxHealth, target.CurrentHealth)
	require.False(t, target.InvulnerableUntil.IsZero())
}

func TestSkillCastAppliesLevelScaledDamage(t *testing.T) {
	f := newTestFabric()
	setupCombatRoom(t, f)
	placeAdjacent(f)
	catalog := NewSkillCatalog([]SkillDef{
		{ID: "bolt", ManaCost: 10, Cooldown: time.Second, Range: 100, BaseDamage: 20, ScalingFactor: 1.1},
	})

	f.players.UpdateWith(1, func(p *Player, ok bool) (*Player, bool) {
		p.Level = 3
		return p, true
	})

	f.QueueCastSkill(1, "bolt", 2, Vec3{})
	f.Tick(0.016, catalog)

	caster, _ := f.Player(1)
	require.Equal(t, 90.0, caster.CurrentMana)

	target, _ := f.Player(2)
	require.Less(t, target.CurrentHealth, target.MaxHealth)
}
