package creature

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/afterimage/collision"
	"github.com/pthm-cable/afterimage/config"
	"github.com/pthm-cable/afterimage/level"
	"github.com/pthm-cable/afterimage/recorder"
	"github.com/pthm-cable/afterimage/state"
)

// ErrPlayerDead is returned when a dead player is ticked before respawning.
var ErrPlayerDead = errors.New("player is dead")

// Params configures the protagonist.
type Params struct {
	Radius            float64
	Height            float64
	WalkSpeed         float64
	SprintSpeed       float64
	RotateSensitivity float64 // degrees per tick
	StepDistance      float64
	MaxStamina        float64
	StaminaRegen      float64
	Health            state.HealthParams
}

// ParamsFromConfig returns player parameters from the loaded config.
func ParamsFromConfig(cfg *config.Config) Params {
	pc := cfg.Player
	return Params{
		Radius:            pc.Radius,
		Height:            pc.Height,
		WalkSpeed:         pc.WalkSpeed,
		SprintSpeed:       pc.SprintSpeed,
		RotateSensitivity: pc.RotateSensitivity,
		StepDistance:      pc.StepDistance,
		MaxStamina:        pc.MaxStamina,
		StaminaRegen:      pc.StaminaRegen,
		Health: state.HealthParams{
			Max:          pc.MaxHealth,
			DamagePerHit: pc.DamagePerHit,
			RegenPerTick: pc.HealthRegenPerTick,
			GraceTicks:   pc.GraceTicks,
		},
	}
}

// Player is the controllable protagonist. It is the only writer of the recorder.
type Player struct {
	p      Params
	kin    Kinematics
	spawn  r2.Vec
	stride Stride

	health  *state.Health
	stamina *state.Stamina
	rec     *recorder.Recorder
	log     *slog.Logger

	// Intent edges
	sprintHeld bool
	attackHeld bool

	// Per-tick outputs
	hit      bool
	attacked bool
	footstep bool

	exitFound bool
	exitID    string
	dead      bool
	lifeTicks int
}

// NewPlayer places the protagonist at spawn and opens the first life.
func NewPlayer(p Params, spawn r2.Vec, rec *recorder.Recorder, logger *slog.Logger) (*Player, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pl := &Player{
		p:       p,
		spawn:   spawn,
		health:  state.NewHealth(p.Health),
		stamina: state.NewStamina(p.MaxStamina, p.StaminaRegen),
		rec:     rec,
		log:     logger,
	}
	pl.place()
	if _, err := rec.Begin(); err != nil {
		return nil, fmt.Errorf("new player: %w", err)
	}
	return pl, nil
}

func (pl *Player) place() {
	pl.kin = Kinematics{Pos: pl.spawn, Radius: pl.p.Radius, Height: pl.p.Height}
	pl.stride = NewStride(pl.spawn, pl.p.StepDistance)
}

// Tick runs one simulation tick for the protagonist and records it.
func (pl *Player) Tick(in Intents, env Environment) error {
	if pl.dead {
		return ErrPlayerDead
	}
	pl.hit, pl.attacked, pl.footstep = false, false, false

	pl.sprintHeld = in.Sprint
	pl.stamina.Observe(in.Sprint)

	// One attack per press.
	attackPending := in.Attack && !pl.attackHeld
	pl.attackHeld = in.Attack

	// 1. Turn
	if in.TurnLeft {
		pl.kin.Angle -= pl.p.RotateSensitivity
	}
	if in.TurnRight {
		pl.kin.Angle += pl.p.RotateSensitivity
	}

	// 2. Proposed displacement
	delta := displacement(pl.kin.Speed, pl.kin.Strafe, pl.kin.Angle)

	// 3. Per-axis resolution against the level
	res := collision.Slide(env, pl.kin.Body(), delta)
	if res.Err != nil {
		pl.log.Warn("wall query failed, movement applied",
			"life", pl.LifeIndex(), "tick", pl.lifeTicks, "error", res.Err)
	}
	pl.kin.Pos = res.Position

	// 4. Hostile contact
	if env.HostileCollisionAt(pl.kin.Body()) {
		pl.hit = true
		pl.health.Hit()
	} else {
		pl.health.Tick()
	}
	pl.dead = pl.health.Dead()

	// 5. Exit
	if id, ok := env.ExitAt(pl.kin.Body()); ok {
		if !pl.exitFound {
			pl.log.Info("exit found", "life", pl.LifeIndex(), "exit", id, "tick", pl.lifeTicks)
		}
		pl.exitFound = true
		pl.exitID = id
	}

	// 6. Speeds for next tick
	pl.kin.Speed, pl.kin.Strafe = pl.nextSpeeds(in)

	// 7. Footsteps
	pl.footstep = pl.stride.Update(pl.kin.Pos)

	// 8. Record
	pl.attacked = attackPending
	pl.lifeTicks++
	err := pl.rec.Append(recorder.Sample{
		X:        pl.kin.Pos.X,
		Z:        pl.kin.Pos.Y,
		Angle:    pl.kin.Angle,
		Attacked: pl.attacked,
		Died:     pl.dead,
	})
	if err != nil {
		return fmt.Errorf("record tick %d: %w", pl.lifeTicks, err)
	}
	return nil
}

// displacement converts forward and strafe speed at a heading into an X/Z step.
func displacement(speed, strafe, angleDeg float64) r2.Vec {
	theta := angleDeg * math.Pi / 180
	side := theta - math.Pi/2
	return r2.Vec{
		X: speed*math.Sin(theta) + strafe*math.Sin(side),
		Y: speed*math.Cos(theta) + strafe*math.Cos(side),
	}
}

// nextSpeeds derives the speed pair from intents, capped by stamina.
func (pl *Player) nextSpeeds(in Intents) (speed, strafe float64) {
	v := pl.p.WalkSpeed
	if in.Sprint && pl.stamina.CanSprint() {
		v = pl.p.SprintSpeed
	}
	if in.Forward {
		speed += v
	}
	if in.Back {
		speed -= v
	}
	if in.StrafeLeft {
		strafe += v
	}
	if in.StrafeRight {
		strafe -= v
	}
	return speed, strafe
}

// StepStamina is the periodic stamina callback driven by the scheduler.
func (pl *Player) StepStamina(seconds float64) {
	pl.stamina.Step(pl.sprintHeld, seconds)
}

// Respawn resets the protagonist to its initial state and opens the next life.
func (pl *Player) Respawn() error {
	if _, err := pl.rec.Begin(); err != nil {
		return fmt.Errorf("respawn: %w", err)
	}
	pl.place()
	pl.health.Reset()
	pl.stamina.Reset()
	pl.sprintHeld, pl.attackHeld = false, false
	pl.hit, pl.attacked, pl.footstep = false, false, false
	pl.exitFound, pl.exitID = false, ""
	pl.dead = false
	pl.lifeTicks = 0
	return nil
}

// CurrentNode returns the navigation tile the protagonist stands on.
func (pl *Player) CurrentNode(nav NavLookup) *level.NavNode {
	return nav.TileAt(pl.kin.Pos.X, pl.kin.Pos.Y)
}

// Position returns the current X/Z position.
func (pl *Player) Position() r2.Vec { return pl.kin.Pos }

// Angle returns the facing angle in degrees.
func (pl *Player) Angle() float64 { return pl.kin.Angle }

// Body returns the collision body.
func (pl *Player) Body() collision.Body { return pl.kin.Body() }

// Speed returns the forward and strafe speeds that the next tick will use.
func (pl *Player) Speed() (forward, strafe float64) { return pl.kin.Speed, pl.kin.Strafe }

// Health returns current health.
func (pl *Player) Health() int { return pl.health.Value() }

// HealthState returns the health machine phase.
func (pl *Player) HealthState() state.HealthState { return pl.health.State() }

// Stamina returns current stamina.
func (pl *Player) Stamina() float64 { return pl.stamina.Value() }

// StaminaState returns the stamina machine phase.
func (pl *Player) StaminaState() state.StaminaState { return pl.stamina.State() }

// LifeIndex returns the index of the life being recorded.
func (pl *Player) LifeIndex() int {
	if cur := pl.rec.Current(); cur != nil {
		return cur.Life()
	}
	return 0
}

// LifeTicks returns ticks recorded in the current life.
func (pl *Player) LifeTicks() int { return pl.lifeTicks }

// Distance returns distance travelled in the current life.
func (pl *Player) Distance() float64 { return pl.stride.Total() }

// ExitFound reports whether the protagonist has reached an exit this life.
func (pl *Player) ExitFound() bool { return pl.exitFound }

// ExitID returns the exit reached, if any.
func (pl *Player) ExitID() string { return pl.exitID }

// Dead reports whether the current life ended this tick.
func (pl *Player) Dead() bool { return pl.dead }

// HitThisTick reports hostile contact during the last tick.
func (pl *Player) HitThisTick() bool { return pl.hit }

// AttackedThisTick reports whether the last tick carried an attack.
func (pl *Player) AttackedThisTick() bool { return pl.attacked }

// FootstepThisTick reports whether the last tick fired a footstep.
func (pl *Player) FootstepThisTick() bool { return pl.footstep }

// CurrentLog returns the log being written.
func (pl *Player) CurrentLog() *recorder.LifeLog { return pl.rec.Current() }

// Logs returns every life log so far, in life order. Sealed logs are read-only.
func (pl *Player) Logs() []*recorder.LifeLog { return pl.rec.Logs() }

// SealedLogs returns the logs of completed lives.
func (pl *Player) SealedLogs() []*recorder.LifeLog { return pl.rec.Sealed() }
