package physics

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/opd-ai/go-rtsphysics/pkg/entity"
	"github.com/opd-ai/go-rtsphysics/pkg/event"
)

func TestFrictionBounds(t *testing.T) {
	w := newTestWorld(0)

	tests := []struct {
		name  string
		base  float32
		extra float32
	}{
		{"defaults", DefaultForwardFriction, 0},
		{"large positive extra", DefaultForwardFriction, 100},
		{"large negative extra", DefaultForwardFriction, -100},
		{"zero base", 0, 0},
		{"base above one", 5, 0},
		{"small negative extra", 0.2, -0.19},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := DefaultModuleData(w.global)
			data.ForwardFriction = tt.base
			data.LateralFriction = tt.base
			data.ZFriction = tt.base
			data.AerodynamicFriction = tt.base
			_, b := w.spawn(t, entity.ObjectSpec{}, data)
			b.SetExtraFriction(tt.extra)

			for name, got := range map[string]float32{
				"forward": b.ForwardFriction(),
				"lateral": b.LateralFriction(),
				"z":       b.ZFriction(),
			} {
				if got < 0.01 || got > 0.99 {
					t.Errorf("%s friction = %v, want within [0.01, 0.99]", name, got)
				}
			}
			if got := b.AerodynamicFriction(); got < 0 || got > 0.99 {
				t.Errorf("aerodynamic friction = %v, want within [0, 0.99]", got)
			}
		})
	}
}

func TestMass_IncludesCargo(t *testing.T) {
	w := newTestWorld(0)
	truck, tb := w.spawn(t, entity.ObjectSpec{Name: "truck"}, nil)
	tb.SetMass(10)
	_, cb := w.spawn(t, entity.ObjectSpec{Name: "crate"}, nil)
	cb.SetMass(3)
	crate := cb.Object()

	hold := entity.NewBasicContain(truck)
	hold.Add(crate)

	if got := tb.Mass(); got != 13 {
		t.Errorf("Mass() = %v, want 13", got)
	}
	hold.Remove(crate)
	if got := tb.Mass(); got != 10 {
		t.Errorf("Mass() after unload = %v, want 10", got)
	}
}

func TestApplyForce_RejectsNaN(t *testing.T) {
	w := newTestWorld(0)
	_, b := w.spawn(t, entity.ObjectSpec{}, nil)

	b.ApplyForce(mgl32.Vec3{1, 0, 0})
	b.ApplyForce(mgl32.Vec3{math32.NaN(), 0, 0})

	if got := b.Acceleration(); got != (mgl32.Vec3{1, 0, 0}) {
		t.Errorf("Acceleration() = %v, want NaN force ignored", got)
	}
}

func TestApplyForce_DividesByMass(t *testing.T) {
	w := newTestWorld(0)
	_, b := w.spawn(t, entity.ObjectSpec{}, nil)
	b.SetMass(4)

	b.ApplyForce(mgl32.Vec3{8, -4, 2})
	if got := b.Acceleration(); !nearVec(got, mgl32.Vec3{2, -1, 0.5}) {
		t.Errorf("Acceleration() = %v, want (2, -1, 0.5)", got)
	}
}

func TestApplyMotiveForce_ProjectsLaterForcesSideways(t *testing.T) {
	w := newTestWorld(0)
	_, b := w.spawn(t, entity.ObjectSpec{Yaw: 0}, nil)

	if got := b.MotiveFrames(); got != 10 {
		t.Fatalf("MotiveFrames() = %d, want 10 at 30 fps", got)
	}

	b.ApplyMotiveForce(mgl32.Vec3{10, 4, 0})
	if !b.IsMotive() {
		t.Fatal("IsMotive() = false after ApplyMotiveForce")
	}
	if got := b.Acceleration(); !nearVec(got, mgl32.Vec3{10, 4, 0}) {
		t.Fatalf("thrust itself was projected: %v", got)
	}

	// Facing +X, only the Y part of a further force survives.
	b.ApplyForce(mgl32.Vec3{10, 4, 0})
	if got := b.Acceleration(); !nearVec(got, mgl32.Vec3{10, 8, 0}) {
		t.Errorf("Acceleration() = %v, want (10, 8, 0)", got)
	}

	w.clock.frame = 10
	if b.IsMotive() {
		t.Error("IsMotive() = true after the window closed")
	}
}

func TestScrubVelocity(t *testing.T) {
	w := newTestWorld(0)
	_, b := w.spawn(t, entity.ObjectSpec{}, nil)

	b.AddVelocity(mgl32.Vec3{3, 4, -6})
	b.ScrubVelocity2D(2.5)
	if got := b.Velocity(); !nearVec(got, mgl32.Vec3{1.5, 2, -6}) {
		t.Errorf("after ScrubVelocity2D(2.5) velocity = %v", got)
	}
	b.ScrubVelocity2D(10)
	if got := b.Velocity(); !nearVec(got, mgl32.Vec3{1.5, 2, -6}) {
		t.Errorf("scrubbing to a higher speed changed velocity: %v", got)
	}
	b.ScrubVelocityZ(-2)
	if got := b.Velocity().Z(); got != -2 {
		t.Errorf("after ScrubVelocityZ(-2) vz = %v", got)
	}
	b.ScrubVelocity2D(0)
	if got := b.Velocity(); got[0] != 0 || got[1] != 0 {
		t.Errorf("after ScrubVelocity2D(0) velocity = %v", got)
	}
	if got := b.VelocityMagnitude(); got != 2 {
		t.Errorf("VelocityMagnitude() = %v, want 2", got)
	}
}

func TestForwardSpeed2D_SignFollowsFacing(t *testing.T) {
	w := newTestWorld(0)
	_, b := w.spawn(t, entity.ObjectSpec{Yaw: 0}, nil)

	b.AddVelocity(mgl32.Vec3{3, 0, 0})
	if got := b.ForwardSpeed2D(); !near(got, 3) {
		t.Errorf("ForwardSpeed2D() = %v, want 3", got)
	}
	b.AddVelocity(mgl32.Vec3{-6, 0, 0})
	if got := b.ForwardSpeed2D(); !near(got, -3) {
		t.Errorf("ForwardSpeed2D() reversing = %v, want -3", got)
	}
}

func TestSetRates_TracksPitchRollYawFlag(t *testing.T) {
	w := newTestWorld(0)
	_, b := w.spawn(t, entity.ObjectSpec{}, nil)

	b.SetYawRate(0.1)
	if b.Flags()&FlagHasPitchRollYaw == 0 {
		t.Fatal("yaw rate did not set the rotation flag")
	}
	b.SetYawRate(0)
	if b.Flags()&FlagHasPitchRollYaw != 0 {
		t.Fatal("rotation flag left set with all rates zero")
	}
	b.SetRollRate(0.2)
	b.ResetDynamicPhysics()
	if b.Flags()&FlagHasPitchRollYaw != 0 || b.RollRate() != 0 {
		t.Error("ResetDynamicPhysics left rotation running")
	}
}

func TestSetAngles_KeepsPosition(t *testing.T) {
	w := newTestWorld(0)
	obj, b := w.spawn(t, entity.ObjectSpec{Position: mgl32.Vec3{3, 4, 5}}, nil)

	b.SetAngles(math32.Pi/2, 0, 0)

	if got := obj.Position(); !nearVec(got, mgl32.Vec3{3, 4, 5}) {
		t.Errorf("position = %v, want unchanged", got)
	}
	if got := obj.UnitDirection2D(); !nearVec(got, mgl32.Vec3{0, 1, 0}) {
		t.Errorf("UnitDirection2D() = %v, want (0,1,0)", got)
	}
}

func TestTransferVelocityTo(t *testing.T) {
	w := newTestWorld(0)
	_, from := w.spawn(t, entity.ObjectSpec{}, nil)
	_, to := w.spawn(t, entity.ObjectSpec{Position: mgl32.Vec3{20, 0, 0}}, nil)
	from.AddVelocity(mgl32.Vec3{1, 2, 0})
	to.AddVelocity(mgl32.Vec3{0, 1, 3})

	from.TransferVelocityTo(to)
	from.TransferVelocityTo(nil)

	if got := to.Velocity(); got != (mgl32.Vec3{1, 3, 3}) {
		t.Errorf("receiver velocity = %v, want (1,3,3)", got)
	}
	if got := from.Velocity(); got != (mgl32.Vec3{1, 2, 0}) {
		t.Errorf("giver velocity = %v, want unchanged", got)
	}
	if !near(to.VelocityMagnitude(), math32.Sqrt(19)) {
		t.Errorf("VelocityMagnitude() = %v, want sqrt(19)", to.VelocityMagnitude())
	}
}

func TestWake_ExternalForceOnly(t *testing.T) {
	w := newTestWorld(0)
	obj, b := w.spawn(t, entity.ObjectSpec{Position: mgl32.Vec3{0, 0, 0.5}}, nil)
	woke := w.record(event.ObjectWoke)

	// A landing notification fires inside Update; a force applied from it
	// must not count as a disturbance.
	inner := &collideRecorder{onHit: func() { b.ApplyForce(mgl32.Vec3{}) }}
	obj.AddCollideModule(inner)
	b.asleep = true

	b.Update()
	if inner.ground != 1 {
		t.Fatalf("ground notifications = %d, want 1", inner.ground)
	}
	if len(*woke) != 0 {
		t.Fatalf("force from inside Update woke the object")
	}

	// Settle, then disturb from outside with a zero force.
	for i := 0; i < 5; i++ {
		if b.Update() == SleepForever {
			break
		}
	}
	if !b.IsAsleep() {
		t.Fatal("object never settled")
	}
	b.ApplyForce(mgl32.Vec3{})
	if b.IsAsleep() {
		t.Error("zero external force did not wake the object")
	}
	if len(*woke) != 1 {
		t.Errorf("woke events = %d, want 1", len(*woke))
	}
}

func TestUpdate_ReentryPanics(t *testing.T) {
	w := newTestWorld(0)
	_, b := w.spawn(t, entity.ObjectSpec{}, nil)
	b.setFlag(FlagIsInUpdate, true)

	defer func() {
		if r := recover(); r != errReentrantUpdate {
			t.Errorf("recover() = %v, want errReentrantUpdate", r)
		}
	}()
	b.Update()
}

func TestUpdate_ClearsInUpdateFlag(t *testing.T) {
	w := newTestWorld(0)
	_, b := w.spawn(t, entity.ObjectSpec{Position: mgl32.Vec3{0, 0, 10}}, nil)
	b.Update()
	if b.Flags()&FlagIsInUpdate != 0 {
		t.Error("in-update flag still set after Update returned")
	}
}
