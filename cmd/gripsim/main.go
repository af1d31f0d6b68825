// Command gripsim runs scripted pick-and-place episodes against the
// built-in physics world. With -rollouts > 1 it runs independent
// simulations in parallel, one engine per instance, and verifies their
// snapshots agree via checksums.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/marblerl/gripsim/internal/core/calibration"
	"github.com/marblerl/gripsim/internal/core/observe"
	"github.com/marblerl/gripsim/internal/core/scene"
	"github.com/marblerl/gripsim/internal/core/sim"
	"github.com/marblerl/gripsim/pkg/generic"
)

const (
	approachStepM  = 0.02
	transportStepM = 0.03
	maxPolicySteps = 200
)

func main() {
	sceneID := flag.Int("scene", 1, "calibrated scene id")
	rollouts := flag.Int("rollouts", 1, "number of parallel rollouts")
	flag.Parse()

	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	checksums := make([]uint64, *rollouts)
	var g errgroup.Group
	for i := 0; i < *rollouts; i++ {
		i := i
		g.Go(func() error {
			sum, err := runEpisode(*sceneID, log.With(zap.Int("rollout", i)))
			if err != nil {
				return err
			}
			checksums[i] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal("rollout failed", zap.Error(err))
	}

	for i := 1; i < *rollouts; i++ {
		if checksums[i] != checksums[0] {
			log.Fatal("rollouts diverged",
				zap.Uint64("expected", checksums[0]),
				zap.Uint64("got", checksums[i]),
				zap.Int("rollout", i),
			)
		}
	}
	log.Info("all rollouts complete", zap.Uint64("final_checksum", checksums[0]))
}

// runEpisode drives one scripted episode: approach the pick object,
// grasp it, carry it over the target zone and release. Returns the
// final snapshot checksum.
func runEpisode(sceneID int, log *zap.Logger) (uint64, error) {
	s, err := sim.New(sim.Config{
		Registry: calibration.NewRegistry(),
		Logger:   log,
	})
	if err != nil {
		return 0, err
	}
	defer func() { _ = s.Close() }()

	snap, err := s.Reset(sceneID)
	if err != nil {
		return 0, err
	}
	log.Info("episode start",
		zap.Int("scene", sceneID),
		zap.Float64("gripper_x", snap.Gripper.X),
		zap.Float64("gripper_y", snap.Gripper.Y),
	)

	phase := "approach"
	for step := 0; step < maxPolicySteps; step++ {
		var action scene.Action
		switch phase {
		case "approach":
			obj, _ := snap.Object(scene.ObjectPickup)
			dx, dy := obj.X-snap.Gripper.X, obj.Y-snap.Gripper.Y
			if math.Hypot(dx, dy) < sim.GraspThresholdM/2 {
				phase = "grasp"
				continue
			}
			action = towards(dx, dy, approachStepM, 0.0)
		case "grasp":
			action = scene.Action{Gripper: 1.0}
			phase = "transport"
		case "transport":
			// The target zone may sit outside the gripper workspace;
			// steer to the closest reachable point instead.
			goalX := generic.Clamp(snap.Target.X, sim.WorkspaceMinX, sim.WorkspaceMaxX)
			goalY := generic.Clamp(snap.Target.Y, sim.WorkspaceMinY, sim.WorkspaceMaxY)
			dx, dy := goalX-snap.Gripper.X, goalY-snap.Gripper.Y
			if math.Hypot(dx, dy) < transportStepM {
				phase = "release"
				continue
			}
			action = towards(dx, dy, transportStepM, 1.0)
		case "release":
			action = scene.Action{Gripper: 0.0}
			phase = "settle"
		case "settle":
			if step%10 == 0 {
				obj, _ := snap.Object(scene.ObjectPickup)
				log.Info("settling",
					zap.Int("step", snap.Step),
					zap.Float64("object_z", obj.Z),
				)
			}
		}

		snap, err = s.Step(action)
		if err != nil {
			return 0, err
		}
	}

	obj, _ := snap.Object(scene.ObjectPickup)
	dist := math.Hypot(obj.X-snap.Target.X, obj.Y-snap.Target.Y)
	log.Info("episode done",
		zap.Int("steps", snap.Step),
		zap.Float64("object_to_target_m", dist),
		zap.String("grasped", string(snap.Grasped)),
	)

	// Render the final observation the downstream model would see.
	m, err := s.Mapper()
	if err != nil {
		return 0, err
	}
	obs := observe.NewBuilder(m, nil, observe.DefaultConfig(), log).Observe(snap)
	log.Info("final observation",
		zap.Int("width", obs.Width),
		zap.Int("height", obs.Height),
		zap.String("prompt", obs.Prompt),
	)
	return snap.Checksum(), nil
}

func towards(dx, dy, stepSize, gripper float64) scene.Action {
	norm := math.Hypot(dx, dy)
	if norm < 1e-9 {
		return scene.Action{Gripper: gripper}
	}
	if norm < stepSize {
		return scene.Action{DeltaX: dx, DeltaY: dy, Gripper: gripper}
	}
	return scene.Action{DeltaX: dx / norm * stepSize, DeltaY: dy / norm * stepSize, Gripper: gripper}
}
