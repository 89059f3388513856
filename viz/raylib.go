package viz

import (
	"fmt"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/orrery-sim/barnes-hut/vec3"
)

// RaylibSink renders the particle cloud as a 3D point scene, the way
// original_source/src/render.c looks down the (radius, radius, radius)
// diagonal at the origin and dims distant points — reimplemented with
// raylib-go's Camera3D and DrawPoint3D instead of raw GL immediate mode.
// A raylib-drawn panel overlays live step/radius/node-count readouts,
// with a raygui button beside it, the way cmd/potentialpreview's preview
// window overlays its own tuning sliders.
type RaylibSink struct {
	width, height int32
	camera        rl.Camera3D

	step      int
	nodeCount int
	paused    bool
}

// NewRaylibSink opens a window sized width x height and points a camera
// down the simulation's diagonal, matching the source's gluLookAt(R, R,
// R, 0, 0, 0, 0, 1, 0) framing.
func NewRaylibSink(width, height int32, radius float64) *RaylibSink {
	rl.InitWindow(width, height, "barnes-hut")
	rl.SetTargetFPS(60)

	r := float32(radius)
	return &RaylibSink{
		width:  width,
		height: height,
		camera: rl.Camera3D{
			Position:   rl.Vector3{X: r, Y: r, Z: r},
			Target:     rl.Vector3{X: 0, Y: 0, Z: 0},
			Up:         rl.Vector3{X: 0, Y: 1, Z: 0},
			Fovy:       45,
			Projection: rl.CameraPerspective,
		},
	}
}

// Render draws every particle as a point, dimmer with distance from the
// camera the way render_point shades its blue channel, and reports
// whether the user closed the window.
func (s *RaylibSink) Render(particles []vec3.Particle, radius float64) bool {
	if rl.WindowShouldClose() {
		return true
	}

	r := float32(radius)
	s.camera.Position = rl.Vector3{X: r, Y: r, Z: r}

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)
	rl.BeginMode3D(s.camera)

	rl.DrawLine3D(rl.Vector3{X: -r, Y: 0, Z: 0}, rl.Vector3{X: r, Y: 0, Z: 0}, rl.Red)
	rl.DrawLine3D(rl.Vector3{X: 0, Y: -r, Z: 0}, rl.Vector3{X: 0, Y: r, Z: 0}, rl.Green)
	rl.DrawLine3D(rl.Vector3{X: 0, Y: 0, Z: -r}, rl.Vector3{X: 0, Y: 0, Z: r}, rl.Blue)

	cam := vec3.Vec3{X: radius, Y: radius, Z: radius}
	denom := 2 * radius
	for _, p := range particles {
		blue := 1 - p.Pos.Dist(cam)/denom
		blue = math.Max(0, math.Min(1, blue))
		rl.DrawPoint3D(rl.Vector3{X: float32(p.Pos.X), Y: float32(p.Pos.Y), Z: float32(p.Pos.Z)},
			rl.Color{R: 0, G: 128, B: uint8(blue * 255), A: 255})
	}

	rl.EndMode3D()
	s.drawOverlay(radius)
	rl.EndDrawing()

	return false
}

// SetStats records the step and tree node count the coordinator computed,
// for the next Render's overlay panel.
func (s *RaylibSink) SetStats(step, nodeCount int) {
	s.step = step
	s.nodeCount = nodeCount
}

// drawOverlay paints a small panel with the run's live stats and a raygui
// Pause/Resume button, the way potentialpreview's window overlays its
// sliders. The button only flips its own label: Render does not read the
// paused state, so the step loop keeps running.
func (s *RaylibSink) drawOverlay(radius float64) {
	const panelX, panelY, panelW, panelH = 10, 10, 220, 90

	rl.DrawRectangle(panelX, panelY, panelW, panelH, rl.Fade(rl.DarkGray, 0.6))
	rl.DrawText("stats", panelX+10, panelY+8, 16, rl.RayWhite)
	rl.DrawText(fmt.Sprintf("step %d", s.step), panelX+10, panelY+30, 16, rl.RayWhite)
	rl.DrawText(fmt.Sprintf("nodes %d", s.nodeCount), panelX+10, panelY+50, 16, rl.RayWhite)
	rl.DrawText(fmt.Sprintf("radius %.1f", radius), panelX+10, panelY+70, 16, rl.RayWhite)

	if gui.Button(rl.Rectangle{X: panelX + panelW + 10, Y: panelY, Width: 90, Height: 30}, toggleLabel(s.paused)) {
		s.paused = !s.paused
	}
}

func toggleLabel(paused bool) string {
	if paused {
		return "Resume"
	}
	return "Pause"
}

// Close releases the window.
func (s *RaylibSink) Close() {
	rl.CloseWindow()
}
