// Package game implements the demo frame loop: walk a player anchor over
// generated terrain while the grass field streams around it.
package game

import (
	"fmt"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-grass/internal/assets"
	"github.com/Faultbox/midgard-grass/internal/config"
	"github.com/Faultbox/midgard-grass/internal/engine/camera"
	"github.com/Faultbox/midgard-grass/internal/engine/debug"
	"github.com/Faultbox/midgard-grass/internal/engine/grass"
	"github.com/Faultbox/midgard-grass/internal/engine/input"
	"github.com/Faultbox/midgard-grass/internal/engine/lighting"
	"github.com/Faultbox/midgard-grass/internal/engine/picking"
	"github.com/Faultbox/midgard-grass/internal/engine/renderer"
	"github.com/Faultbox/midgard-grass/internal/engine/scene"
	"github.com/Faultbox/midgard-grass/internal/engine/terrain"
	"github.com/Faultbox/midgard-grass/internal/engine/window"
	"github.com/Faultbox/midgard-grass/internal/game/world"
	"github.com/Faultbox/midgard-grass/internal/logger"
)

// Title is the window title.
const Title = "Midgard Grass"

// Game is the main game instance.
type Game struct {
	config  *config.Config
	running bool

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	assets   *assets.Manager

	scene   *scene.Scene
	field   *terrain.Heightfield
	grass   *grass.System
	player  *world.Player
	camera  *camera.FollowCamera
	shots   *debug.ScreenshotCapture
	fpsCap  time.Duration
	elapsed float64

	glErrorLogged bool
	captureNext   bool
}

// New creates a new game instance.
func New(cfg *config.Config) (*Game, error) {
	logger.Info("initializing game",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
		zap.String("policy", string(cfg.Grass.Policy)),
	)

	g := &Game{
		config: cfg,
		input:  input.New(),
		assets: assets.NewManager(),
		shots:  debug.NewScreenshotCapture("screenshots", "grass"),
	}
	if cfg.Graphics.FPSLimit > 0 {
		g.fpsCap = time.Second / time.Duration(cfg.Graphics.FPSLimit)
	}

	// Create window (this also creates OpenGL context)
	var err error
	g.window, err = window.New(window.Config{
		Title:      Title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Create renderer (AFTER window, since OpenGL context must exist)
	width, height := g.window.DrawableSize()
	g.renderer, err = renderer.New(renderer.Config{
		Width:    width,
		Height:   height,
		VSync:    cfg.Graphics.VSync,
		SkyColor: skyColor(cfg.Appearance),
	})
	if err != nil {
		g.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	if err := g.loadWorld(width, height); err != nil {
		g.Close()
		return nil, err
	}

	logger.Info("game initialized successfully")
	return g, nil
}

func (g *Game) loadWorld(width, height int) error {
	cfg := g.config

	// Asset roots: the working directory, then the user config dir on top
	for _, dir := range []string{".", config.ConfigDir()} {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := g.assets.AddDir(dir); err != nil {
			logger.Warn("asset root skipped", zap.String("dir", dir), zap.Error(err))
		}
	}

	sceneCfg := scene.DefaultConfig()
	sceneCfg.Width = int32(width)
	sceneCfg.Height = int32(height)
	sceneCfg.ShadowResolution = int32(cfg.Graphics.ShadowMapSize)
	sceneCfg.ShadowsEnabled = cfg.Graphics.ShadowMapSize > 0
	sceneCfg.ShadowRadius = cfg.Grass.HighDetailDistance * 2

	var err error
	g.scene, err = scene.New(sceneCfg)
	if err != nil {
		return fmt.Errorf("creating scene: %w", err)
	}

	start := time.Now()
	g.field = terrain.Generate(cfg.Terrain)
	if err := g.scene.LoadTerrain(terrain.BuildMesh(g.field)); err != nil {
		return err
	}
	logger.Debug("terrain generated",
		zap.Int64("seed", cfg.Terrain.Seed),
		zap.Duration("took", time.Since(start)),
	)

	g.grass, err = grass.New(cfg.Grass, g.scene.Grass(), g.scene.Grass(), g.field.HeightAt, g.assets.Load)
	if err != nil {
		return fmt.Errorf("creating grass: %w", err)
	}
	g.grass.ApplyControls(&cfg.Appearance)
	g.scene.SetAppearance(g.grass.Appearance())

	g.player = world.NewPlayer(cfg.Player.StartX, cfg.Player.StartZ, g.field.HeightAt)
	if cfg.Player.Speed > 0 {
		g.player.Speed = cfg.Player.Speed
	}
	g.player.Extent = g.field.Extent()
	g.player.AutoWalk = cfg.Player.AutoWalk
	g.player.WalkRadius = cfg.Player.WalkRadius

	g.camera = camera.NewFollowCamera()
	g.camera.FOV = cfg.Camera.FOV
	g.camera.Near = cfg.Camera.Near
	g.camera.Far = cfg.Camera.Far
	g.camera.Distance = cfg.Camera.Distance
	g.camera.Pitch = cfg.Camera.Pitch
	if cfg.Player.EyeHeight > 0 {
		g.camera.LookHeight = cfg.Player.EyeHeight
	}
	return nil
}

// Run starts the main game loop.
func (g *Game) Run() error {
	g.running = true

	// Timing
	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	logger.Info("starting game loop")

	for g.running {
		frameStart := time.Now()

		// Calculate delta time
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		// 1. Process input
		if g.input.Update() {
			// Quit event received
			g.running = false
			break
		}
		g.handleEvents()

		// 2. Update game state
		g.update(dt)

		// 3. Render
		if err := g.render(); err != nil {
			return fmt.Errorf("render error: %w", err)
		}

		// 4. Present (swap buffers)
		g.window.SwapBuffers()

		// FPS counter
		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			g.logStats(frameCount, dt)
			frameCount = 0
			fpsTimer = time.Now()
		}

		if g.fpsCap > 0 {
			if rest := g.fpsCap - time.Since(frameStart); rest > 0 {
				time.Sleep(rest)
			}
		}
	}

	return nil
}

func (g *Game) handleEvents() {
	for _, event := range g.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			width, height := g.window.DrawableSize()
			g.renderer.Resize(width, height)
			g.scene.Resize(int32(width), int32(height))
		case input.EventKeyDown:
			if !event.Repeat {
				g.handleKey(event.Key)
			}
		case input.EventMouseDown:
			if event.Button == sdl.BUTTON_RIGHT {
				g.walkTo(event.MouseX, event.MouseY)
			}
		}
	}

	if dx, dy := g.input.MouseDrag(); dx != 0 || dy != 0 {
		g.camera.HandleDrag(dx, dy)
	}
	if wheel := g.input.MouseWheel(); wheel != 0 {
		g.camera.HandleZoom(wheel)
	}
}

func (g *Game) handleKey(key sdl.Scancode) {
	switch key {
	case sdl.SCANCODE_ESCAPE:
		g.running = false

	case sdl.SCANCODE_R:
		g.grass.RequestRegenerate()
		logger.Info("grass regeneration requested")

	case sdl.SCANCODE_P:
		opts := g.grass.Options()
		opts.Policy = opts.Policy.Next()
		if err := g.grass.SetOptions(opts); err != nil {
			logger.Warn("policy switch rejected", zap.Error(err))
			return
		}
		logger.Info("chunking policy", zap.String("policy", string(opts.Policy)))

	case sdl.SCANCODE_T:
		on := !boolValue(g.grass.Appearance().WindEnabled)
		g.grass.ApplyControls(&grass.AppearanceConfig{WindEnabled: grass.Ptr(on)})
		logger.Info("wind toggled", zap.Bool("enabled", on))

	case sdl.SCANCODE_F:
		on := !boolValue(g.grass.Appearance().FogEnabled)
		g.grass.ApplyControls(&grass.AppearanceConfig{FogEnabled: grass.Ptr(on)})
		g.scene.SetAppearance(g.grass.Appearance())
		logger.Info("fog toggled", zap.Bool("enabled", on))

	case sdl.SCANCODE_G:
		g.scene.ShadowsEnabled = !g.scene.ShadowsEnabled
		logger.Info("shadows toggled", zap.Bool("enabled", g.scene.ShadowsEnabled))

	case sdl.SCANCODE_B:
		g.scene.ShowBounds = !g.scene.ShowBounds

	case sdl.SCANCODE_LEFTBRACKET, sdl.SCANCODE_RIGHTBRACKET:
		delta := float32(15)
		if key == sdl.SCANCODE_LEFTBRACKET {
			delta = -delta
		}
		sun := sunDirection(g.grass.Appearance())
		g.grass.ApplyControls(&grass.AppearanceConfig{SunDirection: grass.Ptr(lighting.Orbit(sun, delta))})
		g.scene.SetAppearance(g.grass.Appearance())

	case sdl.SCANCODE_F12:
		g.captureNext = true

	case sdl.SCANCODE_SPACE:
		g.player.AutoWalk = !g.player.AutoWalk
		if g.player.AutoWalk && g.player.WalkRadius <= 0 {
			g.player.WalkRadius = mgl32.Vec2{g.player.Position.X(), g.player.Position.Z()}.Len()
		}
	}
}

// update updates game state.
func (g *Game) update(dt float64) {
	g.elapsed += dt

	// Camera-relative WASD / arrows
	forward := g.input.Axis(sdl.SCANCODE_S, sdl.SCANCODE_W) + g.input.Axis(sdl.SCANCODE_DOWN, sdl.SCANCODE_UP)
	strafe := g.input.Axis(sdl.SCANCODE_A, sdl.SCANCODE_D) + g.input.Axis(sdl.SCANCODE_LEFT, sdl.SCANCODE_RIGHT)
	fx, fz := g.camera.ForwardDirection()
	rx, rz := g.camera.RightDirection()
	g.player.Update(float32(dt), fx*forward+rx*strafe, fz*forward+rz*strafe)

	anchor := g.player.Position
	g.grass.Update(dt, anchor, g.camera.WorldMatrix(anchor))
}

// render draws the current frame.
func (g *Game) render() error {
	// Begin frame
	g.renderer.Begin()

	anchor := g.player.Position
	view := g.camera.ViewMatrix(anchor)
	proj := g.camera.Projection(g.scene.Aspect())
	g.scene.Render(view, proj, g.camera.Position(anchor), anchor)

	if g.captureNext {
		g.captureNext = false
		pixels, w, h := g.renderer.ReadPixels()
		if _, err := g.shots.CaptureFromPixels(pixels, w, h); err != nil {
			logger.Warn("screenshot failed", zap.Error(err))
		}
	}

	// End frame
	if err := g.renderer.End(); err != nil && !g.glErrorLogged {
		logger.Warn("frame finished with a GL error", zap.Error(err))
		g.glErrorLogged = true
	}
	return nil
}

// walkTo sets the player destination to the ground under a window position.
func (g *Game) walkTo(x, y int) {
	anchor := g.player.Position
	viewProj := g.camera.Projection(g.scene.Aspect()).Mul4(g.camera.ViewMatrix(anchor))
	w, h := g.window.GetSize()
	ray := picking.ScreenToRay(float32(x), float32(y), float32(w), float32(h), viewProj.Inv())

	hit, ok := ray.IntersectGround(g.field.HeightAt, g.camera.Far, 0.5)
	if !ok {
		return
	}
	g.player.SetDestination(hit.X(), hit.Z())
	logger.Debug("walking to", zap.Float32("x", hit.X()), zap.Float32("z", hit.Z()))
}

func (g *Game) logStats(frames int, dt float64) {
	st := g.grass.Stats()
	drawn, culled, instances := g.scene.Grass().DrawStats()
	fields := []zap.Field{
		zap.Int("fps", frames),
		zap.String("frame", fmt.Sprintf("%.2fms", dt*1000)),
		zap.String("policy", string(st.Policy)),
		zap.Int("chunks", st.Active),
		zap.Int("pooled", st.Pooled),
		zap.Int("drawn", drawn),
		zap.Int("culled", culled),
		zap.Int("instances", instances),
		zap.Stringer("texture", st.TextureState),
	}
	if g.config.Graphics.ShowStats {
		logger.Info("frame stats", fields...)
	} else {
		logger.Debug("frame stats", fields...)
	}
	g.window.SetTitle(fmt.Sprintf("%s | %d fps | %s | %d blades", Title, frames, st.Policy, instances))
}

// Close cleans up game resources.
func (g *Game) Close() {
	logger.Info("closing game")

	if g.grass != nil {
		g.grass.Close()
	}
	if g.scene != nil {
		g.scene.Destroy()
	}
	if g.renderer != nil {
		g.renderer.Close()
	}
	if g.window != nil {
		g.window.Close()
	}
	g.assets.Close()
}

func skyColor(app grass.AppearanceConfig) mgl32.Vec3 {
	if app.FogColor != nil {
		return *app.FogColor
	}
	return mgl32.Vec3{0.55, 0.7, 0.85}
}

func sunDirection(app grass.AppearanceConfig) mgl32.Vec3 {
	if app.SunDirection != nil {
		return *app.SunDirection
	}
	return lighting.SunDirection(45, 50)
}

func boolValue(b *bool) bool {
	return b != nil && *b
}
