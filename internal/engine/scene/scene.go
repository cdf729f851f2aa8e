// Package scene renders the grass field demo: a heightfield ground, the
// instanced grass chunks and a directional shadow map shared by both.
package scene

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-grass/internal/engine/grass"
	"github.com/Faultbox/midgard-grass/internal/engine/scene/shaders"
	"github.com/Faultbox/midgard-grass/internal/engine/shader"
	"github.com/Faultbox/midgard-grass/internal/engine/shadow"
	"github.com/Faultbox/midgard-grass/internal/engine/terrain"
	"github.com/Faultbox/midgard-grass/internal/logger"
)

// Config contains scene configuration options.
type Config struct {
	Width            int32
	Height           int32
	ShadowResolution int32
	ShadowsEnabled   bool
	// ShadowRadius is the half extent of the shadowed area around the focus.
	ShadowRadius float32
}

// DefaultConfig returns a default scene configuration.
func DefaultConfig() Config {
	return Config{
		Width:            1280,
		Height:           720,
		ShadowResolution: DefaultShadowResolution,
		ShadowsEnabled:   true,
		ShadowRadius:     60,
	}
}

// Scene owns every renderer of the demo.
type Scene struct {
	config Config

	// Renderers
	terrainRenderer *TerrainRenderer
	grassRenderer   *GrassRenderer
	boundsRenderer  *BoundsRenderer

	// Shadow mapping
	shadowMap     *ShadowMap
	shadowProgram *shader.Program
	lightViewProj mgl32.Mat4

	// Lighting
	Lighting       TerrainLighting
	ShadowsEnabled bool

	// ShowBounds draws the bounding box of every grass chunk.
	ShowBounds bool
}

// New creates a new scene with the given configuration.
func New(cfg Config) (*Scene, error) {
	s := &Scene{
		config:         cfg,
		ShadowsEnabled: cfg.ShadowsEnabled,
		lightViewProj:  mgl32.Ident4(),
		Lighting: TerrainLighting{
			GroundColor: mgl32.Vec3{0.2, 0.28, 0.1},
			LightDir:    mgl32.Vec3{0.4, 0.8, 0.3}.Normalize(),
			LightColor:  mgl32.Vec3{1, 1, 1},
			Ambient:     0.35,
		},
	}

	if cfg.ShadowsEnabled {
		sm, err := NewShadowMap(cfg.ShadowResolution)
		if err != nil {
			logger.Warn("shadows disabled", zap.Error(err))
			s.ShadowsEnabled = false
		} else {
			s.shadowMap = sm
		}
	}

	program, err := shader.NewProgram("shadow", shaders.ShadowVertexShader, shaders.ShadowFragmentShader)
	if err != nil {
		s.Destroy()
		return nil, fmt.Errorf("creating shadow shader: %w", err)
	}
	s.shadowProgram = program
	s.shadowProgram.SetMat4("uModel", mgl32.Ident4())

	s.terrainRenderer, err = NewTerrainRenderer()
	if err != nil {
		s.Destroy()
		return nil, fmt.Errorf("creating terrain renderer: %w", err)
	}
	s.grassRenderer = NewGrassRenderer()

	s.boundsRenderer, err = NewBoundsRenderer()
	if err != nil {
		s.Destroy()
		return nil, fmt.Errorf("creating bounds renderer: %w", err)
	}

	return s, nil
}

// Grass returns the renderer grass chunks are allocated from and attached to.
func (s *Scene) Grass() *GrassRenderer {
	return s.grassRenderer
}

// LoadTerrain uploads the ground mesh.
func (s *Scene) LoadTerrain(mesh *terrain.Mesh) error {
	if err := s.terrainRenderer.LoadMesh(mesh); err != nil {
		return fmt.Errorf("loading terrain: %w", err)
	}
	logger.Info("terrain loaded",
		zap.Int("vertices", len(mesh.Vertices)),
		zap.Int("triangles", len(mesh.Indices)/3),
	)
	return nil
}

// SetAppearance derives the ground lighting and fog from the grass
// appearance so both surfaces are lit alike.
func (s *Scene) SetAppearance(app grass.AppearanceConfig) {
	l := &s.Lighting
	if app.SunDirection != nil && app.SunDirection.Len() > 0 {
		l.LightDir = app.SunDirection.Normalize()
	}
	if app.SunColor != nil {
		intensity := float32(1)
		if app.SunIntensity != nil {
			intensity = *app.SunIntensity
		}
		if app.SunEnabled != nil && !*app.SunEnabled {
			intensity = 0
		}
		l.LightColor = app.SunColor.Mul(intensity)
	}
	if app.AmbientStrength != nil {
		l.Ambient = *app.AmbientStrength
	}
	if app.FogEnabled != nil {
		l.FogEnabled = *app.FogEnabled
	}
	if app.FogColor != nil {
		l.FogColor = *app.FogColor
	}
	if app.FogNear != nil {
		l.FogNear = *app.FogNear
	}
	if app.FogFar != nil {
		l.FogFar = *app.FogFar
	}
}

// Render draws one frame into the bound framebuffer. Shadows follow focus.
func (s *Scene) Render(view, proj mgl32.Mat4, cameraPos, focus mgl32.Vec3) {
	viewProj := proj.Mul4(view)

	shadows := s.ShadowsEnabled && s.shadowMap.IsValid()
	if shadows {
		s.lightViewProj = shadow.FollowLightMatrix(s.Lighting.LightDir, focus, s.config.ShadowRadius, s.shadowMap.Resolution)
		s.renderShadowPass()
	}

	// Enable depth testing
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)

	var shadowTex uint32
	if shadows {
		shadowTex = s.shadowMap.DepthTexture
	}
	s.terrainRenderer.Render(viewProj, s.lightViewProj, cameraPos, s.Lighting, shadowTex)
	s.grassRenderer.Render(viewProj, s.lightViewProj, shadowTex, shadows)

	if s.ShowBounds {
		s.boundsRenderer.Render(viewProj, s.grassRenderer, mgl32.Vec3{1, 0.85, 0.2})
	}
}

func (s *Scene) renderShadowPass() {
	s.shadowMap.Bind()

	s.shadowProgram.SetMat4("uLightViewProj", s.lightViewProj)
	s.shadowProgram.Use()
	s.terrainRenderer.RenderShadow()

	s.grassRenderer.RenderDepth(s.lightViewProj)

	s.shadowMap.Unbind()
}

// LightViewProj returns the light matrix used by the last frame.
func (s *Scene) LightViewProj() mgl32.Mat4 {
	return s.lightViewProj
}

// Resize updates the scene dimensions.
func (s *Scene) Resize(width, height int32) {
	if width == s.config.Width && height == s.config.Height {
		return
	}
	s.config.Width = width
	s.config.Height = height
}

// Aspect returns the viewport aspect ratio.
func (s *Scene) Aspect() float32 {
	if s.config.Height <= 0 {
		return 1
	}
	return float32(s.config.Width) / float32(s.config.Height)
}

// Destroy releases all resources. Grass meshes still attached are destroyed too.
func (s *Scene) Destroy() {
	if s.grassRenderer != nil {
		s.grassRenderer.Destroy()
	}
	if s.terrainRenderer != nil {
		s.terrainRenderer.Destroy()
	}
	if s.boundsRenderer != nil {
		s.boundsRenderer.Destroy()
	}
	if s.shadowMap != nil {
		s.shadowMap.Destroy()
	}
	if s.shadowProgram != nil {
		s.shadowProgram.Delete()
	}
}
