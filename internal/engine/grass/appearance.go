package grass

import (
	"reflect"

	"github.com/go-gl/mathgl/mgl32"
)

// AppearanceConfig is a snapshot of the tunable shading parameters.
// Nil fields are left untouched when the config is applied, so partial
// configs can be pushed without disturbing other uniforms.
type AppearanceConfig struct {
	BaseColor      *mgl32.Vec3 `yaml:"base_color,omitempty"`
	MiddleColor    *mgl32.Vec3 `yaml:"middle_color,omitempty"`
	TipColor       *mgl32.Vec3 `yaml:"tip_color,omitempty"`
	ColorVariation *float32    `yaml:"color_variation,omitempty"`
	GradientPower  *float32    `yaml:"gradient_power,omitempty"`

	WindEnabled      *bool       `yaml:"wind_enabled,omitempty"`
	WindDirection    *mgl32.Vec3 `yaml:"wind_direction,omitempty"`
	WindStrength     *float32    `yaml:"wind_strength,omitempty"`
	WindSpeed        *float32    `yaml:"wind_speed,omitempty"`
	WindFrequency    *float32    `yaml:"wind_frequency,omitempty"`
	WindTurbulence   *float32    `yaml:"wind_turbulence,omitempty"`
	FlappingStrength *float32    `yaml:"flapping_strength,omitempty"`
	FlappingSpeed    *float32    `yaml:"flapping_speed,omitempty"`
	GustStrength     *float32    `yaml:"gust_strength,omitempty"`
	GustScale        *float32    `yaml:"gust_scale,omitempty"`

	SpecularEnabled  *bool       `yaml:"specular_enabled,omitempty"`
	SpecularStrength *float32    `yaml:"specular_strength,omitempty"`
	SpecularPower    *float32    `yaml:"specular_power,omitempty"`
	SpecularColor    *mgl32.Vec3 `yaml:"specular_color,omitempty"`

	SunEnabled    *bool       `yaml:"sun_enabled,omitempty"`
	SunDirection  *mgl32.Vec3 `yaml:"sun_direction,omitempty"`
	SunColor      *mgl32.Vec3 `yaml:"sun_color,omitempty"`
	SunIntensity  *float32    `yaml:"sun_intensity,omitempty"`
	MoonEnabled   *bool       `yaml:"moon_enabled,omitempty"`
	MoonDirection *mgl32.Vec3 `yaml:"moon_direction,omitempty"`
	MoonColor     *mgl32.Vec3 `yaml:"moon_color,omitempty"`
	MoonIntensity *float32    `yaml:"moon_intensity,omitempty"`

	SSSEnabled  *bool       `yaml:"sss_enabled,omitempty"`
	SSSStrength *float32    `yaml:"sss_strength,omitempty"`
	SSSPower    *float32    `yaml:"sss_power,omitempty"`
	SSSColor    *mgl32.Vec3 `yaml:"sss_color,omitempty"`

	AOEnabled     *bool    `yaml:"ao_enabled,omitempty"`
	AOStrength    *float32 `yaml:"ao_strength,omitempty"`
	AOHeightPower *float32 `yaml:"ao_height_power,omitempty"`

	EnvMapEnabled  *bool       `yaml:"env_map_enabled,omitempty"`
	EnvMapStrength *float32    `yaml:"env_map_strength,omitempty"`
	EnvMapTint     *mgl32.Vec3 `yaml:"env_map_tint,omitempty"`

	AnisotropyEnabled  *bool    `yaml:"anisotropy_enabled,omitempty"`
	AnisotropyStrength *float32 `yaml:"anisotropy_strength,omitempty"`
	AnisotropyShift    *float32 `yaml:"anisotropy_shift,omitempty"`

	FogEnabled *bool       `yaml:"fog_enabled,omitempty"`
	FogColor   *mgl32.Vec3 `yaml:"fog_color,omitempty"`
	FogNear    *float32    `yaml:"fog_near,omitempty"`
	FogFar     *float32    `yaml:"fog_far,omitempty"`
	FogDensity *float32    `yaml:"fog_density,omitempty"`

	InteractionEnabled       *bool    `yaml:"interaction_enabled,omitempty"`
	InteractionRadius        *float32 `yaml:"interaction_radius,omitempty"`
	InteractionStrength      *float32 `yaml:"interaction_strength,omitempty"`
	InteractionHeightFalloff *float32 `yaml:"interaction_height_falloff,omitempty"`

	BaseLean         *float32 `yaml:"base_lean,omitempty"`
	CurveAmount      *float32 `yaml:"curve_amount,omitempty"`
	BladeHeightScale *float32 `yaml:"blade_height_scale,omitempty"`
	BladeWidthScale  *float32 `yaml:"blade_width_scale,omitempty"`

	AlphaTest       *float32 `yaml:"alpha_test,omitempty"`
	Translucency    *float32 `yaml:"translucency,omitempty"`
	AmbientStrength *float32 `yaml:"ambient_strength,omitempty"`
}

// Ptr returns a pointer to v, for building partial configs.
func Ptr[T any](v T) *T { return &v }

// DefaultAppearance returns a fully populated config.
func DefaultAppearance() AppearanceConfig {
	return AppearanceConfig{
		BaseColor:      Ptr(mgl32.Vec3{0.05, 0.2, 0.01}),
		MiddleColor:    Ptr(mgl32.Vec3{0.2, 0.45, 0.05}),
		TipColor:       Ptr(mgl32.Vec3{0.5, 0.7, 0.2}),
		ColorVariation: Ptr[float32](0.15),
		GradientPower:  Ptr[float32](1.2),

		WindEnabled:      Ptr(true),
		WindDirection:    Ptr(mgl32.Vec3{1, 0, 0.3}),
		WindStrength:     Ptr[float32](0.35),
		WindSpeed:        Ptr[float32](1.2),
		WindFrequency:    Ptr[float32](0.08),
		WindTurbulence:   Ptr[float32](0.25),
		FlappingStrength: Ptr[float32](0.05),
		FlappingSpeed:    Ptr[float32](6),
		GustStrength:     Ptr[float32](0.3),
		GustScale:        Ptr[float32](0.02),

		SpecularEnabled:  Ptr(true),
		SpecularStrength: Ptr[float32](0.25),
		SpecularPower:    Ptr[float32](24),
		SpecularColor:    Ptr(mgl32.Vec3{1, 1, 0.9}),

		SunEnabled:    Ptr(true),
		SunDirection:  Ptr(mgl32.Vec3{0.4, 0.8, 0.3}),
		SunColor:      Ptr(mgl32.Vec3{1, 0.95, 0.85}),
		SunIntensity:  Ptr[float32](1),
		MoonEnabled:   Ptr(false),
		MoonDirection: Ptr(mgl32.Vec3{-0.3, 0.7, -0.4}),
		MoonColor:     Ptr(mgl32.Vec3{0.5, 0.6, 0.9}),
		MoonIntensity: Ptr[float32](0.25),

		SSSEnabled:  Ptr(true),
		SSSStrength: Ptr[float32](0.4),
		SSSPower:    Ptr[float32](3),
		SSSColor:    Ptr(mgl32.Vec3{0.6, 0.9, 0.2}),

		AOEnabled:     Ptr(true),
		AOStrength:    Ptr[float32](0.6),
		AOHeightPower: Ptr[float32](1.5),

		EnvMapEnabled:  Ptr(false),
		EnvMapStrength: Ptr[float32](0.2),
		EnvMapTint:     Ptr(mgl32.Vec3{0.6, 0.75, 1}),

		AnisotropyEnabled:  Ptr(false),
		AnisotropyStrength: Ptr[float32](0.3),
		AnisotropyShift:    Ptr[float32](0.1),

		FogEnabled: Ptr(true),
		FogColor:   Ptr(mgl32.Vec3{0.7, 0.8, 0.9}),
		FogNear:    Ptr[float32](40),
		FogFar:     Ptr[float32](140),
		FogDensity: Ptr[float32](0.012),

		InteractionEnabled:       Ptr(true),
		InteractionRadius:        Ptr[float32](1.5),
		InteractionStrength:      Ptr[float32](0.8),
		InteractionHeightFalloff: Ptr[float32](1),

		BaseLean:         Ptr[float32](0.1),
		CurveAmount:      Ptr[float32](0.3),
		BladeHeightScale: Ptr[float32](1),
		BladeWidthScale:  Ptr[float32](1),

		AlphaTest:       Ptr[float32](0.1),
		Translucency:    Ptr[float32](0.3),
		AmbientStrength: Ptr[float32](0.35),
	}
}

// Merge copies every non-nil field of src into c.
func (c *AppearanceConfig) Merge(src *AppearanceConfig) {
	if src == nil {
		return
	}
	dst := reflect.ValueOf(c).Elem()
	from := reflect.ValueOf(src).Elem()
	for i := range from.NumField() {
		f := from.Field(i)
		if f.IsNil() {
			continue
		}
		v := reflect.New(f.Elem().Type())
		v.Elem().Set(f.Elem())
		dst.Field(i).Set(v)
	}
}

// binding writes one config field into a material.
type binding struct {
	name  string
	depth bool // Also written to the depth material
	apply func(c *AppearanceConfig, m Material, name string) bool
}

func floatParam(name string, depth bool, get func(*AppearanceConfig) *float32) binding {
	return binding{name: name, depth: depth, apply: func(c *AppearanceConfig, m Material, name string) bool {
		if v := get(c); v != nil {
			m.SetFloat(name, *v)
			return true
		}
		return false
	}}
}

func boolParam(name string, depth bool, get func(*AppearanceConfig) *bool) binding {
	return binding{name: name, depth: depth, apply: func(c *AppearanceConfig, m Material, name string) bool {
		if v := get(c); v != nil {
			m.SetBool(name, *v)
			return true
		}
		return false
	}}
}

func vec3Param(name string, depth bool, get func(*AppearanceConfig) *mgl32.Vec3) binding {
	return binding{name: name, depth: depth, apply: func(c *AppearanceConfig, m Material, name string) bool {
		if v := get(c); v != nil {
			m.SetVec3(name, *v)
			return true
		}
		return false
	}}
}

// directionParam normalises a direction before writing it.
func directionParam(name string, depth bool, get func(*AppearanceConfig) *mgl32.Vec3) binding {
	return binding{name: name, depth: depth, apply: func(c *AppearanceConfig, m Material, name string) bool {
		v := get(c)
		if v == nil {
			return false
		}
		d := *v
		if d.Len() > 0 {
			d = d.Normalize()
		}
		m.SetVec3(name, d)
		return true
	}}
}

// controlBindings is the per-control-change tier. Only wind, shape and
// alpha-test bindings reach the depth material: nothing else affects a
// depth-only pass.
var controlBindings = []binding{
	vec3Param(UniformBaseColor, false, func(c *AppearanceConfig) *mgl32.Vec3 { return c.BaseColor }),
	vec3Param(UniformMiddleColor, false, func(c *AppearanceConfig) *mgl32.Vec3 { return c.MiddleColor }),
	vec3Param(UniformTipColor, false, func(c *AppearanceConfig) *mgl32.Vec3 { return c.TipColor }),
	floatParam(UniformColorVariation, false, func(c *AppearanceConfig) *float32 { return c.ColorVariation }),
	floatParam(UniformGradientPower, false, func(c *AppearanceConfig) *float32 { return c.GradientPower }),

	boolParam(UniformWindEnabled, true, func(c *AppearanceConfig) *bool { return c.WindEnabled }),
	directionParam(UniformWindDirection, true, func(c *AppearanceConfig) *mgl32.Vec3 { return c.WindDirection }),
	floatParam(UniformWindStrength, true, func(c *AppearanceConfig) *float32 { return c.WindStrength }),
	floatParam(UniformWindSpeed, true, func(c *AppearanceConfig) *float32 { return c.WindSpeed }),
	floatParam(UniformWindFrequency, true, func(c *AppearanceConfig) *float32 { return c.WindFrequency }),
	floatParam(UniformWindTurbulence, true, func(c *AppearanceConfig) *float32 { return c.WindTurbulence }),
	floatParam(UniformFlappingStrength, true, func(c *AppearanceConfig) *float32 { return c.FlappingStrength }),
	floatParam(UniformFlappingSpeed, true, func(c *AppearanceConfig) *float32 { return c.FlappingSpeed }),
	floatParam(UniformGustStrength, true, func(c *AppearanceConfig) *float32 { return c.GustStrength }),
	floatParam(UniformGustScale, true, func(c *AppearanceConfig) *float32 { return c.GustScale }),

	boolParam(UniformSpecularEnabled, false, func(c *AppearanceConfig) *bool { return c.SpecularEnabled }),
	floatParam(UniformSpecularStrength, false, func(c *AppearanceConfig) *float32 { return c.SpecularStrength }),
	floatParam(UniformSpecularPower, false, func(c *AppearanceConfig) *float32 { return c.SpecularPower }),
	vec3Param(UniformSpecularColor, false, func(c *AppearanceConfig) *mgl32.Vec3 { return c.SpecularColor }),

	boolParam(UniformSunEnabled, false, func(c *AppearanceConfig) *bool { return c.SunEnabled }),
	directionParam(UniformSunDirection, false, func(c *AppearanceConfig) *mgl32.Vec3 { return c.SunDirection }),
	vec3Param(UniformSunColor, false, func(c *AppearanceConfig) *mgl32.Vec3 { return c.SunColor }),
	floatParam(UniformSunIntensity, false, func(c *AppearanceConfig) *float32 { return c.SunIntensity }),
	boolParam(UniformMoonEnabled, false, func(c *AppearanceConfig) *bool { return c.MoonEnabled }),
	directionParam(UniformMoonDirection, false, func(c *AppearanceConfig) *mgl32.Vec3 { return c.MoonDirection }),
	vec3Param(UniformMoonColor, false, func(c *AppearanceConfig) *mgl32.Vec3 { return c.MoonColor }),
	floatParam(UniformMoonIntensity, false, func(c *AppearanceConfig) *float32 { return c.MoonIntensity }),

	boolParam(UniformSSSEnabled, false, func(c *AppearanceConfig) *bool { return c.SSSEnabled }),
	floatParam(UniformSSSStrength, false, func(c *AppearanceConfig) *float32 { return c.SSSStrength }),
	floatParam(UniformSSSPower, false, func(c *AppearanceConfig) *float32 { return c.SSSPower }),
	vec3Param(UniformSSSColor, false, func(c *AppearanceConfig) *mgl32.Vec3 { return c.SSSColor }),

	boolParam(UniformAOEnabled, false, func(c *AppearanceConfig) *bool { return c.AOEnabled }),
	floatParam(UniformAOStrength, false, func(c *AppearanceConfig) *float32 { return c.AOStrength }),
	floatParam(UniformAOHeightPower, false, func(c *AppearanceConfig) *float32 { return c.AOHeightPower }),

	boolParam(UniformEnvMapEnabled, false, func(c *AppearanceConfig) *bool { return c.EnvMapEnabled }),
	floatParam(UniformEnvMapStrength, false, func(c *AppearanceConfig) *float32 { return c.EnvMapStrength }),
	vec3Param(UniformEnvMapTint, false, func(c *AppearanceConfig) *mgl32.Vec3 { return c.EnvMapTint }),

	boolParam(UniformAnisotropyEnabled, false, func(c *AppearanceConfig) *bool { return c.AnisotropyEnabled }),
	floatParam(UniformAnisotropyStrength, false, func(c *AppearanceConfig) *float32 { return c.AnisotropyStrength }),
	floatParam(UniformAnisotropyShift, false, func(c *AppearanceConfig) *float32 { return c.AnisotropyShift }),

	boolParam(UniformFogEnabled, false, func(c *AppearanceConfig) *bool { return c.FogEnabled }),
	vec3Param(UniformFogColor, false, func(c *AppearanceConfig) *mgl32.Vec3 { return c.FogColor }),
	floatParam(UniformFogNear, false, func(c *AppearanceConfig) *float32 { return c.FogNear }),
	floatParam(UniformFogFar, false, func(c *AppearanceConfig) *float32 { return c.FogFar }),
	floatParam(UniformFogDensity, false, func(c *AppearanceConfig) *float32 { return c.FogDensity }),

	boolParam(UniformInteractionEnabled, false, func(c *AppearanceConfig) *bool { return c.InteractionEnabled }),
	floatParam(UniformInteractionRadius, false, func(c *AppearanceConfig) *float32 { return c.InteractionRadius }),
	floatParam(UniformInteractionStrength, false, func(c *AppearanceConfig) *float32 { return c.InteractionStrength }),
	floatParam(UniformInteractionHeightFalloff, false, func(c *AppearanceConfig) *float32 { return c.InteractionHeightFalloff }),

	floatParam(UniformBaseLean, true, func(c *AppearanceConfig) *float32 { return c.BaseLean }),
	floatParam(UniformCurveAmount, true, func(c *AppearanceConfig) *float32 { return c.CurveAmount }),
	floatParam(UniformBladeHeightScale, true, func(c *AppearanceConfig) *float32 { return c.BladeHeightScale }),
	floatParam(UniformBladeWidthScale, true, func(c *AppearanceConfig) *float32 { return c.BladeWidthScale }),

	floatParam(UniformAlphaTest, true, func(c *AppearanceConfig) *float32 { return c.AlphaTest }),
	floatParam(UniformTranslucency, false, func(c *AppearanceConfig) *float32 { return c.Translucency }),
	floatParam(UniformAmbientStrength, false, func(c *AppearanceConfig) *float32 { return c.AmbientStrength }),
}

// Pipeline pushes appearance state into the shared materials, split by
// update frequency.
type Pipeline struct {
	color Material
	depth Material
}

// NewPipeline returns a pipeline writing to color and depth. Either may be nil.
func NewPipeline(color, depth Material) *Pipeline {
	return &Pipeline{color: color, depth: depth}
}

// SetMaterials retargets the pipeline.
func (p *Pipeline) SetMaterials(color, depth Material) {
	p.color = color
	p.depth = depth
}

// Ready reports whether at least the colour material is present.
func (p *Pipeline) Ready() bool {
	return p.color != nil
}

// UpdateFrame writes the per-frame tier.
func (p *Pipeline) UpdateFrame(elapsed float32, anchor mgl32.Vec3) {
	for _, m := range [2]Material{p.color, p.depth} {
		if m == nil {
			continue
		}
		m.SetFloat(UniformTime, elapsed)
		m.SetVec3(UniformPlayerPosition, anchor)
	}
}

// UpdateCamera writes the per-camera-move tier.
func (p *Pipeline) UpdateCamera(high, medium float32, cameraWorld mgl32.Mat4) {
	if p.color == nil {
		return
	}
	p.color.SetFloat(UniformHighDetailDistance, high)
	p.color.SetFloat(UniformMediumDetailDistance, medium)
	p.color.SetMat4(UniformCameraMatrix, cameraWorld)
}

// ApplyControls writes the per-control-change tier. Only non-nil fields are
// written. Returns the number of uniform writes issued.
func (p *Pipeline) ApplyControls(cfg *AppearanceConfig) int {
	if cfg == nil {
		return 0
	}
	writes := 0
	for _, b := range controlBindings {
		if p.color != nil && b.apply(cfg, p.color, b.name) {
			writes++
		}
		if b.depth && p.depth != nil && b.apply(cfg, p.depth, b.name) {
			writes++
		}
	}
	return writes
}

// ControlUniformNames returns the uniform names of the control tier; the
// depth flag selects the depth-pass subset.
func ControlUniformNames(depth bool) []string {
	var names []string
	for _, b := range controlBindings {
		if !depth || b.depth {
			names = append(names, b.name)
		}
	}
	return names
}
