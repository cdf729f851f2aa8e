package grass

// Uniform names shared by the grass shaders.
const (
	// Per-frame tier
	UniformTime           = "uTime"
	UniformPlayerPosition = "uPlayerPosition"

	// Per-camera-move tier
	UniformHighDetailDistance   = "uHighDetailDistance"
	UniformMediumDetailDistance = "uMediumDetailDistance"
	UniformCameraMatrix         = "uCameraMatrix"

	UniformBladeTexture = "uBladeTexture"

	// Colour
	UniformBaseColor      = "uBaseColor"
	UniformMiddleColor    = "uMiddleColor"
	UniformTipColor       = "uTipColor"
	UniformColorVariation = "uColorVariation"
	UniformGradientPower  = "uGradientPower"

	// Wind
	UniformWindEnabled      = "uWindEnabled"
	UniformWindDirection    = "uWindDirection"
	UniformWindStrength     = "uWindStrength"
	UniformWindSpeed        = "uWindSpeed"
	UniformWindFrequency    = "uWindFrequency"
	UniformWindTurbulence   = "uWindTurbulence"
	UniformFlappingStrength = "uFlappingStrength"
	UniformFlappingSpeed    = "uFlappingSpeed"
	UniformGustStrength     = "uGustStrength"
	UniformGustScale        = "uGustScale"

	// Specular
	UniformSpecularEnabled  = "uSpecularEnabled"
	UniformSpecularStrength = "uSpecularStrength"
	UniformSpecularPower    = "uSpecularPower"
	UniformSpecularColor    = "uSpecularColor"

	// Sun and moon
	UniformSunEnabled    = "uSunEnabled"
	UniformSunDirection  = "uSunDirection"
	UniformSunColor      = "uSunColor"
	UniformSunIntensity  = "uSunIntensity"
	UniformMoonEnabled   = "uMoonEnabled"
	UniformMoonDirection = "uMoonDirection"
	UniformMoonColor     = "uMoonColor"
	UniformMoonIntensity = "uMoonIntensity"

	// Subsurface scattering
	UniformSSSEnabled  = "uSSSEnabled"
	UniformSSSStrength = "uSSSStrength"
	UniformSSSPower    = "uSSSPower"
	UniformSSSColor    = "uSSSColor"

	// Ambient occlusion
	UniformAOEnabled     = "uAOEnabled"
	UniformAOStrength    = "uAOStrength"
	UniformAOHeightPower = "uAOHeightPower"

	// Environment map
	UniformEnvMapEnabled  = "uEnvMapEnabled"
	UniformEnvMapStrength = "uEnvMapStrength"
	UniformEnvMapTint     = "uEnvMapTint"

	// Anisotropy
	UniformAnisotropyEnabled  = "uAnisotropyEnabled"
	UniformAnisotropyStrength = "uAnisotropyStrength"
	UniformAnisotropyShift    = "uAnisotropyShift"

	// Fog
	UniformFogEnabled = "uFogEnabled"
	UniformFogColor   = "uFogColor"
	UniformFogNear    = "uFogNear"
	UniformFogFar     = "uFogFar"
	UniformFogDensity = "uFogDensity"

	// Player interaction
	UniformInteractionEnabled       = "uInteractionEnabled"
	UniformInteractionRadius        = "uInteractionRadius"
	UniformInteractionStrength      = "uInteractionStrength"
	UniformInteractionHeightFalloff = "uInteractionHeightFalloff"

	// Shape
	UniformBaseLean         = "uBaseLean"
	UniformCurveAmount      = "uCurveAmount"
	UniformBladeHeightScale = "uBladeHeightScale"
	UniformBladeWidthScale  = "uBladeWidthScale"

	// Misc
	UniformAlphaTest       = "uAlphaTest"
	UniformTranslucency    = "uTranslucency"
	UniformAmbientStrength = "uAmbientStrength"
)
