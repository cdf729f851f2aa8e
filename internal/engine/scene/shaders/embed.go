// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// GrassVertexShader bends and places one instanced blade.
//
//go:embed grass.vert
var GrassVertexShader string

// GrassFragmentShader shades grass blades.
//
//go:embed grass.frag
var GrassFragmentShader string

// GrassDepthVertexShader is the shadow-casting variant of the grass vertex shader.
//
//go:embed grass_depth.vert
var GrassDepthVertexShader string

// GrassDepthFragmentShader discards alpha-tested texels during the depth pass.
//
//go:embed grass_depth.frag
var GrassDepthFragmentShader string

// TerrainVertexShader is the vertex shader for terrain rendering.
//
//go:embed terrain.vert
var TerrainVertexShader string

// TerrainFragmentShader is the fragment shader for terrain rendering.
//
//go:embed terrain.frag
var TerrainFragmentShader string

// ShadowVertexShader writes terrain depth into the shadow map.
//
//go:embed shadow.vert
var ShadowVertexShader string

// ShadowFragmentShader is the empty fragment stage of the shadow pass.
//
//go:embed shadow.frag
var ShadowFragmentShader string

// LinesVertexShader draws debug line lists.
//
//go:embed lines.vert
var LinesVertexShader string

// LinesFragmentShader fills debug lines with a flat colour.
//
//go:embed lines.frag
var LinesFragmentShader string
