// grasstool is a headless CLI for inspecting grass fields without a GPU.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-grass/internal/config"
	"github.com/Faultbox/midgard-grass/internal/engine/grass"
	"github.com/Faultbox/midgard-grass/internal/engine/terrain"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "generate", "gen":
		cmdGenerate(args)
	case "blade":
		cmdBlade(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`grasstool - procedural grass field utility

Usage:
  grasstool <command> [options]

Commands:
  generate [-config f] [-policy p] [-seed n] [-x x] [-z z] [-workers n]
                                     Generate the field around an anchor and print statistics
  blade [-config f]                  Print blade geometry per LOD tier
  config [-config f] [-o file]       Print or write the effective configuration

Examples:
  grasstool generate -policy grid -x 40 -z -10
  grasstool blade
  grasstool config -o ./config.yaml`)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// loadConfig returns the defaults overlaid with the YAML file at path, if any.
func loadConfig(path string) *config.Config {
	cfg := config.Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			fail(err)
		}
		if err := config.Parse(cfg, data); err != nil {
			fail(fmt.Errorf("parsing %s: %w", path, err))
		}
	}
	if err := cfg.Validate(); err != nil {
		fail(err)
	}
	return cfg
}

// chunkJob is one batch to generate and the footprint it must stay inside.
type chunkJob struct {
	key    grass.ChunkKey
	region grass.Region
	req    grass.GenerateRequest
	batch  *grass.InstanceBatch
}

func cmdGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Config file")
	policy := fs.String("policy", "", "Chunking policy: none, grid, rings")
	seed := fs.Uint64("seed", 0, "Field seed (0 = config)")
	x := fs.Float64("x", 0, "Anchor X")
	z := fs.Float64("z", 0, "Anchor Z")
	workers := fs.Int("workers", runtime.NumCPU(), "Parallel generators")
	fs.Parse(args)

	cfg := loadConfig(*cfgPath)
	opts := cfg.Grass
	if *policy != "" {
		p, err := grass.ParsePolicy(*policy)
		if err != nil {
			fail(err)
		}
		opts.Policy = p
	}
	if *seed != 0 {
		opts.Seed = *seed
	}

	field := terrain.Generate(cfg.Terrain)
	newGenerator := func() *grass.Generator {
		gen := grass.NewGenerator(field.HeightAt)
		gen.ScaleMultiplier = opts.ScaleMultiplier
		gen.ColorJitter = opts.ColorJitter
		return gen
	}

	anchor := mgl32.Vec3{float32(*x), 0, float32(*z)}
	jobs := planJobs(opts, anchor)

	start := time.Now()
	generateJobs(jobs, *workers, newGenerator)
	took := time.Since(start)

	fmt.Printf("Policy:    %s\n", opts.Policy)
	fmt.Printf("Seed:      %d\n", opts.Seed)
	fmt.Printf("Anchor:    (%.1f, %.1f)\n", anchor.X(), anchor.Z())
	fmt.Printf("Chunks:    %d\n", len(jobs))
	fmt.Printf("Generated: %s\n\n", took.Round(time.Microsecond))

	fmt.Printf("%-12s %6s %9s %8s %8s %s\n", "CHUNK", "TIER", "BLADES", "MIN Y", "MAX Y", "CONTAINED")
	var tiers [grass.NumTiers]int
	total, outside := 0, 0
	for _, job := range jobs {
		b := job.batch
		bad := 0
		for _, in := range b.Instances {
			if !job.region.Contains(in.Offset.X(), in.Offset.Z()) {
				bad++
			}
			tiers[in.LOD]++
		}
		total += b.Len()
		outside += bad
		minY, maxY := b.MinY, b.MaxY
		if b.Len() == 0 {
			minY, maxY = 0, 0
		}
		fmt.Printf("%-12s %6s %9d %8.2f %8.2f %s\n", job.key, tierLabel(job), b.Len(), minY, maxY, yesNo(bad == 0))
	}

	fmt.Printf("\nTotal blades: %d\n", total)
	for t := range grass.LODTier(grass.NumTiers) {
		fmt.Printf("  %-6s %9d\n", t, tiers[t])
	}
	if outside > 0 {
		fail(fmt.Errorf("%d blades outside their chunk footprint", outside))
	}
}

// planJobs lists the chunks the policy keeps around anchor, mirroring the
// streaming done by the runtime system.
func planJobs(opts grass.Options, anchor mgl32.Vec3) []chunkJob {
	var jobs []chunkJob
	switch opts.Policy {
	case grass.PolicyNone:
		key := grass.GridKey(0, 0)
		region := grass.NewBox(0, 0, opts.FieldSize)
		jobs = append(jobs, chunkJob{key: key, region: region, req: grass.GenerateRequest{
			Count:            opts.InstanceCount,
			BladesPerCluster: opts.BladesPerCluster,
			Region:           region,
			Seed:             grass.ChunkSeed(opts.Seed, key),
			Tier:             grass.TierHigh,
		}})

	case grass.PolicyGrid:
		cx, cz := grass.GridCell(anchor, opts.ChunkSize)
		center := mgl32.Vec2{anchor.X(), anchor.Z()}
		for _, key := range grass.DesiredGridKeys(cx, cz, opts.ViewRadius, opts.ChunkSize) {
			region := grass.Box{Rect: grass.CellRect(key.X, key.Z, opts.ChunkSize)}
			jobs = append(jobs, chunkJob{key: key, region: region, req: grass.GenerateRequest{
				Count:                opts.ChunkInstanceCount,
				BladesPerCluster:     opts.BladesPerCluster,
				Region:               region,
				Seed:                 grass.ChunkSeed(opts.Seed, key),
				Anchor:               &center,
				HighDetailDistance:   opts.HighDetailDistance,
				MediumDetailDistance: opts.MediumDetailDistance,
			}})
		}

	case grass.PolicyRings:
		for i, ring := range opts.Rings {
			key := grass.RingKey(i)
			region := grass.Annulus{
				CenterX:   anchor.X(),
				CenterZ:   anchor.Z(),
				MinRadius: ring.MinRadius,
				MaxRadius: ring.MaxRadius,
			}
			jobs = append(jobs, chunkJob{key: key, region: region, req: grass.GenerateRequest{
				Count:            grass.RingCount(opts.InstanceCount, ring.Density),
				BladesPerCluster: opts.BladesPerCluster,
				Region:           region,
				Seed:             grass.RingSeed(opts.Seed, i, anchor.X(), anchor.Z(), opts.RecenterDistance/2),
				Tier:             ring.Tier,
			}})
		}
	}
	return jobs
}

// generateJobs fills every job's batch on a pool of workers. Each task gets
// its own generator from newGenerator.
func generateJobs(jobs []chunkJob, workers int, newGenerator func() *grass.Generator) {
	pool := pond.NewPool(max(workers, 1))
	for i := range jobs {
		job := &jobs[i]
		pool.Submit(func() {
			job.batch = newGenerator().Generate(job.req)
		})
	}
	pool.StopAndWait()
}

func tierLabel(job chunkJob) string {
	if job.req.Anchor != nil {
		return "mixed"
	}
	return job.req.Tier.String()
}

func yesNo(ok bool) string {
	if ok {
		return "yes"
	}
	return "NO"
}

func cmdBlade(args []string) {
	fs := flag.NewFlagSet("blade", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Config file")
	fs.Parse(args)

	cfg := loadConfig(*cfgPath)
	variants := grass.NewVariantSet(cfg.Grass.Shape)
	p := variants.Params()
	fmt.Printf("Height %.3f x%.2f, width %.3f -> %.3f, taper %.2f, point %.0f%%\n\n",
		p.Height, p.HeightMultiplier, p.BaseWidth, p.TipWidth, p.TaperPower, p.TipPointPercent*100)

	for t := range grass.LODTier(grass.NumTiers) {
		g := variants.Get(t)
		widths := make([]string, g.Rows())
		for i := range widths {
			widths[i] = fmt.Sprintf("%.3f", g.RowWidth(i))
		}
		fmt.Printf("%-6s segments=%d vertices=%d triangles=%d height=%.3f\n",
			t, g.Segments, len(g.Vertices), len(g.Indices)/3, g.Height)
		fmt.Printf("       widths: %s\n", strings.Join(widths, " "))
	}
}

func cmdConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Config file")
	out := fs.String("o", "", "Write to file instead of stdout")
	fs.Parse(args)

	cfg := loadConfig(*cfgPath)
	if *out != "" {
		if err := cfg.SaveTo(*out); err != nil {
			fail(err)
		}
		fmt.Printf("Wrote %s\n", *out)
		return
	}

	data, err := cfg.Marshal()
	if err != nil {
		fail(err)
	}
	os.Stdout.Write(data)
}
