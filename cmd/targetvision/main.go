package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/frc2554/targetvision/internal/app"
	"github.com/frc2554/targetvision/internal/capture"
	"github.com/frc2554/targetvision/internal/config"
	"github.com/frc2554/targetvision/internal/overlay"
	"github.com/frc2554/targetvision/internal/pipeline"
	"github.com/frc2554/targetvision/internal/server"
	"github.com/frc2554/targetvision/internal/store"
	"github.com/frc2554/targetvision/internal/telemetry"
	"github.com/frc2554/targetvision/internal/tray"
)

func main() {
	var (
		visionPath = flag.String("vision", "", "pipeline tuning JSON file")
		stylePath  = flag.String("style", "", "overlay style JSON file")
		dbPath     = flag.String("db", "", "dashboard database (default ~/.targetvision/targetvision.db)")
		addr       = flag.String("addr", ":5800", "dashboard listen address, empty to disable")
		staticDir  = flag.String("static", "", "dashboard static files (default: search for web/)")
		cameraName = flag.String("camera", "", "camera to process (default: first configured)")
		images     = flag.String("images", "", "replay image file or directory instead of a camera")
		useTray    = flag.Bool("tray", false, "show a system tray")
		debug      = flag.Bool("debug", false, "log every result")
		once       = flag.String("once", "", "process one image, print the result as JSON and exit")
		out        = flag.String("out", "", "with -once, write the annotated frame here")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [config-file]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	visionCfg, err := config.LoadVision(*visionPath)
	if err != nil {
		log.Fatalf("Failed to load vision config: %v", err)
	}
	style, err := config.LoadStyle(*stylePath)
	if err != nil {
		log.Fatalf("Failed to load overlay style: %v", err)
	}
	pl, err := pipeline.New(visionCfg)
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	if *once != "" {
		if err := runOnce(pl, style, *once, *out); err != nil {
			log.Fatalf("Failed to process %s: %v", *once, err)
		}
		return
	}

	camera, err := openSource(flag.Arg(0), *cameraName, *images)
	if err != nil {
		log.Fatalf("Failed to configure camera: %v", err)
	}

	if *dbPath == "" {
		*dbPath, err = defaultDBPath()
		if err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
	}
	st, err := store.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	runID := uuid.NewString()
	table := telemetry.NewTablePublisher(st, "")
	if err := table.Connect(runID); err != nil {
		log.Fatalf("Failed to publish to %s: %v", table.Table(), err)
	}
	defer func() {
		if err := table.Disconnect(); err != nil {
			log.Printf("Error clearing connected flag: %v", err)
		}
	}()
	log.Printf("Publishing to %s (run %s)", table.Table(), runID)

	frames := server.NewFrameBuffer()
	results := server.NewResultsHub()

	application, err := app.New(app.Config{
		Pipeline:  pl,
		Camera:    camera,
		Publisher: telemetry.Multi(table, results),
		Frames:    frames,
		Overlay:   &style,
		Debug:     *debug,
	})
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}

	if *addr != "" {
		if *staticDir == "" {
			*staticDir = findWebDir()
		}
		if *staticDir != "" {
			log.Printf("Serving static files from: %s", *staticDir)
		}

		srv := server.New(server.Config{
			StaticDir: *staticDir,
			Store:     st,
			Table:     table.Table(),
			RunID:     runID,
			Frames:    frames,
			Results:   results,
		})
		go func() {
			log.Printf("Starting server on %s", *addr)
			if err := srv.ListenAndServe(*addr); err != nil {
				log.Fatalf("Server failed: %v", err)
			}
		}()
	}

	if err := application.Start(); err != nil {
		log.Fatalf("Failed to start vision loop: %v", err)
	}
	defer application.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !*useTray {
		<-ctx.Done()
		return
	}

	t := tray.New()
	t.OnToggle(application.SetEnabled)
	t.OnDashboard(func() {
		log.Printf("Dashboard: http://localhost%s/", *addr)
	})
	application.OnResult(t.SetResult)
	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()
}

// openSource picks the frame source: replayed images when requested,
// otherwise a camera from the camera-server config at path.
func openSource(path, name, images string) (capture.Camera, error) {
	if images != "" {
		return capture.NewImageSource(images, 0, 0, true)
	}

	if path == "" {
		path = config.DefaultServerPath
	}
	srvCfg, err := config.LoadServer(path)
	if err != nil {
		return nil, err
	}
	log.Printf("Team %d, dashboard table in %s mode", srvCfg.Team, srvCfg.Mode)

	for _, c := range srvCfg.Cameras {
		if name == "" || c.Name == name {
			log.Printf("Using camera '%s' on %s", c.Name, c.Path)
			return capture.NewCamera(c.Capture()), nil
		}
	}
	return nil, fmt.Errorf("camera %q not found in %s", name, path)
}

// runOnce processes a single image and prints the result.
func runOnce(pl *pipeline.Pipeline, style overlay.Style, path, out string) error {
	frame, err := capture.LoadImage(path, 0, 0)
	if err != nil {
		return err
	}
	defer frame.Close()

	insp, err := pl.Inspect(&frame)
	if err != nil {
		return err
	}
	defer insp.Close()

	if out != "" {
		overlay.Draw(&insp.Frame, insp, style)
		if !gocv.IMWrite(out, insp.Frame) {
			return fmt.Errorf("could not write %s", out)
		}
	}

	data, err := json.MarshalIndent(insp.Result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func defaultDBPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	dbDir := filepath.Join(homeDir, ".targetvision")
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(dbDir, "targetvision.db"), nil
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.targetvision/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".targetvision", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
